package model

import (
	"fmt"
	"time"
)

// Config is the full runtime configuration.
type Config struct {
	Embedding   EmbeddingConfig   `json:"embedding" yaml:"embedding"`
	Cache       CacheConfig       `json:"cache" yaml:"cache"`
	Extract     ExtractConfig     `json:"extract" yaml:"extract"`
	Substrate   SubstrateConfig   `json:"substrate" yaml:"substrate"`
	Cluster     ClusterConfig     `json:"cluster" yaml:"cluster"`
	Triage      TriageConfig      `json:"triage" yaml:"triage"`
	Concurrency ConcurrencyConfig `json:"concurrency" yaml:"concurrency"`
	Output      OutputConfig      `json:"output" yaml:"output"`
}

// EmbeddingConfig configures the embedding boundary.
type EmbeddingConfig struct {
	Provider  string        `json:"provider" yaml:"provider"` // openai, ollama, hash
	Model     string        `json:"model" yaml:"model"`
	APIKey    string        `json:"-" yaml:"-"` // From environment only, never serialized
	BaseURL   string        `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Dim       int           `json:"dim" yaml:"dim"` // Fixed dimensionality contract
	Timeout   time.Duration `json:"timeout" yaml:"timeout"`
	BatchSize int           `json:"batch_size" yaml:"batch_size"`
	RPS       float64       `json:"rps" yaml:"rps"` // Batch calls per second
	Burst     int           `json:"burst" yaml:"burst"`

	// Proxy settings for HTTP providers
	HTTPProxy  string `json:"http_proxy,omitempty" yaml:"http_proxy,omitempty"`
	HTTPSProxy string `json:"https_proxy,omitempty" yaml:"https_proxy,omitempty"`
}

// CacheConfig configures the embedding vector cache.
type CacheConfig struct {
	Enabled   bool          `json:"enabled" yaml:"enabled"`
	Dir       string        `json:"dir" yaml:"dir"`
	MemoryTTL time.Duration `json:"memory_ttl" yaml:"memory_ttl"`
	DiskTTL   time.Duration `json:"disk_ttl" yaml:"disk_ttl"`
}

// ExtractConfig configures statement extraction.
type ExtractConfig struct {
	StripHTML     bool `json:"strip_html" yaml:"strip_html"`
	MinWords      int  `json:"min_words" yaml:"min_words"`
	MaxSentences  int  `json:"max_sentences" yaml:"max_sentences"`   // Hard cap per source
	MaxCandidates int  `json:"max_candidates" yaml:"max_candidates"` // Hard cap per source
}

// SubstrateConfig configures substrate construction.
type SubstrateConfig struct {
	K          int     `json:"k" yaml:"k"` // Top-K neighbors
	Percentile float64 `json:"percentile" yaml:"percentile"`
	ClampLo    float64 `json:"clamp_lo" yaml:"clamp_lo"`
	ClampHi    float64 `json:"clamp_hi" yaml:"clamp_hi"`
	Layout     bool    `json:"layout" yaml:"layout"` // Compute the optional 2-D layout
}

// ClusterConfig configures hierarchical clustering.
type ClusterConfig struct {
	SimilarityCutoff float64 `json:"similarity_cutoff" yaml:"similarity_cutoff"` // Merge stop at 1-cutoff distance
	MutualDiscount   float64 `json:"mutual_discount" yaml:"mutual_discount"`
	SizeCeiling      int     `json:"size_ceiling" yaml:"size_ceiling"` // Advisory only
	MinParagraphs    int     `json:"min_paragraphs" yaml:"min_paragraphs"`
}

// TriageConfig configures carrier detection and the paraphrase sweep.
type TriageConfig struct {
	CarrierCentroid    float64 `json:"carrier_centroid" yaml:"carrier_centroid"`
	CarrierStatement   float64 `json:"carrier_statement" yaml:"carrier_statement"`
	ParagraphPrefilter float64 `json:"paragraph_prefilter" yaml:"paragraph_prefilter"`
	Paraphrase         float64 `json:"paraphrase" yaml:"paraphrase"`
}

// ConcurrencyConfig bounds internal parallelism. Output is byte-identical
// regardless of worker count.
type ConcurrencyConfig struct {
	Workers int `json:"workers" yaml:"workers"`
}

// OutputConfig controls rendering.
type OutputConfig struct {
	Verbose       bool `json:"verbose" yaml:"verbose"`
	IncludeFooter bool `json:"include_footer" yaml:"include_footer"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Embedding: EmbeddingConfig{
			Provider:  "hash",
			Model:     "",
			Dim:       256,
			Timeout:   60 * time.Second,
			BatchSize: 64,
			RPS:       2,
			Burst:     2,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       "", // Resolved to ~/.katharsis/cache at startup
			MemoryTTL: 30 * time.Minute,
			DiskTTL:   14 * 24 * time.Hour,
		},
		Extract: ExtractConfig{
			StripHTML:     true,
			MinWords:      4,
			MaxSentences:  400,
			MaxCandidates: 250,
		},
		Substrate: SubstrateConfig{
			K:          5,
			Percentile: 0.80,
			ClampLo:    0.55,
			ClampHi:    0.78,
			Layout:     true,
		},
		Cluster: ClusterConfig{
			SimilarityCutoff: 0.72,
			MutualDiscount:   0.9,
			SizeCeiling:      8,
			MinParagraphs:    3,
		},
		Triage: TriageConfig{
			CarrierCentroid:    0.6,
			CarrierStatement:   0.6,
			ParagraphPrefilter: 0.5,
			Paraphrase:         0.85,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		Output: OutputConfig{
			Verbose:       false,
			IncludeFooter: true,
		},
	}
}

// Validate rejects configuration that cannot produce meaningful output.
// This is the only fatal validation; everything else degrades to tagged
// partial results.
func (c *Config) Validate() error {
	if c.Embedding.Dim <= 0 {
		return fmt.Errorf("embedding.dim must be positive, got %d", c.Embedding.Dim)
	}
	if c.Substrate.K <= 0 {
		return fmt.Errorf("substrate.k must be positive, got %d", c.Substrate.K)
	}
	return nil
}
