package embed

import (
	"fmt"
	"strings"

	"github.com/ppiankov/katharsis/internal/model"
)

// NewEmbedder creates the configured embedding provider.
func NewEmbedder(cfg model.EmbeddingConfig) (Embedder, error) {
	switch strings.ToLower(cfg.Provider) {
	case "openai":
		return NewOpenAIEmbedder(cfg)

	case "ollama":
		return NewOllamaEmbedder(cfg)

	case "hash", "":
		return NewHashEmbedder(cfg.Dim), nil

	default:
		return nil, fmt.Errorf("unknown embedding provider: %s (supported: openai, ollama, hash)", cfg.Provider)
	}
}
