package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ppiankov/katharsis/internal/logging"
	"github.com/ppiankov/katharsis/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	analyzeJSON     string
	analyzeMD       string
	analyzeTimeout  time.Duration
	analyzeProvider string
	analyzeModel    string
	analyzeDim      int
	analyzeK        int
	analyzeWorkers  int
	analyzeNoCache  bool
	analyzeNoFooter bool
	analyzeNoLayout bool
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze <bundle>",
	Short: "Analyze a bundle of answer texts into an evidence substrate",
	Long: `Analyze reads a bundle file (YAML or JSON) holding one answer text per
source, then:
- Extracts stance-tagged statements and reconstructs paragraphs
- Embeds statements and paragraphs in two independent passes
- Builds the k-nearest-neighbor substrate with mutual and strong graphs
- Clusters paragraphs and partitions all nodes into regions

The analysis JSON is the input for an external claim authority and for the
prune command.

Example:
  katharsis analyze answers.yaml
  katharsis analyze answers.yaml --json analysis.json --md analysis.md
  katharsis analyze answers.yaml --provider openai --model text-embedding-3-small`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	// Output flags
	analyzeCmd.Flags().StringVar(&analyzeJSON, "json", "analysis.json", "output JSON path")
	analyzeCmd.Flags().StringVar(&analyzeMD, "md", "", "output Markdown path (optional)")
	analyzeCmd.Flags().BoolVar(&analyzeNoFooter, "no-footer", false, "disable footer in Markdown output")

	// Embedding flags
	analyzeCmd.Flags().StringVar(&analyzeProvider, "provider", "", "embedding provider (openai, ollama, hash)")
	analyzeCmd.Flags().StringVar(&analyzeModel, "model", "", "embedding model name")
	analyzeCmd.Flags().IntVar(&analyzeDim, "dim", 0, "embedding dimensionality (0 = configured default)")
	analyzeCmd.Flags().BoolVar(&analyzeNoCache, "no-cache", false, "disable the embedding vector cache")

	// Substrate flags
	analyzeCmd.Flags().IntVar(&analyzeK, "k", 0, "neighbors per node (0 = configured default)")
	analyzeCmd.Flags().BoolVar(&analyzeNoLayout, "no-layout", false, "skip the 2-D layout enrichment")

	analyzeCmd.Flags().IntVar(&analyzeWorkers, "workers", 0, "parallel workers (0 = configured default)")
	analyzeCmd.Flags().DurationVar(&analyzeTimeout, "timeout", 5*time.Minute, "overall analysis timeout")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), analyzeTimeout)
	defer cancel()

	cfg := loadConfig()
	if analyzeProvider != "" {
		cfg.Embedding.Provider = analyzeProvider
	}
	if analyzeModel != "" {
		cfg.Embedding.Model = analyzeModel
	}
	if analyzeDim > 0 {
		cfg.Embedding.Dim = analyzeDim
	}
	if analyzeK > 0 {
		cfg.Substrate.K = analyzeK
	}
	if analyzeWorkers > 0 {
		cfg.Concurrency.Workers = analyzeWorkers
	}
	if analyzeNoCache {
		cfg.Cache.Enabled = false
	}
	if analyzeNoLayout {
		cfg.Substrate.Layout = false
	}
	cfg.Output.IncludeFooter = !analyzeNoFooter
	if err := cfg.Validate(); err != nil {
		return err
	}

	bundle, err := pipeline.LoadBundle(args[0])
	if err != nil {
		return err
	}

	logger := logging.New(verbose)
	p, err := pipeline.New(cfg, logger)
	if err != nil {
		return err
	}

	analysis, err := p.Analyze(ctx, bundle)
	if err != nil {
		return fmt.Errorf("analyze failed: %w", err)
	}

	renderer := pipeline.NewRenderer(cfg.Output.IncludeFooter)
	if analyzeJSON != "" {
		if err := renderer.RenderJSON(analysis, analyzeJSON); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "Wrote JSON: %s\n", analyzeJSON)
		}
	}
	if analyzeMD != "" {
		if err := renderer.RenderAnalysisMarkdown(analysis, analyzeMD); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "Wrote Markdown: %s\n", analyzeMD)
		}
	}

	renderer.Summary(analysis)
	return nil
}
