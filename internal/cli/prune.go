package cli

import (
	"fmt"
	"os"

	"github.com/ppiankov/katharsis/internal/logging"
	"github.com/ppiankov/katharsis/internal/pipeline"
	"github.com/ppiankov/katharsis/internal/traversal"
	"github.com/spf13/cobra"
)

var (
	pruneAnalysis    string
	pruneGraph       string
	pruneResolutions string
	pruneJSON        string
	pruneMD          string
	pruneList        bool
)

// pruneCmd represents the prune command
var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Prune rejected claims out of the analyzed sources",
	Long: `Prune takes an analysis, an external claim graph, and the user's
resolutions of its forcing points, and rewrites every source text:
- Statements grounding surviving claims are kept verbatim
- Pruned content whose meaning survives elsewhere is removed outright
- Sole carriers of pruned content are skeletonized to bare content words

With --list, prune instead prints the forcing points still demanding an
answer and exits.

Example:
  katharsis prune --analysis analysis.json --graph claims.json --list
  katharsis prune --analysis analysis.json --graph claims.json \
    --resolutions answers.json --json pruned.json --md pruned.md`,
	RunE: runPrune,
}

func init() {
	rootCmd.AddCommand(pruneCmd)

	pruneCmd.Flags().StringVar(&pruneAnalysis, "analysis", "analysis.json", "analysis JSON from 'katharsis analyze'")
	pruneCmd.Flags().StringVar(&pruneGraph, "graph", "", "external claim graph JSON (required)")
	pruneCmd.Flags().StringVar(&pruneResolutions, "resolutions", "", "forcing-point resolutions JSON")
	pruneCmd.Flags().StringVar(&pruneJSON, "json", "pruned.json", "output JSON path")
	pruneCmd.Flags().StringVar(&pruneMD, "md", "", "output Markdown path (optional)")
	pruneCmd.Flags().BoolVar(&pruneList, "list", false, "list live forcing points and exit")
	_ = pruneCmd.MarkFlagRequired("graph")
}

func runPrune(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	graph, err := pipeline.LoadGraph(pruneGraph)
	if err != nil {
		return err
	}
	if verbose {
		for _, note := range graph.Dropped {
			fmt.Fprintf(os.Stderr, "graph: dropped %s\n", note)
		}
	}

	var resolutions []traversal.Resolution
	if pruneResolutions != "" {
		resolutions, err = pipeline.LoadResolutions(pruneResolutions)
		if err != nil {
			return err
		}
	}

	if pruneList {
		return listForcingPoints(graph, resolutions)
	}

	analysis, err := pipeline.LoadAnalysis(pruneAnalysis)
	if err != nil {
		return err
	}

	logger := logging.New(verbose)
	p, err := pipeline.New(cfg, logger)
	if err != nil {
		return err
	}

	result, err := p.Prune(analysis, graph, resolutions)
	if err != nil {
		return err
	}

	renderer := pipeline.NewRenderer(cfg.Output.IncludeFooter)
	if pruneJSON != "" {
		if err := renderer.RenderJSON(result, pruneJSON); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "Wrote JSON: %s\n", pruneJSON)
		}
	}
	if pruneMD != "" {
		if err := renderer.RenderPruneMarkdown(result, pruneMD); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "Wrote Markdown: %s\n", pruneMD)
		}
	}

	if result.Passthrough {
		fmt.Println("No claims pruned; sources unchanged.")
	} else {
		fmt.Printf("Protected: %d  Skeletonized: %d  Removed: %d\n",
			result.Summary.Protected, result.Summary.Skeletonized, result.Summary.Removed)
	}
	for _, line := range result.Summary.Audit {
		fmt.Printf("audit: %s\n", line)
	}
	return nil
}

// listForcingPoints replays the given resolutions and prints what is still
// live, conditionals before conflicts.
func listForcingPoints(graph *traversal.Graph, resolutions []traversal.Resolution) error {
	state := traversal.NewState(graph)
	for _, r := range resolutions {
		if err := state.Apply(r); err != nil {
			return fmt.Errorf("apply resolution: %w", err)
		}
	}

	live := state.Live()
	if len(live) == 0 {
		fmt.Println("No live forcing points; traversal is terminal.")
		return nil
	}
	for _, fp := range live {
		switch fp.Kind {
		case traversal.KindConditional:
			fmt.Printf("%s [conditional] %s (affects %v)\n", fp.ID, fp.Question, fp.Affected)
		case traversal.KindConflict:
			fmt.Printf("%s [conflict] %s (options %v)\n", fp.ID, fp.Question, fp.Options)
		}
	}
	return nil
}
