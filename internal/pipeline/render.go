package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/katharsis/internal/model"
)

// Renderer writes analysis and pruning output as JSON or Markdown.
type Renderer struct {
	includeFooter bool
}

// NewRenderer creates a renderer.
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter}
}

// RenderJSON writes v as indented JSON to path.
func (r *Renderer) RenderJSON(v any, path string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// RenderAnalysisMarkdown writes a human-readable analysis summary.
func (r *Renderer) RenderAnalysisMarkdown(a *model.Analysis, path string) error {
	return os.WriteFile(path, []byte(r.AnalysisMarkdown(a)), 0o644)
}

// AnalysisMarkdown renders the analysis summary document.
func (r *Renderer) AnalysisMarkdown(a *model.Analysis) string {
	var b strings.Builder
	b.WriteString("# Evidence Analysis\n\n")
	if a.Query != "" {
		fmt.Fprintf(&b, "**Query:** %s\n\n", a.Query)
	}
	fmt.Fprintf(&b, "**Sources:** %d | **Statements:** %d | **Paragraphs:** %d\n\n",
		a.Sources, len(a.Statements), len(a.Paragraphs))

	if sub := a.Substrate; sub != nil {
		b.WriteString("## Substrate\n\n")
		if sub.Degenerate {
			fmt.Fprintf(&b, "Degenerate: %s\n\n", sub.DegenerateReason)
		}
		fmt.Fprintf(&b, "- Shape: **%s** (confidence %.2f)\n", sub.Shape.Kind, sub.Shape.Confidence)
		fmt.Fprintf(&b, "- Threshold: %.4f\n", sub.Threshold)
		fmt.Fprintf(&b, "- Components: %d (largest ratio %.2f)\n", len(sub.Topology.Components), sub.Topology.LargestRatio)
		fmt.Fprintf(&b, "- Isolation ratio: %.2f, strong density: %.4f\n\n",
			sub.Topology.IsolationRatio, sub.Topology.StrongDensity)
	}

	if len(a.Clustering.Clusters) > 0 {
		b.WriteString("## Clusters\n\n")
		if a.Clustering.Skipped {
			fmt.Fprintf(&b, "Clustering skipped (%s); singletons only.\n\n", a.Clustering.Reason)
		}
		b.WriteString("| Cluster | Size | Cohesion | Flags |\n|---|---|---|---|\n")
		for _, c := range a.Clustering.Clusters {
			fmt.Fprintf(&b, "| %s | %d | %.2f | %s |\n",
				c.ID, len(c.Members), c.Cohesion, strings.Join(c.Flags, ", "))
		}
		b.WriteString("\n")
	}

	if len(a.Regions) > 0 {
		b.WriteString("## Regions\n\n")
		b.WriteString("| Region | Kind | Nodes | Sources | Diversity | Density | Mean sim |\n|---|---|---|---|---|---|---|\n")
		for _, reg := range a.Regions {
			fmt.Fprintf(&b, "| %s | %s | %d | %d | %.2f | %.2f | %.2f |\n",
				reg.ID, reg.Kind, reg.NodeCount, reg.SourceCount,
				reg.SourceDiversity, reg.Density, reg.MeanSimilarity)
		}
		b.WriteString("\n")
	}

	if len(a.Warnings) > 0 {
		b.WriteString("## Warnings\n\n")
		for _, w := range a.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
		b.WriteString("\n")
	}

	if r.includeFooter {
		fmt.Fprintf(&b, "---\nGenerated by katharsis at %s\n", a.CreatedAt.Format("2006-01-02 15:04:05 UTC"))
	}
	return b.String()
}

// RenderPruneMarkdown writes the pruning result as Markdown: verdict counts,
// the audit trail and the rewritten sources.
func (r *Renderer) RenderPruneMarkdown(res *model.PruneResult, path string) error {
	var b strings.Builder
	b.WriteString("# Pruned Sources\n\n")
	if res.Passthrough {
		b.WriteString("No claims pruned; all sources pass through unchanged.\n\n")
	} else {
		fmt.Fprintf(&b, "**Protected:** %d | **Skeletonized:** %d | **Removed:** %d\n\n",
			res.Summary.Protected, res.Summary.Skeletonized, res.Summary.Removed)
	}
	if len(res.Summary.Audit) > 0 {
		b.WriteString("## Audit\n\n")
		for _, line := range res.Summary.Audit {
			fmt.Fprintf(&b, "- %s\n", line)
		}
		b.WriteString("\n")
	}
	for _, out := range res.Outputs {
		fmt.Fprintf(&b, "## Source %d\n\n%s\n\n", out.Source, out.Text)
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

// Summary prints a one-screen analysis digest to stdout.
func (r *Renderer) Summary(a *model.Analysis) {
	fmt.Printf("Sources: %d  Statements: %d  Paragraphs: %d\n",
		a.Sources, len(a.Statements), len(a.Paragraphs))
	if sub := a.Substrate; sub != nil {
		fmt.Printf("Shape: %s (%.2f)  Components: %d  Isolation: %.2f\n",
			sub.Shape.Kind, sub.Shape.Confidence,
			len(sub.Topology.Components), sub.Topology.IsolationRatio)
	}
	if !a.Clustering.Skipped {
		fmt.Printf("Clusters: %d\n", len(a.Clustering.Clusters))
	}
	fmt.Printf("Regions: %d\n", len(a.Regions))
	for _, w := range a.Warnings {
		fmt.Printf("warning: %s\n", w)
	}
}
