package substrate

import (
	"fmt"

	"github.com/ppiankov/katharsis/internal/model"
)

// classifyShape maps global topology metrics to one of four coarse priors.
// The classification is purely descriptive: it informs presentation, never
// any downstream pruning decision.
func classifyShape(topo model.Topology, nodeCount int) model.Shape {
	evidence := []string{
		fmt.Sprintf("largest_ratio=%.6f", topo.LargestRatio),
		fmt.Sprintf("isolation_ratio=%.6f", topo.IsolationRatio),
		fmt.Sprintf("strong_density=%.6f", topo.StrongDensity),
		fmt.Sprintf("components=%d", len(topo.Components)),
	}

	if nodeCount == 0 {
		return model.Shape{Kind: model.ShapeFragmented, Confidence: 1, Evidence: append(evidence, "empty=true")}
	}

	// Sizes of the two largest components.
	s1, s2 := 0, 0
	multi := 0 // components with at least two members
	for _, c := range topo.Components {
		size := len(c.NodeIDs)
		if size > s1 {
			s1, s2 = size, s1
		} else if size > s2 {
			s2 = size
		}
		if size >= 2 {
			multi++
		}
	}
	r1 := float64(s1) / float64(nodeCount)
	r2 := float64(s2) / float64(nodeCount)

	switch {
	case topo.IsolationRatio >= 0.5:
		return model.Shape{
			Kind:       model.ShapeFragmented,
			Confidence: clamp01(topo.IsolationRatio),
			Evidence:   append(evidence, "rule=isolation_majority"),
		}

	case r1 >= 0.25 && r2 >= 0.25 && r1+r2 >= 0.7:
		return model.Shape{
			Kind:       model.ShapeBimodalFork,
			Confidence: clamp01(r2 / r1), // Balance between the two forks
			Evidence:   append(evidence, fmt.Sprintf("rule=two_large_components top2_ratio=%.6f", r1+r2)),
		}

	case r1 >= 0.6:
		return model.Shape{
			Kind:       model.ShapeConvergentCore,
			Confidence: clamp01(r1),
			Evidence:   append(evidence, "rule=dominant_component"),
		}

	case multi >= 3 && r1 < 0.6:
		return model.Shape{
			Kind:       model.ShapeParallelComponents,
			Confidence: clamp01(1 - r1),
			Evidence:   append(evidence, fmt.Sprintf("rule=many_components multi=%d", multi)),
		}

	default:
		return model.Shape{
			Kind:       model.ShapeFragmented,
			Confidence: clamp01(1 - r1),
			Evidence:   append(evidence, "rule=fallback"),
		}
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return Quantize(v)
}
