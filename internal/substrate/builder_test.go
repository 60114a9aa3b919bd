package substrate

import (
	"context"
	"math"
	"reflect"
	"testing"

	"github.com/ppiankov/katharsis/internal/model"
)

func testCfg() model.SubstrateConfig {
	cfg := model.DefaultConfig().Substrate
	cfg.Layout = false
	return cfg
}

func unitVec(angle float64) []float32 {
	return []float32{float32(math.Cos(angle)), float32(math.Sin(angle))}
}

func makeParagraphs(n int) []model.Paragraph {
	out := make([]model.Paragraph, n)
	for i := range out {
		out[i] = model.Paragraph{
			ID:     "p" + string(rune('0'+i)),
			Source: i % 3,
			Stance: model.StanceAssertive,
		}
	}
	return out
}

func TestBuildTooFewParagraphs(t *testing.T) {
	paras := makeParagraphs(1)
	space := model.NewSpace(2)
	space.Vectors["p0"] = unitVec(0)

	sub := Build(context.Background(), paras, space, testCfg(), 1)
	if !sub.Degenerate || sub.DegenerateReason != model.DegenerateTooFewParagraphs {
		t.Fatalf("degenerate = %v/%s", sub.Degenerate, sub.DegenerateReason)
	}
	if sub.Shape.Kind != model.ShapeFragmented || sub.Shape.Confidence != 1 {
		t.Errorf("shape = %+v", sub.Shape)
	}
}

func TestBuildMissingEmbeddings(t *testing.T) {
	sub := Build(context.Background(), makeParagraphs(4), model.NewSpace(2), testCfg(), 1)
	if !sub.Degenerate || sub.DegenerateReason != model.DegenerateMissingEmbeddings {
		t.Fatalf("degenerate = %v/%s", sub.Degenerate, sub.DegenerateReason)
	}
	for _, n := range sub.Nodes {
		if n.Isolation != 1 {
			t.Errorf("node %s isolation = %v, want 1", n.ID, n.Isolation)
		}
	}
}

func TestBuildAllIdenticalEmbeddings(t *testing.T) {
	paras := makeParagraphs(5)
	space := model.NewSpace(2)
	for _, p := range paras {
		space.Vectors[p.ID] = unitVec(0.3)
	}

	sub := Build(context.Background(), paras, space, testCfg(), 1)
	if !sub.Degenerate || sub.DegenerateReason != model.DegenerateAllEmbeddingsIdentical {
		t.Fatalf("degenerate = %v/%s", sub.Degenerate, sub.DegenerateReason)
	}
	for _, n := range sub.Nodes {
		if n.Best != 1 || n.MeanTopK != 1 {
			t.Errorf("node %s best/meanTopK = %v/%v, want 1/1", n.ID, n.Best, n.MeanTopK)
		}
		if n.Isolation != 1 {
			t.Errorf("node %s isolation = %v, want 1", n.ID, n.Isolation)
		}
	}
	if len(sub.Strong.Edges) != 0 {
		t.Errorf("degenerate substrate has %d strong edges", len(sub.Strong.Edges))
	}
}

func TestBuildTwoTightGroups(t *testing.T) {
	// Two groups of three nearly parallel vectors, groups roughly orthogonal.
	paras := makeParagraphs(6)
	space := model.NewSpace(2)
	for i := 0; i < 3; i++ {
		space.Vectors[paras[i].ID] = unitVec(0.01 * float64(i))
	}
	for i := 3; i < 6; i++ {
		space.Vectors[paras[i].ID] = unitVec(math.Pi/2 + 0.01*float64(i))
	}

	sub := Build(context.Background(), paras, space, testCfg(), 1)
	if sub.Degenerate {
		t.Fatalf("unexpected degenerate: %s", sub.DegenerateReason)
	}
	if len(sub.Topology.Components) != 2 {
		t.Fatalf("components = %d, want 2", len(sub.Topology.Components))
	}
	for _, e := range sub.Strong.Edges {
		if e.A >= e.B {
			t.Errorf("edge not ordered: %s >= %s", e.A, e.B)
		}
		if e.Similarity < sub.Threshold {
			t.Errorf("strong edge %s-%s below threshold", e.A, e.B)
		}
	}
	if sub.Shape.Kind != model.ShapeBimodalFork {
		t.Errorf("shape = %s, want %s", sub.Shape.Kind, model.ShapeBimodalFork)
	}
}

func TestBuildDeterministicAcrossWorkerCounts(t *testing.T) {
	paras := makeParagraphs(8)
	space := model.NewSpace(2)
	for i, p := range paras {
		space.Vectors[p.ID] = unitVec(0.4 * float64(i))
	}
	cfg := testCfg()
	cfg.Layout = true

	one := Build(context.Background(), paras, space, cfg, 1)
	four := Build(context.Background(), paras, space, cfg, 4)

	if !reflect.DeepEqual(one, four) {
		t.Error("substrate differs between 1 and 4 workers")
	}
}

func TestThresholdClamped(t *testing.T) {
	// Tightly packed but distinct vectors push the percentile above the
	// upper clamp.
	paras := makeParagraphs(4)
	space := model.NewSpace(2)
	for i, p := range paras {
		space.Vectors[p.ID] = unitVec(0.05 * float64(i))
	}
	cfg := testCfg()
	sub := Build(context.Background(), paras, space, cfg, 1)
	if sub.Degenerate {
		t.Fatalf("unexpected degenerate: %s", sub.DegenerateReason)
	}
	if sub.Threshold != cfg.ClampHi {
		t.Errorf("threshold = %v, want clamp %v", sub.Threshold, cfg.ClampHi)
	}
}

func TestQuantize(t *testing.T) {
	if Quantize(0.1234567) != 0.123457 {
		t.Errorf("Quantize(0.1234567) = %v", Quantize(0.1234567))
	}
	if Quantize(1.0000001) != 1.0 {
		t.Errorf("Quantize(1.0000001) = %v", Quantize(1.0000001))
	}
	// Quantized values must equal their decimal literals so comparisons
	// against configured bounds are exact.
	for _, v := range []float64{0.55, 0.72, 0.78} {
		if Quantize(v) != v {
			t.Errorf("Quantize(%v) = %v", v, Quantize(v))
		}
	}
}
