package embed

import (
	"context"
	"math"
	"testing"

	"github.com/ppiankov/katharsis/internal/model"
)

func TestNormalize(t *testing.T) {
	got := Normalize([]float32{3, 4, 100, 100}, 2)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	var norm float64
	for _, v := range got {
		norm += float64(v) * float64(v)
	}
	if math.Abs(norm-1) > 1e-6 {
		t.Errorf("norm = %v, want 1", norm)
	}
	if math.Abs(float64(got[0])-0.6) > 1e-6 || math.Abs(float64(got[1])-0.8) > 1e-6 {
		t.Errorf("vector = %v, want [0.6 0.8]", got)
	}
}

func TestNormalizeShortVectorIsNil(t *testing.T) {
	if got := Normalize([]float32{1, 2}, 3); got != nil {
		t.Errorf("short vector normalized to %v, want nil", got)
	}
}

func TestNormalizeZeroVectorStaysZero(t *testing.T) {
	got := Normalize([]float32{0, 0, 0}, 3)
	if got == nil {
		t.Fatal("zero vector should survive normalization")
	}
	for _, v := range got {
		if v != 0 {
			t.Errorf("vector = %v, want zeros", got)
		}
	}
}

func TestCosine(t *testing.T) {
	tests := []struct {
		a, b []float32
		want float64
	}{
		{[]float32{1, 0}, []float32{1, 0}, 1},
		{[]float32{1, 0}, []float32{0, 1}, 0},
		{[]float32{1, 0}, []float32{-1, 0}, -1},
		{[]float32{1, 0}, []float32{1, 0, 0}, 0}, // dim mismatch
		{nil, nil, 0},
	}
	for _, tt := range tests {
		if got := Cosine(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Cosine(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestHashEmbedderDeterministic(t *testing.T) {
	e := NewHashEmbedder(64)
	inputs := []Input{{ID: "a", Text: "the same text"}, {ID: "b", Text: "another text"}}

	first, err := e.EmbedBatch(context.Background(), inputs)
	if err != nil {
		t.Fatal(err)
	}
	second, err := e.EmbedBatch(context.Background(), inputs)
	if err != nil {
		t.Fatal(err)
	}
	for i := range first {
		if len(first[i]) != 64 {
			t.Fatalf("dim = %d, want 64", len(first[i]))
		}
		for j := range first[i] {
			if first[i][j] != second[i][j] {
				t.Fatalf("vector %d differs between runs at %d", i, j)
			}
		}
	}
	// Different texts must not collide.
	same := true
	for j := range first[0] {
		if first[0][j] != first[1][j] {
			same = false
			break
		}
	}
	if same {
		t.Error("distinct texts produced identical vectors")
	}
	for _, v := range first[0] {
		if v < -1 || v > 1 {
			t.Errorf("component %v outside [-1, 1]", v)
		}
	}
}

func TestFactory(t *testing.T) {
	cfg := model.DefaultConfig().Embedding
	e, err := NewEmbedder(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if e.Name() != "hash" {
		t.Errorf("default provider = %s, want hash", e.Name())
	}

	cfg.Provider = "carrier-pigeon"
	if _, err := NewEmbedder(cfg); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestServiceEmbedAll(t *testing.T) {
	cfg := model.DefaultConfig().Embedding
	cfg.Dim = 16
	cfg.RPS = 0 // unlimited in tests
	svc := NewService(NewHashEmbedder(16), nil, cfg)

	inputs := []Input{{ID: "p0", Text: "alpha"}, {ID: "p1", Text: "beta"}}
	space, missing, err := svc.EmbedAll(context.Background(), inputs)
	if err != nil {
		t.Fatal(err)
	}
	if len(missing) != 0 {
		t.Errorf("missing = %v", missing)
	}
	if space.Len() != 2 || space.Dim != 16 {
		t.Fatalf("space = %d vectors dim %d", space.Len(), space.Dim)
	}
	for _, id := range []string{"p0", "p1"} {
		vec := space.Get(id)
		var norm float64
		for _, v := range vec {
			norm += float64(v) * float64(v)
		}
		if math.Abs(norm-1) > 1e-5 {
			t.Errorf("%s not renormalized: norm = %v", id, norm)
		}
	}
}
