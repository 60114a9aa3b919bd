// Package embed is the embedding boundary: it turns (id, text) batches into
// fixed-dimensionality, L2-normalized vectors via an out-of-process provider.
package embed

import (
	"context"
	"fmt"
	"math"
	"strings"
)

// Input is one unit of text to embed, keyed by statement or paragraph id.
type Input struct {
	ID   string
	Text string
}

// Embedder is the provider port. EmbedBatch returns one raw vector per input,
// positionally aligned; a nil vector at position i marks a per-id failure.
type Embedder interface {
	// Name returns the provider name.
	Name() string

	// Available reports whether the provider is configured and reachable.
	Available(ctx context.Context) bool

	// EmbedBatch embeds the given texts. result[i] corresponds to inputs[i];
	// nil marks a missing vector for that id.
	EmbedBatch(ctx context.Context, inputs []Input) ([][]float32, error)
}

// BatchError is the typed failure for a batch call that lost specific ids.
type BatchError struct {
	Provider string
	Missing  []string
	Err      error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("%s: no vector for ids [%s]: %v", e.Provider, strings.Join(e.Missing, ", "), e.Err)
}

func (e *BatchError) Unwrap() error {
	return e.Err
}

// Normalize truncates a raw vector to dim (prefix slice) and L2-renormalizes
// the result. This step is part of the embedding's identity: every consumer
// sees only truncated, renormalized vectors. A vector shorter than dim is
// malformed and yields nil; a zero vector stays zero.
func Normalize(vec []float32, dim int) []float32 {
	if len(vec) < dim {
		return nil
	}
	out := make([]float32, dim)
	copy(out, vec[:dim])

	var norm float64
	for _, v := range out {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return out
	}
	inv := 1 / math.Sqrt(norm)
	for i := range out {
		out[i] = float32(float64(out[i]) * inv)
	}
	return out
}

// Cosine computes cosine similarity between two vectors. Mismatched or empty
// vectors yield 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
