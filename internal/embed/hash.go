package embed

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
)

// HashEmbedder is a deterministic in-process embedder for offline runs and
// tests. Vectors are derived from the text hash: identical texts embed
// identically, different texts land essentially orthogonal. It exercises the
// whole pipeline without any network call but carries no semantic geometry.
type HashEmbedder struct {
	dim int
}

// NewHashEmbedder creates a hash embedder producing raw vectors of the given
// dimensionality.
func NewHashEmbedder(dim int) *HashEmbedder {
	return &HashEmbedder{dim: dim}
}

// Name returns the provider name.
func (e *HashEmbedder) Name() string {
	return "hash"
}

// Available always reports true; there is nothing to reach.
func (e *HashEmbedder) Available(ctx context.Context) bool {
	return true
}

// EmbedBatch derives one deterministic vector per input.
func (e *HashEmbedder) EmbedBatch(ctx context.Context, inputs []Input) ([][]float32, error) {
	results := make([][]float32, len(inputs))
	for i, in := range inputs {
		results[i] = e.vector(in.Text)
	}
	return results, nil
}

// vector expands sha256(text) into dim floats in [-1, 1] by rehashing a
// counter-extended seed.
func (e *HashEmbedder) vector(text string) []float32 {
	seed := sha256.Sum256([]byte(text))
	vec := make([]float32, e.dim)

	var block [sha256.Size + 8]byte
	copy(block[:], seed[:])
	for i := 0; i < e.dim; i += sha256.Size / 4 {
		binary.BigEndian.PutUint64(block[sha256.Size:], uint64(i))
		digest := sha256.Sum256(block[:])
		for j := 0; j+4 <= sha256.Size && i+j/4 < e.dim; j += 4 {
			u := binary.BigEndian.Uint32(digest[j : j+4])
			vec[i+j/4] = float32(u)/float32(1<<31) - 1
		}
	}
	return vec
}
