package embed

import (
	"context"

	"github.com/ppiankov/katharsis/internal/cache"
	"github.com/ppiankov/katharsis/internal/model"
	"github.com/ppiankov/katharsis/internal/worker"
)

// Service drives the embedding boundary for one pipeline run: batching, rate
// limiting, vector caching, and mandatory truncate+renormalize on receipt.
// Two independent passes are issued per run (statements, paragraphs); the
// paragraph pass is never pooled from statement vectors.
type Service struct {
	embedder  Embedder
	vectors   *cache.Vectors // nil disables caching
	limiter   *worker.Limiter
	modelName string
	dim       int
	batchSize int
}

// NewService wires an embedder with its cache and limiter. vectors may be
// nil to disable caching.
func NewService(embedder Embedder, vectors *cache.Vectors, cfg model.EmbeddingConfig) *Service {
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = 64
	}
	return &Service{
		embedder:  embedder,
		vectors:   vectors,
		limiter:   worker.NewLimiter(cfg.RPS, cfg.Burst),
		modelName: cfg.Model,
		dim:       cfg.Dim,
		batchSize: batch,
	}
}

// EmbedAll embeds every input and returns the resulting space plus the ids
// that got no vector. A missing id is the single failure mode: the space
// simply lacks the entry, and downstream stages degrade to isolated nodes.
// A non-nil error means the provider failed wholesale.
func (s *Service) EmbedAll(ctx context.Context, inputs []Input) (model.Space, []string, error) {
	space := model.NewSpace(s.dim)
	var missing []string

	// Cache pass first: only uncached inputs go to the provider.
	var pending []Input
	for _, in := range inputs {
		if s.vectors != nil {
			key := cache.VectorKey(s.embedder.Name(), s.modelName, s.dim, in.Text)
			if vec := s.vectors.Get(key); vec != nil {
				space.Vectors[in.ID] = vec
				continue
			}
		}
		pending = append(pending, in)
	}

	for start := 0; start < len(pending); start += s.batchSize {
		end := start + s.batchSize
		if end > len(pending) {
			end = len(pending)
		}
		batch := pending[start:end]

		if err := s.limiter.Wait(ctx); err != nil {
			return space, missing, err
		}
		raw, err := s.embedder.EmbedBatch(ctx, batch)
		if err != nil {
			return space, missing, err
		}

		for i, in := range batch {
			var vec []float32
			if i < len(raw) && raw[i] != nil {
				vec = Normalize(raw[i], s.dim)
			}
			if vec == nil {
				missing = append(missing, in.ID)
				continue
			}
			space.Vectors[in.ID] = vec
			if s.vectors != nil {
				key := cache.VectorKey(s.embedder.Name(), s.modelName, s.dim, in.Text)
				_ = s.vectors.Set(key, vec)
			}
		}
	}

	return space, missing, nil
}
