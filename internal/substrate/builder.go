// Package substrate builds the similarity graphs, topology and shape
// classification over paragraph embeddings. Construction is O(n^2) in node
// count by design (full pairwise similarity) and fully deterministic: all
// similarities are quantized before any comparison, and every ordering has an
// explicit tie-break.
package substrate

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/ppiankov/katharsis/internal/embed"
	"github.com/ppiankov/katharsis/internal/model"
	"github.com/ppiankov/katharsis/internal/worker"
)

// quantumScale fixes similarity precision at 1e-6. Quantizing before
// comparison eliminates floating-point backend drift between runs and
// thread counts.
const quantumScale = 1e6

// Quantize rounds a similarity to the fixed precision. Dividing by the
// exactly-representable 1e6 keeps quantized values equal to their decimal
// literals, so clamp bounds and thresholds compare exactly.
func Quantize(v float64) float64 {
	return math.Round(v*quantumScale) / quantumScale
}

type neighbor struct {
	id   string
	sim  float64
	rank int // 1-based rank in the owner's top-K list
}

// Build constructs the substrate for the given paragraphs and embedding
// space. Degenerate inputs (fewer than two paragraphs, no embeddings, or all
// similarities collapsed to one) return a well-formed substrate tagged with a
// reason instead of an error.
func Build(ctx context.Context, paragraphs []model.Paragraph, space model.Space, cfg model.SubstrateConfig, workers int) *model.Substrate {
	sub := &model.Substrate{}
	for _, p := range paragraphs {
		sub.Nodes = append(sub.Nodes, model.Node{
			ID:           p.ID,
			Source:       p.Source,
			Stance:       p.Stance,
			Contested:    p.Contested,
			StatementIDs: append([]string(nil), p.StatementIDs...),
			Degree:       map[string]int{model.GraphKNN: 0, model.GraphMutual: 0, model.GraphStrong: 0},
			Isolation:    1,
		})
	}

	if len(sub.Nodes) < 2 {
		return finishDegenerate(sub, model.DegenerateTooFewParagraphs, cfg)
	}

	embedded := make([]int, 0, len(sub.Nodes))
	for i := range sub.Nodes {
		if space.Has(sub.Nodes[i].ID) {
			embedded = append(embedded, i)
		}
	}
	if len(embedded) == 0 {
		return finishDegenerate(sub, model.DegenerateMissingEmbeddings, cfg)
	}

	// Pairwise similarity rows, parallelized per node; row content depends
	// only on the row index, so output is identical at any worker count.
	sims := worker.Map(ctx, workers, len(embedded), func(i int) []float64 {
		row := make([]float64, len(embedded))
		vi := space.Get(sub.Nodes[embedded[i]].ID)
		for j := range embedded {
			if j == i {
				row[j] = 1
				continue
			}
			row[j] = Quantize(embed.Cosine(vi, space.Get(sub.Nodes[embedded[j]].ID)))
		}
		return row
	})

	if len(embedded) >= 2 && allIdentical(sims) {
		for _, ni := range embedded {
			sub.Nodes[ni].Best = 1
			sub.Nodes[ni].MeanTopK = 1
		}
		return finishDegenerate(sub, model.DegenerateAllEmbeddingsIdentical, cfg)
	}

	// Directed top-K neighbor lists, sorted by (similarity desc, id asc).
	directed := make(map[string][]neighbor, len(embedded))
	for i, ni := range embedded {
		var cands []neighbor
		for j, nj := range embedded {
			if j == i {
				continue
			}
			cands = append(cands, neighbor{id: sub.Nodes[nj].ID, sim: sims[i][j]})
		}
		sort.Slice(cands, func(a, b int) bool {
			if cands[a].sim != cands[b].sim {
				return cands[a].sim > cands[b].sim
			}
			return cands[a].id < cands[b].id
		})
		if len(cands) > cfg.K {
			cands = cands[:cfg.K]
		}
		var sum float64
		for r := range cands {
			cands[r].rank = r + 1
			sum += cands[r].sim
		}
		directed[sub.Nodes[ni].ID] = cands
		if len(cands) > 0 {
			sub.Nodes[ni].Best = cands[0].sim
			sub.Nodes[ni].MeanTopK = Quantize(sum / float64(len(cands)))
		}
	}

	sub.Threshold = softThreshold(sub, embedded, cfg)
	sub.KNN, sub.Mutual, sub.Strong = buildGraphs(directed, sub.Threshold)

	byID := make(map[string]int, len(sub.Nodes))
	for i := range sub.Nodes {
		byID[sub.Nodes[i].ID] = i
	}
	countDegrees(sub, byID, cfg.K)

	sub.Topology = buildTopology(sub.Nodes, sub.Strong, byID)
	sub.Shape = classifyShape(sub.Topology, len(sub.Nodes))
	if cfg.Layout {
		applyLayout(sub)
	}
	return sub
}

// softThreshold derives the strong-graph cutoff from the distribution of
// best-neighbor similarities: the configured percentile, clamped.
func softThreshold(sub *model.Substrate, embedded []int, cfg model.SubstrateConfig) float64 {
	best := make([]float64, 0, len(embedded))
	for _, ni := range embedded {
		best = append(best, sub.Nodes[ni].Best)
	}
	sort.Float64s(best)
	idx := int(cfg.Percentile * float64(len(best)))
	if idx >= len(best) {
		idx = len(best) - 1
	}
	th := best[idx]
	if th < cfg.ClampLo {
		th = cfg.ClampLo
	}
	if th > cfg.ClampHi {
		th = cfg.ClampHi
	}
	return Quantize(th)
}

type pairKey struct{ a, b string }

func orderedPair(x, y string) pairKey {
	if x < y {
		return pairKey{x, y}
	}
	return pairKey{y, x}
}

// buildGraphs derives the three graphs from the directed top-K lists:
// knn = symmetric union, mutual = both parties rank each other, strong =
// mutual filtered at the soft threshold.
func buildGraphs(directed map[string][]neighbor, threshold float64) (knn, mutual, strong model.Graph) {
	type edgeInfo struct {
		sim     float64
		minRank int
		both    bool
	}
	edges := make(map[pairKey]*edgeInfo)
	for id, neighbors := range directed {
		for _, n := range neighbors {
			key := orderedPair(id, n.id)
			if e, ok := edges[key]; ok {
				if n.rank < e.minRank {
					e.minRank = n.rank
				}
				e.both = true
			} else {
				edges[key] = &edgeInfo{sim: n.sim, minRank: n.rank}
			}
		}
	}

	keys := make([]pairKey, 0, len(edges))
	for k := range edges {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].a != keys[j].a {
			return keys[i].a < keys[j].a
		}
		return keys[i].b < keys[j].b
	})

	for _, k := range keys {
		e := edges[k]
		edge := model.Edge{A: k.a, B: k.b, Similarity: e.sim, Rank: e.minRank}
		knn.Edges = append(knn.Edges, edge)
		if e.both {
			mutual.Edges = append(mutual.Edges, edge)
			if e.sim >= threshold {
				strong.Edges = append(strong.Edges, edge)
			}
		}
	}
	return knn, mutual, strong
}

func countDegrees(sub *model.Substrate, byID map[string]int, k int) {
	count := func(name string, g model.Graph) {
		for _, e := range g.Edges {
			sub.Nodes[byID[e.A]].Degree[name]++
			sub.Nodes[byID[e.B]].Degree[name]++
		}
	}
	count(model.GraphKNN, sub.KNN)
	count(model.GraphMutual, sub.Mutual)
	count(model.GraphStrong, sub.Strong)

	for i := range sub.Nodes {
		strongDeg := sub.Nodes[i].Degree[model.GraphStrong]
		frac := float64(strongDeg) / float64(k)
		if frac > 1 {
			frac = 1
		}
		sub.Nodes[i].Isolation = Quantize(1 - frac)
	}
}

// allIdentical reports whether every pairwise similarity collapsed to one.
func allIdentical(sims [][]float64) bool {
	for i := range sims {
		for j := range sims[i] {
			if sims[i][j] != 1 {
				return false
			}
		}
	}
	return true
}

// finishDegenerate completes a degenerate substrate: empty graphs, singleton
// components, every node isolated.
func finishDegenerate(sub *model.Substrate, reason string, cfg model.SubstrateConfig) *model.Substrate {
	sub.Degenerate = true
	sub.DegenerateReason = reason

	byID := make(map[string]int, len(sub.Nodes))
	for i := range sub.Nodes {
		byID[sub.Nodes[i].ID] = i
		sub.Nodes[i].Isolation = 1
	}
	sub.Topology = buildTopology(sub.Nodes, model.Graph{}, byID)
	sub.Shape = model.Shape{
		Kind:       model.ShapeFragmented,
		Confidence: 1,
		Evidence:   []string{"degenerate=" + reason, fmt.Sprintf("nodes=%d", len(sub.Nodes))},
	}
	if cfg.Layout {
		applyLayout(sub)
	}
	return sub
}
