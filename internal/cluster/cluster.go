// Package cluster groups paragraph embeddings by hierarchical agglomerative
// clustering with average linkage. Distance evaluation is O(n^2) per merge
// round by design; candidate order and all tie-breaks are deterministic.
package cluster

import (
	"fmt"
	"math"
	"sort"

	"github.com/ppiankov/katharsis/internal/embed"
	"github.com/ppiankov/katharsis/internal/model"
	"github.com/ppiankov/katharsis/internal/substrate"
)

// Run clusters the embedded paragraphs. With fewer than MinParagraphs or no
// embeddings at all, clustering is skipped: every paragraph becomes its own
// singleton cluster with cohesion forced to 1.
func Run(paragraphs []model.Paragraph, space model.Space, mutual model.Graph, cfg model.ClusterConfig) model.Clustering {
	embedded := make([]string, 0, len(paragraphs))
	for _, p := range paragraphs {
		if space.Has(p.ID) {
			embedded = append(embedded, p.ID)
		}
	}

	if len(paragraphs) < cfg.MinParagraphs || len(embedded) == 0 {
		reason := "too_few_paragraphs"
		if len(embedded) == 0 {
			reason = "no_embeddings"
		}
		return singletons(paragraphs, space, reason)
	}

	// Pairwise quantized similarities between embedded paragraphs.
	sim := make(map[[2]string]float64)
	for i := range embedded {
		for j := i + 1; j < len(embedded); j++ {
			s := substrate.Quantize(embed.Cosine(space.Get(embedded[i]), space.Get(embedded[j])))
			sim[pairOf(embedded[i], embedded[j])] = s
		}
	}

	// Mutual-edge crossings bias merges toward the geometric backbone.
	mutualPair := make(map[[2]string]bool)
	for _, e := range mutual.Edges {
		mutualPair[pairOf(e.A, e.B)] = true
	}

	merged := agglomerate(embedded, sim, mutualPair, cfg)

	// Paragraphs without embeddings trail as singletons.
	var bare [][]string
	for _, p := range paragraphs {
		if !space.Has(p.ID) {
			bare = append(bare, []string{p.ID})
		}
	}
	merged = append(merged, bare...)

	return materialize(merged, paragraphs, space, sim, cfg, false, "")
}

func pairOf(a, b string) [2]string {
	if a < b {
		return [2]string{a, b}
	}
	return [2]string{b, a}
}

// agglomerate merges clusters bottom-up until the best available merge
// exceeds the distance threshold derived from the similarity cutoff.
func agglomerate(ids []string, sim map[[2]string]float64, mutualPair map[[2]string]bool, cfg model.ClusterConfig) [][]string {
	threshold := substrate.Quantize(1 - cfg.SimilarityCutoff)

	clusters := make([][]string, 0, len(ids))
	for _, id := range ids {
		clusters = append(clusters, []string{id})
	}

	for len(clusters) > 1 {
		// Stable candidate order: clusters sorted by smallest member id.
		sort.Slice(clusters, func(i, j int) bool {
			return clusters[i][0] < clusters[j][0]
		})

		bestI, bestJ := -1, -1
		bestDist := math.Inf(1)
		for i := 0; i < len(clusters); i++ {
			for j := i + 1; j < len(clusters); j++ {
				d := linkDistance(clusters[i], clusters[j], sim, mutualPair, cfg.MutualDiscount)
				if d < bestDist {
					bestDist = d
					bestI, bestJ = i, j
				}
				// Ties keep the earlier pair, which is the lexicographically
				// lower id pair under the sorted candidate order.
			}
		}
		if bestI < 0 || bestDist > threshold {
			break
		}

		mergedCluster := append(append([]string(nil), clusters[bestI]...), clusters[bestJ]...)
		sort.Strings(mergedCluster)
		clusters[bestI] = mergedCluster
		clusters = append(clusters[:bestJ], clusters[bestJ+1:]...)
	}
	return clusters
}

// linkDistance is average-linkage distance (1 - quantized similarity),
// discounted when any mutual edge crosses the two clusters.
func linkDistance(a, b []string, sim map[[2]string]float64, mutualPair map[[2]string]bool, discount float64) float64 {
	var sum float64
	crossing := false
	for _, x := range a {
		for _, y := range b {
			key := pairOf(x, y)
			sum += 1 - sim[key]
			if mutualPair[key] {
				crossing = true
			}
		}
	}
	d := sum / float64(len(a)*len(b))
	if crossing {
		d *= discount
	}
	return substrate.Quantize(d)
}

// singletons emits one cluster per paragraph with cohesion forced to 1.
func singletons(paragraphs []model.Paragraph, space model.Space, reason string) model.Clustering {
	res := model.Clustering{Skipped: true, Reason: reason}
	for i, p := range paragraphs {
		c := model.Cluster{
			ID:               fmt.Sprintf("c%d", i),
			Members:          []string{p.ID},
			CentroidMember:   p.ID,
			Cohesion:         1,
			PairwiseCohesion: 1,
		}
		if v := space.Get(p.ID); v != nil {
			c.Centroid = append([]float32(nil), v...)
		}
		res.Clusters = append(res.Clusters, c)
	}
	return res
}
