package cluster

import (
	"fmt"
	"math"
	"sort"

	"github.com/ppiankov/katharsis/internal/embed"
	"github.com/ppiankov/katharsis/internal/model"
	"github.com/ppiankov/katharsis/internal/substrate"
)

// Cohesion thresholds for uncertainty flags.
const (
	lowCohesionBelow = 0.55
	dumbbellCohesion = 0.70
	dumbbellGap      = 0.15
	contestedRatio   = 0.5
)

// materialize turns raw member groups into clusters with centroids, cohesion
// diagnostics and uncertainty flags, renumbered deterministically.
func materialize(groups [][]string, paragraphs []model.Paragraph, space model.Space, sim map[[2]string]float64, cfg model.ClusterConfig, skipped bool, reason string) model.Clustering {
	byID := make(map[string]model.Paragraph, len(paragraphs))
	for _, p := range paragraphs {
		byID[p.ID] = p
	}

	sort.Slice(groups, func(i, j int) bool {
		return groups[i][0] < groups[j][0]
	})

	res := model.Clustering{Skipped: skipped, Reason: reason}
	for i, members := range groups {
		c := model.Cluster{
			ID:      fmt.Sprintf("c%d", i),
			Members: append([]string(nil), members...),
		}
		computeCentroid(&c, space)
		computeCohesion(&c, space, sim)
		c.Flags = flags(c, members, byID, cfg)
		res.Clusters = append(res.Clusters, c)
	}
	return res
}

// computeCentroid sets the renormalized mean embedding and the nearest actual
// member (ties broken lexicographically).
func computeCentroid(c *model.Cluster, space model.Space) {
	var sum []float64
	count := 0
	for _, id := range c.Members {
		v := space.Get(id)
		if v == nil {
			continue
		}
		if sum == nil {
			sum = make([]float64, len(v))
		}
		for k := range v {
			sum[k] += float64(v[k])
		}
		count++
	}
	if count == 0 {
		c.CentroidMember = c.Members[0]
		return
	}

	var norm float64
	for k := range sum {
		sum[k] /= float64(count)
		norm += sum[k] * sum[k]
	}
	centroid := make([]float32, len(sum))
	if norm > 0 {
		inv := 1 / math.Sqrt(norm)
		for k := range sum {
			centroid[k] = float32(sum[k] * inv)
		}
	}
	c.Centroid = centroid

	bestID := ""
	bestSim := math.Inf(-1)
	for _, id := range c.Members {
		v := space.Get(id)
		if v == nil {
			continue
		}
		s := substrate.Quantize(embed.Cosine(v, centroid))
		if s > bestSim || (s == bestSim && id < bestID) {
			bestSim = s
			bestID = id
		}
	}
	c.CentroidMember = bestID
}

// computeCohesion sets mean member-to-centroid similarity and mean pairwise
// member similarity. Single-member clusters get 1 for both.
func computeCohesion(c *model.Cluster, space model.Space, sim map[[2]string]float64) {
	embedded := make([]string, 0, len(c.Members))
	for _, id := range c.Members {
		if space.Has(id) {
			embedded = append(embedded, id)
		}
	}
	if len(embedded) <= 1 {
		c.Cohesion = 1
		c.PairwiseCohesion = 1
		return
	}

	var toCentroid float64
	for _, id := range embedded {
		toCentroid += substrate.Quantize(embed.Cosine(space.Get(id), c.Centroid))
	}
	c.Cohesion = substrate.Quantize(toCentroid / float64(len(embedded)))

	var pairSum float64
	pairs := 0
	for i := range embedded {
		for j := i + 1; j < len(embedded); j++ {
			pairSum += sim[pairOf(embedded[i], embedded[j])]
			pairs++
		}
	}
	c.PairwiseCohesion = substrate.Quantize(pairSum / float64(pairs))
}

// flags evaluates uncertainty flags in fixed priority order.
func flags(c model.Cluster, members []string, byID map[string]model.Paragraph, cfg model.ClusterConfig) []string {
	var out []string

	if c.Cohesion < lowCohesionBelow {
		out = append(out, model.FlagLowCohesion)
	}
	if c.Cohesion >= dumbbellCohesion && c.Cohesion-c.PairwiseCohesion >= dumbbellGap {
		out = append(out, model.FlagDumbbell)
	}
	// The size ceiling is advisory: oversized clusters are flagged, never
	// split or force-merged.
	if cfg.SizeCeiling > 0 && len(members) > cfg.SizeCeiling {
		out = append(out, model.FlagOversized)
	}

	stances := make(map[model.Stance]bool)
	contested := 0
	var signals model.Signals
	for _, id := range members {
		p, ok := byID[id]
		if !ok {
			continue
		}
		stances[p.Stance] = true
		if p.Contested {
			contested++
		}
		signals = signals.Or(p.Signals)
	}
	if len(stances) >= 3 {
		out = append(out, model.FlagStanceDiversity)
	}
	if len(members) > 0 && float64(contested)/float64(len(members)) >= contestedRatio {
		out = append(out, model.FlagHighContested)
	}
	if signals.Tension && signals.Conditional {
		out = append(out, model.FlagSignalConflict)
	}
	return out
}
