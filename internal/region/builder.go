// Package region partitions all substrate nodes into disjoint, fully
// covering regions. Three construction kinds apply in strict priority until
// every node is covered; regions never overlap and never merge.
package region

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ppiankov/katharsis/internal/embed"
	"github.com/ppiankov/katharsis/internal/model"
	"github.com/ppiankov/katharsis/internal/substrate"
)

var kindPriority = map[model.RegionKind]int{
	model.RegionCluster:   0,
	model.RegionComponent: 1,
	model.RegionPatch:     2,
}

// Build produces the region partition and per-region measured aggregates.
// totalSources is the global distinct-source count for the diversity ratio.
func Build(sub *model.Substrate, clustering model.Clustering, space model.Space, totalSources int) []model.Region {
	if len(sub.Nodes) == 0 {
		return nil
	}

	nodeSet := make(map[string]bool, len(sub.Nodes))
	for i := range sub.Nodes {
		nodeSet[sub.Nodes[i].ID] = true
	}
	covered := make(map[string]bool, len(sub.Nodes))

	var regions []model.Region
	add := func(kind model.RegionKind, ids []string) {
		sort.Strings(ids)
		regions = append(regions, model.Region{Kind: kind, NodeIDs: ids})
		for _, id := range ids {
			covered[id] = true
		}
	}

	// 1. Cluster-derived: multi-member clusters, only when clustering ran.
	if clustering.Meaningful() {
		for _, c := range clustering.Clusters {
			var ids []string
			for _, id := range c.Members {
				if nodeSet[id] && !covered[id] {
					ids = append(ids, id)
				}
			}
			if len(ids) >= 2 {
				add(model.RegionCluster, ids)
			}
		}
	}

	// 2. Strong-component-derived: remaining nodes sharing a component.
	for _, comp := range sub.Topology.Components {
		var ids []string
		for _, id := range comp.NodeIDs {
			if !covered[id] {
				ids = append(ids, id)
			}
		}
		if len(ids) >= 2 {
			add(model.RegionComponent, ids)
		}
	}

	// 3. Neighborhood patches: group leftovers by identical mutual-neighbor
	// signature. The empty signature is itself a group, so coverage is total.
	mutualNeighbors := make(map[string][]string)
	for _, e := range sub.Mutual.Edges {
		mutualNeighbors[e.A] = append(mutualNeighbors[e.A], e.B)
		mutualNeighbors[e.B] = append(mutualNeighbors[e.B], e.A)
	}
	patches := make(map[string][]string)
	var sigs []string
	for i := range sub.Nodes {
		id := sub.Nodes[i].ID
		if covered[id] {
			continue
		}
		ns := append([]string(nil), mutualNeighbors[id]...)
		sort.Strings(ns)
		sig := strings.Join(ns, ",")
		if _, ok := patches[sig]; !ok {
			sigs = append(sigs, sig)
		}
		patches[sig] = append(patches[sig], id)
	}
	sort.Strings(sigs)
	for _, sig := range sigs {
		add(model.RegionPatch, patches[sig])
	}

	// Deterministic renumbering after construction.
	sort.Slice(regions, func(i, j int) bool {
		if kindPriority[regions[i].Kind] != kindPriority[regions[j].Kind] {
			return kindPriority[regions[i].Kind] < kindPriority[regions[j].Kind]
		}
		return regions[i].NodeIDs[0] < regions[j].NodeIDs[0]
	})
	for i := range regions {
		regions[i].ID = fmt.Sprintf("r%d", i)
		measure(&regions[i], sub, space, totalSources)
	}
	return regions
}

// measure fills the region's measured aggregates. Nothing here is
// inferential: every value is a direct count or mean over members.
func measure(r *model.Region, sub *model.Substrate, space model.Space, totalSources int) {
	r.NodeCount = len(r.NodeIDs)

	member := make(map[string]bool, len(r.NodeIDs))
	for _, id := range r.NodeIDs {
		member[id] = true
	}

	sources := make(map[int]bool)
	var isolation float64
	for _, id := range r.NodeIDs {
		if n := sub.NodeByID(id); n != nil {
			sources[n.Source] = true
			isolation += n.Isolation
		}
	}
	r.SourceCount = len(sources)
	if totalSources > 0 {
		r.SourceDiversity = substrate.Quantize(float64(r.SourceCount) / float64(totalSources))
	}
	r.MeanIsolation = substrate.Quantize(isolation / float64(r.NodeCount))

	if r.NodeCount < 2 {
		return
	}

	internal := 0
	for _, e := range sub.Strong.Edges {
		if member[e.A] && member[e.B] {
			internal++
		}
	}
	pairs := r.NodeCount * (r.NodeCount - 1) / 2
	r.Density = substrate.Quantize(float64(internal) / float64(pairs))

	var simSum float64
	simPairs := 0
	for i := 0; i < len(r.NodeIDs); i++ {
		vi := space.Get(r.NodeIDs[i])
		if vi == nil {
			continue
		}
		for j := i + 1; j < len(r.NodeIDs); j++ {
			vj := space.Get(r.NodeIDs[j])
			if vj == nil {
				continue
			}
			simSum += substrate.Quantize(embed.Cosine(vi, vj))
			simPairs++
		}
	}
	if simPairs > 0 {
		r.MeanSimilarity = substrate.Quantize(simSum / float64(simPairs))
	}
}
