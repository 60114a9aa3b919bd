package substrate

import (
	"sort"

	"github.com/ppiankov/katharsis/internal/model"
)

// unionFind over node slice indices.
type unionFind struct {
	parent []int
	size   []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{parent: make([]int, n), size: make([]int, n)}
	for i := range uf.parent {
		uf.parent[i] = i
		uf.size[i] = 1
	}
	return uf
}

func (uf *unionFind) find(x int) int {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]]
		x = uf.parent[x]
	}
	return x
}

func (uf *unionFind) union(a, b int) {
	ra, rb := uf.find(a), uf.find(b)
	if ra == rb {
		return
	}
	if uf.size[ra] < uf.size[rb] {
		ra, rb = rb, ra
	}
	uf.parent[rb] = ra
	uf.size[ra] += uf.size[rb]
}

// buildTopology computes connected components of the strong graph plus the
// global connectivity metrics. Components are sorted by (size desc, smallest
// member id asc) and renumbered from zero.
func buildTopology(nodes []model.Node, strong model.Graph, byID map[string]int) model.Topology {
	n := len(nodes)
	topo := model.Topology{}
	if n == 0 {
		return topo
	}

	uf := newUnionFind(n)
	for _, e := range strong.Edges {
		uf.union(byID[e.A], byID[e.B])
	}

	members := make(map[int][]string)
	for i := range nodes {
		root := uf.find(i)
		members[root] = append(members[root], nodes[i].ID)
	}

	for _, ids := range members {
		sort.Strings(ids)
		topo.Components = append(topo.Components, model.Component{NodeIDs: ids})
	}
	sort.Slice(topo.Components, func(i, j int) bool {
		ci, cj := topo.Components[i], topo.Components[j]
		if len(ci.NodeIDs) != len(cj.NodeIDs) {
			return len(ci.NodeIDs) > len(cj.NodeIDs)
		}
		return ci.NodeIDs[0] < cj.NodeIDs[0]
	})
	for i := range topo.Components {
		topo.Components[i].ID = i
	}

	largest := 0
	if len(topo.Components) > 0 {
		largest = len(topo.Components[0].NodeIDs)
	}
	isolated := 0
	for i := range nodes {
		if nodes[i].Degree[model.GraphStrong] == 0 {
			isolated++
		}
	}
	topo.LargestRatio = Quantize(float64(largest) / float64(n))
	topo.IsolationRatio = Quantize(float64(isolated) / float64(n))
	if n > 1 {
		topo.StrongDensity = Quantize(2 * float64(len(strong.Edges)) / float64(n*(n-1)))
	}
	return topo
}
