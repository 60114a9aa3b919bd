package region

import (
	"math"
	"reflect"
	"testing"

	"github.com/ppiankov/katharsis/internal/model"
)

func unitVec(angle float64) []float32 {
	return []float32{float32(math.Cos(angle)), float32(math.Sin(angle))}
}

func node(id string, source int) model.Node {
	return model.Node{ID: id, Source: source, Degree: map[string]int{}, Isolation: 1}
}

func TestClusterRegionsFirst(t *testing.T) {
	sub := &model.Substrate{
		Nodes: []model.Node{node("p0", 0), node("p1", 1), node("p2", 2), node("p3", 0)},
		Topology: model.Topology{Components: []model.Component{
			{ID: 0, NodeIDs: []string{"p0", "p1", "p2", "p3"}},
		}},
	}
	clustering := model.Clustering{Clusters: []model.Cluster{
		{ID: "c0", Members: []string{"p0", "p1"}},
		{ID: "c1", Members: []string{"p2"}},
		{ID: "c2", Members: []string{"p3"}},
	}}
	space := model.NewSpace(2)

	regions := Build(sub, clustering, space, 3)
	if len(regions) == 0 {
		t.Fatal("no regions built")
	}
	if regions[0].Kind != model.RegionCluster {
		t.Errorf("first region kind = %s, want cluster", regions[0].Kind)
	}
	if !reflect.DeepEqual(regions[0].NodeIDs, []string{"p0", "p1"}) {
		t.Errorf("cluster region members = %v", regions[0].NodeIDs)
	}
	// Singleton clusters fall through to the shared strong component.
	foundComponent := false
	for _, r := range regions {
		if r.Kind == model.RegionComponent {
			foundComponent = true
			if !reflect.DeepEqual(r.NodeIDs, []string{"p2", "p3"}) {
				t.Errorf("component region members = %v", r.NodeIDs)
			}
		}
	}
	if !foundComponent {
		t.Error("expected a component-derived region for the leftovers")
	}
	assertPartition(t, regions, sub)
}

func TestSkippedClusteringNeverYieldsClusterRegions(t *testing.T) {
	sub := &model.Substrate{
		Nodes:    []model.Node{node("p0", 0), node("p1", 1)},
		Topology: model.Topology{Components: []model.Component{{ID: 0, NodeIDs: []string{"p0"}}, {ID: 1, NodeIDs: []string{"p1"}}}},
	}
	clustering := model.Clustering{
		Skipped:  true,
		Clusters: []model.Cluster{{ID: "c0", Members: []string{"p0", "p1"}}},
	}

	regions := Build(sub, clustering, model.NewSpace(2), 2)
	for _, r := range regions {
		if r.Kind == model.RegionCluster {
			t.Errorf("cluster region %s built from skipped clustering", r.ID)
		}
	}
	assertPartition(t, regions, sub)
}

func TestPatchesCoverIsolatedNodes(t *testing.T) {
	sub := &model.Substrate{
		Nodes: []model.Node{node("p0", 0), node("p1", 1), node("p2", 2)},
		Mutual: model.Graph{Edges: []model.Edge{
			{A: "p0", B: "p1", Similarity: 0.5, Rank: 1},
		}},
	}
	regions := Build(sub, model.Clustering{Skipped: true}, model.NewSpace(2), 3)
	assertPartition(t, regions, sub)
	for _, r := range regions {
		if r.Kind != model.RegionPatch {
			t.Errorf("region %s kind = %s, want patch", r.ID, r.Kind)
		}
	}
}

func TestRegionIDsAndMeasures(t *testing.T) {
	sub := &model.Substrate{
		Nodes: []model.Node{node("p0", 0), node("p1", 1), node("p2", 0)},
		Strong: model.Graph{Edges: []model.Edge{
			{A: "p0", B: "p1", Similarity: 0.9, Rank: 1},
		}},
		Topology: model.Topology{Components: []model.Component{
			{ID: 0, NodeIDs: []string{"p0", "p1"}},
			{ID: 1, NodeIDs: []string{"p2"}},
		}},
	}
	space := model.NewSpace(2)
	space.Vectors["p0"] = unitVec(0)
	space.Vectors["p1"] = unitVec(0.1)

	regions := Build(sub, model.Clustering{Skipped: true}, space, 2)
	assertPartition(t, regions, sub)

	for i, r := range regions {
		want := "r" + string(rune('0'+i))
		if r.ID != want {
			t.Errorf("region %d id = %s, want %s", i, r.ID, want)
		}
	}

	first := regions[0]
	if first.Kind != model.RegionComponent || first.NodeCount != 2 {
		t.Fatalf("first region = %+v", first)
	}
	if first.SourceCount != 2 || first.SourceDiversity != 1 {
		t.Errorf("source count/diversity = %d/%v", first.SourceCount, first.SourceDiversity)
	}
	if first.Density != 1 {
		t.Errorf("density = %v, want 1", first.Density)
	}
	if first.MeanSimilarity < 0.99 {
		t.Errorf("mean similarity = %v, want near 1", first.MeanSimilarity)
	}
}

// assertPartition checks total coverage and disjointness.
func assertPartition(t *testing.T, regions []model.Region, sub *model.Substrate) {
	t.Helper()
	seen := make(map[string]string)
	for _, r := range regions {
		for _, id := range r.NodeIDs {
			if prev, dup := seen[id]; dup {
				t.Errorf("node %s in both %s and %s", id, prev, r.ID)
			}
			seen[id] = r.ID
		}
	}
	for _, n := range sub.Nodes {
		if _, ok := seen[n.ID]; !ok {
			t.Errorf("node %s not covered by any region", n.ID)
		}
	}
}
