package model

// RegionKind tags how a region was constructed. Kinds are applied in strict
// priority order until every substrate node is covered.
type RegionKind string

const (
	RegionCluster   RegionKind = "cluster"   // Derived from a multi-member cluster
	RegionComponent RegionKind = "component" // Remaining nodes sharing a strong component
	RegionPatch     RegionKind = "patch"     // Identical mutual-neighbor signature
)

// Region is a disjoint partition cell over substrate nodes. It carries only
// measured aggregates, no authored semantic label.
type Region struct {
	ID              string     `json:"id"`
	Kind            RegionKind `json:"kind"`
	NodeIDs         []string   `json:"node_ids"` // Sorted ascending
	NodeCount       int        `json:"node_count"`
	SourceCount     int        `json:"source_count"`     // Distinct sources among members
	SourceDiversity float64    `json:"source_diversity"` // SourceCount / global source count
	Density         float64    `json:"density"`          // Internal strong-edge density
	MeanSimilarity  float64    `json:"mean_similarity"`  // Mean internal pairwise similarity
	MeanIsolation   float64    `json:"mean_isolation"`   // Mean member isolation score
}
