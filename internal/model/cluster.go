package model

// Cluster uncertainty flags, in their fixed evaluation priority.
const (
	FlagLowCohesion     = "low_cohesion"
	FlagDumbbell        = "dumbbell" // High cohesion to centroid, low pairwise cohesion
	FlagOversized       = "oversized"
	FlagStanceDiversity = "stance_diversity"
	FlagHighContested   = "high_contested"
	FlagSignalConflict  = "signal_conflict"
)

// Cluster is one hierarchical agglomerative cluster over paragraph nodes.
type Cluster struct {
	ID               string    `json:"id"`
	Members          []string  `json:"members"` // Paragraph ids, sorted ascending
	Centroid         []float32 `json:"centroid,omitempty"`
	CentroidMember   string    `json:"centroid_member"`   // Nearest actual member to the centroid
	Cohesion         float64   `json:"cohesion"`          // Mean member-to-centroid similarity
	PairwiseCohesion float64   `json:"pairwise_cohesion"` // Mean similarity over member pairs
	Flags            []string  `json:"flags,omitempty"`
}

// Clustering is the clusterer output. Skipped clustering (too few paragraphs
// or no embeddings) yields singleton clusters with cohesion forced to 1.
type Clustering struct {
	Clusters []Cluster `json:"clusters"`
	Skipped  bool      `json:"skipped"`
	Reason   string    `json:"reason,omitempty"`
}

// Meaningful reports whether cluster-derived regions may be built from this
// clustering.
func (c Clustering) Meaningful() bool {
	return !c.Skipped
}
