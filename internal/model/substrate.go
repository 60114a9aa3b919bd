package model

// Graph names used throughout the substrate.
const (
	GraphKNN    = "knn"    // Symmetric union of directed top-K choices
	GraphMutual = "mutual" // Pairs that rank each other within their own top-K
	GraphStrong = "strong" // Mutual pairs above the soft threshold
)

// Degenerate substrate reasons.
const (
	DegenerateTooFewParagraphs       = "too_few_paragraphs"
	DegenerateMissingEmbeddings      = "missing_embeddings"
	DegenerateAllEmbeddingsIdentical = "all_embeddings_identical"
)

// Node is one substrate node per paragraph, carrying provenance and
// neighbor statistics.
type Node struct {
	ID           string         `json:"id"`
	Source       int            `json:"source"`
	Stance       Stance         `json:"stance"`
	Contested    bool           `json:"contested"`
	StatementIDs []string       `json:"statement_ids"`
	Best         float64        `json:"best_similarity"` // Quantized best-neighbor similarity
	MeanTopK     float64        `json:"mean_topk"`       // Mean similarity over kept neighbors
	Degree       map[string]int `json:"degree"`          // Per graph name
	Isolation    float64        `json:"isolation"`       // 1 - min(1, strong_degree/K)
	Coord        *Coord         `json:"coord,omitempty"` // Optional layout enrichment
}

// Edge is an unordered pair with a quantized similarity and a rank.
// A is always the lexicographically smaller id.
type Edge struct {
	A          string  `json:"a"`
	B          string  `json:"b"`
	Similarity float64 `json:"similarity"`
	Rank       int     `json:"rank"`
}

// Graph is a deterministic, sorted edge list.
type Graph struct {
	Edges []Edge `json:"edges"`
}

// Component is one connected component of the strong graph.
type Component struct {
	ID      int      `json:"id"`
	NodeIDs []string `json:"node_ids"` // Sorted ascending
}

// Topology summarizes connectivity of the strong graph.
type Topology struct {
	Components     []Component `json:"components"`
	LargestRatio   float64     `json:"largest_ratio"`   // Largest component size / node count
	IsolationRatio float64     `json:"isolation_ratio"` // Nodes with zero strong edges / node count
	StrongDensity  float64     `json:"strong_density"`  // 2*|strong| / (n*(n-1))
}

// ShapeKind is a coarse descriptive prior over the substrate geometry.
// It carries no semantic authority.
type ShapeKind string

const (
	ShapeFragmented         ShapeKind = "fragmented"
	ShapeConvergentCore     ShapeKind = "convergent_core"
	ShapeBimodalFork        ShapeKind = "bimodal_fork"
	ShapeParallelComponents ShapeKind = "parallel_components"
)

// Shape is the classification result with machine-readable evidence strings.
type Shape struct {
	Kind       ShapeKind `json:"kind"`
	Confidence float64   `json:"confidence"`
	Evidence   []string  `json:"evidence"`
}

// Substrate is the full geometric result over paragraph embeddings:
// three graphs, per-node statistics, topology and shape. Degenerate inputs
// still produce a well-formed substrate, tagged with a reason.
type Substrate struct {
	Nodes            []Node   `json:"nodes"`
	KNN              Graph    `json:"knn"`
	Mutual           Graph    `json:"mutual"`
	Strong           Graph    `json:"strong"`
	Threshold        float64  `json:"threshold"` // Distribution-derived soft threshold
	Topology         Topology `json:"topology"`
	Shape            Shape    `json:"shape"`
	Degenerate       bool     `json:"degenerate"`
	DegenerateReason string   `json:"degenerate_reason,omitempty"`
}

// NodeByID returns the node with the given id, or nil.
func (s *Substrate) NodeByID(id string) *Node {
	for i := range s.Nodes {
		if s.Nodes[i].ID == id {
			return &s.Nodes[i]
		}
	}
	return nil
}
