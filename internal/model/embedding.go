package model

// Space holds one embedding vector per unit id. Two independent spaces exist
// per run: one over statements and one over paragraphs. Vectors are truncated
// to Dim and L2-normalized on receipt; an id absent from Vectors means the
// adapter failed for that id.
type Space struct {
	Dim     int                  `json:"dim"`
	Vectors map[string][]float32 `json:"vectors"`
}

// NewSpace returns an empty space with the given dimensionality.
func NewSpace(dim int) Space {
	return Space{Dim: dim, Vectors: make(map[string][]float32)}
}

// Has reports whether the space holds a vector for id.
func (s Space) Has(id string) bool {
	_, ok := s.Vectors[id]
	return ok
}

// Get returns the vector for id, or nil when absent.
func (s Space) Get(id string) []float32 {
	return s.Vectors[id]
}

// Len returns the number of vectors present.
func (s Space) Len() int {
	return len(s.Vectors)
}
