package traversal

import (
	"fmt"

	"github.com/ppiankov/katharsis/internal/model"
)

// ClaimEntry is one claim's status inside a checkpoint. Ordered entry lists
// are used instead of maps so serialized checkpoints are byte-stable.
type ClaimEntry struct {
	ID     string            `json:"id"`
	Status model.ClaimStatus `json:"status"`
}

// Checkpoint is a serializable snapshot of traversal state.
type Checkpoint struct {
	Claims      []ClaimEntry `json:"claims"`
	Resolutions []Resolution `json:"resolutions"`
	Audit       []string     `json:"audit"`
}

// Checkpoint snapshots the state: claim statuses in graph order, resolutions
// in application order, and the audit trail.
func (s *State) Checkpoint() Checkpoint {
	cp := Checkpoint{
		Resolutions: s.Resolutions(),
		Audit:       s.Audit(),
	}
	for _, c := range s.graph.Claims {
		cp.Claims = append(cp.Claims, ClaimEntry{ID: c.ID, Status: s.status[c.ID]})
	}
	return cp
}

// Restore rebuilds a state over the graph from a checkpoint. Statuses are
// applied verbatim rather than replayed, so a restored state round-trips even
// when the graph has gained claims since the snapshot (new claims start
// active). A checkpoint claim missing from the graph is an error.
func Restore(g *Graph, cp Checkpoint) (*State, error) {
	s := NewState(g)
	for _, e := range cp.Claims {
		if _, ok := s.status[e.ID]; !ok {
			return nil, fmt.Errorf("checkpoint references unknown claim %q", e.ID)
		}
		s.status[e.ID] = e.Status
	}
	for _, r := range cp.Resolutions {
		if _, ok := g.ForcingPoint(r.ForcingPoint); !ok {
			return nil, fmt.Errorf("checkpoint references unknown forcing point %q", r.ForcingPoint)
		}
		if _, dup := s.resolutions[r.ForcingPoint]; dup {
			return nil, fmt.Errorf("checkpoint resolves %q twice", r.ForcingPoint)
		}
		s.resolutions[r.ForcingPoint] = r
		s.order = append(s.order, r.ForcingPoint)
	}
	s.audit = append([]string(nil), cp.Audit...)
	return s, nil
}
