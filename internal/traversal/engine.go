package traversal

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ppiankov/katharsis/internal/model"
)

// Resolution records one answered forcing point.
type Resolution struct {
	ForcingPoint string `json:"forcing_point"`
	Kind         Kind   `json:"kind"`
	Satisfied    *bool  `json:"satisfied,omitempty"` // Conditionals only
	Chosen       string `json:"chosen,omitempty"`    // Conflicts only
	Note         string `json:"note,omitempty"`
}

// State is the traversal state machine over a normalized claim graph. All
// claims start active; resolutions only ever move claims from active to
// pruned. A pruned claim never returns to active.
type State struct {
	graph       *Graph
	status      map[string]model.ClaimStatus
	resolutions map[string]Resolution
	order       []string // Resolution ids in application order
	audit       []string
}

// NewState starts traversal with every claim active and nothing resolved.
func NewState(g *Graph) *State {
	s := &State{
		graph:       g,
		status:      make(map[string]model.ClaimStatus, len(g.Claims)),
		resolutions: make(map[string]Resolution),
	}
	for _, c := range g.Claims {
		s.status[c.ID] = model.ClaimActive
	}
	return s
}

// Status returns the claim's current status.
func (s *State) Status(claimID string) (model.ClaimStatus, bool) {
	st, ok := s.status[claimID]
	return st, ok
}

// Pruned lists pruned claim ids in graph order.
func (s *State) Pruned() []string {
	var out []string
	for _, c := range s.graph.Claims {
		if s.status[c.ID] == model.ClaimPruned {
			out = append(out, c.ID)
		}
	}
	return out
}

// Surviving lists active claims in graph order.
func (s *State) Surviving() []model.Claim {
	var out []model.Claim
	for _, c := range s.graph.Claims {
		if s.status[c.ID] == model.ClaimActive {
			out = append(out, c)
		}
	}
	return out
}

// Audit returns the audit trail, one line per state-changing resolution.
func (s *State) Audit() []string {
	return append([]string(nil), s.audit...)
}

// Resolutions returns applied resolutions in application order.
func (s *State) Resolutions() []Resolution {
	out := make([]Resolution, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.resolutions[id])
	}
	return out
}

// ResolveConditional answers a conditional forcing point. A condition that is
// not satisfied prunes every affected claim. Replaying the same answer is a
// no-op; a different answer is an error, resolutions are never overwritten.
func (s *State) ResolveConditional(id string, satisfied bool, note string) error {
	fp, ok := s.graph.ForcingPoint(id)
	if !ok {
		return fmt.Errorf("unknown forcing point %q", id)
	}
	if fp.Kind != KindConditional {
		return fmt.Errorf("forcing point %q is a %s, not a conditional", id, fp.Kind)
	}
	if prev, done := s.resolutions[id]; done {
		if prev.Satisfied != nil && *prev.Satisfied == satisfied {
			return nil
		}
		return fmt.Errorf("forcing point %q already resolved with a different answer", id)
	}

	v := satisfied
	s.resolutions[id] = Resolution{ForcingPoint: id, Kind: KindConditional, Satisfied: &v, Note: note}
	s.order = append(s.order, id)

	line := fmt.Sprintf("condition %s satisfied, no claims pruned", id)
	if !satisfied {
		pruned := s.prune(fp.Affected)
		line = fmt.Sprintf("condition %s not satisfied, pruned %s", id, strings.Join(pruned, ", "))
		if len(pruned) == 0 {
			line = fmt.Sprintf("condition %s not satisfied, no claims left to prune", id)
		}
	}
	if note != "" {
		line += " (" + note + ")"
	}
	s.audit = append(s.audit, line)
	return nil
}

// ResolveConflict answers a conflict forcing point by choosing one of its two
// options; the other is pruned. Same idempotency contract as conditionals.
func (s *State) ResolveConflict(id, chosen string) error {
	fp, ok := s.graph.ForcingPoint(id)
	if !ok {
		return fmt.Errorf("unknown forcing point %q", id)
	}
	if fp.Kind != KindConflict {
		return fmt.Errorf("forcing point %q is a %s, not a conflict", id, fp.Kind)
	}
	var rejected []string
	found := false
	for _, opt := range fp.Options {
		if opt == chosen {
			found = true
		} else {
			rejected = append(rejected, opt)
		}
	}
	if !found {
		return fmt.Errorf("claim %q is not an option of conflict %q", chosen, id)
	}
	if prev, done := s.resolutions[id]; done {
		if prev.Chosen == chosen {
			return nil
		}
		return fmt.Errorf("forcing point %q already resolved with a different answer", id)
	}

	s.resolutions[id] = Resolution{ForcingPoint: id, Kind: KindConflict, Chosen: chosen}
	s.order = append(s.order, id)
	s.prune(rejected)
	s.audit = append(s.audit, fmt.Sprintf("chose %s over %s", chosen, strings.Join(rejected, ", ")))
	return nil
}

// Apply replays a resolution, dispatching on kind.
func (s *State) Apply(r Resolution) error {
	switch r.Kind {
	case KindConditional:
		if r.Satisfied == nil {
			return fmt.Errorf("conditional resolution %q has no answer", r.ForcingPoint)
		}
		return s.ResolveConditional(r.ForcingPoint, *r.Satisfied, r.Note)
	case KindConflict:
		return s.ResolveConflict(r.ForcingPoint, r.Chosen)
	default:
		return fmt.Errorf("resolution %q has unknown kind %q", r.ForcingPoint, r.Kind)
	}
}

func (s *State) prune(ids []string) []string {
	var pruned []string
	for _, id := range ids {
		if s.status[id] == model.ClaimActive {
			s.status[id] = model.ClaimPruned
			pruned = append(pruned, id)
		}
	}
	sort.Strings(pruned)
	return pruned
}

// Live returns the forcing points that currently demand an answer, in graph
// order. Conditionals always surface first: no conflict is live until every
// conditional is resolved. A conflict additionally needs its prerequisite
// gates resolved and at least two options still active; a conflict whose
// options were thinned below two by earlier pruning resolves itself silently.
func (s *State) Live() []ForcingPoint {
	var conds []ForcingPoint
	for _, fp := range s.graph.ForcingPoints {
		if fp.Kind != KindConditional {
			continue
		}
		if _, done := s.resolutions[fp.ID]; !done {
			conds = append(conds, fp)
		}
	}
	if len(conds) > 0 {
		return conds
	}

	var conflicts []ForcingPoint
	for _, fp := range s.graph.ForcingPoints {
		if fp.Kind != KindConflict {
			continue
		}
		if _, done := s.resolutions[fp.ID]; done {
			continue
		}
		if !s.gatesSatisfied(fp.ID) {
			continue
		}
		active := 0
		for _, opt := range fp.Options {
			if s.status[opt] == model.ClaimActive {
				active++
			}
		}
		if active >= 2 {
			conflicts = append(conflicts, fp)
		}
	}
	return conflicts
}

func (s *State) gatesSatisfied(id string) bool {
	for _, req := range s.graph.Gates[id] {
		if _, done := s.resolutions[req]; !done {
			return false
		}
	}
	return true
}

// Terminal reports whether no forcing point remains live.
func (s *State) Terminal() bool {
	return len(s.Live()) == 0
}
