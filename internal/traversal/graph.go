// Package traversal derives forcing points from an externally supplied claim
// graph and drives the resolution state machine. The external graph is
// untrusted input: it is normalized into one canonical shape at this boundary
// rather than branched on throughout the engine.
package traversal

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ppiankov/katharsis/internal/model"
)

// Kind discriminates forcing points.
type Kind string

const (
	KindConditional Kind = "conditional" // One question; "not satisfied" prunes the affected set
	KindConflict    Kind = "conflict"    // One question, exactly two mutually exclusive options
)

// ForcingPoint is a question that must be resolved to proceed. Forcing
// points are derived from the claim graph, never stored independently.
type ForcingPoint struct {
	ID       string   `json:"id"`
	Kind     Kind     `json:"kind"`
	Question string   `json:"question,omitempty"`
	Affected []string `json:"affected,omitempty"` // Conditional prune targets
	Options  []string `json:"options,omitempty"`  // Conflict claim pair
}

// External schema. Shapes vary between producers; every variant normalizes
// into the canonical Graph below.
type (
	// ExternalClaim is a claim as the semantic authority emits it.
	ExternalClaim struct {
		ID         string   `json:"id"`
		Label      string   `json:"label,omitempty"`
		Statements []string `json:"statements"`
	}

	// ExternalEdge is a typed relation between claims.
	ExternalEdge struct {
		Type   string `json:"type"`
		Source string `json:"source"`
		Target string `json:"target"`
	}

	// ExternalConditional declares a condition and the claims it affects.
	ExternalConditional struct {
		ID       string   `json:"id"`
		Question string   `json:"question,omitempty"`
		Affected []string `json:"affected"`
	}

	// ExternalConflict is the explicit-conflict variant.
	ExternalConflict struct {
		ID       string   `json:"id,omitempty"`
		Question string   `json:"question,omitempty"`
		Claims   []string `json:"claims"`
	}

	// ExternalGate declares prerequisite forcing points for a forcing point.
	ExternalGate struct {
		ForcingPoint string   `json:"forcing_point"`
		Requires     []string `json:"requires"`
	}

	// ExternalGraph is the full claim-graph input.
	ExternalGraph struct {
		Claims       []ExternalClaim       `json:"claims"`
		Edges        []ExternalEdge        `json:"edges,omitempty"`
		Conflicts    []ExternalConflict    `json:"conflicts,omitempty"`
		Tensions     [][]string            `json:"tensions,omitempty"` // Symmetric tension-list variant
		Conditionals []ExternalConditional `json:"conditionals,omitempty"`
		Gates        []ExternalGate        `json:"gates,omitempty"`
	}
)

// Graph is the canonical normalized claim graph.
type Graph struct {
	Claims        []model.Claim
	ForcingPoints []ForcingPoint
	Gates         map[string][]string // Forcing point id -> prerequisite forcing point ids
	Dropped       []string            // Normalization notes for diagnostics

	claimIndex map[string]int
	fpIndex    map[string]int
}

// Claim returns the claim with the given id.
func (g *Graph) Claim(id string) (model.Claim, bool) {
	if i, ok := g.claimIndex[id]; ok {
		return g.Claims[i], true
	}
	return model.Claim{}, false
}

// ForcingPoint returns the forcing point with the given id.
func (g *Graph) ForcingPoint(id string) (ForcingPoint, bool) {
	if i, ok := g.fpIndex[id]; ok {
		return g.ForcingPoints[i], true
	}
	return ForcingPoint{}, false
}

// Normalize converts an external claim graph into the canonical shape:
// claims deduplicated by id, conditionals deduplicated by id with affected
// sets unioned, conflicts deduplicated by unordered claim pair, and unknown
// claim references dropped. Structural inconsistency degrades to Dropped
// notes, never to an error.
func Normalize(ext ExternalGraph) *Graph {
	g := &Graph{
		Gates:      make(map[string][]string),
		claimIndex: make(map[string]int),
		fpIndex:    make(map[string]int),
	}

	for _, c := range ext.Claims {
		if c.ID == "" {
			g.Dropped = append(g.Dropped, "claim with empty id")
			continue
		}
		if i, ok := g.claimIndex[c.ID]; ok {
			g.Claims[i].Statements = unionSorted(g.Claims[i].Statements, c.Statements)
			continue
		}
		g.claimIndex[c.ID] = len(g.Claims)
		g.Claims = append(g.Claims, model.Claim{
			ID:         c.ID,
			Label:      c.Label,
			Statements: unionSorted(nil, c.Statements),
		})
	}

	g.normalizeConditionals(ext.Conditionals)
	g.normalizeConflicts(ext)

	fps := make(map[string]bool, len(g.ForcingPoints))
	for _, fp := range g.ForcingPoints {
		fps[fp.ID] = true
	}
	for _, gate := range ext.Gates {
		if !fps[gate.ForcingPoint] {
			g.Dropped = append(g.Dropped, fmt.Sprintf("gate for unknown forcing point %q", gate.ForcingPoint))
			continue
		}
		for _, req := range gate.Requires {
			if !fps[req] {
				g.Dropped = append(g.Dropped, fmt.Sprintf("gate requirement %q unknown", req))
				continue
			}
			g.Gates[gate.ForcingPoint] = append(g.Gates[gate.ForcingPoint], req)
		}
	}

	return g
}

func (g *Graph) normalizeConditionals(conds []ExternalConditional) {
	for _, c := range conds {
		if c.ID == "" {
			g.Dropped = append(g.Dropped, "conditional with empty id")
			continue
		}
		affected := make([]string, 0, len(c.Affected))
		for _, id := range c.Affected {
			if _, ok := g.claimIndex[id]; ok {
				affected = append(affected, id)
			} else {
				g.Dropped = append(g.Dropped, fmt.Sprintf("conditional %s affects unknown claim %q", c.ID, id))
			}
		}
		if i, ok := g.fpIndex[c.ID]; ok {
			// Contradictory duplicate declarations: union the affected sets.
			g.ForcingPoints[i].Affected = unionSorted(g.ForcingPoints[i].Affected, affected)
			continue
		}
		g.fpIndex[c.ID] = len(g.ForcingPoints)
		g.ForcingPoints = append(g.ForcingPoints, ForcingPoint{
			ID:       c.ID,
			Kind:     KindConditional,
			Question: c.Question,
			Affected: unionSorted(nil, affected),
		})
	}
}

// normalizeConflicts merges the three conflict variants (typed edges,
// explicit conflict records, symmetric tension lists) and deduplicates by
// unordered claim pair.
func (g *Graph) normalizeConflicts(ext ExternalGraph) {
	seen := make(map[[2]string]bool)

	addPair := func(a, b, id, question string) {
		if a == b {
			g.Dropped = append(g.Dropped, fmt.Sprintf("self-conflict on claim %q", a))
			return
		}
		if _, ok := g.claimIndex[a]; !ok {
			g.Dropped = append(g.Dropped, fmt.Sprintf("conflict references unknown claim %q", a))
			return
		}
		if _, ok := g.claimIndex[b]; !ok {
			g.Dropped = append(g.Dropped, fmt.Sprintf("conflict references unknown claim %q", b))
			return
		}
		if a > b {
			a, b = b, a
		}
		key := [2]string{a, b}
		if seen[key] {
			return
		}
		seen[key] = true

		if id == "" {
			id = fmt.Sprintf("conflict:%s|%s", a, b)
		}
		if _, dup := g.fpIndex[id]; dup {
			id = fmt.Sprintf("conflict:%s|%s", a, b)
			if _, dup2 := g.fpIndex[id]; dup2 {
				return
			}
		}
		g.fpIndex[id] = len(g.ForcingPoints)
		g.ForcingPoints = append(g.ForcingPoints, ForcingPoint{
			ID:       id,
			Kind:     KindConflict,
			Question: question,
			Options:  []string{a, b},
		})
	}

	// Explicit conflict records go first so their ids and questions win over
	// the anonymous edge and tension variants of the same pair.
	for _, c := range ext.Conflicts {
		known := make([]string, 0, len(c.Claims))
		for _, id := range c.Claims {
			if _, ok := g.claimIndex[id]; ok {
				known = append(known, id)
			} else {
				g.Dropped = append(g.Dropped, fmt.Sprintf("conflict references unknown claim %q", id))
			}
		}
		if len(known) < 2 {
			g.Dropped = append(g.Dropped, fmt.Sprintf("conflict %q has fewer than two known claims", c.ID))
			continue
		}
		// A list of k claims declares every pairing mutually exclusive.
		for i := 0; i < len(known); i++ {
			for j := i + 1; j < len(known); j++ {
				id := ""
				if len(known) == 2 {
					id = c.ID
				}
				addPair(known[i], known[j], id, c.Question)
			}
		}
	}
	for _, e := range ext.Edges {
		t := strings.ToLower(e.Type)
		if t != "conflicts" && t != "conflict" {
			continue
		}
		addPair(e.Source, e.Target, "", "")
	}
	for _, pair := range ext.Tensions {
		for i := 0; i < len(pair); i++ {
			for j := i + 1; j < len(pair); j++ {
				addPair(pair[i], pair[j], "", "")
			}
		}
	}
}

func unionSorted(base, extra []string) []string {
	set := make(map[string]bool, len(base)+len(extra))
	for _, s := range base {
		set[s] = true
	}
	for _, s := range extra {
		if s != "" {
			set[s] = true
		}
	}
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
