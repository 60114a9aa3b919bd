package model

// Claim is an externally identified semantic position. This core treats
// claims as opaque except for id and provenance.
type Claim struct {
	ID         string   `json:"id"`
	Label      string   `json:"label,omitempty"`
	Statements []string `json:"statements"` // Grounding statement ids
}

// ClaimStatus is the per-claim traversal status.
type ClaimStatus string

const (
	ClaimActive ClaimStatus = "active"
	ClaimPruned ClaimStatus = "pruned"
)

// Verdict is the per-statement triage classification computed once per
// pruning pass. It drives reconstruction but never mutates statements.
type Verdict string

const (
	VerdictProtected   Verdict = "protected"   // Referenced by a surviving claim; kept verbatim
	VerdictSkeletonize Verdict = "skeletonize" // Reduced to bare content words
	VerdictRemove      Verdict = "remove"      // Omitted entirely (a carrier survives elsewhere)
)
