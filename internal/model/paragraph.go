package model

// Paragraph is a reconstructed grouping of statements sharing one
// (source, paragraph index) cell. Paragraphs are derived, never authored:
// identical inputs always reconstruct identical paragraphs.
type Paragraph struct {
	ID           string   `json:"id"`
	Source       int      `json:"source"`
	Index        int      `json:"index"` // Paragraph index within the source
	StatementIDs []string `json:"statement_ids"`
	Stance       Stance   `json:"stance"`    // Dominant stance, precedence-resolved
	Contested    bool     `json:"contested"` // Only the two narrow opposing pairs
	Signals      Signals  `json:"signals"`   // OR across member statements
	Text         string   `json:"text"`      // Original full paragraph text
}

// contestedPairs enumerates the only stance pairs that mark a paragraph
// contested. This definition is deliberately narrow; region and cluster
// uncertainty heuristics depend on it staying narrow.
var contestedPairs = [][2]Stance{
	{StancePrescriptive, StanceCautionary},
	{StanceAssertive, StanceUncertain},
}

// ContestedStances reports whether the given stance set contains one of the
// recognized opposing pairs.
func ContestedStances(present map[Stance]bool) bool {
	for _, pair := range contestedPairs {
		if present[pair[0]] && present[pair[1]] {
			return true
		}
	}
	return false
}
