package model

// Stance labels the rhetorical role of a statement. Exactly one stance is
// assigned per statement.
type Stance string

const (
	StancePrerequisite Stance = "prerequisite" // Must hold before something else
	StanceDependent    Stance = "dependent"    // Holds only as a consequence of something else
	StanceCautionary   Stance = "cautionary"   // Warns against or qualifies
	StancePrescriptive Stance = "prescriptive" // Recommends or mandates
	StanceUncertain    Stance = "uncertain"    // Hedged or tentative
	StanceAssertive    Stance = "assertive"    // Plain factual assertion (default)
)

// stancePriority is the fixed precedence order used both for classification
// (highest-priority matching family wins) and for dominance tie-breaks.
var stancePriority = map[Stance]int{
	StancePrerequisite: 0,
	StanceDependent:    1,
	StanceCautionary:   2,
	StancePrescriptive: 3,
	StanceUncertain:    4,
	StanceAssertive:    5,
}

// Priority returns the precedence rank of the stance (lower wins).
func (s Stance) Priority() int {
	if p, ok := stancePriority[s]; ok {
		return p
	}
	return len(stancePriority)
}

// StancesByPriority lists all stances in precedence order.
func StancesByPriority() []Stance {
	return []Stance{
		StancePrerequisite,
		StanceDependent,
		StanceCautionary,
		StancePrescriptive,
		StanceUncertain,
		StanceAssertive,
	}
}

// Signals are three independent boolean flags detected per statement.
type Signals struct {
	Sequence    bool `json:"sequence"`    // Ordering cues (before, after, then, step)
	Tension     bool `json:"tension"`     // Contrast cues (however, but, contradicts)
	Conditional bool `json:"conditional"` // Conditional cues (if, unless, depends)
}

// Or returns the member-wise logical OR of two signal sets.
func (s Signals) Or(o Signals) Signals {
	return Signals{
		Sequence:    s.Sequence || o.Sequence,
		Tension:     s.Tension || o.Tension,
		Conditional: s.Conditional || o.Conditional,
	}
}

// Location records where a statement sits inside its source text.
type Location struct {
	Paragraph     int    `json:"paragraph"`                // Paragraph index within the source (0-based)
	Sentence      int    `json:"sentence"`                 // Sentence index within the paragraph (0-based)
	ParagraphText string `json:"paragraph_text,omitempty"` // Original full paragraph text
}

// Coord is an optional 2-D layout position attached as an enrichment.
// It never participates in any downstream decision.
type Coord struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Statement is an atomic, stance-tagged unit of extracted evidence.
// Statements are immutable once extracted; Coord is the only field that may
// be attached later.
type Statement struct {
	ID         string   `json:"id"`
	Source     int      `json:"source"`     // Which text source produced it
	Text       string   `json:"text"`       // Raw sentence text
	Stance     Stance   `json:"stance"`     // Exactly one of the six labels
	Confidence float64  `json:"confidence"` // In [0,1], monotonic in match count
	Signals    Signals  `json:"signals"`
	Location   Location `json:"location"`
	Coord      *Coord   `json:"coord,omitempty"`
}
