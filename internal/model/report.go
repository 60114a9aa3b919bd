package model

import "time"

// Analysis is the immutable snapshot produced by one pipeline run, consumed
// by the external claim authority and later by the pruning engine.
type Analysis struct {
	Query     string    `json:"query,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Sources   int       `json:"sources"` // Distinct source count

	// SourceTexts keeps the normalized inputs verbatim so pruning can
	// reconstruct from the analysis file alone.
	SourceTexts []SourceOutput `json:"source_texts"`

	Statements []Statement `json:"statements"`
	Paragraphs []Paragraph `json:"paragraphs"`

	StatementSpace Space `json:"statement_space"`
	ParagraphSpace Space `json:"paragraph_space"`

	Substrate  *Substrate `json:"substrate"`
	Clustering Clustering `json:"clustering"`
	Regions    []Region   `json:"regions"`

	Warnings []string `json:"warnings,omitempty"` // Partial-result and degradation notes
}

// SourceOutput is one rewritten source text.
type SourceOutput struct {
	Source int    `json:"source"`
	Text   string `json:"text"`
}

// PruneSummary counts verdicts and carries the traversal audit trail,
// suitable for downstream prompt injection.
type PruneSummary struct {
	Protected    int      `json:"protected"`
	Skeletonized int      `json:"skeletonized"`
	Removed      int      `json:"removed"`
	Audit        []string `json:"audit,omitempty"`
}

// PruneResult is the triage/reconstruction output: one rewritten text per
// source plus verdicts and a summary. Passthrough marks the zero-pruned-claims
// short circuit where every output equals its original.
type PruneResult struct {
	Passthrough bool               `json:"passthrough"`
	Verdicts    map[string]Verdict `json:"verdicts,omitempty"` // Statement id -> verdict
	Outputs     []SourceOutput     `json:"outputs"`            // Ordered by source index
	Summary     PruneSummary       `json:"summary"`
}
