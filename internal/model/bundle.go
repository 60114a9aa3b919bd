package model

import "sort"

// Source is one raw text-generation output to analyze.
type Source struct {
	Source int    `json:"source" yaml:"source"` // Source index
	Text   string `json:"text" yaml:"text"`     // Raw free text (may be HTML)
}

// Bundle is the ordered set of per-source raw texts answering one query.
type Bundle struct {
	Query   string   `json:"query,omitempty" yaml:"query,omitempty"`
	Sources []Source `json:"sources" yaml:"sources"`
}

// Normalize sorts sources by index and drops entries with empty text,
// treating them as absent rather than failing.
func (b *Bundle) Normalize() {
	kept := b.Sources[:0]
	for _, s := range b.Sources {
		if s.Text != "" {
			kept = append(kept, s)
		}
	}
	b.Sources = kept
	sort.SliceStable(b.Sources, func(i, j int) bool {
		return b.Sources[i].Source < b.Sources[j].Source
	})
}

// Text returns the raw text for the given source index, and whether it exists.
func (b *Bundle) Text(source int) (string, bool) {
	for _, s := range b.Sources {
		if s.Source == source {
			return s.Text, true
		}
	}
	return "", false
}
