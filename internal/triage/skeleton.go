package triage

import (
	"sort"
	"strings"

	"github.com/ppiankov/katharsis/internal/extract"
	"github.com/ppiankov/katharsis/internal/model"
)

// Reconstruction markers.
const (
	emptySkeleton    = "[...]"
	removedParagraph = "[removed]"
)

// reconstruct rewrites every source paragraph by paragraph. A paragraph none
// of whose statements carry a skeletonize or remove verdict passes through
// verbatim; anything else is rebuilt from its member statements.
func reconstruct(analysis *model.Analysis, verdicts map[string]model.Verdict) []model.SourceOutput {
	type cell struct {
		source, paragraph int
	}
	members := make(map[cell][]model.Statement)
	for _, s := range analysis.Statements {
		key := cell{s.Source, s.Location.Paragraph}
		members[key] = append(members[key], s)
	}
	for key := range members {
		sort.Slice(members[key], func(i, j int) bool {
			a, b := members[key][i], members[key][j]
			if a.Location.Sentence != b.Location.Sentence {
				return a.Location.Sentence < b.Location.Sentence
			}
			return a.ID < b.ID
		})
	}

	var outputs []model.SourceOutput
	for _, src := range analysis.SourceTexts {
		paras := extract.SplitParagraphs(src.Text)
		rebuilt := make([]string, 0, len(paras))
		for pi, original := range paras {
			stmts := members[cell{src.Source, pi}]
			if !touched(stmts, verdicts) {
				rebuilt = append(rebuilt, original)
				continue
			}
			rebuilt = append(rebuilt, rebuildParagraph(stmts, verdicts))
		}
		outputs = append(outputs, model.SourceOutput{
			Source: src.Source,
			Text:   strings.Join(rebuilt, "\n\n"),
		})
	}
	return outputs
}

func touched(stmts []model.Statement, verdicts map[string]model.Verdict) bool {
	for _, s := range stmts {
		switch verdicts[s.ID] {
		case model.VerdictSkeletonize, model.VerdictRemove:
			return true
		}
	}
	return false
}

// rebuildParagraph reassembles a paragraph from its statements: protected
// and unmarked statements verbatim, skeletonized ones reduced to content
// words, removed ones omitted. A paragraph that loses everything collapses
// to the removed marker.
func rebuildParagraph(stmts []model.Statement, verdicts map[string]model.Verdict) string {
	var parts []string
	for _, s := range stmts {
		switch verdicts[s.ID] {
		case model.VerdictRemove:
			continue
		case model.VerdictSkeletonize:
			parts = append(parts, Skeleton(s.Text))
		default:
			parts = append(parts, s.Text)
		}
	}
	if len(parts) == 0 {
		return removedParagraph
	}
	return strings.Join(parts, " ")
}

// stopwords for the content-word reduction. Deliberately small: the skeleton
// should stay recognizable, not minimal.
var stopwords = map[string]bool{
	"a": true, "an": true, "the": true,
	"is": true, "are": true, "was": true, "were": true, "be": true,
	"been": true, "being": true, "am": true,
	"do": true, "does": true, "did": true, "doing": true,
	"have": true, "has": true, "had": true, "having": true,
	"will": true, "would": true, "shall": true, "should": true,
	"can": true, "could": true, "may": true, "might": true, "must": true,
	"i": true, "you": true, "he": true, "she": true, "it": true,
	"we": true, "they": true, "your": true, "their": true, "its": true,
	"this": true, "that": true, "these": true, "those": true,
	"and": true, "or": true, "but": true, "so": true, "because": true,
	"of": true, "to": true, "in": true, "on": true, "at": true,
	"by": true, "for": true, "with": true, "from": true, "as": true,
	"into": true, "about": true, "than": true, "then": true,
	"not": true, "no": true, "very": true, "really": true, "quite": true,
	"also": true, "just": true, "there": true, "here": true,
}

// Skeleton reduces a sentence to its content words. Function words and
// trailing punctuation drop; word order is preserved. An empty reduction
// yields the placeholder marker.
func Skeleton(text string) string {
	var kept []string
	for _, w := range strings.Fields(text) {
		trimmed := strings.Trim(w, ".,;:!?()[]{}\"'")
		if trimmed == "" {
			continue
		}
		if stopwords[strings.ToLower(trimmed)] {
			continue
		}
		kept = append(kept, trimmed)
	}
	if len(kept) == 0 {
		return emptySkeleton
	}
	return strings.Join(kept, " ")
}
