package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ppiankov/katharsis/internal/model"
)

// Extractor turns raw source texts into statements and paragraphs.
// Extraction is deterministic: identical inputs always yield identical output.
type Extractor struct {
	cfg      model.ExtractConfig
	patterns *Patterns
}

// New creates an extractor with the shared frozen pattern table.
func New(cfg model.ExtractConfig) *Extractor {
	return &Extractor{cfg: cfg, patterns: DefaultPatterns()}
}

// Result is the extraction output for a whole bundle. Hitting a hard cap
// sets Truncated and a warning; the partial result is still valid.
type Result struct {
	Statements []model.Statement
	Paragraphs []model.Paragraph
	Warnings   []string
	Truncated  bool
}

// Extract processes every source in order and reconstructs paragraphs.
// Empty sources are treated as absent; zero extractable statements is a
// valid, non-fatal outcome.
func (e *Extractor) Extract(bundle *model.Bundle) *Result {
	res := &Result{}
	for _, src := range bundle.Sources {
		e.extractSource(src, res)
	}
	res.Paragraphs = BuildParagraphs(res.Statements)
	return res
}

func (e *Extractor) extractSource(src model.Source, res *Result) {
	text := src.Text
	if e.cfg.StripHTML && looksHTML(text) {
		text = StripHTML(text)
	}

	sentences := 0
	candidates := 0
	for pi, para := range SplitParagraphs(text) {
		for si, sent := range splitSentences(para) {
			sentences++
			if sentences > e.cfg.MaxSentences {
				res.Truncated = true
				res.Warnings = append(res.Warnings,
					fmt.Sprintf("source %d: sentence cap %d reached, extraction truncated", src.Source, e.cfg.MaxSentences))
				return
			}
			if !e.substantive(sent) {
				continue
			}
			candidates++
			if candidates > e.cfg.MaxCandidates {
				res.Truncated = true
				res.Warnings = append(res.Warnings,
					fmt.Sprintf("source %d: candidate cap %d reached, extraction truncated", src.Source, e.cfg.MaxCandidates))
				return
			}

			stance, confidence := e.classify(sent)
			if e.excluded(sent, stance) {
				continue
			}

			res.Statements = append(res.Statements, model.Statement{
				ID:         fmt.Sprintf("s%d-%d-%d", src.Source, pi, si),
				Source:     src.Source,
				Text:       sent,
				Stance:     stance,
				Confidence: confidence,
				Signals:    e.signals(sent),
				Location: model.Location{
					Paragraph:     pi,
					Sentence:      si,
					ParagraphText: para,
				},
			})
		}
	}
}

// classify counts pattern matches per stance family and selects the
// highest-priority stance with at least one match. Confidence is a monotonic
// step function of the selected family's match count.
func (e *Extractor) classify(sentence string) (model.Stance, float64) {
	for _, stance := range model.StancesByPriority() {
		matches := 0
		for _, p := range e.patterns.Stance[stance] {
			if p.MatchString(sentence) {
				matches++
			}
		}
		if matches > 0 {
			return stance, matchConfidence(matches)
		}
	}
	return model.StanceAssertive, matchConfidence(1)
}

func matchConfidence(matches int) float64 {
	switch {
	case matches >= 3:
		return 0.95
	case matches == 2:
		return 0.80
	default:
		return 0.65
	}
}

// excluded applies stance-scoped exclusion rules. Only hard-severity rules
// remove a candidate.
func (e *Extractor) excluded(sentence string, stance model.Stance) bool {
	for _, ex := range e.patterns.Exclusions {
		if ex.Severity != SeverityHard {
			continue
		}
		if ex.Scope != "" && ex.Scope != stance {
			continue
		}
		if ex.Pattern.MatchString(sentence) {
			return true
		}
	}
	return false
}

func (e *Extractor) signals(sentence string) model.Signals {
	return model.Signals{
		Sequence:    matchAny(e.patterns.Signal[SignalSequence], sentence),
		Tension:     matchAny(e.patterns.Signal[SignalTension], sentence),
		Conditional: matchAny(e.patterns.Signal[SignalConditional], sentence),
	}
}

func matchAny(patterns []*regexp.Regexp, s string) bool {
	for _, p := range patterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}

// substantive rejects candidates that cannot carry evidence: too few words,
// headings, table rows, empty bullets and meta-commentary framing.
func (e *Extractor) substantive(sentence string) bool {
	trimmed := strings.TrimSpace(sentence)
	if trimmed == "" {
		return false
	}
	if strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "|") {
		return false
	}
	if bulletOnly.MatchString(trimmed) {
		return false
	}
	// Heading-like: short, no terminal punctuation or trailing colon.
	words := strings.Fields(stripBullet(trimmed))
	if len(words) < e.cfg.MinWords {
		return false
	}
	if strings.HasSuffix(trimmed, ":") && len(words) <= 8 {
		return false
	}
	for _, p := range e.patterns.Meta {
		if p.MatchString(trimmed) {
			return false
		}
	}
	return true
}

var (
	bulletOnly   = regexp.MustCompile(`^[-*\x{2022}]+\s*$`)
	bulletPrefix = regexp.MustCompile(`^[-*\x{2022}]+\s+`)
)

func stripBullet(s string) string {
	return bulletPrefix.ReplaceAllString(s, "")
}

// SplitParagraphs splits raw text on blank-line boundaries. Reconstruction
// uses the same split so paragraph indexes line up with extraction.
func SplitParagraphs(text string) []string {
	var paras []string
	for _, block := range blankLine.Split(text, -1) {
		block = strings.TrimSpace(block)
		if block != "" {
			paras = append(paras, block)
		}
	}
	return paras
}

var blankLine = regexp.MustCompile(`\n\s*\n`)

// Sentence splitting protects abbreviations and decimals before splitting on
// punctuation boundaries, then restores the protected periods.
const protectedDot = "․" // one-dot leader, never present in input

var (
	abbrevDot   = regexp.MustCompile(`(?i)\b(e\.g|i\.e|etc|vs|cf|dr|mr|mrs|ms|st|no|fig|approx|min|max)\.`)
	decimalDot  = regexp.MustCompile(`(\d)\.(\d)`)
	sentenceEnd = regexp.MustCompile(`([.!?]+)(\s+|$)`)
)

func splitSentences(paragraph string) []string {
	protected := abbrevDot.ReplaceAllString(paragraph, "${1}"+protectedDot)
	protected = decimalDot.ReplaceAllString(protected, "${1}"+protectedDot+"${2}")
	protected = strings.ReplaceAll(protected, "\n", " ")

	var sentences []string
	last := 0
	for _, loc := range sentenceEnd.FindAllStringIndex(protected, -1) {
		raw := protected[last:loc[1]]
		last = loc[1]
		if s := restore(raw); s != "" {
			sentences = append(sentences, s)
		}
	}
	if last < len(protected) {
		if s := restore(protected[last:]); s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

func restore(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, protectedDot, "."))
}
