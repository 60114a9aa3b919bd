package extract

import (
	"regexp"

	"github.com/ppiankov/katharsis/internal/model"
)

// Signal family names.
const (
	SignalSequence    = "sequence"
	SignalTension     = "tension"
	SignalConditional = "conditional"
)

// ExclusionSeverity grades exclusion rules. Only hard exclusions remove a
// candidate; soft ones are diagnostic.
type ExclusionSeverity string

const (
	SeverityHard ExclusionSeverity = "hard"
	SeveritySoft ExclusionSeverity = "soft"
)

// Exclusion is a stance-scoped rejection rule for classification false
// positives. An empty Scope applies to every stance.
type Exclusion struct {
	Name     string
	Scope    model.Stance
	Severity ExclusionSeverity
	Pattern  *regexp.Regexp
}

// Patterns is the frozen pattern table: stance families, signal families,
// exclusion rules and meta-commentary frames. It is built once and shared
// read-only; callers must never mutate it.
type Patterns struct {
	Stance     map[model.Stance][]*regexp.Regexp
	Signal     map[string][]*regexp.Regexp
	Exclusions []Exclusion
	Meta       []*regexp.Regexp
}

var defaultPatterns = buildPatterns()

// DefaultPatterns returns the process-wide frozen pattern table.
func DefaultPatterns() *Patterns {
	return defaultPatterns
}

func rx(expr string) *regexp.Regexp {
	return regexp.MustCompile("(?i)" + expr)
}

func buildPatterns() *Patterns {
	return &Patterns{
		Stance: map[model.Stance][]*regexp.Regexp{
			model.StancePrerequisite: {
				rx(`\bbefore\b`),
				rx(`\bprior to\b`),
				rx(`\bbeforehand\b`),
				rx(`\b(?:as a )?prerequisite\b`),
				rx(`\bfirst(?:,| of all,?)\s`),
				rx(`\bmake sure\b.*\bfirst\b`),
			},
			model.StanceDependent: {
				rx(`\bafter(?:ward|wards)?\b`),
				rx(`\bonce\b`),
				rx(`\bdepends? (?:on|upon)\b`),
				rx(`\bas a (?:result|consequence)\b`),
				rx(`\btherefore\b`),
				rx(`\bconsequently\b`),
				rx(`\bfollowing (?:this|that|the)\b`),
			},
			model.StanceCautionary: {
				rx(`\b(?:warning|caution|beware|careful)\b`),
				rx(`\bavoid\b`),
				rx(`\bdo not\b|\bdon'?t\b`),
				rx(`\bnever\b`),
				rx(`\brisk(?:y|s|ed)?\b`),
				rx(`\bdanger(?:ous)?\b`),
				rx(`\bcan (?:break|corrupt|fail|lose)\b`),
			},
			model.StancePrescriptive: {
				rx(`\bshould\b`),
				rx(`\brecommend(?:ed|s|ation)?\b`),
				rx(`\badvis(?:e|ed|es|able)\b`),
				rx(`\bbest practice\b`),
				rx(`\bmust\b`),
				rx(`\bought to\b`),
				rx(`\bit'?s (?:best|wise|important) to\b`),
			},
			model.StanceUncertain: {
				rx(`\b(?:may|might|could)\b`),
				rx(`\b(?:possibly|perhaps|probably|likely)\b`),
				rx(`\b(?:unclear|uncertain|unknown)\b`),
				rx(`\b(?:seems?|appears?) (?:to|that|like)\b`),
				rx(`\breportedly\b`),
				rx(`\bnot (?:entirely )?sure\b`),
			},
			model.StanceAssertive: {
				rx(`\b(?:is|are|was|were|has|have|will)\b`),
				rx(`\bin fact\b`),
				rx(`\balways\b`),
			},
		},
		Signal: map[string][]*regexp.Regexp{
			SignalSequence: {
				rx(`\b(?:before|after|then|next|finally|subsequently|once)\b`),
				rx(`\bprior to\b`),
				rx(`\bfirst(?:,| of all)?\s`),
				rx(`\bstep \d+\b`),
			},
			SignalTension: {
				rx(`\b(?:however|but|although|though|whereas)\b`),
				rx(`\bon the other hand\b`),
				rx(`\bcontradicts?\b|\bconflicts?\b`),
				rx(`\b(?:instead|despite|nevertheless)\b`),
			},
			SignalConditional: {
				rx(`\b(?:if|unless|whenever)\b`),
				rx(`\bwhen\b`),
				rx(`\bdepend(?:s|ing)? on\b`),
				rx(`\bprovided that\b|\bin case\b|\bassuming\b`),
			},
		},
		Exclusions: []Exclusion{
			{
				Name:     "rhetorical_question",
				Severity: SeverityHard,
				Pattern:  regexp.MustCompile(`\?\s*$`),
			},
			{
				Name:     "quoted_text",
				Severity: SeverityHard,
				Pattern:  regexp.MustCompile(`^\s*["'\x{201C}\x{2018}].*["'\x{201D}\x{2019}]\s*[.!]?\s*$`),
			},
			{
				Name:     "short_fragment",
				Severity: SeverityHard,
				Pattern:  regexp.MustCompile(`^\s*\S+(?:\s+\S+){0,2}\s*$`),
			},
			{
				Name:     "hedged_first_person",
				Scope:    model.StanceUncertain,
				Severity: SeveritySoft,
				Pattern:  rx(`^\s*i (?:think|believe|guess|feel)\b`),
			},
			{
				Name:     "negated_recommendation",
				Scope:    model.StancePrescriptive,
				Severity: SeveritySoft,
				Pattern:  rx(`\bnot recommend(?:ed)?\b`),
			},
		},
		Meta: []*regexp.Regexp{
			rx(`^(?:let me|let'?s|i'?ll|i will|i'?d|i can)\b`),
			rx(`^(?:here'?s|here is|below (?:is|are))\b`),
			rx(`^(?:in summary|to summarize|in conclusion|to conclude|to recap|overall)\b`),
			rx(`^(?:sure|certainly|of course|great question|good question)[,!.]`),
			rx(`^as an ai\b`),
			rx(`\bhope this helps\b`),
		},
	}
}
