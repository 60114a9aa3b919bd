package extract

import (
	"fmt"
	"sort"

	"github.com/ppiankov/katharsis/internal/model"
)

// BuildParagraphs groups statements by (source, paragraph index) and derives
// dominant stance, contested flag and aggregated signals. Paragraph ids are
// assigned sequentially in (source, paragraph) ascending order.
func BuildParagraphs(statements []model.Statement) []model.Paragraph {
	type cell struct {
		source int
		index  int
	}

	groups := make(map[cell][]int) // statement slice indices, encounter order
	var cells []cell
	for i, s := range statements {
		c := cell{s.Source, s.Location.Paragraph}
		if _, ok := groups[c]; !ok {
			cells = append(cells, c)
		}
		groups[c] = append(groups[c], i)
	}

	sort.Slice(cells, func(i, j int) bool {
		if cells[i].source != cells[j].source {
			return cells[i].source < cells[j].source
		}
		return cells[i].index < cells[j].index
	})

	var paragraphs []model.Paragraph
	for n, c := range cells {
		members := groups[c]
		// Deterministic member order: sentence index, encounter order, id.
		sort.SliceStable(members, func(a, b int) bool {
			sa, sb := statements[members[a]], statements[members[b]]
			if sa.Location.Sentence != sb.Location.Sentence {
				return sa.Location.Sentence < sb.Location.Sentence
			}
			if members[a] != members[b] {
				return members[a] < members[b]
			}
			return sa.ID < sb.ID
		})

		ids := make([]string, 0, len(members))
		seen := make(map[string]bool, len(members))
		present := make(map[model.Stance]bool)
		byStance := make(map[model.Stance]float64)
		var signals model.Signals
		text := ""
		for _, mi := range members {
			s := statements[mi]
			if seen[s.ID] {
				continue
			}
			seen[s.ID] = true
			ids = append(ids, s.ID)
			present[s.Stance] = true
			byStance[s.Stance] += s.Confidence
			signals = signals.Or(s.Signals)
			if text == "" {
				text = s.Location.ParagraphText
			}
		}

		paragraphs = append(paragraphs, model.Paragraph{
			ID:           fmt.Sprintf("p%d", n),
			Source:       c.source,
			Index:        c.index,
			StatementIDs: ids,
			Stance:       dominantStance(byStance),
			Contested:    model.ContestedStances(present),
			Signals:      signals,
			Text:         text,
		})
	}
	return paragraphs
}

// dominantStance picks the stance with the highest summed confidence,
// breaking ties by stance priority.
func dominantStance(byStance map[model.Stance]float64) model.Stance {
	best := model.StanceAssertive
	bestSum := -1.0
	for _, stance := range model.StancesByPriority() {
		sum, ok := byStance[stance]
		if !ok {
			continue
		}
		if sum > bestSum {
			best = stance
			bestSum = sum
		}
	}
	return best
}
