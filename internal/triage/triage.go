// Package triage classifies statements after claim pruning and reconstructs
// the source texts. Geometry proposes here (carrier and paraphrase detection
// run on embeddings); the claim graph has already decided what is pruned.
package triage

import (
	"math"
	"sort"

	"github.com/ppiankov/katharsis/internal/embed"
	"github.com/ppiankov/katharsis/internal/model"
	"github.com/ppiankov/katharsis/internal/substrate"
)

// Run computes per-statement verdicts for the pruned claims and rewrites
// every source. With zero pruned claims the pass short-circuits and each
// output is the original text, byte for byte.
func Run(analysis *model.Analysis, pruned, surviving []model.Claim, audit []string, cfg model.TriageConfig) model.PruneResult {
	res := model.PruneResult{
		Summary: model.PruneSummary{Audit: append([]string(nil), audit...)},
	}

	if len(pruned) == 0 {
		res.Passthrough = true
		for _, src := range analysis.SourceTexts {
			res.Outputs = append(res.Outputs, src)
		}
		return res
	}

	verdicts := make(map[string]model.Verdict)

	// Protection wins over everything: statements grounding any surviving
	// claim are kept verbatim no matter what later steps conclude.
	known := make(map[string]model.Statement, len(analysis.Statements))
	for _, s := range analysis.Statements {
		known[s.ID] = s
	}
	for _, c := range surviving {
		for _, id := range c.Statements {
			if _, ok := known[id]; ok {
				verdicts[id] = model.VerdictProtected
			}
		}
	}

	t := &triager{
		analysis: analysis,
		cfg:      cfg,
		known:    known,
		verdicts: verdicts,
	}

	ordered := append([]model.Claim(nil), pruned...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })
	for _, c := range ordered {
		t.triageClaim(c)
	}
	t.paraphraseSweep(ordered)

	res.Verdicts = verdicts
	for _, v := range verdicts {
		switch v {
		case model.VerdictProtected:
			res.Summary.Protected++
		case model.VerdictSkeletonize:
			res.Summary.Skeletonized++
		case model.VerdictRemove:
			res.Summary.Removed++
		}
	}
	res.Outputs = reconstruct(analysis, verdicts)
	return res
}

type triager struct {
	analysis *model.Analysis
	cfg      model.TriageConfig
	known    map[string]model.Statement
	verdicts map[string]model.Verdict
}

// triageClaim decides the fate of one pruned claim's statements. A statement
// whose content survives elsewhere (a carrier) is removed outright and the
// carriers are skeletonized; a statement that is its own sole carrier is
// skeletonized in place so the surrounding text keeps its shape.
func (t *triager) triageClaim(c model.Claim) {
	space := t.analysis.StatementSpace

	targets := make([]string, 0, len(c.Statements))
	inClaim := make(map[string]bool, len(c.Statements))
	for _, id := range c.Statements {
		if _, ok := t.known[id]; !ok {
			continue
		}
		inClaim[id] = true
		if t.verdicts[id] != model.VerdictProtected {
			targets = append(targets, id)
		}
	}
	sort.Strings(targets)

	centroid := claimCentroid(c, space)

	for _, id := range targets {
		tv := space.Get(id)
		if centroid == nil || tv == nil {
			// No geometry to find carriers with; reduce in place.
			t.skeletonize(id)
			continue
		}

		var carriers []string
		for _, cand := range t.candidates(inClaim) {
			cv := space.Get(cand)
			if cv == nil {
				continue
			}
			if !t.paragraphNear(centroid, cand) {
				continue
			}
			toCentroid := substrate.Quantize(embed.Cosine(cv, centroid))
			toTarget := substrate.Quantize(embed.Cosine(cv, tv))
			if toCentroid >= t.cfg.CarrierCentroid && toTarget >= t.cfg.CarrierStatement {
				carriers = append(carriers, cand)
			}
		}

		if len(carriers) == 0 {
			t.skeletonize(id)
			continue
		}
		// Skeletonize sticks; only an unmarked target drops to remove.
		if _, marked := t.verdicts[id]; !marked {
			t.verdicts[id] = model.VerdictRemove
		}
		for _, carrier := range carriers {
			t.skeletonize(carrier)
		}
	}
}

// candidates lists statements eligible to carry pruned content: not
// protected, not already removed, not part of the claim under triage.
func (t *triager) candidates(inClaim map[string]bool) []string {
	out := make([]string, 0, len(t.known))
	for id := range t.known {
		if inClaim[id] {
			continue
		}
		switch t.verdicts[id] {
		case model.VerdictProtected, model.VerdictRemove:
			continue
		}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// paragraphNear prefilters candidates by their paragraph's similarity to the
// pruned claim's centroid; a missing paragraph vector keeps the candidate in
// play.
func (t *triager) paragraphNear(centroid []float32, cand string) bool {
	pv := t.paragraphVector(cand)
	if pv == nil {
		return true
	}
	return substrate.Quantize(embed.Cosine(pv, centroid)) > t.cfg.ParagraphPrefilter
}

func (t *triager) paragraphVector(statementID string) []float32 {
	s, ok := t.known[statementID]
	if !ok {
		return nil
	}
	for _, p := range t.analysis.Paragraphs {
		if p.Source == s.Source && p.Index == s.Location.Paragraph {
			return t.analysis.ParagraphSpace.Get(p.ID)
		}
	}
	return nil
}

func (t *triager) skeletonize(id string) {
	switch t.verdicts[id] {
	case model.VerdictProtected, model.VerdictSkeletonize, model.VerdictRemove:
		return
	}
	t.verdicts[id] = model.VerdictSkeletonize
}

// paraphraseSweep catches restatements of pruned content outside the claims'
// own provenance. Anything still unmarked that sits within the paraphrase
// threshold of a pruning target is skeletonized, never removed.
func (t *triager) paraphraseSweep(pruned []model.Claim) {
	space := t.analysis.StatementSpace

	var targetVecs [][]float32
	for _, c := range pruned {
		for _, id := range c.Statements {
			if t.verdicts[id] == model.VerdictProtected {
				continue
			}
			if v := space.Get(id); v != nil {
				targetVecs = append(targetVecs, v)
			}
		}
	}
	if len(targetVecs) == 0 {
		return
	}

	ids := make([]string, 0, len(t.known))
	for id := range t.known {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if _, marked := t.verdicts[id]; marked {
			continue
		}
		v := space.Get(id)
		if v == nil {
			continue
		}
		best := math.Inf(-1)
		for _, tv := range targetVecs {
			if s := substrate.Quantize(embed.Cosine(v, tv)); s > best {
				best = s
			}
		}
		if best >= t.cfg.Paraphrase {
			t.verdicts[id] = model.VerdictSkeletonize
		}
	}
}

// claimCentroid is the renormalized mean of the claim's embedded provenance
// statements, nil when none are embedded.
func claimCentroid(c model.Claim, space model.Space) []float32 {
	var sum []float64
	count := 0
	for _, id := range c.Statements {
		v := space.Get(id)
		if v == nil {
			continue
		}
		if sum == nil {
			sum = make([]float64, len(v))
		}
		for k := range v {
			sum[k] += float64(v[k])
		}
		count++
	}
	if count == 0 {
		return nil
	}
	var norm float64
	for k := range sum {
		sum[k] /= float64(count)
		norm += sum[k] * sum[k]
	}
	out := make([]float32, len(sum))
	if norm > 0 {
		inv := 1 / math.Sqrt(norm)
		for k := range sum {
			out[k] = float32(sum[k] * inv)
		}
	}
	return out
}
