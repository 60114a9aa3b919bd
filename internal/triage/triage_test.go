package triage

import (
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/katharsis/internal/model"
)

func testCfg() model.TriageConfig {
	return model.DefaultConfig().Triage
}

func statement(id string, source, paragraph, sentence int, text string) model.Statement {
	return model.Statement{
		ID:     id,
		Source: source,
		Text:   text,
		Stance: model.StanceAssertive,
		Location: model.Location{
			Paragraph: paragraph,
			Sentence:  sentence,
		},
	}
}

// twoSourceAnalysis holds a near-duplicate pair across sources plus one
// unrelated protected statement.
func twoSourceAnalysis() *model.Analysis {
	a := &model.Analysis{
		CreatedAt: time.Now().UTC(),
		Sources:   2,
		SourceTexts: []model.SourceOutput{
			{Source: 0, Text: "The cache must be flushed daily.\n\nBackups run nightly at two."},
			{Source: 1, Text: "The cache must be flushed every day."},
		},
		Statements: []model.Statement{
			statement("s0-0-0", 0, 0, 0, "The cache must be flushed daily."),
			statement("s0-1-0", 0, 1, 0, "Backups run nightly at two."),
			statement("s1-0-0", 1, 0, 0, "The cache must be flushed every day."),
		},
		StatementSpace: model.NewSpace(3),
		ParagraphSpace: model.NewSpace(3),
	}
	a.StatementSpace.Vectors["s0-0-0"] = []float32{1, 0, 0}
	a.StatementSpace.Vectors["s0-1-0"] = []float32{0, 1, 0}
	a.StatementSpace.Vectors["s1-0-0"] = []float32{0.99, 0.141, 0}
	return a
}

func TestPassthroughWhenNothingPruned(t *testing.T) {
	a := twoSourceAnalysis()
	res := Run(a, nil, []model.Claim{{ID: "S", Statements: []string{"s0-1-0"}}}, nil, testCfg())

	if !res.Passthrough {
		t.Fatal("expected passthrough")
	}
	if len(res.Outputs) != 2 {
		t.Fatalf("outputs = %d, want 2", len(res.Outputs))
	}
	for i, out := range res.Outputs {
		if out.Text != a.SourceTexts[i].Text {
			t.Errorf("source %d not byte-identical", out.Source)
		}
	}
}

func TestCarrierRemovalAndSkeleton(t *testing.T) {
	a := twoSourceAnalysis()
	pruned := []model.Claim{{ID: "A", Statements: []string{"s0-0-0"}}}
	surviving := []model.Claim{{ID: "S", Statements: []string{"s0-1-0"}}}

	res := Run(a, pruned, surviving, []string{"chose S over A"}, testCfg())
	if res.Passthrough {
		t.Fatal("unexpected passthrough")
	}
	if res.Verdicts["s0-0-0"] != model.VerdictRemove {
		t.Errorf("target verdict = %s, want remove", res.Verdicts["s0-0-0"])
	}
	if res.Verdicts["s1-0-0"] != model.VerdictSkeletonize {
		t.Errorf("carrier verdict = %s, want skeletonize", res.Verdicts["s1-0-0"])
	}
	if res.Verdicts["s0-1-0"] != model.VerdictProtected {
		t.Errorf("protected verdict = %s", res.Verdicts["s0-1-0"])
	}

	if res.Summary.Protected != 1 || res.Summary.Skeletonized != 1 || res.Summary.Removed != 1 {
		t.Errorf("summary = %+v", res.Summary)
	}
	if len(res.Summary.Audit) != 1 || res.Summary.Audit[0] != "chose S over A" {
		t.Errorf("audit = %v", res.Summary.Audit)
	}

	if got := res.Outputs[0].Text; got != "[removed]\n\nBackups run nightly at two." {
		t.Errorf("source 0 = %q", got)
	}
	if got := res.Outputs[1].Text; strings.Contains(got, "must") || !strings.Contains(got, "cache") {
		t.Errorf("source 1 skeleton = %q", got)
	}
}

func TestProtectionWins(t *testing.T) {
	a := twoSourceAnalysis()
	// The same statement grounds both a pruned and a surviving claim.
	pruned := []model.Claim{{ID: "A", Statements: []string{"s0-0-0"}}}
	surviving := []model.Claim{{ID: "S", Statements: []string{"s0-0-0", "s0-1-0"}}}

	res := Run(a, pruned, surviving, nil, testCfg())
	if res.Verdicts["s0-0-0"] != model.VerdictProtected {
		t.Fatalf("verdict = %s, want protected", res.Verdicts["s0-0-0"])
	}
	if res.Outputs[0].Text != a.SourceTexts[0].Text {
		t.Error("protected statement was rewritten")
	}
}

func TestSoleCarrierSkeletonizedInPlace(t *testing.T) {
	a := &model.Analysis{
		Sources: 1,
		SourceTexts: []model.SourceOutput{
			{Source: 0, Text: "The experimental flag should never ship to production."},
		},
		Statements: []model.Statement{
			statement("s0-0-0", 0, 0, 0, "The experimental flag should never ship to production."),
		},
		StatementSpace: model.NewSpace(3),
		ParagraphSpace: model.NewSpace(3),
	}
	a.StatementSpace.Vectors["s0-0-0"] = []float32{1, 0, 0}

	res := Run(a, []model.Claim{{ID: "A", Statements: []string{"s0-0-0"}}}, nil, nil, testCfg())
	if res.Verdicts["s0-0-0"] != model.VerdictSkeletonize {
		t.Fatalf("verdict = %s, want skeletonize", res.Verdicts["s0-0-0"])
	}
	out := res.Outputs[0].Text
	if out == a.SourceTexts[0].Text {
		t.Error("sole carrier not reduced")
	}
	if !strings.Contains(out, "experimental") {
		t.Errorf("content words lost: %q", out)
	}
}

func TestParaphraseSweepCatchesPrefilteredRestatement(t *testing.T) {
	a := twoSourceAnalysis()
	// The restatement's paragraph sits far from the pruned claim's centroid:
	// the prefilter keeps it out of carrier candidates and the sweep must
	// catch it instead.
	a.Paragraphs = []model.Paragraph{
		{ID: "p0", Source: 0, Index: 0},
		{ID: "p1", Source: 0, Index: 1},
		{ID: "p2", Source: 1, Index: 0},
	}
	a.ParagraphSpace.Vectors["p0"] = []float32{1, 0, 0}
	a.ParagraphSpace.Vectors["p2"] = []float32{0, 1, 0}

	pruned := []model.Claim{{ID: "A", Statements: []string{"s0-0-0"}}}
	res := Run(a, pruned, nil, nil, testCfg())

	// No carrier reachable: the target reduces in place.
	if res.Verdicts["s0-0-0"] != model.VerdictSkeletonize {
		t.Errorf("target verdict = %s, want skeletonize", res.Verdicts["s0-0-0"])
	}
	// The restatement still falls to the paraphrase sweep.
	if res.Verdicts["s1-0-0"] != model.VerdictSkeletonize {
		t.Errorf("paraphrase verdict = %s, want skeletonize", res.Verdicts["s1-0-0"])
	}
	if _, marked := res.Verdicts["s0-1-0"]; marked {
		t.Errorf("unrelated statement marked: %s", res.Verdicts["s0-1-0"])
	}
}

func TestCarrierPrefilterUsesClaimCentroid(t *testing.T) {
	a := twoSourceAnalysis()
	// The target's own paragraph points away from everything, but the
	// candidate's paragraph sits on the claim centroid. The prefilter
	// measures against the centroid, so the carrier stays reachable.
	a.Paragraphs = []model.Paragraph{
		{ID: "p0", Source: 0, Index: 0},
		{ID: "p2", Source: 1, Index: 0},
	}
	a.ParagraphSpace.Vectors["p0"] = []float32{0, 0, 1}
	a.ParagraphSpace.Vectors["p2"] = []float32{1, 0, 0}

	pruned := []model.Claim{{ID: "A", Statements: []string{"s0-0-0"}}}
	res := Run(a, pruned, nil, nil, testCfg())

	if res.Verdicts["s0-0-0"] != model.VerdictRemove {
		t.Errorf("target verdict = %s, want remove", res.Verdicts["s0-0-0"])
	}
	if res.Verdicts["s1-0-0"] != model.VerdictSkeletonize {
		t.Errorf("carrier verdict = %s, want skeletonize", res.Verdicts["s1-0-0"])
	}
}

func TestSkeleton(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"The cache must be flushed every day.", "cache flushed every day"},
		{"It is not that.", "[...]"},
		{"Restart nginx now.", "Restart nginx now"},
	}
	for _, tt := range tests {
		if got := Skeleton(tt.in); got != tt.want {
			t.Errorf("Skeleton(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
