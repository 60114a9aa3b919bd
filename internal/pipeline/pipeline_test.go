package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ppiankov/katharsis/internal/logging"
	"github.com/ppiankov/katharsis/internal/model"
	"github.com/ppiankov/katharsis/internal/traversal"
)

func testConfig() *model.Config {
	cfg := model.DefaultConfig()
	cfg.Embedding.Provider = "hash"
	cfg.Embedding.Dim = 32
	cfg.Embedding.RPS = 0
	cfg.Cache.Enabled = false
	cfg.Substrate.Layout = false
	return cfg
}

func testBundle() *model.Bundle {
	return &model.Bundle{
		Query: "how do I upgrade safely",
		Sources: []model.Source{
			{Source: 0, Text: "You should back up your data before upgrading. The upgrade tool verifies the archive automatically.\n\nNever interrupt the migration once it has started."},
			{Source: 1, Text: "Before any upgrade, make a full backup first. Afterwards, the system reboots on its own."},
			{Source: 2, Text: "The release notes are published every month."},
		},
	}
}

func newTestPipeline(t *testing.T) *Pipeline {
	t.Helper()
	p, err := New(testConfig(), logging.New(false))
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestAnalyzeEndToEnd(t *testing.T) {
	p := newTestPipeline(t)
	analysis, err := p.Analyze(context.Background(), testBundle())
	if err != nil {
		t.Fatal(err)
	}

	if analysis.Sources != 3 {
		t.Errorf("sources = %d, want 3", analysis.Sources)
	}
	if len(analysis.SourceTexts) != 3 {
		t.Fatalf("source texts = %d, want 3", len(analysis.SourceTexts))
	}
	if len(analysis.Statements) == 0 || len(analysis.Paragraphs) == 0 {
		t.Fatalf("extraction empty: %d statements, %d paragraphs", len(analysis.Statements), len(analysis.Paragraphs))
	}
	if analysis.StatementSpace.Len() != len(analysis.Statements) {
		t.Errorf("statement space holds %d of %d", analysis.StatementSpace.Len(), len(analysis.Statements))
	}
	if analysis.ParagraphSpace.Len() != len(analysis.Paragraphs) {
		t.Errorf("paragraph space holds %d of %d", analysis.ParagraphSpace.Len(), len(analysis.Paragraphs))
	}
	if analysis.Substrate == nil {
		t.Fatal("no substrate")
	}
	if len(analysis.Substrate.Nodes) != len(analysis.Paragraphs) {
		t.Errorf("nodes = %d, paragraphs = %d", len(analysis.Substrate.Nodes), len(analysis.Paragraphs))
	}
	if len(analysis.Regions) == 0 {
		t.Error("no regions")
	}

	covered := make(map[string]bool)
	for _, r := range analysis.Regions {
		for _, id := range r.NodeIDs {
			covered[id] = true
		}
	}
	for _, n := range analysis.Substrate.Nodes {
		if !covered[n.ID] {
			t.Errorf("node %s not covered by regions", n.ID)
		}
	}
}

func TestAnalyzeDeterministicAcrossWorkerCounts(t *testing.T) {
	cfgA := testConfig()
	cfgA.Concurrency.Workers = 1
	cfgB := testConfig()
	cfgB.Concurrency.Workers = 8

	pa, err := New(cfgA, logging.New(false))
	if err != nil {
		t.Fatal(err)
	}
	pb, err := New(cfgB, logging.New(false))
	if err != nil {
		t.Fatal(err)
	}

	a, err := pa.Analyze(context.Background(), testBundle())
	if err != nil {
		t.Fatal(err)
	}
	b, err := pb.Analyze(context.Background(), testBundle())
	if err != nil {
		t.Fatal(err)
	}

	// CreatedAt differs by construction; everything derived must not.
	a.CreatedAt = b.CreatedAt
	aj, bj := mustJSON(t, a), mustJSON(t, b)
	if aj != bj {
		t.Error("analysis differs between 1 and 8 workers")
	}
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestPrunePassthroughWithoutResolutions(t *testing.T) {
	p := newTestPipeline(t)
	analysis, err := p.Analyze(context.Background(), testBundle())
	if err != nil {
		t.Fatal(err)
	}

	graph := traversal.Normalize(traversal.ExternalGraph{
		Claims: []traversal.ExternalClaim{{ID: "A", Statements: []string{analysis.Statements[0].ID}}},
	})
	res, err := p.Prune(analysis, graph, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Passthrough {
		t.Fatal("expected passthrough with nothing pruned")
	}
	for i, out := range res.Outputs {
		if out.Text != analysis.SourceTexts[i].Text {
			t.Errorf("source %d changed under passthrough", out.Source)
		}
	}
}

func TestPruneConflictResolution(t *testing.T) {
	p := newTestPipeline(t)
	analysis, err := p.Analyze(context.Background(), testBundle())
	if err != nil {
		t.Fatal(err)
	}

	// Claim B owns every statement of source 2.
	var bStatements []string
	for _, s := range analysis.Statements {
		if s.Source == 2 {
			bStatements = append(bStatements, s.ID)
		}
	}
	if len(bStatements) == 0 {
		t.Fatal("no statements extracted from source 2")
	}
	graph := traversal.Normalize(traversal.ExternalGraph{
		Claims: []traversal.ExternalClaim{
			{ID: "A", Statements: []string{analysis.Statements[0].ID}},
			{ID: "B", Statements: bStatements},
		},
		Conflicts: []traversal.ExternalConflict{{ID: "pick", Claims: []string{"A", "B"}}},
	})

	res, err := p.Prune(analysis, graph, []traversal.Resolution{
		{ForcingPoint: "pick", Kind: traversal.KindConflict, Chosen: "A"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Passthrough {
		t.Fatal("unexpected passthrough")
	}
	if len(res.Summary.Audit) != 1 || res.Summary.Audit[0] != "chose A over B" {
		t.Errorf("audit = %v", res.Summary.Audit)
	}
	if res.Outputs[2].Text == analysis.SourceTexts[2].Text {
		t.Error("source 2 unchanged despite pruned claim")
	}
	if res.Outputs[0].Text != analysis.SourceTexts[0].Text {
		t.Error("untouched source 0 must stay verbatim")
	}
}

func TestLoadBundleYAMLAndJSON(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "bundle.yaml")
	if err := os.WriteFile(yamlPath, []byte("query: test\nsources:\n  - source: 0\n    text: hello world\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	b, err := LoadBundle(yamlPath)
	if err != nil {
		t.Fatal(err)
	}
	if b.Query != "test" || len(b.Sources) != 1 || b.Sources[0].Text != "hello world" {
		t.Errorf("yaml bundle = %+v", b)
	}

	jsonPath := filepath.Join(dir, "bundle.json")
	if err := os.WriteFile(jsonPath, []byte(`{"query":"test","sources":[{"source":1,"text":"hi there"}]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	b, err = LoadBundle(jsonPath)
	if err != nil {
		t.Fatal(err)
	}
	if len(b.Sources) != 1 || b.Sources[0].Source != 1 {
		t.Errorf("json bundle = %+v", b)
	}

	if _, err := LoadBundle(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadResolutionsBothShapes(t *testing.T) {
	dir := t.TempDir()

	bare := filepath.Join(dir, "bare.json")
	if err := os.WriteFile(bare, []byte(`[{"forcing_point":"pick","kind":"conflict","chosen":"A"}]`), 0o644); err != nil {
		t.Fatal(err)
	}
	rs, err := LoadResolutions(bare)
	if err != nil {
		t.Fatal(err)
	}
	if len(rs) != 1 || rs[0].Chosen != "A" {
		t.Errorf("bare resolutions = %+v", rs)
	}

	wrapped := filepath.Join(dir, "wrapped.json")
	if err := os.WriteFile(wrapped, []byte(`{"resolutions":[{"forcing_point":"prod","kind":"conditional","satisfied":true}]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	rs, err = LoadResolutions(wrapped)
	if err != nil {
		t.Fatal(err)
	}
	if len(rs) != 1 || rs[0].ForcingPoint != "prod" {
		t.Errorf("wrapped resolutions = %+v", rs)
	}
}

func TestRendererWritesFiles(t *testing.T) {
	p := newTestPipeline(t)
	analysis, err := p.Analyze(context.Background(), testBundle())
	if err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	r := NewRenderer(true)

	jsonPath := filepath.Join(dir, "analysis.json")
	if err := r.RenderJSON(analysis, jsonPath); err != nil {
		t.Fatal(err)
	}
	loaded, err := LoadAnalysis(jsonPath)
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded.Statements) != len(analysis.Statements) {
		t.Errorf("round-trip lost statements: %d vs %d", len(loaded.Statements), len(analysis.Statements))
	}

	mdPath := filepath.Join(dir, "analysis.md")
	if err := r.RenderAnalysisMarkdown(analysis, mdPath); err != nil {
		t.Fatal(err)
	}
	md, err := os.ReadFile(mdPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(md), "## Substrate") {
		t.Error("markdown missing substrate section")
	}
}
