// Package pipeline orchestrates the analysis run: extraction, two embedding
// passes, substrate construction, clustering and region partitioning. It also
// drives the pruning pass over a finished analysis.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ppiankov/katharsis/internal/cache"
	"github.com/ppiankov/katharsis/internal/cluster"
	"github.com/ppiankov/katharsis/internal/embed"
	"github.com/ppiankov/katharsis/internal/extract"
	"github.com/ppiankov/katharsis/internal/model"
	"github.com/ppiankov/katharsis/internal/region"
	"github.com/ppiankov/katharsis/internal/substrate"
	"github.com/ppiankov/katharsis/internal/traversal"
	"github.com/ppiankov/katharsis/internal/triage"
)

// Pipeline holds the wired stages for one configuration.
type Pipeline struct {
	cfg       *model.Config
	extractor *extract.Extractor
	embeds    *embed.Service
	logger    *log.Logger
}

// New wires a pipeline: embedding provider, vector cache and extractor.
func New(cfg *model.Config, logger *log.Logger) (*Pipeline, error) {
	embedder, err := embed.NewEmbedder(cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("embedding provider: %w", err)
	}

	var vectors *cache.Vectors
	if cfg.Cache.Enabled {
		var store cache.Cache
		if cfg.Cache.Dir != "" {
			store = cache.NewLayeredCache(cfg.Cache.MemoryTTL, cfg.Cache.Dir, cfg.Cache.DiskTTL)
		} else {
			store = cache.NewMemoryCache(cfg.Cache.MemoryTTL, 2*cfg.Cache.MemoryTTL)
		}
		vectors = cache.NewVectors(store, cfg.Cache.DiskTTL)
	}

	return &Pipeline{
		cfg:       cfg,
		extractor: extract.New(cfg.Extract),
		embeds:    embed.NewService(embedder, vectors, cfg.Embedding),
		logger:    logger,
	}, nil
}

// Analyze runs the full analysis over a bundle. Embedding failures degrade to
// warnings and missing vectors; only context cancellation aborts the run.
func (p *Pipeline) Analyze(ctx context.Context, bundle *model.Bundle) (*model.Analysis, error) {
	bundle.Normalize()
	for i := range bundle.Sources {
		bundle.Sources[i].Text = extract.NormalizeSource(bundle.Sources[i].Text, p.cfg.Extract.StripHTML)
	}
	// Stripping may empty a source entirely.
	bundle.Normalize()

	analysis := &model.Analysis{
		Query:     bundle.Query,
		CreatedAt: time.Now().UTC(),
		Sources:   len(bundle.Sources),
	}
	for _, src := range bundle.Sources {
		analysis.SourceTexts = append(analysis.SourceTexts, model.SourceOutput{Source: src.Source, Text: src.Text})
	}

	ext := p.extractor.Extract(bundle)
	analysis.Statements = ext.Statements
	analysis.Paragraphs = ext.Paragraphs
	analysis.Warnings = append(analysis.Warnings, ext.Warnings...)
	p.logger.Debug("extraction done", "statements", len(ext.Statements), "paragraphs", len(ext.Paragraphs))

	// Two independent embedding passes. Paragraph vectors are embedded from
	// full paragraph text, never pooled from statement vectors.
	stmtInputs := make([]embed.Input, 0, len(ext.Statements))
	for _, s := range ext.Statements {
		stmtInputs = append(stmtInputs, embed.Input{ID: s.ID, Text: s.Text})
	}
	paraInputs := make([]embed.Input, 0, len(ext.Paragraphs))
	for _, para := range ext.Paragraphs {
		paraInputs = append(paraInputs, embed.Input{ID: para.ID, Text: para.Text})
	}

	var err error
	analysis.StatementSpace, err = p.embedPass(ctx, "statement", stmtInputs, analysis)
	if err != nil {
		return nil, err
	}
	analysis.ParagraphSpace, err = p.embedPass(ctx, "paragraph", paraInputs, analysis)
	if err != nil {
		return nil, err
	}

	analysis.Substrate = substrate.Build(ctx, ext.Paragraphs, analysis.ParagraphSpace, p.cfg.Substrate, p.cfg.Concurrency.Workers)
	analysis.Clustering = cluster.Run(ext.Paragraphs, analysis.ParagraphSpace, analysis.Substrate.Mutual, p.cfg.Cluster)
	analysis.Regions = region.Build(analysis.Substrate, analysis.Clustering, analysis.ParagraphSpace, analysis.Sources)

	p.attachCoords(analysis)
	return analysis, nil
}

// embedPass runs one embedding pass, converting provider failure into
// warnings. Context cancellation is the only hard error.
func (p *Pipeline) embedPass(ctx context.Context, kind string, inputs []embed.Input, analysis *model.Analysis) (model.Space, error) {
	space, missing, err := p.embeds.EmbedAll(ctx, inputs)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return space, err
		}
		p.logger.Warn("embedding pass failed", "kind", kind, "error", err)
		analysis.Warnings = append(analysis.Warnings,
			fmt.Sprintf("%s embedding failed: %v", kind, err))
	}
	for _, id := range missing {
		analysis.Warnings = append(analysis.Warnings,
			fmt.Sprintf("%s %s: no embedding, degraded to isolated", kind, id))
	}
	return space, nil
}

// attachCoords copies each paragraph node's layout position onto its member
// statements. Pure enrichment; nothing downstream reads these.
func (p *Pipeline) attachCoords(analysis *model.Analysis) {
	if analysis.Substrate == nil {
		return
	}
	coordByStatement := make(map[string]*model.Coord)
	for i := range analysis.Substrate.Nodes {
		n := &analysis.Substrate.Nodes[i]
		if n.Coord == nil {
			continue
		}
		for _, sid := range n.StatementIDs {
			coordByStatement[sid] = n.Coord
		}
	}
	for i := range analysis.Statements {
		if c, ok := coordByStatement[analysis.Statements[i].ID]; ok {
			cc := *c
			analysis.Statements[i].Coord = &cc
		}
	}
}

// Prune replays resolutions against the claim graph and reconstructs the
// sources. Remaining live forcing points are reported as warnings on the
// logger; pruning proceeds with whatever has been decided so far.
func (p *Pipeline) Prune(analysis *model.Analysis, graph *traversal.Graph, resolutions []traversal.Resolution) (*model.PruneResult, error) {
	state := traversal.NewState(graph)
	for _, r := range resolutions {
		if err := state.Apply(r); err != nil {
			return nil, fmt.Errorf("apply resolution: %w", err)
		}
	}
	if live := state.Live(); len(live) > 0 {
		for _, fp := range live {
			p.logger.Warn("forcing point unresolved", "id", fp.ID, "kind", fp.Kind)
		}
	}

	var pruned []model.Claim
	for _, id := range state.Pruned() {
		if c, ok := graph.Claim(id); ok {
			pruned = append(pruned, c)
		}
	}
	res := triage.Run(analysis, pruned, state.Surviving(), state.Audit(), p.cfg.Triage)
	return &res, nil
}
