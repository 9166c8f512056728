// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package analyst runs the analysis stage: every extracted article and
// preamble goes through the model once, yielding tags, informal
// Portuguese summaries and cross-references. Results are persisted as
// one envelope per source and analyzer version, so reruns replace old
// output instead of stacking next to it.
package analyst

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/agoradev/lawgraph/internal/ai"
	"github.com/agoradev/lawgraph/internal/lawstore"
	"github.com/agoradev/lawgraph/internal/structured"
	"github.com/agoradev/lawgraph/pkg/types"
)

// Version identifies the current analyzer. Bumping it makes the next
// run write a fresh envelope instead of replacing the previous one.
const Version = "lawgraph_v1"

const (
	defaultWorkers        = 5
	defaultBatchSize      = 50
	defaultSafeTokenLimit = 800000
)

// Analyst drives the analysis stage for one source at a time.
type Analyst struct {
	client  *structured.Client
	backend ai.Backend
	store   lawstore.Store
	refs    *lawstore.ReferenceCache
	cfg     types.AnalystConfig
	log     *zap.SugaredLogger
}

// New builds an analyst. A nil logger disables logging.
func New(backend ai.Backend, store lawstore.Store, refs *lawstore.ReferenceCache, cfg types.AnalystConfig, log *zap.SugaredLogger) *Analyst {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Analyst{
		client:  structured.NewClient(backend, log),
		backend: backend,
		store:   store,
		refs:    refs,
		cfg:     cfg,
		log:     log,
	}
}

// workItem is one unit of analysis: the preamble or a single article.
type workItem struct {
	contentType types.ContentType
	order       int
	number      string
	text        string
}

func (w workItem) label() string {
	if w.contentType == types.ContentPreamble {
		return "preâmbulo"
	}
	if w.number != "" {
		return w.number
	}
	return fmt.Sprintf("Artigo %d", w.order)
}

// Analyze loads the latest completed extraction for sourceID, analyzes
// every item and persists the envelope. One bad model response never
// aborts the run; the item is recorded as a fallback instead.
func (a *Analyst) Analyze(ctx context.Context, out io.Writer, sourceID string) (*types.Analysis, error) {
	ext, err := a.store.LatestExtraction(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("loading extraction for source %s: %w", sourceID, err)
	}
	if ext.Status != types.ExtractionCompleted {
		return nil, fmt.Errorf("extraction for source %s has status %s, want %s",
			sourceID, ext.Status, types.ExtractionCompleted)
	}

	items := buildItems(ext)
	if len(items) == 0 {
		return nil, fmt.Errorf("extraction for source %s has no content to analyze", sourceID)
	}

	knownTags, err := a.refs.Tags(ctx)
	if err != nil {
		a.log.Warnw("loading tag vocabulary failed, analyzing without it", "error", err)
		knownTags = nil
	}

	results := make([]types.AnalysisItem, 0, len(items))
	successful := 0
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		analysis := a.analyzeItem(ctx, item, knownTags)
		if analysis.IsFallback() {
			a.log.Warnw("item analysis fell back",
				"source_id", sourceID, "article_order", item.order)
		} else {
			successful++
		}

		results = append(results, types.AnalysisItem{
			ContentType:   item.contentType,
			ArticleOrder:  item.order,
			ArticleNumber: item.number,
			Analysis:      analysis,
		})
		fmt.Fprintf(out, "Analyzed %s (%d/%d)\n", item.label(), i+1, len(items))
	}

	envelope := &types.Analysis{
		SourceID:     sourceID,
		ModelVersion: Version,
		Results:      results,
		AnalyzedAt:   time.Now().UTC(),
		TotalItems:   len(items),
		Successful:   successful,
	}
	if len(items) > 0 {
		envelope.CompletionRate = float64(successful) / float64(len(items))
	}

	if err := a.store.ReplaceAnalysis(ctx, envelope); err != nil {
		return nil, fmt.Errorf("storing analysis for source %s: %w", sourceID, err)
	}

	fmt.Fprintf(out, "Analysis complete: %d/%d items succeeded\n", successful, len(items))
	return envelope, nil
}

// buildItems orders the work: preamble first (ordinal 0) when present,
// then articles in document order starting at 1.
func buildItems(ext *types.Extraction) []workItem {
	var items []workItem
	if strings.TrimSpace(ext.Preamble) != "" {
		items = append(items, workItem{contentType: types.ContentPreamble, order: 0, text: ext.Preamble})
	}
	for i, art := range ext.Articles {
		items = append(items, workItem{
			contentType: types.ContentArticle,
			order:       i + 1,
			number:      art.Number,
			text:        art.OfficialText,
		})
	}
	return items
}

func (a *Analyst) analyzeItem(ctx context.Context, item workItem, knownTags []string) types.ItemAnalysis {
	prompt, err := renderItemPrompt(item.label(), item.text, knownTags)
	if err != nil {
		a.log.Warnw("rendering analysis prompt failed", "error", err)
		return emptyAnalysis()
	}

	res := a.client.Extract(ctx, prompt, analysisShape(), analysisFallback())

	var analysis types.ItemAnalysis
	if err := res.Decode(&analysis); err != nil {
		a.log.Warnw("decoding analysis failed", "error", err)
		return emptyAnalysis()
	}
	if analysis.CrossReferences == nil {
		analysis.CrossReferences = []types.CrossReference{}
	}
	return analysis
}

// analysisShape declares the per-item response contract. The title and
// summary are required; collections coerce to empty on bad output.
func analysisShape() structured.Shape {
	return structured.Shape{
		{Name: "tags", Kind: structured.ObjectOfStringLists, Keys: []string{"person", "organization", "concept"}},
		{Name: "informal_summary_title", Kind: structured.String, Required: true},
		{Name: "informal_summary", Kind: structured.String, Required: true},
		{Name: "cross_references", Kind: structured.ListOfObject},
	}
}

func analysisFallback() map[string]any {
	return map[string]any{
		"tags":                   map[string][]string{"person": {}, "organization": {}, "concept": {}},
		"informal_summary_title": "",
		"informal_summary":       "",
		"cross_references":       []map[string]any{},
	}
}

func emptyAnalysis() types.ItemAnalysis {
	return types.ItemAnalysis{
		Tags: types.TagSet{
			Persons:       []string{},
			Organizations: []string{},
			Concepts:      []string{},
		},
		CrossReferences: []types.CrossReference{},
	}
}
