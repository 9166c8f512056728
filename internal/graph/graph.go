// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package graph turns a source's extraction and analysis envelopes into
// law and article rows plus the reference edges between them. Building
// is a saga: the law row is created first, everything after it runs in a
// retry loop, and a failed attempt rolls the law back with a cascade
// delete before trying again.
package graph

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agoradev/lawgraph/internal/analyst"
	"github.com/agoradev/lawgraph/internal/lawstore"
	"github.com/agoradev/lawgraph/pkg/types"
)

const defaultGraphRetries = 1

// Summarizer produces the law-level summary from per-article summaries.
// *analyst.Analyst satisfies it.
type Summarizer interface {
	SummarizeLaw(ctx context.Context, articleSummaries []string) (*types.LawSummary, error)
}

// ManualCleanupError reports a failed build whose partially created law
// could not be rolled back. The row must be removed by hand before the
// source is ingested again.
type ManualCleanupError struct {
	LawID string
	Err   error
}

func (e *ManualCleanupError) Error() string {
	return fmt.Sprintf("law %s could not be rolled back and needs manual cleanup: %v", e.LawID, e.Err)
}

func (e *ManualCleanupError) Unwrap() error { return e.Err }

// BuildResult summarizes what one ingestion wrote to the store.
type BuildResult struct {
	LawID          string `json:"law_id" yaml:"law_id"`
	OfficialNumber string `json:"official_number" yaml:"official_number"`
	Slug           string `json:"slug" yaml:"slug"`
	TypeID         string `json:"type_id" yaml:"type_id"`
	CategoryID     string `json:"category_id" yaml:"category_id"`

	ArticlesCreated int `json:"articles_created" yaml:"articles_created"`
	ArticlesSkipped int `json:"articles_skipped" yaml:"articles_skipped"`

	Links *LinkStats `json:"links" yaml:"links"`

	SummaryGenerated bool `json:"summary_generated" yaml:"summary_generated"`
}

// Builder assembles the law graph for analyzed sources.
type Builder struct {
	store      lawstore.Store
	linker     *Linker
	summarizer Summarizer
	translator analyst.Translator
	cache      *lawstore.ReferenceCache
	cfg        types.GraphConfig
	log        *zap.SugaredLogger
}

// NewBuilder wires a Builder. A nil summarizer skips the law-level
// summary; a nil translator keeps Portuguese content as is.
func NewBuilder(store lawstore.Store, summarizer Summarizer, translator analyst.Translator, cache *lawstore.ReferenceCache, cfg types.GraphConfig, log *zap.SugaredLogger) *Builder {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if translator == nil {
		translator = analyst.PassthroughTranslator{}
	}
	return &Builder{
		store:      store,
		linker:     NewLinker(store, log),
		summarizer: summarizer,
		translator: translator,
		cache:      cache,
		cfg:        cfg,
		log:        log,
	}
}

// Build ingests one analyzed source into the law graph, replacing any
// law previously built from it. Progress lines go to out.
func (b *Builder) Build(ctx context.Context, out io.Writer, sourceID string) (*BuildResult, error) {
	ext, err := b.store.LatestExtraction(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("loading extraction for source %s: %w", sourceID, err)
	}
	if ext.Status != types.ExtractionCompleted {
		return nil, fmt.Errorf("extraction for source %s has status %s, want %s",
			sourceID, ext.Status, types.ExtractionCompleted)
	}
	an, err := b.store.LatestAnalysis(ctx, sourceID, analyst.Version)
	if err != nil {
		return nil, fmt.Errorf("loading analysis for source %s: %w", sourceID, err)
	}
	src, err := b.store.GetSource(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("loading source %s: %w", sourceID, err)
	}
	chunks, err := b.store.ChunksBySource(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("loading chunks for source %s: %w", sourceID, err)
	}

	ptTitle := src.Translations["pt"]
	typeID, knownType := TypeID(ext.Metadata.Type)
	if !knownType {
		b.log.Warnw("law type not recognized, using OTHER",
			"source_id", sourceID, "type", ext.Metadata.Type)
	}
	number, derived := officialNumber(sourceID, ptTitle, typeID, ext.Metadata, chunks)
	if !derived {
		b.log.Warnw("no official number found, deriving one from the source id",
			"source_id", sourceID, "official_number", number)
	}
	slug := slugify(number)

	if existing, err := b.store.LawBySource(ctx, sourceID); err == nil {
		fmt.Fprintf(out, "Replacing existing law %s\n", existing.OfficialNumber)
		if err := b.store.DeleteLawCascade(ctx, existing.ID); err != nil {
			return nil, fmt.Errorf("deleting existing law %s: %w", existing.ID, err)
		}
	} else if !errors.Is(err, lawstore.ErrNotFound) {
		return nil, fmt.Errorf("checking for existing law: %w", err)
	}

	retries := b.cfg.MaxRetries
	if retries <= 0 {
		retries = defaultGraphRetries
	}
	var res *BuildResult
	for attempt := 0; ; attempt++ {
		res, err = b.buildOnce(ctx, out, sourceID, ptTitle, number, slug, typeID, ext, an)
		if err == nil {
			break
		}
		var cleanup *ManualCleanupError
		if errors.As(err, &cleanup) || attempt >= retries {
			return nil, err
		}
		b.log.Warnw("law build failed, retrying",
			"source_id", sourceID, "attempt", attempt+1, "error", err)
		fmt.Fprintf(out, "Build failed, retrying: %v\n", err)
	}
	fmt.Fprintf(out, "Ingest complete: %s (%d articles, %d law edges, %d article edges)\n",
		res.OfficialNumber, res.ArticlesCreated, res.Links.LawRelationships, res.Links.ArticleReferences)
	return res, nil
}

// buildOnce runs one saga attempt: create the law, then populate it.
// When populating fails the law is cascade-deleted before returning.
func (b *Builder) buildOnce(ctx context.Context, out io.Writer, sourceID, ptTitle, number, slug, typeID string, ext *types.Extraction, an *types.Analysis) (*BuildResult, error) {
	title := cleanTitle(ptTitle)
	law := &types.Law{
		ID:                 uuid.NewString(),
		SourceID:           sourceID,
		GovernmentEntityID: b.cfg.GovernmentEntityID,
		OfficialNumber:     number,
		Slug:               slug,
		TypeID:             typeID,
		CategoryID:         types.DefaultCategoryID,
		EnactmentDate:      ext.Metadata.EnactmentDate,
		OfficialTitle:      title,
		Translations:       map[string]types.Translation{"pt": {Title: title}},
		Tags:               types.TagSet{Persons: []string{}, Organizations: []string{}, Concepts: []string{}},
	}
	if err := b.store.CreateLaw(ctx, law); err != nil {
		return nil, fmt.Errorf("creating law %s: %w", number, err)
	}
	fmt.Fprintf(out, "Created law %s (%s)\n", law.OfficialNumber, law.ID)

	res, err := b.populate(ctx, out, law, ext, an)
	if err != nil {
		b.log.Warnw("populating law failed, rolling back",
			"law_id", law.ID, "error", err)
		if derr := b.store.DeleteLawCascade(ctx, law.ID); derr != nil {
			return nil, &ManualCleanupError{LawID: law.ID, Err: derr}
		}
		return nil, err
	}
	return res, nil
}

// populate writes the articles, links the references, and attaches tags
// and the law-level summary.
func (b *Builder) populate(ctx context.Context, out io.Writer, law *types.Law, ext *types.Extraction, an *types.Analysis) (*BuildResult, error) {
	res := &BuildResult{
		LawID:          law.ID,
		OfficialNumber: law.OfficialNumber,
		Slug:           law.Slug,
		TypeID:         law.TypeID,
		CategoryID:     law.CategoryID,
		Links:          &LinkStats{},
	}

	articles := make(map[int]*types.LawArticle)
	for _, item := range an.Results {
		if item.ContentType != types.ContentArticle {
			continue
		}
		if item.Analysis.IsFallback() {
			b.log.Warnw("skipping article with failed analysis",
				"law_id", law.ID, "article_order", item.ArticleOrder)
			res.ArticlesSkipped++
			continue
		}
		art := &types.LawArticle{
			ID:           uuid.NewString(),
			LawID:        law.ID,
			ArticleOrder: item.ArticleOrder,
			MandateID:    b.cfg.MandateID,
			StatusID:     types.StatusActive,
			ValidFrom:    law.EnactmentDate,
			OfficialText: officialText(ext, item.ArticleOrder),
			Tags:         normalizeTagSet(item.Analysis.Tags),
			Translations: map[string]types.Translation{
				"pt": {Title: item.Analysis.Title, Summary: item.Analysis.Summary},
			},
			CrossReferences: item.Analysis.CrossReferences,
		}
		if err := b.store.CreateArticle(ctx, art); err != nil {
			return nil, fmt.Errorf("creating article %d: %w", item.ArticleOrder, err)
		}
		articles[item.ArticleOrder] = art
		res.ArticlesCreated++
	}
	fmt.Fprintf(out, "Created %d articles (%d skipped)\n", res.ArticlesCreated, res.ArticlesSkipped)

	for _, item := range an.Results {
		if item.ContentType != types.ContentArticle || item.Analysis.IsFallback() {
			continue
		}
		art := articles[item.ArticleOrder]
		if art == nil {
			continue
		}
		stats, err := b.linker.Link(ctx,
			LinkSource{LawID: law.ID, ArticleID: art.ID, EnactmentDate: law.EnactmentDate},
			item.Analysis.CrossReferences)
		if stats != nil {
			res.Links.Add(stats)
		}
		if err != nil {
			return nil, err
		}
	}
	// Preamble references attach at the law level only.
	for _, item := range an.Results {
		if item.ContentType != types.ContentPreamble || item.Analysis.IsFallback() {
			continue
		}
		stats, err := b.linker.Link(ctx,
			LinkSource{LawID: law.ID, EnactmentDate: law.EnactmentDate},
			item.Analysis.CrossReferences)
		if stats != nil {
			res.Links.Add(stats)
		}
		if err != nil {
			return nil, err
		}
	}
	fmt.Fprintf(out, "Linked references: %d law edges, %d article edges (%d duplicate, %d unresolved)\n",
		res.Links.LawRelationships, res.Links.ArticleReferences,
		res.Links.Duplicates, res.Links.Unresolved)

	tags := aggregateTags(an.Results)
	if !tags.IsEmpty() {
		translated, err := b.translator.TranslateTags(ctx, tags)
		if err != nil {
			b.log.Warnw("tag translation failed, keeping originals", "error", err)
			translated = tags
		}
		if err := b.store.UpdateLawTags(ctx, law.ID, translated); err != nil {
			return nil, fmt.Errorf("updating law tags: %w", err)
		}
		b.cache.Invalidate()
	}

	summaries := articleSummaries(an.Results)
	if b.summarizer == nil || len(summaries) == 0 {
		if len(summaries) == 0 {
			b.log.Warnw("no article summaries available, keeping default category", "law_id", law.ID)
		}
		return res, nil
	}
	ls, err := b.summarizer.SummarizeLaw(ctx, summaries)
	if err != nil {
		b.log.Warnw("law summary failed, keeping default category",
			"law_id", law.ID, "error", err)
		return res, nil
	}
	pt := types.Translation{Title: ls.Title, Summary: ls.Summary}
	en, err := b.translator.TranslateSummary(ctx, pt)
	if err != nil {
		b.log.Warnw("summary translation failed, keeping Portuguese", "error", err)
		en = pt
	}
	translations := map[string]types.Translation{"pt": pt, "en": en}
	if err := b.store.UpdateLawSummary(ctx, law.ID, ls.CategoryID, translations); err != nil {
		return nil, fmt.Errorf("updating law summary: %w", err)
	}
	res.CategoryID = ls.CategoryID
	res.SummaryGenerated = true
	fmt.Fprintf(out, "Summary written (category %s)\n", ls.CategoryID)
	return res, nil
}

// officialText finds the extracted text for an article ordinal. The
// analysis and extraction article lists line up by position.
func officialText(ext *types.Extraction, order int) string {
	if order >= 1 && order <= len(ext.Articles) {
		return ext.Articles[order-1].OfficialText
	}
	return fmt.Sprintf("Article %d text not found", order)
}

// aggregateTags merges item tags across the document, preserving first
// appearance order within each kind.
func aggregateTags(items []types.AnalysisItem) types.TagSet {
	out := types.TagSet{Persons: []string{}, Organizations: []string{}, Concepts: []string{}}
	seen := make(map[string]bool)
	add := func(dst *[]string, kind string, vals []string) {
		for _, v := range vals {
			v = strings.TrimSpace(v)
			if v == "" || seen[kind+"\x00"+v] {
				continue
			}
			seen[kind+"\x00"+v] = true
			*dst = append(*dst, v)
		}
	}
	for _, item := range items {
		if item.Analysis.IsFallback() {
			continue
		}
		add(&out.Persons, "person", item.Analysis.Tags.Persons)
		add(&out.Organizations, "organization", item.Analysis.Tags.Organizations)
		add(&out.Concepts, "concept", item.Analysis.Tags.Concepts)
	}
	return out
}

// articleSummaries collects "Artigo N: summary" lines for the reduce
// phase, in document order.
func articleSummaries(items []types.AnalysisItem) []string {
	var out []string
	for _, item := range items {
		if item.ContentType != types.ContentArticle || item.Analysis.IsFallback() {
			continue
		}
		summary := strings.Join(strings.Fields(item.Analysis.Summary), " ")
		out = append(out, fmt.Sprintf("Artigo %d: %s", item.ArticleOrder, summary))
	}
	return out
}

func normalizeTagSet(t types.TagSet) types.TagSet {
	if t.Persons == nil {
		t.Persons = []string{}
	}
	if t.Organizations == nil {
		t.Organizations = []string{}
	}
	if t.Concepts == nil {
		t.Concepts = []string{}
	}
	return t
}
