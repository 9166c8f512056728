// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package graph

import (
	"bytes"
	"context"
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/agoradev/lawgraph/internal/analyst"
	"github.com/agoradev/lawgraph/internal/lawstore"
	"github.com/agoradev/lawgraph/pkg/types"
)

type stubSummarizer struct {
	calls  [][]string
	result *types.LawSummary
	err    error
}

func (s *stubSummarizer) SummarizeLaw(ctx context.Context, articleSummaries []string) (*types.LawSummary, error) {
	s.calls = append(s.calls, articleSummaries)
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

type stubTranslator struct {
	summaries []types.Translation
	tagSets   []types.TagSet
}

func (s *stubTranslator) TranslateSummary(ctx context.Context, tr types.Translation) (types.Translation, error) {
	s.summaries = append(s.summaries, tr)
	return types.Translation{Title: "EN: " + tr.Title, Summary: "EN: " + tr.Summary}, nil
}

func (s *stubTranslator) TranslateTags(ctx context.Context, tags types.TagSet) (types.TagSet, error) {
	s.tagSets = append(s.tagSets, tags)
	return tags, nil
}

type flakyStore struct {
	lawstore.Store
	articleFailures int
	deleteFailures  int
}

func (s *flakyStore) CreateArticle(ctx context.Context, art *types.LawArticle) error {
	if s.articleFailures > 0 {
		s.articleFailures--
		return errors.New("backend unavailable")
	}
	return s.Store.CreateArticle(ctx, art)
}

func (s *flakyStore) DeleteLawCascade(ctx context.Context, lawID string) error {
	if s.deleteFailures > 0 {
		s.deleteFailures--
		return errors.New("backend unavailable")
	}
	return s.Store.DeleteLawCascade(ctx, lawID)
}

func testBuilder(t *testing.T, store lawstore.Store, sum Summarizer, tr analyst.Translator) *Builder {
	t.Helper()
	cfg := types.GraphConfig{GovernmentEntityID: "gov-1", MandateID: "mandate-1", MaxRetries: 1}
	return NewBuilder(store, sum, tr, lawstore.NewReferenceCache(store), cfg, nil)
}

// seedIngestFixture registers a source with chunks, a completed
// extraction, and an analysis envelope whose references point at a
// pre-existing law with an active article 5.
func seedIngestFixture(t *testing.T, store lawstore.Store) (string, *types.Law) {
	t.Helper()
	ctx := context.Background()
	const sourceID = "src-happy"

	target := seedTargetLaw(t, store, "law-41", "Lei nº 41/2023", "lei-41-2023-aaaaaaaa", "2023-06-15")
	seedTargetArticle(t, store, "art-41-5", target.ID, 5)

	src := &types.Source{
		ID: sourceID,
		Translations: map[string]string{
			"pt": "Decreto-Lei n.º 77/2024 #apoios",
			"en": "Decree-Law 77/2024",
		},
		CreatedAt: time.Now().UTC(),
	}
	if err := store.CreateSource(ctx, src); err != nil {
		t.Fatalf("CreateSource() failed: %v", err)
	}
	contents := []string{
		"DECRETO-LEI\nDecreto-Lei n.º 77/2024\nde 12 de março de 2024",
		"Texto final. Registo: 118203450.",
	}
	for i, c := range contents {
		chunk := &types.DocumentChunk{SourceID: sourceID, ChunkIndex: i, Content: c}
		if err := store.CreateChunk(ctx, chunk); err != nil {
			t.Fatalf("CreateChunk(%d) failed: %v", i, err)
		}
	}

	ext := &types.Extraction{
		SourceID: sourceID,
		Status:   types.ExtractionCompleted,
		Preamble: "O Governo decreta o seguinte.",
		Articles: []types.ExtractedArticle{
			{Number: "Artigo 1.º", OfficialText: "Texto oficial do artigo um."},
			{Number: "Artigo 2.º", OfficialText: "Texto oficial do artigo dois."},
			{Number: "Artigo 3.º", OfficialText: "Texto oficial do artigo três."},
		},
		Metadata: types.LawMetadata{
			Type:           "Decreto-Lei",
			OfficialNumber: "77/2024",
			EnactmentDate:  "2024-03-12",
			OfficialTitle:  "DECRETO-LEI",
		},
		ExtractedAt:   time.Now().UTC(),
		TotalArticles: 3,
		HasPreamble:   true,
	}
	if err := store.ReplaceExtraction(ctx, ext); err != nil {
		t.Fatalf("ReplaceExtraction() failed: %v", err)
	}

	an := &types.Analysis{
		SourceID:     sourceID,
		ModelVersion: analyst.Version,
		Results: []types.AnalysisItem{
			{
				ContentType: types.ContentPreamble,
				Analysis: types.ItemAnalysis{
					Tags:            types.TagSet{Persons: []string{}, Organizations: []string{}, Concepts: []string{"farmácias"}},
					Title:           "Preâmbulo",
					Summary:         "Apresenta o regime de apoio.",
					CrossReferences: []types.CrossReference{{Relationship: "cites", Number: "41/2023"}},
				},
			},
			{
				ContentType:   types.ContentArticle,
				ArticleOrder:  1,
				ArticleNumber: "Artigo 1.º",
				Analysis: types.ItemAnalysis{
					Tags:    types.TagSet{Persons: []string{"Ana Silva"}, Organizations: []string{}, Concepts: []string{"farmácias", "apoios"}},
					Title:   "Artigo um",
					Summary: "Resumo do artigo um.",
					CrossReferences: []types.CrossReference{{
						Relationship:  "revokes",
						Type:          "Lei",
						Number:        "41/2023",
						ArticleNumber: "Artigo 5.º",
					}},
				},
			},
			{
				ContentType:   types.ContentArticle,
				ArticleOrder:  2,
				ArticleNumber: "Artigo 2.º",
				Analysis: types.ItemAnalysis{
					Tags:            types.TagSet{Persons: []string{}, Organizations: []string{}, Concepts: []string{}},
					CrossReferences: []types.CrossReference{},
				},
			},
			{
				ContentType:   types.ContentArticle,
				ArticleOrder:  3,
				ArticleNumber: "Artigo 3.º",
				Analysis: types.ItemAnalysis{
					Tags:            types.TagSet{Persons: []string{}, Organizations: []string{}, Concepts: []string{"apoios"}},
					Title:           "Artigo três",
					Summary:         "Resumo do artigo três.",
					CrossReferences: []types.CrossReference{},
				},
			},
		},
		AnalyzedAt:     time.Now().UTC(),
		TotalItems:     4,
		Successful:     3,
		CompletionRate: 0.75,
	}
	if err := store.ReplaceAnalysis(ctx, an); err != nil {
		t.Fatalf("ReplaceAnalysis() failed: %v", err)
	}
	return sourceID, target
}

func TestBuild(t *testing.T) {
	store := testStore(t)
	sourceID, target := seedIngestFixture(t, store)
	sum := &stubSummarizer{result: &types.LawSummary{
		CategoryID: "HEALTH",
		Title:      "Apoio às farmácias",
		Summary:    "Regime de apoios às farmácias.",
	}}
	tr := &stubTranslator{}
	b := testBuilder(t, store, sum, tr)

	var out bytes.Buffer
	res, err := b.Build(context.Background(), &out, sourceID)
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}

	if res.OfficialNumber != "118203450" {
		t.Fatalf("OfficialNumber = %q, want 118203450", res.OfficialNumber)
	}
	if !strings.HasPrefix(res.Slug, "118203450-") {
		t.Fatalf("Slug = %q, want 118203450- prefix", res.Slug)
	}
	if res.TypeID != "DECRETO_LEI" {
		t.Fatalf("TypeID = %q, want DECRETO_LEI", res.TypeID)
	}
	if res.CategoryID != "HEALTH" {
		t.Fatalf("CategoryID = %q, want HEALTH", res.CategoryID)
	}
	if res.ArticlesCreated != 2 || res.ArticlesSkipped != 1 {
		t.Fatalf("articles = %d created / %d skipped, want 2 / 1", res.ArticlesCreated, res.ArticlesSkipped)
	}
	if res.Links.LawRelationships != 2 || res.Links.ArticleReferences != 1 {
		t.Fatalf("links = %+v, want 2 law edges and 1 article edge", res.Links)
	}
	if !res.SummaryGenerated {
		t.Fatal("SummaryGenerated = false, want true")
	}

	law, err := store.LawBySource(context.Background(), sourceID)
	if err != nil {
		t.Fatalf("LawBySource() failed: %v", err)
	}
	if law.ID != res.LawID {
		t.Fatalf("law id = %s, want %s", law.ID, res.LawID)
	}
	if law.EnactmentDate != "2024-03-12" {
		t.Fatalf("EnactmentDate = %q, want 2024-03-12", law.EnactmentDate)
	}
	if law.OfficialTitle != "Decreto-Lei n.º 77/2024 apoios" {
		t.Fatalf("OfficialTitle = %q, want markup stripped", law.OfficialTitle)
	}
	if law.GovernmentEntityID != "gov-1" || law.CategoryID != "HEALTH" {
		t.Fatalf("law = %+v, want gov-1 / HEALTH", law)
	}

	wantTags := types.TagSet{
		Persons:       []string{"Ana Silva"},
		Organizations: []string{},
		Concepts:      []string{"farmácias", "apoios"},
	}
	if !reflect.DeepEqual(law.Tags, wantTags) {
		t.Fatalf("law tags = %+v, want %+v", law.Tags, wantTags)
	}
	if law.Translations["pt"].Title != "Apoio às farmácias" {
		t.Fatalf("pt summary title = %q, want Apoio às farmácias", law.Translations["pt"].Title)
	}
	if law.Translations["en"].Title != "EN: Apoio às farmácias" {
		t.Fatalf("en summary title = %q, want translated", law.Translations["en"].Title)
	}

	arts, err := store.ArticlesByLaw(context.Background(), law.ID)
	if err != nil {
		t.Fatalf("ArticlesByLaw() failed: %v", err)
	}
	if len(arts) != 2 {
		t.Fatalf("got %d articles, want 2", len(arts))
	}
	if arts[0].ArticleOrder != 1 || arts[0].OfficialText != "Texto oficial do artigo um." {
		t.Fatalf("article 1 = %+v, want extracted text", arts[0])
	}
	if arts[0].StatusID != types.StatusActive || arts[0].ValidFrom != "2024-03-12" {
		t.Fatalf("article 1 = %s from %q, want ACTIVE from enactment date", arts[0].StatusID, arts[0].ValidFrom)
	}
	if arts[0].MandateID != "mandate-1" {
		t.Fatalf("article 1 mandate = %q, want mandate-1", arts[0].MandateID)
	}
	if arts[0].Translations["pt"].Title != "Artigo um" {
		t.Fatalf("article 1 pt title = %q, want Artigo um", arts[0].Translations["pt"].Title)
	}
	if arts[1].ArticleOrder != 3 || arts[1].OfficialText != "Texto oficial do artigo três." {
		t.Fatalf("article 3 = %+v, want extracted text", arts[1])
	}

	revoked := articleByOrder(t, store, target.ID, 5)
	if revoked.StatusID != types.StatusRevoked || revoked.ValidTo != "2024-03-11" {
		t.Fatalf("target article = %s until %q, want REVOKED until 2024-03-11", revoked.StatusID, revoked.ValidTo)
	}

	wantSummaries := []string{"Artigo 1: Resumo do artigo um.", "Artigo 3: Resumo do artigo três."}
	if len(sum.calls) != 1 || !reflect.DeepEqual(sum.calls[0], wantSummaries) {
		t.Fatalf("summarizer got %+v, want %+v", sum.calls, wantSummaries)
	}
	if len(tr.tagSets) != 1 || !reflect.DeepEqual(tr.tagSets[0], wantTags) {
		t.Fatalf("translator got tags %+v, want %+v", tr.tagSets, wantTags)
	}
	if len(tr.summaries) != 1 || tr.summaries[0].Title != "Apoio às farmácias" {
		t.Fatalf("translator got summaries %+v, want the reduce output", tr.summaries)
	}

	for _, want := range []string{"Created law 118203450", "Created 2 articles (1 skipped)", "Summary written (category HEALTH)", "Ingest complete"} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("output %q does not contain %q", out.String(), want)
		}
	}
}

func TestBuildReplacesExistingLaw(t *testing.T) {
	store := testStore(t)
	sourceID, target := seedIngestFixture(t, store)
	sum := &stubSummarizer{result: &types.LawSummary{CategoryID: "HEALTH", Title: "Apoio", Summary: "Resumo."}}
	b := testBuilder(t, store, sum, nil)

	res1, err := b.Build(context.Background(), io.Discard, sourceID)
	if err != nil {
		t.Fatalf("first Build() failed: %v", err)
	}

	var out bytes.Buffer
	res2, err := b.Build(context.Background(), &out, sourceID)
	if err != nil {
		t.Fatalf("second Build() failed: %v", err)
	}
	if res2.LawID == res1.LawID {
		t.Fatalf("second build reused law id %s", res1.LawID)
	}
	if !strings.Contains(out.String(), "Replacing existing law") {
		t.Fatalf("output %q does not mention replacement", out.String())
	}
	if _, err := store.LawByID(context.Background(), res1.LawID); !errors.Is(err, lawstore.ErrNotFound) {
		t.Fatalf("first law still present, lookup error = %v", err)
	}
	law, err := store.LawBySource(context.Background(), sourceID)
	if err != nil {
		t.Fatalf("LawBySource() failed: %v", err)
	}
	if law.ID != res2.LawID {
		t.Fatalf("law id = %s, want %s", law.ID, res2.LawID)
	}

	// Article 5 of the target was revoked by the first run, so the rerun
	// can only link at the law level.
	if res2.Links.LawRelationships != 2 || res2.Links.ArticleReferences != 0 {
		t.Fatalf("second build links = %+v, want law edges only", res2.Links)
	}
	revoked := articleByOrder(t, store, target.ID, 5)
	if revoked.StatusID != types.StatusRevoked {
		t.Fatalf("target article = %s, want still REVOKED", revoked.StatusID)
	}
}

func TestBuildRetriesAfterRollback(t *testing.T) {
	store := testStore(t)
	sourceID, _ := seedIngestFixture(t, store)
	flaky := &flakyStore{Store: store, articleFailures: 1}
	sum := &stubSummarizer{result: &types.LawSummary{CategoryID: "HEALTH", Title: "Apoio", Summary: "Resumo."}}
	b := testBuilder(t, flaky, sum, nil)

	var out bytes.Buffer
	res, err := b.Build(context.Background(), &out, sourceID)
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}
	if !strings.Contains(out.String(), "Build failed, retrying") {
		t.Fatalf("output %q does not mention the retry", out.String())
	}
	if res.ArticlesCreated != 2 {
		t.Fatalf("ArticlesCreated = %d, want 2", res.ArticlesCreated)
	}
	law, err := store.LawBySource(context.Background(), sourceID)
	if err != nil {
		t.Fatalf("LawBySource() failed: %v", err)
	}
	if law.ID != res.LawID {
		t.Fatalf("law id = %s, want %s", law.ID, res.LawID)
	}
}

func TestBuildFatalWhenRetriesExhausted(t *testing.T) {
	store := testStore(t)
	sourceID, _ := seedIngestFixture(t, store)
	flaky := &flakyStore{Store: store, articleFailures: 2}
	b := testBuilder(t, flaky, nil, nil)

	_, err := b.Build(context.Background(), io.Discard, sourceID)
	if err == nil {
		t.Fatal("Build() succeeded, want failure after exhausted retries")
	}
	var cleanup *ManualCleanupError
	if errors.As(err, &cleanup) {
		t.Fatalf("error = %v, want plain failure, not manual cleanup", err)
	}
	if _, err := store.LawBySource(context.Background(), sourceID); !errors.Is(err, lawstore.ErrNotFound) {
		t.Fatalf("law was not rolled back, lookup error = %v", err)
	}
}

func TestBuildManualCleanupError(t *testing.T) {
	store := testStore(t)
	sourceID, _ := seedIngestFixture(t, store)
	flaky := &flakyStore{Store: store, articleFailures: 1, deleteFailures: 1}
	b := testBuilder(t, flaky, nil, nil)

	_, err := b.Build(context.Background(), io.Discard, sourceID)
	var cleanup *ManualCleanupError
	if !errors.As(err, &cleanup) {
		t.Fatalf("error = %v, want ManualCleanupError", err)
	}
	if cleanup.LawID == "" {
		t.Fatal("ManualCleanupError has empty law id")
	}
	if !strings.Contains(err.Error(), "manual cleanup") {
		t.Fatalf("error = %v, want manual cleanup message", err)
	}
	law, err := store.LawBySource(context.Background(), sourceID)
	if err != nil {
		t.Fatalf("LawBySource() failed: %v", err)
	}
	if law.ID != cleanup.LawID {
		t.Fatalf("leftover law id = %s, want %s", law.ID, cleanup.LawID)
	}
}

func TestBuildRequiresExtraction(t *testing.T) {
	store := testStore(t)
	b := testBuilder(t, store, nil, nil)

	_, err := b.Build(context.Background(), io.Discard, "src-missing")
	if err == nil || !strings.Contains(err.Error(), "loading extraction") {
		t.Fatalf("Build() error = %v, want extraction load failure", err)
	}
}

func TestBuildRequiresCompletedExtraction(t *testing.T) {
	store := testStore(t)
	ext := &types.Extraction{
		SourceID:    "src-failed",
		Status:      types.ExtractionFailed,
		ExtractedAt: time.Now().UTC(),
	}
	if err := store.ReplaceExtraction(context.Background(), ext); err != nil {
		t.Fatalf("ReplaceExtraction() failed: %v", err)
	}
	b := testBuilder(t, store, nil, nil)

	_, err := b.Build(context.Background(), io.Discard, "src-failed")
	if err == nil || !strings.Contains(err.Error(), string(types.ExtractionFailed)) {
		t.Fatalf("Build() error = %v, want status complaint", err)
	}
}

func TestBuildRequiresAnalysis(t *testing.T) {
	store := testStore(t)
	ext := &types.Extraction{
		SourceID:    "src-x",
		Status:      types.ExtractionCompleted,
		ExtractedAt: time.Now().UTC(),
	}
	if err := store.ReplaceExtraction(context.Background(), ext); err != nil {
		t.Fatalf("ReplaceExtraction() failed: %v", err)
	}
	b := testBuilder(t, store, nil, nil)

	_, err := b.Build(context.Background(), io.Discard, "src-x")
	if err == nil || !strings.Contains(err.Error(), "loading analysis") {
		t.Fatalf("Build() error = %v, want analysis load failure", err)
	}
}

func TestBuildWithoutSummarizer(t *testing.T) {
	store := testStore(t)
	sourceID, _ := seedIngestFixture(t, store)
	b := testBuilder(t, store, nil, nil)

	res, err := b.Build(context.Background(), io.Discard, sourceID)
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}
	if res.SummaryGenerated {
		t.Fatal("SummaryGenerated = true, want false without a summarizer")
	}
	if res.CategoryID != types.DefaultCategoryID {
		t.Fatalf("CategoryID = %q, want default %q", res.CategoryID, types.DefaultCategoryID)
	}
}

func TestBuildSummaryFailureDegrades(t *testing.T) {
	store := testStore(t)
	sourceID, _ := seedIngestFixture(t, store)
	sum := &stubSummarizer{err: errors.New("model offline")}
	b := testBuilder(t, store, sum, nil)

	res, err := b.Build(context.Background(), io.Discard, sourceID)
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}
	if res.SummaryGenerated {
		t.Fatal("SummaryGenerated = true, want false after summary failure")
	}
	law, err := store.LawBySource(context.Background(), sourceID)
	if err != nil {
		t.Fatalf("LawBySource() failed: %v", err)
	}
	if law.CategoryID != types.DefaultCategoryID {
		t.Fatalf("CategoryID = %q, want default kept", law.CategoryID)
	}
}

func TestAggregateTags(t *testing.T) {
	items := []types.AnalysisItem{
		{Analysis: types.ItemAnalysis{
			Tags:    types.TagSet{Persons: []string{"Ana Silva"}, Concepts: []string{"saúde", "hospitais"}},
			Title:   "Um",
			Summary: "Resumo.",
		}},
		{Analysis: types.ItemAnalysis{
			Tags:    types.TagSet{Persons: []string{"Ana Silva", " "}, Concepts: []string{"hospitais", "medicamentos"}},
			Title:   "Dois",
			Summary: "Resumo.",
		}},
		// Fallback items contribute nothing.
		{Analysis: types.ItemAnalysis{
			Tags: types.TagSet{Concepts: []string{"ignorado"}},
		}},
	}
	got := aggregateTags(items)
	want := types.TagSet{
		Persons:       []string{"Ana Silva"},
		Organizations: []string{},
		Concepts:      []string{"saúde", "hospitais", "medicamentos"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("aggregateTags() = %+v, want %+v", got, want)
	}
}

func TestArticleSummariesSkipsFallbacks(t *testing.T) {
	items := []types.AnalysisItem{
		{ContentType: types.ContentPreamble, Analysis: types.ItemAnalysis{Title: "P", Summary: "Preâmbulo."}},
		{ContentType: types.ContentArticle, ArticleOrder: 1, Analysis: types.ItemAnalysis{Title: "Um", Summary: "Linha  um\ncom quebras."}},
		{ContentType: types.ContentArticle, ArticleOrder: 2},
		{ContentType: types.ContentArticle, ArticleOrder: 3, Analysis: types.ItemAnalysis{Title: "Três", Summary: "Linha três."}},
	}
	got := articleSummaries(items)
	want := []string{"Artigo 1: Linha um com quebras.", "Artigo 3: Linha três."}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("articleSummaries() = %+v, want %+v", got, want)
	}
}

func TestOfficialText(t *testing.T) {
	ext := &types.Extraction{Articles: []types.ExtractedArticle{
		{Number: "Artigo 1.º", OfficialText: "um"},
		{Number: "Artigo 2.º", OfficialText: "dois"},
	}}
	if got := officialText(ext, 2); got != "dois" {
		t.Fatalf("officialText(2) = %q, want dois", got)
	}
	if got := officialText(ext, 9); got != "Article 9 text not found" {
		t.Fatalf("officialText(9) = %q, want placeholder", got)
	}
	if got := officialText(ext, 0); got != "Article 0 text not found" {
		t.Fatalf("officialText(0) = %q, want placeholder", got)
	}
}
