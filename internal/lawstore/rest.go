// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package lawstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/agoradev/lawgraph/internal/httputil"
	"github.com/agoradev/lawgraph/pkg/types"
)

const (
	defaultSchema      = "agora"
	defaultRESTTimeout = 30 * time.Second
	restMaxRetries     = 3
)

// REST talks to a hosted PostgREST-style row API (Supabase and
// compatible services). Filters use the eq./ilike./in. operator syntax
// and writes carry the Content-Profile header so rows land in the
// configured schema.
type REST struct {
	baseURL    string
	serviceKey string
	schema     string
	userAgent  string
	client     *http.Client
}

// NewREST builds a row-API store from cfg. URL and ServiceKey are
// required; Schema defaults to "agora".
func NewREST(cfg types.StoreConfig) (*REST, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("store URL is required for the rest backend")
	}
	if cfg.ServiceKey == "" {
		return nil, fmt.Errorf("store service key is required for the rest backend")
	}
	schema := cfg.Schema
	if schema == "" {
		schema = defaultSchema
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultRESTTimeout
	}
	return &REST{
		baseURL:    strings.TrimRight(cfg.URL, "/") + "/rest/v1",
		serviceKey: cfg.ServiceKey,
		schema:     schema,
		userAgent:  cfg.UserAgent,
		client:     &http.Client{Timeout: timeout},
	}, nil
}

// Close is a no-op; the row API is stateless per request.
func (r *REST) Close() error {
	return nil
}

// do performs one row-API request. A nil out discards the response
// body; writes send Prefer: return=minimal so the API skips echoing
// rows back.
func (r *REST) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := r.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("apikey", r.serviceKey)
	req.Header.Set("Authorization", "Bearer "+r.serviceKey)
	if r.userAgent != "" {
		req.Header.Set("User-Agent", r.userAgent)
	}
	if method == http.MethodGet {
		req.Header.Set("Accept-Profile", r.schema)
	} else {
		req.Header.Set("Content-Profile", r.schema)
		req.Header.Set("Prefer", "return=minimal")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := httputil.DoWithRetry(ctx, r.client, req, restMaxRetries)
	if err != nil {
		return fmt.Errorf("store API request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode == http.StatusConflict {
		return ErrDuplicate
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("store API returned %d: %s", resp.StatusCode, snippet(data))
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("parsing response: %w", err)
		}
	}
	return nil
}

// getOne fetches at most one row and decodes it into out; a row-less
// result is ErrNotFound.
func (r *REST) getOne(ctx context.Context, path string, query url.Values, out any) error {
	query.Set("limit", "1")
	var rows []json.RawMessage
	if err := r.do(ctx, http.MethodGet, path, query, nil, &rows); err != nil {
		return err
	}
	if len(rows) == 0 {
		return ErrNotFound
	}
	if err := json.Unmarshal(rows[0], out); err != nil {
		return fmt.Errorf("parsing row: %w", err)
	}
	return nil
}

func snippet(data []byte) string {
	s := strings.TrimSpace(string(data))
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}

// sourceRow matches the remote sources table.
type sourceRow struct {
	ID           string            `json:"id"`
	Translations map[string]string `json:"translations,omitempty"`
	CreatedAt    string            `json:"created_at,omitempty"`
}

func (r *REST) CreateSource(ctx context.Context, src *types.Source) error {
	row := sourceRow{ID: src.ID, Translations: src.Translations}
	if !src.CreatedAt.IsZero() {
		row.CreatedAt = src.CreatedAt.Format(time.RFC3339Nano)
	}
	return r.do(ctx, http.MethodPost, "/sources", nil, row, nil)
}

func (r *REST) GetSource(ctx context.Context, id string) (*types.Source, error) {
	q := url.Values{}
	q.Set("id", "eq."+id)
	var row sourceRow
	if err := r.getOne(ctx, "/sources", q, &row); err != nil {
		return nil, err
	}
	src := &types.Source{ID: row.ID, Translations: row.Translations}
	if src.Translations == nil {
		src.Translations = map[string]string{}
	}
	if t, err := time.Parse(time.RFC3339Nano, row.CreatedAt); err == nil {
		src.CreatedAt = t
	}
	return src, nil
}

func (r *REST) CreateChunk(ctx context.Context, chunk *types.DocumentChunk) error {
	return r.do(ctx, http.MethodPost, "/document_chunks", nil, chunk, nil)
}

func (r *REST) ChunksBySource(ctx context.Context, sourceID string) ([]types.DocumentChunk, error) {
	q := url.Values{}
	q.Set("source_id", "eq."+sourceID)
	q.Set("order", "chunk_index.asc")
	var chunks []types.DocumentChunk
	if err := r.do(ctx, http.MethodGet, "/document_chunks", q, nil, &chunks); err != nil {
		return nil, err
	}
	return chunks, nil
}

// extractionRow matches the remote pending_extractions table; the full
// envelope rides in the extracted_data column.
type extractionRow struct {
	SourceID      string          `json:"source_id"`
	Status        string          `json:"status"`
	ExtractedData json.RawMessage `json:"extracted_data"`
}

func (r *REST) ReplaceExtraction(ctx context.Context, ext *types.Extraction) error {
	q := url.Values{}
	q.Set("source_id", "eq."+ext.SourceID)
	if err := r.do(ctx, http.MethodDelete, "/pending_extractions", q, nil, nil); err != nil {
		return fmt.Errorf("deleting old extraction: %w", err)
	}

	payload, _ := json.Marshal(ext)
	row := extractionRow{SourceID: ext.SourceID, Status: string(ext.Status), ExtractedData: payload}
	if err := r.do(ctx, http.MethodPost, "/pending_extractions", nil, row, nil); err != nil {
		return fmt.Errorf("inserting extraction: %w", err)
	}
	return nil
}

func (r *REST) LatestExtraction(ctx context.Context, sourceID string) (*types.Extraction, error) {
	q := url.Values{}
	q.Set("source_id", "eq."+sourceID)
	q.Set("select", "extracted_data")
	q.Set("order", "created_at.desc")
	var row extractionRow
	if err := r.getOne(ctx, "/pending_extractions", q, &row); err != nil {
		return nil, err
	}
	var ext types.Extraction
	if err := json.Unmarshal(row.ExtractedData, &ext); err != nil {
		return nil, fmt.Errorf("parsing extraction payload: %w", err)
	}
	return &ext, nil
}

// analysisRow matches the remote source_ai_analysis table.
type analysisRow struct {
	SourceID     string          `json:"source_id"`
	ModelVersion string          `json:"model_version"`
	AnalysisData json.RawMessage `json:"analysis_data"`
}

func (r *REST) ReplaceAnalysis(ctx context.Context, an *types.Analysis) error {
	q := url.Values{}
	q.Set("source_id", "eq."+an.SourceID)
	q.Set("model_version", "eq."+an.ModelVersion)
	if err := r.do(ctx, http.MethodDelete, "/source_ai_analysis", q, nil, nil); err != nil {
		return fmt.Errorf("deleting old analysis: %w", err)
	}

	payload, _ := json.Marshal(an)
	row := analysisRow{SourceID: an.SourceID, ModelVersion: an.ModelVersion, AnalysisData: payload}
	if err := r.do(ctx, http.MethodPost, "/source_ai_analysis", nil, row, nil); err != nil {
		return fmt.Errorf("inserting analysis: %w", err)
	}
	return nil
}

func (r *REST) LatestAnalysis(ctx context.Context, sourceID, modelVersion string) (*types.Analysis, error) {
	q := url.Values{}
	q.Set("source_id", "eq."+sourceID)
	q.Set("model_version", "eq."+modelVersion)
	q.Set("select", "analysis_data")
	q.Set("order", "created_at.desc")
	var row analysisRow
	if err := r.getOne(ctx, "/source_ai_analysis", q, &row); err != nil {
		return nil, err
	}
	var an types.Analysis
	if err := json.Unmarshal(row.AnalysisData, &an); err != nil {
		return nil, fmt.Errorf("parsing analysis payload: %w", err)
	}
	return &an, nil
}

func (r *REST) CreateLaw(ctx context.Context, law *types.Law) error {
	return r.do(ctx, http.MethodPost, "/laws", nil, law, nil)
}

func (r *REST) LawByID(ctx context.Context, id string) (*types.Law, error) {
	return r.lawWhere(ctx, "id", "eq."+id)
}

func (r *REST) LawBySource(ctx context.Context, sourceID string) (*types.Law, error) {
	return r.lawWhere(ctx, "source_id", "eq."+sourceID)
}

func (r *REST) LawBySlug(ctx context.Context, slug string) (*types.Law, error) {
	return r.lawWhere(ctx, "slug", "eq."+slug)
}

func (r *REST) LawByNumber(ctx context.Context, number string) (*types.Law, error) {
	return r.lawWhere(ctx, "official_number", "eq."+number)
}

func (r *REST) LawByNumberLike(ctx context.Context, fragment string) (*types.Law, error) {
	return r.lawWhere(ctx, "official_number", "ilike.*"+fragment+"*")
}

func (r *REST) lawWhere(ctx context.Context, field, filter string) (*types.Law, error) {
	q := url.Values{}
	q.Set(field, filter)
	var law types.Law
	if err := r.getOne(ctx, "/laws", q, &law); err != nil {
		return nil, err
	}
	return &law, nil
}

func (r *REST) UpdateLawTags(ctx context.Context, lawID string, tags types.TagSet) error {
	q := url.Values{}
	q.Set("id", "eq."+lawID)
	patch := map[string]any{"tags": tags}
	return r.do(ctx, http.MethodPatch, "/laws", q, patch, nil)
}

func (r *REST) UpdateLawSummary(ctx context.Context, lawID, categoryID string, translations map[string]types.Translation) error {
	q := url.Values{}
	q.Set("id", "eq."+lawID)
	patch := map[string]any{"category_id": categoryID, "translations": translations}
	return r.do(ctx, http.MethodPatch, "/laws", q, patch, nil)
}

// DeleteLawCascade calls the hosted API's stored procedure that removes
// a law together with its articles and edges in one transaction.
func (r *REST) DeleteLawCascade(ctx context.Context, lawID string) error {
	body := map[string]string{"p_law_id": lawID}
	return r.do(ctx, http.MethodPost, "/rpc/delete_law_and_children", nil, body, nil)
}

func (r *REST) CreateArticle(ctx context.Context, art *types.LawArticle) error {
	return r.do(ctx, http.MethodPost, "/law_articles", nil, art, nil)
}

func (r *REST) ArticlesByLaw(ctx context.Context, lawID string) ([]types.LawArticle, error) {
	q := url.Values{}
	q.Set("law_id", "eq."+lawID)
	q.Set("order", "article_order.asc")
	var articles []types.LawArticle
	if err := r.do(ctx, http.MethodGet, "/law_articles", q, nil, &articles); err != nil {
		return nil, err
	}
	return articles, nil
}

func (r *REST) ActiveArticleByOrder(ctx context.Context, lawID string, order int) (*types.LawArticle, error) {
	q := url.Values{}
	q.Set("law_id", "eq."+lawID)
	q.Set("article_order", "eq."+strconv.Itoa(order))
	q.Set("status_id", "eq."+string(types.StatusActive))
	var art types.LawArticle
	if err := r.getOne(ctx, "/law_articles", q, &art); err != nil {
		return nil, err
	}
	return &art, nil
}

func (r *REST) UpdateArticleStatus(ctx context.Context, articleID string, status types.ArticleStatus, validTo string) error {
	q := url.Values{}
	q.Set("id", "eq."+articleID)
	patch := map[string]any{"status_id": status}
	if validTo != "" {
		patch["valid_to"] = validTo
	} else {
		patch["valid_to"] = nil
	}
	return r.do(ctx, http.MethodPatch, "/law_articles", q, patch, nil)
}

func (r *REST) CreateRelationship(ctx context.Context, rel *types.LawRelationship) error {
	return r.do(ctx, http.MethodPost, "/law_relationships", nil, rel, nil)
}

func (r *REST) RelationshipsByLaw(ctx context.Context, lawID string) ([]types.LawRelationship, error) {
	q := url.Values{}
	q.Set("source_law_id", "eq."+lawID)
	var rels []types.LawRelationship
	if err := r.do(ctx, http.MethodGet, "/law_relationships", q, nil, &rels); err != nil {
		return nil, err
	}
	return rels, nil
}

func (r *REST) CreateArticleReference(ctx context.Context, ref *types.ArticleReference) error {
	return r.do(ctx, http.MethodPost, "/law_article_references", nil, ref, nil)
}

func (r *REST) ReferencesByLaw(ctx context.Context, lawID string) ([]types.ArticleReference, error) {
	articles, err := r.ArticlesByLaw(ctx, lawID)
	if err != nil {
		return nil, err
	}
	if len(articles) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(articles))
	for _, art := range articles {
		ids = append(ids, art.ID)
	}
	q := url.Values{}
	q.Set("source_article_id", "in.("+strings.Join(ids, ",")+")")
	var refs []types.ArticleReference
	if err := r.do(ctx, http.MethodGet, "/law_article_references", q, nil, &refs); err != nil {
		return nil, err
	}
	return refs, nil
}

func (r *REST) DistinctTags(ctx context.Context) ([]string, error) {
	q := url.Values{}
	q.Set("select", "tags")
	var rows []struct {
		Tags types.TagSet `json:"tags"`
	}
	if err := r.do(ctx, http.MethodGet, "/laws", q, nil, &rows); err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	for _, row := range rows {
		for _, list := range [][]string{row.Tags.Persons, row.Tags.Organizations, row.Tags.Concepts} {
			for _, tag := range list {
				seen[tag] = true
			}
		}
	}
	out := make([]string, 0, len(seen))
	for tag := range seen {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out, nil
}
