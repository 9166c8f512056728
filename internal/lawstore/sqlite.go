// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package lawstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/agoradev/lawgraph/pkg/types"
)

const defaultDBFile = "lawgraph.db"

// SQLite keeps the whole graph in one local database file.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens or creates the database at cfg.Path and creates the
// schema if it does not exist.
func NewSQLite(cfg types.StoreConfig) (*SQLite, error) {
	path := cfg.Path
	if path == "" {
		path = defaultDBFile
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &SQLite{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS sources (
			id TEXT PRIMARY KEY,
			translations TEXT,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS document_chunks (
			source_id TEXT NOT NULL REFERENCES sources(id),
			chunk_index INTEGER NOT NULL,
			content TEXT NOT NULL,
			UNIQUE(source_id, chunk_index)
		)`,
		`CREATE TABLE IF NOT EXISTS pending_extractions (
			source_id TEXT NOT NULL,
			status TEXT NOT NULL,
			extracted_data TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_pending_extractions_source ON pending_extractions(source_id)`,
		`CREATE TABLE IF NOT EXISTS source_ai_analysis (
			source_id TEXT NOT NULL,
			model_version TEXT NOT NULL,
			analysis_data TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_source_ai_analysis_source ON source_ai_analysis(source_id, model_version)`,
		`CREATE TABLE IF NOT EXISTS laws (
			id TEXT PRIMARY KEY,
			source_id TEXT NOT NULL,
			government_entity_id TEXT,
			official_number TEXT,
			slug TEXT,
			type_id TEXT,
			category_id TEXT,
			enactment_date TEXT,
			official_title TEXT,
			translations TEXT,
			tags TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_laws_source ON laws(source_id)`,
		`CREATE INDEX IF NOT EXISTS idx_laws_slug ON laws(slug)`,
		`CREATE INDEX IF NOT EXISTS idx_laws_number ON laws(official_number)`,
		`CREATE TABLE IF NOT EXISTS law_articles (
			id TEXT PRIMARY KEY,
			law_id TEXT NOT NULL REFERENCES laws(id),
			article_order INTEGER NOT NULL,
			mandate_id TEXT,
			status_id TEXT NOT NULL,
			valid_from TEXT,
			valid_to TEXT,
			official_text TEXT,
			tags TEXT,
			translations TEXT,
			cross_references TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_law_articles_law ON law_articles(law_id, article_order)`,
		`CREATE TABLE IF NOT EXISTS law_relationships (
			source_law_id TEXT NOT NULL REFERENCES laws(id),
			target_law_id TEXT NOT NULL REFERENCES laws(id),
			relationship_type TEXT NOT NULL,
			UNIQUE(source_law_id, target_law_id, relationship_type)
		)`,
		`CREATE TABLE IF NOT EXISTS law_article_references (
			source_article_id TEXT NOT NULL REFERENCES law_articles(id),
			target_article_id TEXT NOT NULL REFERENCES law_articles(id),
			reference_type TEXT NOT NULL,
			UNIQUE(source_article_id, target_article_id, reference_type)
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// --- sources and chunks ---

func (s *SQLite) CreateSource(ctx context.Context, src *types.Source) error {
	translationsJSON, _ := json.Marshal(src.Translations)
	createdAt := src.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO sources (id, translations, created_at) VALUES (?, ?, ?)`,
		src.ID, string(translationsJSON), createdAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("inserting source: %w", err)
	}
	return duplicateIfNoRows(res)
}

func (s *SQLite) GetSource(ctx context.Context, id string) (*types.Source, error) {
	var translationsJSON, createdAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT translations, created_at FROM sources WHERE id = ?`, id,
	).Scan(&translationsJSON, &createdAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying source: %w", err)
	}

	src := &types.Source{ID: id, Translations: map[string]string{}}
	if translationsJSON != "" {
		json.Unmarshal([]byte(translationsJSON), &src.Translations)
	}
	if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		src.CreatedAt = t
	}
	return src, nil
}

func (s *SQLite) CreateChunk(ctx context.Context, chunk *types.DocumentChunk) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO document_chunks (source_id, chunk_index, content) VALUES (?, ?, ?)`,
		chunk.SourceID, chunk.ChunkIndex, chunk.Content,
	)
	if err != nil {
		return fmt.Errorf("inserting chunk: %w", err)
	}
	return duplicateIfNoRows(res)
}

func (s *SQLite) ChunksBySource(ctx context.Context, sourceID string) ([]types.DocumentChunk, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT source_id, chunk_index, content FROM document_chunks
		 WHERE source_id = ? ORDER BY chunk_index`, sourceID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []types.DocumentChunk
	for rows.Next() {
		var c types.DocumentChunk
		if err := rows.Scan(&c.SourceID, &c.ChunkIndex, &c.Content); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// --- extraction envelopes ---

func (s *SQLite) ReplaceExtraction(ctx context.Context, ext *types.Extraction) error {
	payload, _ := json.Marshal(ext)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM pending_extractions WHERE source_id = ?`, ext.SourceID,
	); err != nil {
		return fmt.Errorf("deleting old extraction: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO pending_extractions (source_id, status, extracted_data, created_at) VALUES (?, ?, ?, ?)`,
		ext.SourceID, string(ext.Status), string(payload), time.Now().UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("inserting extraction: %w", err)
	}
	return tx.Commit()
}

func (s *SQLite) LatestExtraction(ctx context.Context, sourceID string) (*types.Extraction, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT extracted_data FROM pending_extractions
		 WHERE source_id = ? ORDER BY created_at DESC, rowid DESC LIMIT 1`, sourceID,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying extraction: %w", err)
	}

	var ext types.Extraction
	if err := json.Unmarshal([]byte(payload), &ext); err != nil {
		return nil, fmt.Errorf("parsing extraction payload: %w", err)
	}
	return &ext, nil
}

// --- analysis envelopes ---

func (s *SQLite) ReplaceAnalysis(ctx context.Context, an *types.Analysis) error {
	payload, _ := json.Marshal(an)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM source_ai_analysis WHERE source_id = ? AND model_version = ?`,
		an.SourceID, an.ModelVersion,
	); err != nil {
		return fmt.Errorf("deleting old analysis: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO source_ai_analysis (source_id, model_version, analysis_data, created_at) VALUES (?, ?, ?, ?)`,
		an.SourceID, an.ModelVersion, string(payload), time.Now().UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("inserting analysis: %w", err)
	}
	return tx.Commit()
}

func (s *SQLite) LatestAnalysis(ctx context.Context, sourceID, modelVersion string) (*types.Analysis, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT analysis_data FROM source_ai_analysis
		 WHERE source_id = ? AND model_version = ? ORDER BY created_at DESC, rowid DESC LIMIT 1`,
		sourceID, modelVersion,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying analysis: %w", err)
	}

	var an types.Analysis
	if err := json.Unmarshal([]byte(payload), &an); err != nil {
		return nil, fmt.Errorf("parsing analysis payload: %w", err)
	}
	return &an, nil
}

// --- laws ---

const lawColumns = `id, source_id, government_entity_id, official_number, slug,
	type_id, category_id, enactment_date, official_title, translations, tags`

func (s *SQLite) CreateLaw(ctx context.Context, law *types.Law) error {
	translationsJSON, _ := json.Marshal(law.Translations)
	tagsJSON, _ := json.Marshal(law.Tags)
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO laws (`+lawColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		law.ID, law.SourceID, law.GovernmentEntityID, law.OfficialNumber, law.Slug,
		law.TypeID, law.CategoryID, nullString(law.EnactmentDate), law.OfficialTitle,
		string(translationsJSON), string(tagsJSON),
	)
	if err != nil {
		return fmt.Errorf("inserting law: %w", err)
	}
	return duplicateIfNoRows(res)
}

func (s *SQLite) LawByID(ctx context.Context, id string) (*types.Law, error) {
	return s.lawWhere(ctx, `id = ?`, id)
}

func (s *SQLite) LawBySource(ctx context.Context, sourceID string) (*types.Law, error) {
	return s.lawWhere(ctx, `source_id = ?`, sourceID)
}

func (s *SQLite) LawBySlug(ctx context.Context, slug string) (*types.Law, error) {
	return s.lawWhere(ctx, `slug = ?`, slug)
}

func (s *SQLite) LawByNumber(ctx context.Context, number string) (*types.Law, error) {
	return s.lawWhere(ctx, `official_number = ?`, number)
}

func (s *SQLite) LawByNumberLike(ctx context.Context, fragment string) (*types.Law, error) {
	return s.lawWhere(ctx, `official_number LIKE '%' || ? || '%'`, fragment)
}

func (s *SQLite) lawWhere(ctx context.Context, where string, arg any) (*types.Law, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+lawColumns+` FROM laws WHERE `+where+` LIMIT 1`, arg,
	)

	var law types.Law
	var enactment sql.NullString
	var translationsJSON, tagsJSON string
	err := row.Scan(&law.ID, &law.SourceID, &law.GovernmentEntityID, &law.OfficialNumber,
		&law.Slug, &law.TypeID, &law.CategoryID, &enactment, &law.OfficialTitle,
		&translationsJSON, &tagsJSON)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying law: %w", err)
	}

	law.EnactmentDate = enactment.String
	law.Translations = map[string]types.Translation{}
	json.Unmarshal([]byte(translationsJSON), &law.Translations)
	json.Unmarshal([]byte(tagsJSON), &law.Tags)
	return &law, nil
}

func (s *SQLite) UpdateLawTags(ctx context.Context, lawID string, tags types.TagSet) error {
	tagsJSON, _ := json.Marshal(tags)
	_, err := s.db.ExecContext(ctx, `UPDATE laws SET tags = ? WHERE id = ?`, string(tagsJSON), lawID)
	if err != nil {
		return fmt.Errorf("updating law tags: %w", err)
	}
	return nil
}

func (s *SQLite) UpdateLawSummary(ctx context.Context, lawID, categoryID string, translations map[string]types.Translation) error {
	translationsJSON, _ := json.Marshal(translations)
	_, err := s.db.ExecContext(ctx,
		`UPDATE laws SET category_id = ?, translations = ? WHERE id = ?`,
		categoryID, string(translationsJSON), lawID,
	)
	if err != nil {
		return fmt.Errorf("updating law summary: %w", err)
	}
	return nil
}

// DeleteLawCascade removes a law with its articles and every edge
// touching them, mirroring the hosted API's cascade-delete procedure.
func (s *SQLite) DeleteLawCascade(ctx context.Context, lawID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	statements := []struct {
		query string
		args  []any
	}{
		{`DELETE FROM law_article_references
		  WHERE source_article_id IN (SELECT id FROM law_articles WHERE law_id = ?)
		     OR target_article_id IN (SELECT id FROM law_articles WHERE law_id = ?)`, []any{lawID, lawID}},
		{`DELETE FROM law_relationships WHERE source_law_id = ? OR target_law_id = ?`, []any{lawID, lawID}},
		{`DELETE FROM law_articles WHERE law_id = ?`, []any{lawID}},
		{`DELETE FROM laws WHERE id = ?`, []any{lawID}},
	}
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt.query, stmt.args...); err != nil {
			return fmt.Errorf("cascade delete: %w", err)
		}
	}
	return tx.Commit()
}

// --- articles ---

const articleColumns = `id, law_id, article_order, mandate_id, status_id,
	valid_from, valid_to, official_text, tags, translations, cross_references`

func (s *SQLite) CreateArticle(ctx context.Context, art *types.LawArticle) error {
	tagsJSON, _ := json.Marshal(art.Tags)
	translationsJSON, _ := json.Marshal(art.Translations)
	refsJSON, _ := json.Marshal(art.CrossReferences)
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO law_articles (`+articleColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		art.ID, art.LawID, art.ArticleOrder, art.MandateID, string(art.StatusID),
		nullString(art.ValidFrom), nullString(art.ValidTo), art.OfficialText,
		string(tagsJSON), string(translationsJSON), string(refsJSON),
	)
	if err != nil {
		return fmt.Errorf("inserting article: %w", err)
	}
	return duplicateIfNoRows(res)
}

func (s *SQLite) ArticlesByLaw(ctx context.Context, lawID string) ([]types.LawArticle, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+articleColumns+` FROM law_articles WHERE law_id = ? ORDER BY article_order`, lawID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying articles: %w", err)
	}
	defer rows.Close()

	var articles []types.LawArticle
	for rows.Next() {
		art, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, *art)
	}
	return articles, rows.Err()
}

func (s *SQLite) ActiveArticleByOrder(ctx context.Context, lawID string, order int) (*types.LawArticle, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+articleColumns+` FROM law_articles
		 WHERE law_id = ? AND article_order = ? AND status_id = ? LIMIT 1`,
		lawID, order, string(types.StatusActive),
	)
	if err != nil {
		return nil, fmt.Errorf("querying article: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ErrNotFound
	}
	return scanArticle(rows)
}

func scanArticle(rows *sql.Rows) (*types.LawArticle, error) {
	var art types.LawArticle
	var validFrom, validTo sql.NullString
	var tagsJSON, translationsJSON, refsJSON string
	err := rows.Scan(&art.ID, &art.LawID, &art.ArticleOrder, &art.MandateID, &art.StatusID,
		&validFrom, &validTo, &art.OfficialText, &tagsJSON, &translationsJSON, &refsJSON)
	if err != nil {
		return nil, fmt.Errorf("scanning article: %w", err)
	}
	art.ValidFrom = validFrom.String
	art.ValidTo = validTo.String
	art.Translations = map[string]types.Translation{}
	json.Unmarshal([]byte(tagsJSON), &art.Tags)
	json.Unmarshal([]byte(translationsJSON), &art.Translations)
	json.Unmarshal([]byte(refsJSON), &art.CrossReferences)
	return &art, nil
}

func (s *SQLite) UpdateArticleStatus(ctx context.Context, articleID string, status types.ArticleStatus, validTo string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE law_articles SET status_id = ?, valid_to = ? WHERE id = ?`,
		string(status), nullString(validTo), articleID,
	)
	if err != nil {
		return fmt.Errorf("updating article status: %w", err)
	}
	return nil
}

// --- graph edges ---

func (s *SQLite) CreateRelationship(ctx context.Context, rel *types.LawRelationship) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO law_relationships (source_law_id, target_law_id, relationship_type) VALUES (?, ?, ?)`,
		rel.SourceLawID, rel.TargetLawID, rel.Type,
	)
	if err != nil {
		return fmt.Errorf("inserting relationship: %w", err)
	}
	return duplicateIfNoRows(res)
}

func (s *SQLite) RelationshipsByLaw(ctx context.Context, lawID string) ([]types.LawRelationship, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT source_law_id, target_law_id, relationship_type FROM law_relationships
		 WHERE source_law_id = ?`, lawID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying relationships: %w", err)
	}
	defer rows.Close()

	var rels []types.LawRelationship
	for rows.Next() {
		var r types.LawRelationship
		if err := rows.Scan(&r.SourceLawID, &r.TargetLawID, &r.Type); err != nil {
			return nil, fmt.Errorf("scanning relationship: %w", err)
		}
		rels = append(rels, r)
	}
	return rels, rows.Err()
}

func (s *SQLite) CreateArticleReference(ctx context.Context, ref *types.ArticleReference) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO law_article_references (source_article_id, target_article_id, reference_type) VALUES (?, ?, ?)`,
		ref.SourceArticleID, ref.TargetArticleID, ref.Type,
	)
	if err != nil {
		return fmt.Errorf("inserting article reference: %w", err)
	}
	return duplicateIfNoRows(res)
}

func (s *SQLite) ReferencesByLaw(ctx context.Context, lawID string) ([]types.ArticleReference, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT source_article_id, target_article_id, reference_type FROM law_article_references
		 WHERE source_article_id IN (SELECT id FROM law_articles WHERE law_id = ?)`, lawID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying article references: %w", err)
	}
	defer rows.Close()

	var refs []types.ArticleReference
	for rows.Next() {
		var r types.ArticleReference
		if err := rows.Scan(&r.SourceArticleID, &r.TargetArticleID, &r.Type); err != nil {
			return nil, fmt.Errorf("scanning article reference: %w", err)
		}
		refs = append(refs, r)
	}
	return refs, rows.Err()
}

func (s *SQLite) DistinctTags(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT tags FROM laws`)
	if err != nil {
		return nil, fmt.Errorf("querying law tags: %w", err)
	}
	defer rows.Close()

	seen := map[string]bool{}
	for rows.Next() {
		var tagsJSON string
		if err := rows.Scan(&tagsJSON); err != nil {
			return nil, fmt.Errorf("scanning law tags: %w", err)
		}
		var tags types.TagSet
		if err := json.Unmarshal([]byte(tagsJSON), &tags); err != nil {
			continue
		}
		for _, list := range [][]string{tags.Persons, tags.Organizations, tags.Concepts} {
			for _, tag := range list {
				seen[tag] = true
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]string, 0, len(seen))
	for tag := range seen {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out, nil
}

// --- helpers ---

// nullString maps "" to NULL for nullable columns.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// duplicateIfNoRows converts an ignored insert into ErrDuplicate.
func duplicateIfNoRows(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrDuplicate
	}
	return nil
}
