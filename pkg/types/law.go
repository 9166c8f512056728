// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ArticleStatus tracks the lifecycle of a law article in the graph.
type ArticleStatus string

const (
	StatusActive     ArticleStatus = "ACTIVE"
	StatusRevoked    ArticleStatus = "REVOKED"
	StatusSuperseded ArticleStatus = "SUPERSEDED"
)

// ExtractionStatus marks the outcome of the extraction stage for a source.
type ExtractionStatus string

const (
	ExtractionCompleted ExtractionStatus = "COMPLETED"
	ExtractionFailed    ExtractionStatus = "FAILED"
)

// DateLayout is the wire format for date-only fields. Empty string means
// the date is unknown (stored as NULL).
const DateLayout = "2006-01-02"

// Source is a legal document registered for ingestion. Its text arrives
// pre-chunked in DocumentChunk rows.
type Source struct {
	// ID is the source's UUID.
	ID string `json:"id" yaml:"id"`

	// Translations maps a language code to the document's official title
	// in that language (e.g. "pt" -> "Decreto-Lei n.º 41/2023 ...").
	Translations map[string]string `json:"translations" yaml:"translations"`

	// CreatedAt is when the source was registered.
	CreatedAt time.Time `json:"created_at,omitempty" yaml:"created_at,omitempty"`
}

// DocumentChunk is one ordered fragment of a source's raw text.
type DocumentChunk struct {
	SourceID string `json:"source_id" yaml:"source_id"`

	// ChunkIndex orders chunks within a source, starting at 0.
	ChunkIndex int `json:"chunk_index" yaml:"chunk_index"`

	Content string `json:"content" yaml:"content"`
}

// LawMetadata is what the extraction stage reads off the document header
// with regular expressions. All fields may be empty when the header does
// not match.
type LawMetadata struct {
	// Type is the Portuguese law-type name (e.g. "Decreto-Lei").
	Type string `json:"type,omitempty" yaml:"type,omitempty"`

	// OfficialNumber is the gazette number (e.g. "41/2023").
	OfficialNumber string `json:"official_number,omitempty" yaml:"official_number,omitempty"`

	// EnactmentDate is the long-form date converted to DateLayout.
	EnactmentDate string `json:"enactment_date,omitempty" yaml:"enactment_date,omitempty"`

	// OfficialTitle is the first line of the document.
	OfficialTitle string `json:"official_title,omitempty" yaml:"official_title,omitempty"`
}

// ExtractedArticle is one article as split out of the document text.
type ExtractedArticle struct {
	// Number is the article designator as written (e.g. "Artigo 5.º").
	Number string `json:"article_number" yaml:"article_number"`

	// OfficialText is the article's verbatim text.
	OfficialText string `json:"official_text" yaml:"official_text"`
}

// Extraction is the persisted output of the extraction stage for one
// source. Re-running the stage replaces the previous envelope.
type Extraction struct {
	SourceID string           `json:"source_id" yaml:"source_id"`
	Status   ExtractionStatus `json:"status" yaml:"status"`

	// Preamble is the introductory text before the first article.
	// Empty when the document has none.
	Preamble string `json:"preamble_text" yaml:"preamble_text"`

	// Articles holds the split articles in document order.
	Articles []ExtractedArticle `json:"articles" yaml:"articles"`

	Metadata LawMetadata `json:"metadata" yaml:"metadata"`

	// ExtractedAt is when the stage ran (UTC).
	ExtractedAt time.Time `json:"extraction_timestamp" yaml:"extraction_timestamp"`

	TotalArticles int  `json:"total_articles" yaml:"total_articles"`
	HasPreamble   bool `json:"has_preamble" yaml:"has_preamble"`
}

// Translation is a law or article summary in one language.
type Translation struct {
	Title   string `json:"informal_summary_title" yaml:"informal_summary_title"`
	Summary string `json:"informal_summary" yaml:"informal_summary"`
}

// Law is the graph node built from a fully analyzed source.
type Law struct {
	// ID is a client-minted UUID.
	ID string `json:"id" yaml:"id"`

	SourceID string `json:"source_id" yaml:"source_id"`

	// GovernmentEntityID identifies the issuing body.
	GovernmentEntityID string `json:"government_entity_id" yaml:"government_entity_id"`

	// OfficialNumber is the best available gazette number for the law,
	// chosen by a chain of heuristics over the source material.
	OfficialNumber string `json:"official_number" yaml:"official_number"`

	// Slug is the URL-safe identifier derived from the official number.
	Slug string `json:"slug" yaml:"slug"`

	// TypeID is the canonical law-type identifier (e.g. "DECRETO_LEI").
	TypeID string `json:"type_id" yaml:"type_id"`

	// CategoryID is the subject category, defaulted until the summary
	// phase suggests one.
	CategoryID string `json:"category_id" yaml:"category_id"`

	// EnactmentDate is in DateLayout; empty when unknown.
	EnactmentDate string `json:"enactment_date,omitempty" yaml:"enactment_date,omitempty"`

	OfficialTitle string `json:"official_title" yaml:"official_title"`

	// Translations holds the law-level informal summaries by language.
	Translations map[string]Translation `json:"translations" yaml:"translations"`

	// Tags aggregates the article tags, order-preserving and deduplicated.
	Tags TagSet `json:"tags" yaml:"tags"`
}

// LawArticle is one article (or the preamble, at order 0) of a law.
type LawArticle struct {
	ID    string `json:"id" yaml:"id"`
	LawID string `json:"law_id" yaml:"law_id"`

	// ArticleOrder is the article's position: 0 for the preamble, then
	// 1..N in document order.
	ArticleOrder int `json:"article_order" yaml:"article_order"`

	// MandateID identifies the legislative mandate the article belongs to.
	MandateID string `json:"mandate_id" yaml:"mandate_id"`

	StatusID ArticleStatus `json:"status_id" yaml:"status_id"`

	// ValidFrom is the law's enactment date; empty when unknown.
	ValidFrom string `json:"valid_from,omitempty" yaml:"valid_from,omitempty"`

	// ValidTo is set when a later law supersedes or revokes the article.
	ValidTo string `json:"valid_to,omitempty" yaml:"valid_to,omitempty"`

	OfficialText string `json:"official_text" yaml:"official_text"`

	Tags         TagSet                 `json:"tags" yaml:"tags"`
	Translations map[string]Translation `json:"translations" yaml:"translations"`

	// CrossReferences is the raw reference list from analysis, kept for
	// audit; the resolved links live in their own tables.
	CrossReferences []CrossReference `json:"cross_references" yaml:"cross_references"`
}

// LawRelationship is a law-to-law edge (e.g. CITES, AMENDS, REVOKES).
type LawRelationship struct {
	SourceLawID string `json:"source_law_id" yaml:"source_law_id"`
	TargetLawID string `json:"target_law_id" yaml:"target_law_id"`

	// Type is the upper-cased relationship kind.
	Type string `json:"relationship_type" yaml:"relationship_type"`
}

// ArticleReference is an article-to-article edge.
type ArticleReference struct {
	SourceArticleID string `json:"source_article_id" yaml:"source_article_id"`
	TargetArticleID string `json:"target_article_id" yaml:"target_article_id"`

	// Type is the upper-cased reference kind.
	Type string `json:"reference_type" yaml:"reference_type"`
}
