// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ContentType says what a single analysis item covers.
type ContentType string

const (
	ContentPreamble ContentType = "preamble"
	ContentArticle  ContentType = "article"
)

// DefaultCategoryID is used until the summary phase suggests a category,
// and whenever the suggestion is not on the master list.
const DefaultCategoryID = "ADMINISTRATIVE"

// TagSet groups entity tags by kind. Slices are never nil after
// normalization so the JSON payload always carries all three keys.
type TagSet struct {
	Persons       []string `json:"person" yaml:"person"`
	Organizations []string `json:"organization" yaml:"organization"`
	Concepts      []string `json:"concept" yaml:"concept"`
}

// IsEmpty reports whether the set carries no tags at all.
func (t TagSet) IsEmpty() bool {
	return len(t.Persons) == 0 && len(t.Organizations) == 0 && len(t.Concepts) == 0
}

// CrossReference is one outgoing reference found in an analyzed item.
// Only URL and Number participate in resolution; a reference with
// neither is internal to the document and never linked.
type CrossReference struct {
	// Relationship is the free-text kind (e.g. "cites", "amends",
	// "revokes"); empty defaults to a citation.
	Relationship string `json:"relationship" yaml:"relationship"`

	// Type is the referenced law's type name as written.
	Type string `json:"type,omitempty" yaml:"type,omitempty"`

	// Number is the referenced law's official number as written.
	Number string `json:"number,omitempty" yaml:"number,omitempty"`

	// ArticleNumber designates a specific article of the target law.
	ArticleNumber string `json:"article_number,omitempty" yaml:"article_number,omitempty"`

	// URL points at the target law; its last path segment is a slug.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`
}

// ItemAnalysis is the structured analysis of one preamble or article.
// A fallback analysis has empty strings and empty lists throughout,
// which downstream stages recognize and skip.
type ItemAnalysis struct {
	Tags TagSet `json:"tags" yaml:"tags"`

	// Title is the informal Portuguese one-line summary.
	Title string `json:"informal_summary_title" yaml:"informal_summary_title"`

	// Summary is the informal Portuguese summary paragraph.
	Summary string `json:"informal_summary" yaml:"informal_summary"`

	CrossReferences []CrossReference `json:"cross_references" yaml:"cross_references"`
}

// IsFallback reports whether the analysis is the empty placeholder
// produced when the model response could not be used.
func (a ItemAnalysis) IsFallback() bool {
	return a.Title == "" && a.Summary == ""
}

// AnalysisItem pairs an analysis with the item it covers.
type AnalysisItem struct {
	ContentType ContentType `json:"content_type" yaml:"content_type"`

	// ArticleOrder is 0 for the preamble, then 1..N in document order.
	ArticleOrder int `json:"article_order" yaml:"article_order"`

	// ArticleNumber is the designator as written; empty for the preamble.
	ArticleNumber string `json:"article_number,omitempty" yaml:"article_number,omitempty"`

	Analysis ItemAnalysis `json:"analysis" yaml:"analysis"`
}

// Analysis is the persisted output of the analysis stage for one source
// and analyzer version. Re-running the stage replaces the previous
// envelope for the same version.
type Analysis struct {
	SourceID string `json:"source_id" yaml:"source_id"`

	// ModelVersion identifies the analyzer that produced the envelope.
	ModelVersion string `json:"model_version" yaml:"model_version"`

	Results []AnalysisItem `json:"analysis_results" yaml:"analysis_results"`

	// AnalyzedAt is when the stage ran (UTC).
	AnalyzedAt time.Time `json:"analysis_timestamp" yaml:"analysis_timestamp"`

	TotalItems int `json:"total_items_analyzed" yaml:"total_items_analyzed"`
	Successful int `json:"successful_analyses" yaml:"successful_analyses"`

	// CompletionRate is Successful/TotalItems in [0,1]; 0 when empty.
	CompletionRate float64 `json:"completion_rate" yaml:"completion_rate"`
}

// LawSummary is the law-level summary produced by reducing the
// per-article summaries. CategoryID is always on the master list.
type LawSummary struct {
	CategoryID string `json:"suggested_category_id" yaml:"suggested_category_id"`
	Title      string `json:"informal_summary_title" yaml:"informal_summary_title"`
	Summary    string `json:"informal_summary" yaml:"informal_summary"`
}

// ChunkAnalysis is the per-chunk result of the chunked analysis path.
// Field names match the model's Portuguese output keys.
type ChunkAnalysis struct {
	ChunkIndex int `json:"chunk_index" yaml:"chunk_index"`

	Summary     string `json:"summary_pt" yaml:"summary_pt"`
	KeyTakeaway string `json:"key_takeaway_pt" yaml:"key_takeaway_pt"`

	// SuggestedTags is a comma-separated tag list as returned.
	SuggestedTags string `json:"suggested_tags" yaml:"suggested_tags"`
}
