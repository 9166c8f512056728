package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "lawgraph/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// AIProvider identifies the generative AI client implementation.
type AIProvider string

const (
	// ProviderGemini is the plain HTTP client for the Gemini REST API.
	ProviderGemini AIProvider = "gemini"

	// ProviderGenAI is the official Google GenAI SDK client.
	ProviderGenAI AIProvider = "genai"
)

// AIConfig holds shared settings for stages that call a Generative AI API.
type AIConfig struct {
	// Provider selects the client implementation: gemini or genai.
	Provider AIProvider `json:"provider" yaml:"provider"`

	// Model is the AI model identifier (e.g. "gemini-2.0-flash").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// BaseURL overrides the API endpoint; empty uses the public one.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// MaxRetries is the number of attempts for rate-limited API calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// StoreBackendKind identifies the law store implementation.
type StoreBackendKind string

const (
	// StoreSQLite keeps everything in a local SQLite file.
	StoreSQLite StoreBackendKind = "sqlite"

	// StoreREST talks to a hosted PostgREST-style row API.
	StoreREST StoreBackendKind = "rest"
)

// StoreConfig holds settings for the law store.
type StoreConfig struct {
	HTTPConfig `yaml:",inline"`

	// Backend selects the store implementation: sqlite or rest.
	Backend StoreBackendKind `json:"backend" yaml:"backend"`

	// Path is the SQLite database file (sqlite backend).
	Path string `json:"path" yaml:"path"`

	// URL is the row API base URL (rest backend).
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	// ServiceKey authenticates against the row API (rest backend).
	ServiceKey string `json:"service_key,omitempty" yaml:"service_key,omitempty"`

	// Schema is the database schema exposed by the row API (default "agora").
	Schema string `json:"schema,omitempty" yaml:"schema,omitempty"`
}

// ExtractorConfig holds settings for the extraction stage.
type ExtractorConfig struct {
	// SplitCharBudget caps how much document text the splitting prompt
	// carries (default 8000 characters).
	SplitCharBudget int `json:"split_char_budget" yaml:"split_char_budget"`
}

// AnalystConfig holds settings for the analysis stage.
type AnalystConfig struct {
	// Workers bounds concurrent model calls on the chunked path (default 5).
	Workers int `json:"workers" yaml:"workers"`

	// CallDelay is the fixed pause before each chunked-path model call,
	// smoothing the request rate (default 1s).
	CallDelay time.Duration `json:"call_delay" yaml:"call_delay"`

	// BatchSize is how many article summaries a pre-summarization batch
	// carries when the summary phase overflows the token budget (default 50).
	BatchSize int `json:"batch_size" yaml:"batch_size"`

	// SafeTokenLimit is the estimated-token ceiling for a single summary
	// call (default 800000).
	SafeTokenLimit int `json:"safe_token_limit" yaml:"safe_token_limit"`
}

// GraphConfig holds settings for the graph-building stage.
type GraphConfig struct {
	// GovernmentEntityID is assigned to every law built by this pipeline.
	GovernmentEntityID string `json:"government_entity_id" yaml:"government_entity_id"`

	// MandateID is assigned to every article built by this pipeline.
	MandateID string `json:"mandate_id" yaml:"mandate_id"`

	// MaxRetries is how many times ingestion is retried after deleting a
	// partial law (default 1).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// PipelineConfig groups all stage configurations for the pipeline.
type PipelineConfig struct {
	AI        AIConfig        `json:"ai" yaml:"ai"`
	Store     StoreConfig     `json:"store" yaml:"store"`
	Extractor ExtractorConfig `json:"extractor" yaml:"extractor"`
	Analyst   AnalystConfig   `json:"analyst" yaml:"analyst"`
	Graph     GraphConfig     `json:"graph" yaml:"graph"`
}
