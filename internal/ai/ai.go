// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ai provides the generative AI backends used by the pipeline
// stages. A Backend turns one prompt into one text response; provider
// selection, rate-limit retries, and error shapes live here so the
// stages stay transport-agnostic.
package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/agoradev/lawgraph/pkg/types"
)

// Backend abstracts the Generative AI API so tests can supply a mock.
// One prompt in, one raw text response out.
type Backend interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// APIError is a non-2xx response from the AI API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("AI API returned %d: %s", e.StatusCode, e.Body)
}

// IsRateLimited reports whether err represents an HTTP 429. SDK errors
// that only carry the status in their message are matched textually.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests
	}
	return strings.Contains(err.Error(), "429")
}

// New builds the configured backend wrapped with rate-limit retries.
func New(ctx context.Context, cfg types.AIConfig) (Backend, error) {
	var (
		backend Backend
		err     error
	)
	switch cfg.Provider {
	case types.ProviderGenAI:
		backend, err = NewGenAIBackend(ctx, cfg.APIKey, cfg.Model)
	case types.ProviderGemini, "":
		backend = &GeminiBackend{APIKey: cfg.APIKey, Model: cfg.Model, BaseURL: cfg.BaseURL}
	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return &RetryBackend{Backend: backend, MaxAttempts: cfg.MaxRetries}, nil
}
