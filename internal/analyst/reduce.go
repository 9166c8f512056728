// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analyst

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/agoradev/lawgraph/internal/lawstore"
	"github.com/agoradev/lawgraph/internal/structured"
	"github.com/agoradev/lawgraph/pkg/types"
)

// SummarizeLaw reduces ordered per-article summaries into one law-level
// summary with a category suggestion. When the combined input exceeds
// the token budget, batches are condensed first. The returned category
// is always on the master list.
func (a *Analyst) SummarizeLaw(ctx context.Context, articleSummaries []string) (*types.LawSummary, error) {
	if len(articleSummaries) == 0 {
		return nil, fmt.Errorf("no article summaries to summarize")
	}

	combined := strings.Join(articleSummaries, "\n\n")
	limit := a.cfg.SafeTokenLimit
	if limit <= 0 {
		limit = defaultSafeTokenLimit
	}
	if estimateTokens(combined) > limit {
		a.log.Infow("summary input over token budget, condensing in batches",
			"articles", len(articleSummaries), "estimated_tokens", estimateTokens(combined))
		condensed, err := a.condenseBatches(ctx, articleSummaries)
		if err != nil {
			return nil, err
		}
		combined = condensed
	}

	prompt, err := renderReducePrompt(a.refs.Categories(), combined)
	if err != nil {
		return nil, fmt.Errorf("rendering summary prompt: %w", err)
	}
	raw, err := a.backend.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("summary call failed: %w", err)
	}

	summary, err := parseLawSummary(raw)
	if err != nil {
		return nil, err
	}
	if !lawstore.ValidCategory(summary.CategoryID) {
		if summary.CategoryID != "" {
			a.log.Warnw("suggested category not on master list",
				"category", summary.CategoryID)
		}
		summary.CategoryID = types.DefaultCategoryID
	}
	return summary, nil
}

// parseLawSummary decodes the reduce response. Some model snapshots
// wrap the object in a "final_analysis" envelope; unwrap it first.
func parseLawSummary(raw string) (*types.LawSummary, error) {
	cleaned := structured.SanitizeJSON(structured.StripFences(raw))

	payload := []byte(cleaned)
	var envelope struct {
		FinalAnalysis json.RawMessage `json:"final_analysis"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, fmt.Errorf("summary response is not valid JSON: %w", err)
	}
	if len(envelope.FinalAnalysis) > 0 {
		payload = envelope.FinalAnalysis
	}

	var summary types.LawSummary
	if err := json.Unmarshal(payload, &summary); err != nil {
		return nil, fmt.Errorf("summary response is not valid JSON: %w", err)
	}
	if summary.Title == "" || summary.Summary == "" {
		return nil, fmt.Errorf("summary response missing title or summary")
	}
	return &summary, nil
}

// estimateTokens approximates the token count of Portuguese prose.
func estimateTokens(s string) int {
	return len(s) / 4
}

// condenseBatches pre-summarizes fixed-size batches of article
// summaries. A failed batch is skipped; only all batches failing is an
// error.
func (a *Analyst) condenseBatches(ctx context.Context, summaries []string) (string, error) {
	size := a.cfg.BatchSize
	if size <= 0 {
		size = defaultBatchSize
	}

	var parts []string
	for start := 0; start < len(summaries); start += size {
		end := start + size
		if end > len(summaries) {
			end = len(summaries)
		}

		prompt, err := renderBatchPrompt(strings.Join(summaries[start:end], "\n\n"))
		if err != nil {
			return "", fmt.Errorf("rendering batch prompt: %w", err)
		}
		raw, err := a.backend.Generate(ctx, prompt)
		if err != nil {
			a.log.Warnw("batch condensation call failed, skipping batch",
				"batch_start", start, "error", err)
			continue
		}

		cleaned := structured.SanitizeJSON(structured.StripFences(raw))
		var resp struct {
			BatchSummary string `json:"batch_summary"`
		}
		if err := json.Unmarshal([]byte(cleaned), &resp); err != nil || strings.TrimSpace(resp.BatchSummary) == "" {
			a.log.Warnw("batch condensation response unusable, skipping batch",
				"batch_start", start)
			continue
		}
		parts = append(parts, resp.BatchSummary)
	}

	if len(parts) == 0 {
		return "", fmt.Errorf("condensing article summaries: every batch failed")
	}
	return strings.Join(parts, "\n\n"), nil
}
