// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analyst

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/agoradev/lawgraph/internal/ai"
	"github.com/agoradev/lawgraph/internal/structured"
	"github.com/agoradev/lawgraph/pkg/types"
)

// Translator carries Portuguese analysis output into English. A
// translation failure must degrade, never abort, so implementations
// return the input unchanged instead of an error when the model lets
// them down.
type Translator interface {
	TranslateSummary(ctx context.Context, src types.Translation) (types.Translation, error)
	TranslateTags(ctx context.Context, tags types.TagSet) (types.TagSet, error)
}

// PassthroughTranslator returns its input unchanged. It is the default
// when no translation backend is configured; the Portuguese text then
// fills the English slot.
type PassthroughTranslator struct{}

func (PassthroughTranslator) TranslateSummary(_ context.Context, src types.Translation) (types.Translation, error) {
	return src, nil
}

func (PassthroughTranslator) TranslateTags(_ context.Context, tags types.TagSet) (types.TagSet, error) {
	return tags, nil
}

// modelTranslator asks the analysis backend for translations.
type modelTranslator struct {
	client *structured.Client
	log    *zap.SugaredLogger
}

// NewTranslator builds a model-backed translator. A nil logger disables
// logging.
func NewTranslator(backend ai.Backend, log *zap.SugaredLogger) Translator {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &modelTranslator{client: structured.NewClient(backend, log), log: log}
}

func (t *modelTranslator) TranslateSummary(ctx context.Context, src types.Translation) (types.Translation, error) {
	if src.Title == "" && src.Summary == "" {
		return src, nil
	}

	prompt, err := renderTranslatePrompt(src.Title, src.Summary)
	if err != nil {
		t.log.Warnw("rendering translation prompt failed", "error", err)
		return src, nil
	}

	shape := structured.Shape{
		{Name: "informal_summary_title", Kind: structured.String, Required: true},
		{Name: "informal_summary", Kind: structured.String, Required: true},
	}
	fallback := map[string]any{"informal_summary_title": "", "informal_summary": ""}

	res := t.client.Extract(ctx, prompt, shape, fallback)
	if res.Fallback {
		t.log.Warnw("summary translation fell back to Portuguese")
		return src, nil
	}

	var out types.Translation
	if err := res.Decode(&out); err != nil {
		t.log.Warnw("decoding translation failed", "error", err)
		return src, nil
	}
	return out, nil
}

func (t *modelTranslator) TranslateTags(ctx context.Context, tags types.TagSet) (types.TagSet, error) {
	if tags.IsEmpty() {
		return tags, nil
	}

	prompt, err := renderTagsPrompt(formatTags(tags))
	if err != nil {
		t.log.Warnw("rendering tag translation prompt failed", "error", err)
		return tags, nil
	}

	shape := structured.Shape{
		{Name: "tags", Kind: structured.ObjectOfStringLists, Keys: []string{"person", "organization", "concept"}},
	}
	fallback := map[string]any{
		"tags": map[string][]string{"person": {}, "organization": {}, "concept": {}},
	}

	res := t.client.Extract(ctx, prompt, shape, fallback)
	if res.Fallback {
		t.log.Warnw("tag translation fell back to Portuguese")
		return tags, nil
	}

	var out struct {
		Tags types.TagSet `json:"tags"`
	}
	if err := res.Decode(&out); err != nil {
		t.log.Warnw("decoding tag translation failed", "error", err)
		return tags, nil
	}
	// A shape-valid but empty answer is still useless.
	if out.Tags.IsEmpty() {
		t.log.Warnw("tag translation came back empty, keeping Portuguese tags")
		return tags, nil
	}
	return out.Tags, nil
}

func formatTags(tags types.TagSet) string {
	var lines []string
	if len(tags.Persons) > 0 {
		lines = append(lines, "person: "+strings.Join(tags.Persons, ", "))
	}
	if len(tags.Organizations) > 0 {
		lines = append(lines, "organization: "+strings.Join(tags.Organizations, ", "))
	}
	if len(tags.Concepts) > 0 {
		lines = append(lines, "concept: "+strings.Join(tags.Concepts, ", "))
	}
	return strings.Join(lines, "\n")
}
