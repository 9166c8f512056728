// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extractor splits a source's raw text into a preamble and
// articles and reads the header metadata off the first chunk.
package extractor

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/agoradev/lawgraph/internal/ai"
	"github.com/agoradev/lawgraph/internal/lawstore"
	"github.com/agoradev/lawgraph/internal/structured"
	"github.com/agoradev/lawgraph/pkg/types"
)

const defaultSplitCharBudget = 8000

var (
	// typeNumberRe matches "<type> n.º <number>" headers. Longer type
	// names come before their prefixes so they win the alternation.
	typeNumberRe = regexp.MustCompile(`(?i)(Decreto-Lei|Decreto Legislativo Regional|Decreto Regulamentar|Decreto|Lei Constitucional|Lei Orgânica|Lei|Portaria|Despacho Normativo|Despacho|Resolução da Assembleia da República|Resolução do Conselho de Ministros|Resolução|Aviso|Regulamento|Deliberação|Acórdão|Declaração de Retificação|Declaração)\s+n\.?º?\s*(\d+[-/]\d+(?:-[A-Z])?)`)

	// longDateRe matches gazette long-form dates ("de 2 de junho de 2023").
	longDateRe = regexp.MustCompile(`(?i)de\s+(\d{1,2})\s+de\s+(janeiro|fevereiro|março|abril|maio|junho|julho|agosto|setembro|outubro|novembro|dezembro)\s+de\s+(\d{4})`)
)

var months = map[string]int{
	"janeiro":   1,
	"fevereiro": 2,
	"março":     3,
	"abril":     4,
	"maio":      5,
	"junho":     6,
	"julho":     7,
	"agosto":    8,
	"setembro":  9,
	"outubro":   10,
	"novembro":  11,
	"dezembro":  12,
}

// Extractor runs the split stage for one source.
type Extractor struct {
	client *structured.Client
	store  lawstore.Store
	cfg    types.ExtractorConfig
	log    *zap.SugaredLogger
}

func New(backend ai.Backend, store lawstore.Store, cfg types.ExtractorConfig, log *zap.SugaredLogger) *Extractor {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Extractor{
		client: structured.NewClient(backend, log),
		store:  store,
		cfg:    cfg,
		log:    log,
	}
}

// Extract splits the source's text into preamble and articles and
// persists the envelope, replacing any previous one. When the model
// response is unusable a FAILED envelope is recorded and an error
// returned.
func (e *Extractor) Extract(ctx context.Context, out io.Writer, sourceID string) (*types.Extraction, error) {
	chunks, err := e.store.ChunksBySource(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("loading chunks for source %s: %w", sourceID, err)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("source %s has no chunks", sourceID)
	}

	var sb strings.Builder
	for _, chunk := range chunks {
		sb.WriteString(chunk.Content)
		sb.WriteString("\n\n")
	}
	fullText := sb.String()
	meta := extractMetadata(chunks[0].Content)
	fmt.Fprintf(out, "Loaded %d chunks (%d characters)\n", len(chunks), len(fullText))

	budget := e.cfg.SplitCharBudget
	if budget <= 0 {
		budget = defaultSplitCharBudget
	}
	head := fullText
	if runes := []rune(fullText); len(runes) > budget {
		head = string(runes[:budget])
		e.log.Infow("document truncated for the split prompt",
			"source_id", sourceID, "characters", len(runes), "budget", budget)
	}

	prompt, err := renderSplitPrompt(head)
	if err != nil {
		return nil, fmt.Errorf("rendering split prompt: %w", err)
	}
	res := e.client.Extract(ctx, prompt, splitShape(), splitFallback())
	if res.Fallback {
		failed := &types.Extraction{
			SourceID:    sourceID,
			Status:      types.ExtractionFailed,
			Metadata:    meta,
			ExtractedAt: time.Now().UTC(),
		}
		if err := e.store.ReplaceExtraction(ctx, failed); err != nil {
			e.log.Warnw("could not record failed extraction",
				"source_id", sourceID, "error", err)
		}
		return nil, fmt.Errorf("model could not split source %s", sourceID)
	}

	var parsed struct {
		Preamble string                   `json:"preamble_text"`
		Articles []types.ExtractedArticle `json:"articles"`
	}
	if err := res.Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding split response: %w", err)
	}
	preamble := strings.TrimSpace(parsed.Preamble)
	articles := parsed.Articles
	if articles == nil {
		articles = []types.ExtractedArticle{}
	}

	ext := &types.Extraction{
		SourceID:      sourceID,
		Status:        types.ExtractionCompleted,
		Preamble:      preamble,
		Articles:      articles,
		Metadata:      meta,
		ExtractedAt:   time.Now().UTC(),
		TotalArticles: len(articles),
		HasPreamble:   preamble != "",
	}
	if err := e.store.ReplaceExtraction(ctx, ext); err != nil {
		return nil, fmt.Errorf("saving extraction for source %s: %w", sourceID, err)
	}
	fmt.Fprintf(out, "Extracted %d articles from %s (preamble: %t)\n",
		len(articles), sourceID, ext.HasPreamble)
	return ext, nil
}

// extractMetadata reads the document header with regular expressions.
// Every field may come back empty.
func extractMetadata(content string) types.LawMetadata {
	meta := types.LawMetadata{OfficialTitle: firstLine(content)}
	if m := typeNumberRe.FindStringSubmatch(content); m != nil {
		meta.Type = m[1]
		meta.OfficialNumber = m[2]
	}
	if m := longDateRe.FindStringSubmatch(content); m != nil {
		day, _ := strconv.Atoi(m[1])
		month := months[strings.ToLower(m[2])]
		year, _ := strconv.Atoi(m[3])
		if month > 0 && day >= 1 && day <= 31 {
			meta.EnactmentDate = fmt.Sprintf("%04d-%02d-%02d", year, month, day)
		}
	}
	return meta
}

func firstLine(content string) string {
	line, _, _ := strings.Cut(content, "\n")
	return strings.TrimSpace(line)
}

func splitShape() structured.Shape {
	return structured.Shape{
		{Name: "preamble_text", Kind: structured.String},
		{Name: "articles", Kind: structured.ListOfObject},
	}
}

func splitFallback() map[string]any {
	return map[string]any{
		"preamble_text": "",
		"articles":      []any{},
	}
}
