package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/viper"

	"github.com/agoradev/lawgraph/internal/ai"
	"github.com/agoradev/lawgraph/internal/analyst"
	"github.com/agoradev/lawgraph/internal/extractor"
	"github.com/agoradev/lawgraph/internal/graph"
	"github.com/agoradev/lawgraph/internal/lawstore"
	"github.com/agoradev/lawgraph/pkg/types"
)

const defaultUserAgent = "lawgraph/0.1"

// requireSourceID validates the single positional argument as a UUID.
// Every stage is keyed by a source UUID; anything else is rejected
// before any work starts.
func requireSourceID(args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("provide exactly one source UUID")
	}
	id := strings.TrimSpace(args[0])
	if _, err := uuid.Parse(id); err != nil {
		return "", fmt.Errorf("source id %q is not a valid UUID", id)
	}
	return id, nil
}

// pipelineConfig assembles the stage configurations from viper and the
// secrets directory. Secrets fill in only where config left a blank.
func pipelineConfig() types.PipelineConfig {
	return types.PipelineConfig{
		AI: types.AIConfig{
			Provider:   types.AIProvider(viper.GetString("ai.provider")),
			Model:      viper.GetString("ai.model"),
			APIKey:     secretDefault("gemini-api-key", viper.GetString("ai.api_key")),
			BaseURL:    viper.GetString("ai.base_url"),
			MaxRetries: viper.GetInt("ai.max_retries"),
		},
		Store: types.StoreConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("store.timeout"),
				UserAgent: defaultUserAgent,
			},
			Backend:    types.StoreBackendKind(viper.GetString("store.backend")),
			Path:       viper.GetString("store.path"),
			URL:        secretDefault("store-url", viper.GetString("store.url")),
			ServiceKey: secretDefault("store-service-key", viper.GetString("store.service_key")),
			Schema:     viper.GetString("store.schema"),
		},
		Extractor: types.ExtractorConfig{
			SplitCharBudget: viper.GetInt("extractor.split_char_budget"),
		},
		Analyst: types.AnalystConfig{
			Workers:        viper.GetInt("analyst.workers"),
			CallDelay:      viper.GetDuration("analyst.call_delay"),
			BatchSize:      viper.GetInt("analyst.batch_size"),
			SafeTokenLimit: viper.GetInt("analyst.safe_token_limit"),
		},
		Graph: types.GraphConfig{
			GovernmentEntityID: viper.GetString("graph.government_entity_id"),
			MandateID:          viper.GetString("graph.mandate_id"),
			MaxRetries:         viper.GetInt("graph.max_retries"),
		},
	}
}

// pipeline bundles the wired stages behind one open store connection.
type pipeline struct {
	cfg     types.PipelineConfig
	store   lawstore.Store
	refs    *lawstore.ReferenceCache
	backend ai.Backend
}

// newPipeline opens the store and AI backend for the given stages.
// withAI is false for commands that only read the store.
func newPipeline(ctx context.Context, withAI bool) (*pipeline, error) {
	cfg := pipelineConfig()

	store, err := lawstore.New(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	p := &pipeline{
		cfg:   cfg,
		store: store,
		refs:  lawstore.NewReferenceCache(store),
	}
	if withAI {
		backend, err := ai.New(ctx, cfg.AI)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("building AI backend: %w", err)
		}
		p.backend = backend
	}
	return p, nil
}

func (p *pipeline) Close() error {
	return p.store.Close()
}

func (p *pipeline) extractor() *extractor.Extractor {
	return extractor.New(p.backend, p.store, p.cfg.Extractor, log)
}

func (p *pipeline) analyst() *analyst.Analyst {
	return analyst.New(p.backend, p.store, p.refs, p.cfg.Analyst, log)
}

func (p *pipeline) builder() *graph.Builder {
	a := p.analyst()
	return graph.NewBuilder(p.store, a, analyst.NewTranslator(p.backend, log), p.refs, p.cfg.Graph, log)
}
