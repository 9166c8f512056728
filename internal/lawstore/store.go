// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package lawstore persists sources, extraction envelopes, analyses, and
// the law graph. Two backends implement the same interface: a local
// SQLite file for self-contained runs, and a hosted PostgREST-style row
// API for the shared database.
package lawstore

import (
	"context"
	"errors"

	"github.com/agoradev/lawgraph/pkg/types"
)

var (
	// ErrNotFound means no row matched the lookup.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate means an insert hit an existing unique key.
	ErrDuplicate = errors.New("duplicate")
)

// Store is the persistence contract shared by both backends. Lookups
// return ErrNotFound when nothing matches; link inserts return
// ErrDuplicate when the edge already exists.
type Store interface {
	// Sources and their pre-chunked text.
	CreateSource(ctx context.Context, src *types.Source) error
	GetSource(ctx context.Context, id string) (*types.Source, error)
	CreateChunk(ctx context.Context, chunk *types.DocumentChunk) error
	ChunksBySource(ctx context.Context, sourceID string) ([]types.DocumentChunk, error)

	// Extraction envelopes: one live envelope per source.
	ReplaceExtraction(ctx context.Context, ext *types.Extraction) error
	LatestExtraction(ctx context.Context, sourceID string) (*types.Extraction, error)

	// Analysis envelopes: one live envelope per source and analyzer version.
	ReplaceAnalysis(ctx context.Context, an *types.Analysis) error
	LatestAnalysis(ctx context.Context, sourceID, modelVersion string) (*types.Analysis, error)

	// Laws.
	CreateLaw(ctx context.Context, law *types.Law) error
	LawByID(ctx context.Context, id string) (*types.Law, error)
	LawBySource(ctx context.Context, sourceID string) (*types.Law, error)
	LawBySlug(ctx context.Context, slug string) (*types.Law, error)
	LawByNumber(ctx context.Context, number string) (*types.Law, error)
	LawByNumberLike(ctx context.Context, fragment string) (*types.Law, error)
	UpdateLawTags(ctx context.Context, lawID string, tags types.TagSet) error
	UpdateLawSummary(ctx context.Context, lawID, categoryID string, translations map[string]types.Translation) error
	DeleteLawCascade(ctx context.Context, lawID string) error

	// Articles.
	CreateArticle(ctx context.Context, art *types.LawArticle) error
	ArticlesByLaw(ctx context.Context, lawID string) ([]types.LawArticle, error)
	ActiveArticleByOrder(ctx context.Context, lawID string, order int) (*types.LawArticle, error)
	UpdateArticleStatus(ctx context.Context, articleID string, status types.ArticleStatus, validTo string) error

	// Graph edges.
	CreateRelationship(ctx context.Context, rel *types.LawRelationship) error
	RelationshipsByLaw(ctx context.Context, lawID string) ([]types.LawRelationship, error)
	CreateArticleReference(ctx context.Context, ref *types.ArticleReference) error
	ReferencesByLaw(ctx context.Context, lawID string) ([]types.ArticleReference, error)

	// DistinctTags returns every tag value across all laws, deduplicated,
	// for prompt context.
	DistinctTags(ctx context.Context) ([]string, error)

	Close() error
}

// New builds the configured store backend.
func New(cfg types.StoreConfig) (Store, error) {
	switch cfg.Backend {
	case types.StoreREST:
		return NewREST(cfg)
	case types.StoreSQLite, "":
		return NewSQLite(cfg)
	default:
		return nil, errors.New("unknown store backend " + string(cfg.Backend))
	}
}
