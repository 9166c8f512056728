// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package graph

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/agoradev/lawgraph/internal/lawstore"
	"github.com/agoradev/lawgraph/pkg/types"
)

// LinkStats counts the outcome of a linking pass.
type LinkStats struct {
	LawRelationships  int `json:"law_relationships" yaml:"law_relationships"`
	ArticleReferences int `json:"article_references" yaml:"article_references"`
	Duplicates        int `json:"duplicates" yaml:"duplicates"`
	Unresolved        int `json:"unresolved" yaml:"unresolved"`
	Failed            int `json:"failed" yaml:"failed"`
}

// Add folds another batch of counters into s.
func (s *LinkStats) Add(o *LinkStats) {
	s.LawRelationships += o.LawRelationships
	s.ArticleReferences += o.ArticleReferences
	s.Duplicates += o.Duplicates
	s.Unresolved += o.Unresolved
	s.Failed += o.Failed
}

// LinkSource identifies where a batch of references originates.
// ArticleID is empty for preamble references, which produce law-to-law
// links only.
type LinkSource struct {
	LawID         string
	ArticleID     string
	EnactmentDate string
}

// Linker resolves cross-references against the stored laws and records
// them as graph edges.
type Linker struct {
	store lawstore.Store
	log   *zap.SugaredLogger
}

func NewLinker(store lawstore.Store, log *zap.SugaredLogger) *Linker {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Linker{store: store, log: log}
}

// Link records the references as graph edges. Failures are contained per
// reference; the error return is reserved for context cancellation.
func (l *Linker) Link(ctx context.Context, src LinkSource, refs []types.CrossReference) (*LinkStats, error) {
	stats := &LinkStats{}
	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if err := l.processRef(ctx, src, ref, stats); err != nil {
			if ctx.Err() != nil {
				return stats, ctx.Err()
			}
			l.log.Warnw("reference processing failed",
				"law_id", src.LawID, "number", ref.Number, "error", err)
			stats.Failed++
		}
	}
	return stats, nil
}

func (l *Linker) processRef(ctx context.Context, src LinkSource, ref types.CrossReference, stats *LinkStats) error {
	if ref.URL == "" && ref.Number == "" {
		// Internal references ("o artigo anterior") have no target law.
		stats.Unresolved++
		return nil
	}
	target := l.resolve(ctx, ref)
	if target == nil {
		l.log.Debugw("reference target not in store",
			"number", ref.Number, "url", ref.URL)
		stats.Unresolved++
		return nil
	}
	if target.ID == src.LawID {
		stats.Unresolved++
		return nil
	}

	kind := refKind(ref.Relationship)
	if (kind == "AMENDS" || kind == "REVOKES") &&
		src.EnactmentDate != "" && target.EnactmentDate != "" &&
		src.EnactmentDate <= target.EnactmentDate {
		l.log.Warnw("temporal inconsistency in reference",
			"kind", kind, "source_date", src.EnactmentDate,
			"target_law", target.OfficialNumber, "target_date", target.EnactmentDate)
	}

	rel := &types.LawRelationship{SourceLawID: src.LawID, TargetLawID: target.ID, Type: kind}
	switch err := l.store.CreateRelationship(ctx, rel); {
	case err == nil:
		stats.LawRelationships++
	case errors.Is(err, lawstore.ErrDuplicate):
		l.log.Debugw("relationship already recorded",
			"target_law", target.OfficialNumber, "kind", kind)
		stats.Duplicates++
	default:
		return fmt.Errorf("creating relationship to %s: %w", target.OfficialNumber, err)
	}

	if src.ArticleID == "" || ref.ArticleNumber == "" {
		return nil
	}
	order := firstInt(ref.ArticleNumber)
	if order <= 0 {
		return nil
	}
	targetArt, err := l.store.ActiveArticleByOrder(ctx, target.ID, order)
	if errors.Is(err, lawstore.ErrNotFound) {
		l.log.Debugw("target article not active, keeping law-level link",
			"target_law", target.OfficialNumber, "article_order", order)
		return nil
	}
	if err != nil {
		return fmt.Errorf("looking up article %d of %s: %w", order, target.OfficialNumber, err)
	}

	artRef := &types.ArticleReference{SourceArticleID: src.ArticleID, TargetArticleID: targetArt.ID, Type: kind}
	switch err := l.store.CreateArticleReference(ctx, artRef); {
	case err == nil:
		stats.ArticleReferences++
	case errors.Is(err, lawstore.ErrDuplicate):
		l.log.Debugw("article reference already recorded",
			"target_law", target.OfficialNumber, "article_order", order)
		stats.Duplicates++
	default:
		return fmt.Errorf("creating article reference to %s: %w", target.OfficialNumber, err)
	}

	// Lifecycle updates run even when the edge already existed; the
	// written values are idempotent.
	if src.EnactmentDate == "" {
		return nil
	}
	var status types.ArticleStatus
	switch kind {
	case "REVOKES":
		status = types.StatusRevoked
	case "AMENDS":
		status = types.StatusSuperseded
	default:
		return nil
	}
	validTo := previousDay(src.EnactmentDate)
	if err := l.store.UpdateArticleStatus(ctx, targetArt.ID, status, validTo); err != nil {
		return fmt.Errorf("updating status of article %d of %s: %w", order, target.OfficialNumber, err)
	}
	l.log.Infow("article lifecycle updated",
		"target_law", target.OfficialNumber, "article_order", order,
		"status", status, "valid_to", validTo)
	return nil
}

// resolve finds the referenced law. A URL slug beats number lookups;
// lookup failures degrade to unresolved.
func (l *Linker) resolve(ctx context.Context, ref types.CrossReference) *types.Law {
	if ref.URL != "" {
		if slug := lastPathSegment(ref.URL); slug != "" {
			law, err := l.store.LawBySlug(ctx, slug)
			if err == nil {
				return law
			}
			if !errors.Is(err, lawstore.ErrNotFound) {
				l.log.Debugw("slug lookup failed", "slug", slug, "error", err)
			}
		}
	}
	if ref.Number != "" {
		law, err := l.store.LawByNumber(ctx, ref.Number)
		if err == nil {
			return law
		}
		law, err = l.store.LawByNumberLike(ctx, ref.Number)
		if err == nil {
			return law
		}
		if !errors.Is(err, lawstore.ErrNotFound) {
			l.log.Debugw("number lookup failed", "number", ref.Number, "error", err)
		}
	}
	return nil
}

// refKind normalizes a free-text relationship to a link kind. Kinds
// other than AMENDS and REVOKES carry no lifecycle side effects.
func refKind(relationship string) string {
	kind := strings.ToUpper(strings.TrimSpace(relationship))
	if kind == "" {
		return "CITES"
	}
	return kind
}
