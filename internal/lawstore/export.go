// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package lawstore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.yaml.in/yaml/v3"

	"github.com/agoradev/lawgraph/pkg/types"
)

// LawExport bundles one law with its articles and graph edges.
type LawExport struct {
	Law           *types.Law               `json:"law" yaml:"law"`
	Articles      []types.LawArticle       `json:"articles" yaml:"articles"`
	Relationships []types.LawRelationship  `json:"relationships,omitempty" yaml:"relationships,omitempty"`
	References    []types.ArticleReference `json:"article_references,omitempty" yaml:"article_references,omitempty"`
}

// BuildExport assembles the export bundle for the law built from sourceID.
func BuildExport(ctx context.Context, store Store, sourceID string) (*LawExport, error) {
	law, err := store.LawBySource(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("loading law for source %s: %w", sourceID, err)
	}
	articles, err := store.ArticlesByLaw(ctx, law.ID)
	if err != nil {
		return nil, fmt.Errorf("loading articles: %w", err)
	}
	rels, err := store.RelationshipsByLaw(ctx, law.ID)
	if err != nil {
		return nil, fmt.Errorf("loading relationships: %w", err)
	}
	refs, err := store.ReferencesByLaw(ctx, law.ID)
	if err != nil {
		return nil, fmt.Errorf("loading article references: %w", err)
	}

	return &LawExport{
		Law:           law,
		Articles:      articles,
		Relationships: rels,
		References:    refs,
	}, nil
}

// WriteYAML writes the bundle to w as YAML.
func (e *LawExport) WriteYAML(w io.Writer) error {
	data, err := yaml.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// WriteJSON writes the bundle to w as indented JSON.
func (e *LawExport) WriteJSON(w io.Writer) error {
	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
