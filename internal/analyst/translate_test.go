// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analyst

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/agoradev/lawgraph/pkg/types"
)

func TestPassthroughTranslator(t *testing.T) {
	tr := PassthroughTranslator{}

	src := types.Translation{Title: "Título", Summary: "Resumo."}
	got, err := tr.TranslateSummary(context.Background(), src)
	if err != nil || got != src {
		t.Errorf("TranslateSummary = %+v, %v; want input back", got, err)
	}

	tags := types.TagSet{Concepts: []string{"saúde"}}
	gotTags, err := tr.TranslateTags(context.Background(), tags)
	if err != nil || !reflect.DeepEqual(gotTags, tags) {
		t.Errorf("TranslateTags = %+v, %v; want input back", gotTags, err)
	}
}

func TestTranslateSummary(t *testing.T) {
	src := types.Translation{Title: "Alterações ao IVA", Summary: "Atualiza as taxas."}
	tests := []struct {
		name       string
		response   string
		backendErr error
		want       types.Translation
	}{
		{
			name:     "translated",
			response: `{"informal_summary_title": "VAT changes", "informal_summary": "Updates the rates."}`,
			want:     types.Translation{Title: "VAT changes", Summary: "Updates the rates."},
		},
		{
			name:     "broken response keeps Portuguese",
			response: "sorry, cannot help",
			want:     src,
		},
		{
			name:       "backend error keeps Portuguese",
			backendErr: errors.New("backend down"),
			want:       src,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &queueBackend{responses: []string{tt.response}, errs: []error{tt.backendErr}}
			tr := NewTranslator(backend, nil)

			got, err := tr.TranslateSummary(context.Background(), src)
			if err != nil {
				t.Fatalf("TranslateSummary returned error: %v", err)
			}
			if got != tt.want {
				t.Errorf("TranslateSummary = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestTranslateSummaryEmptyInputSkipsCall(t *testing.T) {
	backend := &queueBackend{}
	tr := NewTranslator(backend, nil)

	got, err := tr.TranslateSummary(context.Background(), types.Translation{})
	if err != nil || got != (types.Translation{}) {
		t.Errorf("TranslateSummary = %+v, %v", got, err)
	}
	if len(backend.prompts) != 0 {
		t.Error("empty input still reached the backend")
	}
}

func TestTranslateTags(t *testing.T) {
	src := types.TagSet{
		Persons:  []string{"Ana Silva"},
		Concepts: []string{"saúde", "hospitais"},
	}
	tests := []struct {
		name     string
		response string
		want     types.TagSet
	}{
		{
			name:     "translated",
			response: `{"tags": {"person": ["Ana Silva"], "organization": [], "concept": ["health", "hospitals"]}}`,
			want: types.TagSet{
				Persons:       []string{"Ana Silva"},
				Organizations: []string{},
				Concepts:      []string{"health", "hospitals"},
			},
		},
		{
			name:     "empty answer keeps Portuguese",
			response: `{"tags": {}}`,
			want:     src,
		},
		{
			name:     "broken response keeps Portuguese",
			response: "no tags here",
			want:     src,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &queueBackend{responses: []string{tt.response}}
			tr := NewTranslator(backend, nil)

			got, err := tr.TranslateTags(context.Background(), src)
			if err != nil {
				t.Fatalf("TranslateTags returned error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("TranslateTags = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestTranslateTagsPromptCarriesTags(t *testing.T) {
	backend := &queueBackend{responses: []string{
		`{"tags": {"person": [], "organization": [], "concept": ["health"]}}`,
	}}
	tr := NewTranslator(backend, nil)

	_, err := tr.TranslateTags(context.Background(), types.TagSet{Concepts: []string{"saúde"}})
	if err != nil {
		t.Fatalf("TranslateTags failed: %v", err)
	}
	if len(backend.prompts) != 1 || !strings.Contains(backend.prompts[0], "concept: saúde") {
		t.Errorf("prompt = %q", backend.prompts)
	}
}
