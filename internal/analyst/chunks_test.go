// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analyst

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/agoradev/lawgraph/pkg/types"
)

func testChunks(n int) []types.DocumentChunk {
	chunks := make([]types.DocumentChunk, n)
	for i := range chunks {
		chunks[i] = types.DocumentChunk{
			SourceID:   "src-1",
			ChunkIndex: i,
			Content:    fmt.Sprintf("conteúdo %d", i),
		}
	}
	return chunks
}

func TestAnalyzeChunks(t *testing.T) {
	store, refs := testSetup(t)

	// Part 2 answers garbage, part 3 fails outright; the rest succeed.
	backend := &funcBackend{fn: func(prompt string) (string, error) {
		switch {
		case strings.Contains(prompt, "(parte 2)"):
			return "isto não é JSON", nil
		case strings.Contains(prompt, "(parte 3)"):
			return "", errors.New("backend down")
		default:
			return `{"summary_pt": "resumo", "key_takeaway_pt": "ideia", "suggested_tags": "a, b"}`, nil
		}
	}}
	a := New(backend, store, refs, types.AnalystConfig{Workers: 2}, nil)

	results := a.AnalyzeChunks(context.Background(), io.Discard, testChunks(5))
	if len(results) != 5 {
		t.Fatalf("got %d results, want 5", len(results))
	}

	for i, r := range results {
		if r.ChunkIndex != i {
			t.Errorf("result %d carries chunk index %d", i, r.ChunkIndex)
		}
	}
	if results[1].Summary != chunkErrInvalid {
		t.Errorf("invalid-JSON chunk summary = %q, want %q", results[1].Summary, chunkErrInvalid)
	}
	if results[2].Summary != chunkErrGeneric {
		t.Errorf("failed chunk summary = %q, want %q", results[2].Summary, chunkErrGeneric)
	}
	if results[0].Summary != "resumo" || results[4].KeyTakeaway != "ideia" {
		t.Errorf("healthy chunks damaged: %+v", results)
	}
}

func TestAnalyzeChunksBoundsWorkers(t *testing.T) {
	store, refs := testSetup(t)

	var current, peak int32
	backend := &funcBackend{fn: func(string) (string, error) {
		c := atomic.AddInt32(&current, 1)
		defer atomic.AddInt32(&current, -1)
		for {
			p := atomic.LoadInt32(&peak)
			if c <= p || atomic.CompareAndSwapInt32(&peak, p, c) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		return `{"summary_pt": "ok"}`, nil
	}}
	a := New(backend, store, refs, types.AnalystConfig{Workers: 2}, nil)

	results := a.AnalyzeChunks(context.Background(), io.Discard, testChunks(6))
	if len(results) != 6 {
		t.Fatalf("got %d results, want 6", len(results))
	}
	if got := atomic.LoadInt32(&peak); got > 2 {
		t.Errorf("peak concurrency = %d, want at most 2", got)
	}
}

func TestAnalyzeChunksEmptyInput(t *testing.T) {
	store, refs := testSetup(t)
	a := New(&queueBackend{}, store, refs, types.AnalystConfig{}, nil)

	results := a.AnalyzeChunks(context.Background(), io.Discard, nil)
	if len(results) != 0 {
		t.Errorf("got %d results for empty input", len(results))
	}
}
