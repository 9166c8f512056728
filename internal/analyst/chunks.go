// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analyst

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/agoradev/lawgraph/internal/structured"
	"github.com/agoradev/lawgraph/pkg/types"
)

// Portuguese error sentinels carried in place of a chunk summary, kept
// stable because stored rows are matched against them.
const (
	chunkErrInvalid = "Erro na análise - resposta inválida"
	chunkErrGeneric = "Erro na análise"
)

// AnalyzeChunks runs the chunk-level analysis pass over raw document
// chunks. Calls fan out under a bounded number of workers with a fixed
// pre-call delay to smooth the request rate; results come back in chunk
// order. A failed chunk carries an error sentinel instead of aborting
// the batch.
func (a *Analyst) AnalyzeChunks(ctx context.Context, out io.Writer, chunks []types.DocumentChunk) []types.ChunkAnalysis {
	workers := a.cfg.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}

	results := make([]types.ChunkAnalysis, len(chunks))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i, chunk := range chunks {
		wg.Add(1)
		go func(i int, chunk types.DocumentChunk) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if a.cfg.CallDelay > 0 {
				select {
				case <-ctx.Done():
					results[i] = chunkFallback(chunk.ChunkIndex, chunkErrGeneric)
					return
				case <-time.After(a.cfg.CallDelay):
				}
			}
			results[i] = a.analyzeChunk(ctx, chunk)
		}(i, chunk)
	}
	wg.Wait()

	failed := 0
	for _, r := range results {
		if r.Summary == chunkErrGeneric || r.Summary == chunkErrInvalid {
			failed++
		}
	}
	fmt.Fprintf(out, "Analyzed %d chunks (%d failed)\n", len(chunks), failed)
	return results
}

func (a *Analyst) analyzeChunk(ctx context.Context, chunk types.DocumentChunk) types.ChunkAnalysis {
	prompt, err := renderChunkPrompt(chunk.ChunkIndex+1, chunk.Content)
	if err != nil {
		a.log.Warnw("rendering chunk prompt failed", "chunk_index", chunk.ChunkIndex, "error", err)
		return chunkFallback(chunk.ChunkIndex, chunkErrGeneric)
	}

	raw, err := a.backend.Generate(ctx, prompt)
	if err != nil {
		a.log.Warnw("chunk analysis call failed", "chunk_index", chunk.ChunkIndex, "error", err)
		return chunkFallback(chunk.ChunkIndex, chunkErrGeneric)
	}

	cleaned := structured.SanitizeJSON(structured.StripFences(raw))
	var ca types.ChunkAnalysis
	if err := json.Unmarshal([]byte(cleaned), &ca); err != nil {
		a.log.Warnw("chunk analysis response is not valid JSON",
			"chunk_index", chunk.ChunkIndex, "error", err)
		return chunkFallback(chunk.ChunkIndex, chunkErrInvalid)
	}
	ca.ChunkIndex = chunk.ChunkIndex
	return ca
}

func chunkFallback(index int, sentinel string) types.ChunkAnalysis {
	return types.ChunkAnalysis{ChunkIndex: index, Summary: sentinel, KeyTakeaway: sentinel}
}
