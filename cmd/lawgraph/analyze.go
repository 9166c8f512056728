package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <source-id>",
	Short: "Analyze extracted articles for tags, summaries, and references",
	Long: `Analyze runs every item of a source's extraction (preamble and articles)
through the model, producing entity tags, informal Portuguese summaries, and
cross-references to other laws. The result is stored as the source's analysis
envelope; re-running replaces it.

With --chunks the legacy path analyzes the raw document chunks instead:
calls fan out under a bounded worker pool and the per-chunk results are
printed as JSON without being stored.`,
	RunE: runAnalyze,
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	sourceID, err := requireSourceID(args)
	if err != nil {
		return err
	}

	if model, _ := cmd.Flags().GetString("model"); model != "" {
		viper.Set("ai.model", model)
	}
	if workers, _ := cmd.Flags().GetInt("workers"); workers > 0 {
		viper.Set("analyst.workers", workers)
	}
	if delay, _ := cmd.Flags().GetDuration("delay"); delay > 0 {
		viper.Set("analyst.call_delay", delay)
	}

	ctx := context.Background()
	p, err := newPipeline(ctx, true)
	if err != nil {
		return err
	}
	defer p.Close()

	if chunksMode, _ := cmd.Flags().GetBool("chunks"); chunksMode {
		return runAnalyzeChunks(ctx, p, sourceID)
	}

	_, err = p.analyst().Analyze(ctx, os.Stdout, sourceID)
	return err
}

func runAnalyzeChunks(ctx context.Context, p *pipeline, sourceID string) error {
	chunks, err := p.store.ChunksBySource(ctx, sourceID)
	if err != nil {
		return fmt.Errorf("loading chunks for source %s: %w", sourceID, err)
	}
	if len(chunks) == 0 {
		return fmt.Errorf("source %s has no chunks", sourceID)
	}

	results := p.analyst().AnalyzeChunks(ctx, os.Stderr, chunks)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

func init() {
	analyzeCmd.Flags().Bool("chunks", false, "analyze raw chunks instead of extracted articles")
	analyzeCmd.Flags().String("model", "", "AI model identifier (overrides config)")
	analyzeCmd.Flags().Int("workers", 0, "concurrent model calls on the chunk path (0 = config default)")
	analyzeCmd.Flags().Duration("delay", 0, "pause before each chunk-path model call (0 = config default)")

	rootCmd.AddCommand(analyzeCmd)
}
