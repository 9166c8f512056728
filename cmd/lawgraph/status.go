package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/agoradev/lawgraph/internal/analyst"
	"github.com/agoradev/lawgraph/internal/lawstore"
)

var statusCmd = &cobra.Command{
	Use:   "status <source-id>",
	Short: "Show how far a source has moved through the pipeline",
	Long: `Status reports each pipeline stage for a source: the registered document
and its chunks, the extraction envelope, the analysis envelope, and the law
built from them.`,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	sourceID, err := requireSourceID(args)
	if err != nil {
		return err
	}

	ctx := context.Background()
	p, err := newPipeline(ctx, false)
	if err != nil {
		return err
	}
	defer p.Close()

	src, err := p.store.GetSource(ctx, sourceID)
	if errors.Is(err, lawstore.ErrNotFound) {
		return fmt.Errorf("source %s is not registered", sourceID)
	}
	if err != nil {
		return err
	}
	chunks, err := p.store.ChunksBySource(ctx, sourceID)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "%-12s %s\n", "Source:", src.ID)
	if title := src.Translations["pt"]; title != "" {
		fmt.Fprintf(os.Stdout, "%-12s %s\n", "Title:", title)
	}
	fmt.Fprintf(os.Stdout, "%-12s %d\n", "Chunks:", len(chunks))

	ext, err := p.store.LatestExtraction(ctx, sourceID)
	switch {
	case errors.Is(err, lawstore.ErrNotFound):
		fmt.Fprintf(os.Stdout, "%-12s not yet run\n", "Extraction:")
	case err != nil:
		return err
	default:
		preamble := "no preamble"
		if ext.HasPreamble {
			preamble = "with preamble"
		}
		fmt.Fprintf(os.Stdout, "%-12s %s, %d articles, %s (%s)\n", "Extraction:",
			ext.Status, ext.TotalArticles, preamble,
			ext.ExtractedAt.Format("2006-01-02 15:04 UTC"))
	}

	an, err := p.store.LatestAnalysis(ctx, sourceID, analyst.Version)
	switch {
	case errors.Is(err, lawstore.ErrNotFound):
		fmt.Fprintf(os.Stdout, "%-12s not yet run\n", "Analysis:")
	case err != nil:
		return err
	default:
		fmt.Fprintf(os.Stdout, "%-12s %d/%d items (%.0f%%), version %s (%s)\n", "Analysis:",
			an.Successful, an.TotalItems, an.CompletionRate*100, an.ModelVersion,
			an.AnalyzedAt.Format("2006-01-02 15:04 UTC"))
	}

	law, err := p.store.LawBySource(ctx, sourceID)
	switch {
	case errors.Is(err, lawstore.ErrNotFound):
		fmt.Fprintf(os.Stdout, "%-12s not built\n", "Law:")
		return nil
	case err != nil:
		return err
	}

	articles, err := p.store.ArticlesByLaw(ctx, law.ID)
	if err != nil {
		return err
	}
	rels, err := p.store.RelationshipsByLaw(ctx, law.ID)
	if err != nil {
		return err
	}
	refs, err := p.store.ReferencesByLaw(ctx, law.ID)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "%-12s %s (%s, category %s)\n", "Law:", law.OfficialNumber, law.TypeID, law.CategoryID)
	fmt.Fprintf(os.Stdout, "%-12s %s\n", "Law ID:", law.ID)
	fmt.Fprintf(os.Stdout, "%-12s %d articles, %d law edges, %d article references\n", "Graph:",
		len(articles), len(rels), len(refs))
	return nil
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
