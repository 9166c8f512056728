package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var runCmd = &cobra.Command{
	Use:   "run <source-id>",
	Short: "Run the full pipeline: extract, analyze, ingest",
	Long: `Run chains the three stages for one source: split the document, analyze
every item, and build the law graph. Each stage persists its envelope, so a
failed run can be resumed from the failing stage with the individual
subcommands.`,
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	sourceID, err := requireSourceID(args)
	if err != nil {
		return err
	}

	if model, _ := cmd.Flags().GetString("model"); model != "" {
		viper.Set("ai.model", model)
	}

	ctx := context.Background()
	p, err := newPipeline(ctx, true)
	if err != nil {
		return err
	}
	defer p.Close()

	stage := color.New(color.FgCyan, color.Bold)

	stage.Fprintln(os.Stdout, "Stage 1/3: extract")
	ext, err := p.extractor().Extract(ctx, os.Stdout, sourceID)
	if err != nil {
		return err
	}

	stage.Fprintln(os.Stdout, "Stage 2/3: analyze")
	an, err := p.analyst().Analyze(ctx, os.Stdout, sourceID)
	if err != nil {
		return err
	}

	stage.Fprintln(os.Stdout, "Stage 3/3: ingest")
	res, err := p.builder().Build(ctx, os.Stdout, sourceID)
	if err != nil {
		return err
	}

	color.New(color.FgGreen, color.Bold).Fprintf(os.Stdout, "\nPipeline complete: %s\n", res.OfficialNumber)
	fmt.Fprintf(os.Stdout, "  Law:      %s (%s, category %s)\n", res.LawID, res.TypeID, res.CategoryID)
	fmt.Fprintf(os.Stdout, "  Slug:     %s\n", res.Slug)
	fmt.Fprintf(os.Stdout, "  Articles: %d created, %d skipped (of %d extracted)\n",
		res.ArticlesCreated, res.ArticlesSkipped, ext.TotalArticles)
	fmt.Fprintf(os.Stdout, "  Analysis: %d/%d items succeeded\n", an.Successful, an.TotalItems)
	fmt.Fprintf(os.Stdout, "  Links:    %d law edges, %d article edges (%d duplicate, %d unresolved, %d failed)\n",
		res.Links.LawRelationships, res.Links.ArticleReferences,
		res.Links.Duplicates, res.Links.Unresolved, res.Links.Failed)
	return nil
}

func init() {
	runCmd.Flags().String("model", "", "AI model identifier (overrides config)")

	rootCmd.AddCommand(runCmd)
}
