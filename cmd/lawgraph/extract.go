package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var extractCmd = &cobra.Command{
	Use:   "extract <source-id>",
	Short: "Split a source document into preamble and articles",
	Long: `Extract loads a source's text chunks, reads the header metadata (law type,
official number, enactment date), and asks the model to split the document
into a preamble and individual articles. The result is stored as the source's
extraction envelope; re-running replaces it.`,
	RunE: runExtract,
}

func runExtract(cmd *cobra.Command, args []string) error {
	sourceID, err := requireSourceID(args)
	if err != nil {
		return err
	}

	if model, _ := cmd.Flags().GetString("model"); model != "" {
		viper.Set("ai.model", model)
	}
	if budget, _ := cmd.Flags().GetInt("budget"); budget > 0 {
		viper.Set("extractor.split_char_budget", budget)
	}

	ctx := context.Background()
	p, err := newPipeline(ctx, true)
	if err != nil {
		return err
	}
	defer p.Close()

	_, err = p.extractor().Extract(ctx, os.Stdout, sourceID)
	return err
}

func init() {
	extractCmd.Flags().String("model", "", "AI model identifier (overrides config)")
	extractCmd.Flags().Int("budget", 0, "character budget for the split prompt (0 = config default)")

	rootCmd.AddCommand(extractCmd)
}
