// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <source-id>",
	Short: "Build the law graph from a source's extraction and analysis",
	Long: `Ingest turns a source's stored extraction and analysis into graph rows: the
law, its articles, aggregated tags, the law-level summary, and the reference
edges to other laws. Any law previously built from the source is replaced.

Creation runs as a saga: if a step after law creation fails, the partial law
is deleted and the build retried. A law that cannot be rolled back is
reported for manual cleanup.`,
	RunE: runIngest,
}

func runIngest(cmd *cobra.Command, args []string) error {
	sourceID, err := requireSourceID(args)
	if err != nil {
		return err
	}

	if retries, _ := cmd.Flags().GetInt("retries"); retries > 0 {
		viper.Set("graph.max_retries", retries)
	}

	ctx := context.Background()
	p, err := newPipeline(ctx, true)
	if err != nil {
		return err
	}
	defer p.Close()

	_, err = p.builder().Build(ctx, os.Stdout, sourceID)
	return err
}

func init() {
	ingestCmd.Flags().Int("retries", 0, "build attempts after a rollback (0 = config default)")

	rootCmd.AddCommand(ingestCmd)
}
