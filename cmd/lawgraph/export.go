package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/agoradev/lawgraph/internal/lawstore"
)

var exportCmd = &cobra.Command{
	Use:   "export <source-id>",
	Short: "Export the law built from a source as YAML or JSON",
	Long: `Export bundles the law built from a source with its articles, law-to-law
relationships, and article references, and writes it as YAML or JSON. Without
--out the bundle goes to stdout; with --out it is written to
<dir>/<law-slug>.<format>.`,
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	sourceID, err := requireSourceID(args)
	if err != nil {
		return err
	}
	format, _ := cmd.Flags().GetString("format")
	outDir, _ := cmd.Flags().GetString("out")

	var ext string
	switch format {
	case "yaml", "":
		ext = "yaml"
	case "json":
		ext = "json"
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}

	ctx := context.Background()
	p, err := newPipeline(ctx, false)
	if err != nil {
		return err
	}
	defer p.Close()

	export, err := lawstore.BuildExport(ctx, p.store, sourceID)
	if err != nil {
		return err
	}

	write := export.WriteYAML
	if ext == "json" {
		write = export.WriteJSON
	}

	if outDir == "" {
		return write(os.Stdout)
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	path := filepath.Join(outDir, export.Law.Slug+"."+ext)
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	fmt.Printf("Exported to %s\n", path)
	return nil
}

func init() {
	exportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	exportCmd.Flags().String("out", "", "output directory (default: stdout)")

	rootCmd.AddCommand(exportCmd)
}
