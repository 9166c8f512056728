//go:build mage

package main

import (
	"os"
	"os/exec"
	"path/filepath"
)

// lawgraph builds the CLI and runs it with the given arguments.
func lawgraph(args ...string) error {
	if err := Build(); err != nil {
		return err
	}
	cmd := exec.Command(filepath.Join(binDir, binName), args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin
	return cmd.Run()
}

// Extract splits one source document into preamble and articles.
func Extract(sourceID string) error {
	return lawgraph("extract", sourceID)
}

// Analyze runs the per-item analysis for one source.
func Analyze(sourceID string) error {
	return lawgraph("analyze", sourceID)
}

// Ingest builds the law graph from one analyzed source.
func Ingest(sourceID string) error {
	return lawgraph("ingest", sourceID)
}

// Run chains extract, analyze, and ingest for one source.
func Run(sourceID string) error {
	return lawgraph("run", sourceID)
}

// Status reports pipeline progress for one source.
func Status(sourceID string) error {
	return lawgraph("status", sourceID)
}
