package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/example/go-tokeval/internal/corpus"
	"github.com/spf13/cobra"
)

func newPrepareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prepare",
		Short: "Aggregate raw source files into a normalized training corpus",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			lines, err := runPrepare(prepareOptions{
				SourceDir:  cfg.Paths.SourceDir,
				OutputPath: cfg.Paths.CorpusPath,
				TextColumn: cfg.Corpus.TextColumn,
				Workers:    cfg.Corpus.Workers,
			})
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "corpus written to %s (%d lines)\n",
				cfg.Paths.CorpusPath, lines)
			return nil
		},
	}

	return cmd
}

type prepareOptions struct {
	SourceDir  string
	OutputPath string
	TextColumn string
	Workers    int
}

// runPrepare scans the source directory, merges every supported file into
// one corpus, and returns the line count.
func runPrepare(opts prepareOptions) (int, error) {
	if outDir := filepath.Dir(opts.OutputPath); outDir != "." {
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return 0, fmt.Errorf("create corpus directory %s: %w", outDir, err)
		}
	}

	return corpus.Aggregate(corpus.AggregateOptions{
		Dir:        opts.SourceDir,
		OutputPath: opts.OutputPath,
		TextColumn: opts.TextColumn,
		Workers:    opts.Workers,
		Logger:     slog.Default(),
	})
}
