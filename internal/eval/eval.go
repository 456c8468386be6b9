// Package eval composes corpus loading, metric computation, and threshold
// interpretation into the pipeline's single evaluation entry point.
package eval

import (
	"fmt"
	"log/slog"

	"github.com/example/go-tokeval/internal/corpus"
	"github.com/example/go-tokeval/internal/metrics"
	"github.com/example/go-tokeval/internal/tokenizer"
)

// Result bundles the computed metrics and their interpretation.
type Result struct {
	Metrics metrics.Triple `json:"metrics"`
	Report  metrics.Report `json:"report"`
	// Lines is the number of corpus lines that survived normalization and
	// entered the evaluation.
	Lines int `json:"lines"`
}

// Run evaluates the SentencePiece model at modelPath against the corpus at
// corpusPath. A tokenizer that cannot be loaded is fatal; a partially
// unreadable corpus degrades to whatever lines were extracted, with a
// warning on logger.
func Run(modelPath, corpusPath string, sourceType corpus.SourceType, textColumn string, logger *slog.Logger) (Result, error) {
	tok, err := tokenizer.NewSentencePieceTokenizer(modelPath)
	if err != nil {
		return Result{}, fmt.Errorf("load tokenizer: %w", err)
	}

	return RunWithTokenizer(tok, corpusPath, sourceType, textColumn, logger)
}

// RunWithTokenizer is Run with an already-constructed tokenizer handle,
// which also serves the non-SentencePiece backends.
func RunWithTokenizer(tok tokenizer.Tokenizer, corpusPath string, sourceType corpus.SourceType, textColumn string, logger *slog.Logger) (Result, error) {
	if logger == nil {
		logger = slog.Default()
	}

	loaded := corpus.Load(corpusPath, sourceType, textColumn)
	if loaded.Err != nil {
		logger.Warn("corpus partially loaded",
			slog.String("source", loaded.Source),
			slog.Int("lines", len(loaded.Lines)),
			slog.String("error", loaded.Err.Error()),
		)
	}

	triple, err := metrics.Evaluate(loaded.Lines, tok)
	if err != nil {
		return Result{}, fmt.Errorf("evaluate corpus: %w", err)
	}

	return Result{
		Metrics: triple,
		Report:  metrics.Interpret(triple),
		Lines:   len(loaded.Lines),
	}, nil
}
