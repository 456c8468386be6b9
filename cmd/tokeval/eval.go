package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/example/go-tokeval/internal/config"
	"github.com/example/go-tokeval/internal/corpus"
	"github.com/example/go-tokeval/internal/eval"
	"github.com/example/go-tokeval/internal/metrics"
	"github.com/example/go-tokeval/internal/tokenizer"
	"github.com/spf13/cobra"
)

func newEvalCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Evaluate a trained tokenizer against the corpus",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			result, err := runEval(cfg)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}

			renderReport(cmd.OutOrStdout(), result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the evaluation result as JSON")

	return cmd
}

// runEval resolves the configured tokenizer backend and evaluates the corpus
// with it.
func runEval(cfg config.Config) (eval.Result, error) {
	sourceType, err := corpus.ParseSourceType(cfg.Eval.SourceType)
	if err != nil {
		return eval.Result{}, err
	}

	backend, err := config.NormalizeBackend(cfg.Eval.Backend)
	if err != nil {
		return eval.Result{}, err
	}

	switch backend {
	case config.BackendSentencePiece:
		return eval.Run(cfg.Paths.ModelPath, cfg.Paths.CorpusPath, sourceType, cfg.Corpus.TextColumn, slog.Default())
	case config.BackendTiktoken:
		tok := tokenizer.NewTiktokenTokenizer(cfg.Eval.Encoding)
		return eval.RunWithTokenizer(tok, cfg.Paths.CorpusPath, sourceType, cfg.Corpus.TextColumn, slog.Default())
	default:
		return eval.Result{}, fmt.Errorf("unsupported backend %q", backend)
	}
}

// renderReport prints the human-readable evaluation summary.
func renderReport(w io.Writer, result eval.Result) {
	_, _ = fmt.Fprintf(w, "evaluated %d lines\n\n", result.Lines)

	printAssessment(w, "fertility", result.Report.Fertility)
	printAssessment(w, "chars/token", result.Report.CharsPerToken)
	printAssessment(w, "word fragmentation", result.Report.WordFragmentation)

	_, _ = fmt.Fprintf(w, "\nverdict: %s\n", result.Report.Verdict)
}

func printAssessment(w io.Writer, label string, a metrics.Assessment) {
	_, _ = fmt.Fprintf(w, "%-20s %8.3f  [%s] %s\n", label, a.Value, a.Band, a.Diagnosis)
}
