package main

import (
	"fmt"
	"os"

	"github.com/example/go-tokeval/internal/config"
	"github.com/example/go-tokeval/internal/trainer"
	"github.com/spf13/cobra"
)

func newTrainCmd() *cobra.Command {
	var skipPrepare bool
	var skipEval bool

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Prepare the corpus, train a SentencePiece model, and evaluate it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			if !skipPrepare {
				lines, err := runPrepare(prepareOptions{
					SourceDir:  cfg.Paths.SourceDir,
					OutputPath: cfg.Paths.CorpusPath,
					TextColumn: cfg.Corpus.TextColumn,
					Workers:    cfg.Corpus.Workers,
				})
				if err != nil {
					return err
				}
				if lines == 0 {
					return fmt.Errorf("prepared corpus is empty; nothing to train on")
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "corpus written to %s (%d lines)\n",
					cfg.Paths.CorpusPath, lines)
			}

			modelPath, err := trainer.Train(cmd.Context(), trainerOptions(cfg))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "model written to %s\n", modelPath)

			if skipEval {
				return nil
			}

			evalCfg := cfg
			evalCfg.Paths.ModelPath = modelPath
			evalCfg.Eval.Backend = config.BackendSentencePiece
			result, err := runEval(evalCfg)
			if err != nil {
				return err
			}

			renderReport(cmd.OutOrStdout(), result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipPrepare, "skip-prepare", false, "Train on the existing corpus file without re-aggregating sources")
	cmd.Flags().BoolVar(&skipEval, "skip-eval", false, "Skip the post-training evaluation")

	return cmd
}

// trainerOptions maps the loaded config onto the trainer option bundle.
func trainerOptions(cfg config.Config) trainer.Options {
	opts := trainer.DefaultOptions()
	opts.CorpusPath = cfg.Paths.CorpusPath
	opts.ModelDir = cfg.Trainer.ModelDir
	opts.ModelPrefix = cfg.Trainer.ModelPrefix
	opts.VocabSize = cfg.Trainer.VocabSize
	opts.ModelType = cfg.Trainer.ModelType
	opts.CharacterCoverage = cfg.Trainer.CharacterCoverage
	opts.NormalizationRule = cfg.Trainer.NormalizationRule
	opts.SampleSize = cfg.Trainer.SampleSize
	opts.MaxSentenceLength = cfg.Trainer.MaxSentenceLength
	opts.ByteFallback = cfg.Trainer.ByteFallback
	opts.ExecutablePath = cfg.Trainer.CLIPath
	opts.Stderr = os.Stderr
	return opts
}
