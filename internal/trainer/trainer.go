// Package trainer drives the external SentencePiece training executable.
// Training itself is owned by the external tool; this package only prepares
// the option bundle, launches the subprocess, and locates the produced
// model artifact.
package trainer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// Model types accepted by the SentencePiece trainer.
const (
	ModelUnigram = "unigram"
	ModelBPE     = "bpe"
	ModelWord    = "word"
	ModelChar    = "char"
)

// Reserved control-symbol IDs fixed across the pipeline.
const (
	PadID = 0
	UnkID = 1
	BosID = 2
	EosID = 3
)

// ErrEmptyCorpusPath is returned when Train is called without a corpus file.
var ErrEmptyCorpusPath = errors.New("training corpus path must not be empty")

// Options is the configuration bundle handed to the external trainer.
type Options struct {
	CorpusPath        string
	ModelDir          string
	ModelPrefix       string
	VocabSize         int
	ModelType         string
	CharacterCoverage float64
	NormalizationRule string
	SampleSize        int
	MaxSentenceLength int
	ByteFallback      bool

	// ExecutablePath overrides the spm_train binary; empty uses PATH lookup.
	ExecutablePath string
	// Stderr receives the trainer's progress output when non-nil.
	Stderr io.Writer
}

// DefaultOptions returns the trainer defaults used by the CLI.
func DefaultOptions() Options {
	return Options{
		ModelDir:          "tokenizer_models",
		ModelPrefix:       "tokenizer",
		VocabSize:         16000,
		ModelType:         ModelUnigram,
		CharacterCoverage: 0.9995,
		NormalizationRule: "nmt_nfkc",
		SampleSize:        10000000,
		MaxSentenceLength: 4096,
	}
}

// NormalizeModelType validates a user-supplied model type string.
func NormalizeModelType(raw string) (string, error) {
	mt := strings.ToLower(strings.TrimSpace(raw))
	if mt == "" {
		return ModelUnigram, nil
	}
	switch mt {
	case ModelUnigram, ModelBPE, ModelWord, ModelChar:
		return mt, nil
	default:
		return "", fmt.Errorf("invalid model type %q (expected %s|%s|%s|%s)",
			raw, ModelUnigram, ModelBPE, ModelWord, ModelChar)
	}
}

// ModelPath returns the path of the .model artifact the trainer will write.
func (o Options) ModelPath() string {
	return filepath.Join(o.ModelDir, o.ModelPrefix+".model")
}

// buildArgs translates Options into the spm_train flag list. Whitespace
// handling and the reserved IDs are pinned: the corpus is already
// one-sentence-per-line and space-collapsed, and downstream consumers rely
// on pad/unk/bos/eos occupying IDs 0-3.
func buildArgs(o Options) []string {
	return []string{
		"--input=" + o.CorpusPath,
		"--model_prefix=" + strings.TrimSuffix(o.ModelPath(), ".model"),
		"--vocab_size=" + strconv.Itoa(o.VocabSize),
		"--model_type=" + o.ModelType,
		"--character_coverage=" + strconv.FormatFloat(o.CharacterCoverage, 'f', -1, 64),
		"--normalization_rule_name=" + o.NormalizationRule,
		"--split_by_whitespace=true",
		"--remove_extra_whitespaces=true",
		"--input_sentence_size=" + strconv.Itoa(o.SampleSize),
		"--shuffle_input_sentence=true",
		"--max_sentence_length=" + strconv.Itoa(o.MaxSentenceLength),
		"--byte_fallback=" + strconv.FormatBool(o.ByteFallback),
		"--hard_vocab_limit=false",
		"--pad_id=" + strconv.Itoa(PadID),
		"--unk_id=" + strconv.Itoa(UnkID),
		"--bos_id=" + strconv.Itoa(BosID),
		"--eos_id=" + strconv.Itoa(EosID),
	}
}

// Train runs the external SentencePiece trainer on the prepared corpus and
// returns the path of the trained model artifact.
func Train(ctx context.Context, opts Options) (string, error) {
	if strings.TrimSpace(opts.CorpusPath) == "" {
		return "", ErrEmptyCorpusPath
	}

	modelType, err := NormalizeModelType(opts.ModelType)
	if err != nil {
		return "", err
	}
	opts.ModelType = modelType

	if opts.VocabSize <= 0 {
		return "", fmt.Errorf("vocab size must be positive, got %d", opts.VocabSize)
	}

	if opts.ModelDir != "" {
		if err := os.MkdirAll(opts.ModelDir, 0o755); err != nil {
			return "", fmt.Errorf("create model directory %s: %w", opts.ModelDir, err)
		}
	}

	exe := opts.ExecutablePath
	if exe == "" {
		exe = "spm_train"
	}

	cmd := exec.CommandContext(ctx, exe, buildArgs(opts)...)
	if opts.Stderr != nil {
		cmd.Stderr = opts.Stderr
	}

	if err := cmd.Run(); err != nil {
		return "", mapTrainError(err)
	}

	modelPath := opts.ModelPath()
	if _, err := os.Stat(modelPath); err != nil {
		return "", fmt.Errorf("trainer finished but model artifact %s is missing: %w", modelPath, err)
	}

	return modelPath, nil
}

func mapTrainError(err error) error {
	if errors.Is(err, exec.ErrNotFound) {
		return fmt.Errorf("training failed: spm_train executable not found; install sentencepiece or set --trainer-cli-path: %w", err)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return fmt.Errorf("training failed: spm_train returned non-zero exit; check stderr details above: %w", err)
	}

	return err
}
