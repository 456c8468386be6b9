// Package metrics computes and interprets subword tokenizer quality
// statistics over a normalized corpus.
package metrics

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/example/go-tokeval/internal/tokenizer"
)

// Triple holds the three aggregate tokenizer quality metrics, recomputed
// fresh on each evaluation.
//
// Fertility is the average number of pieces per whitespace-delimited word.
// CharsPerToken is the average number of non-space characters per piece.
// WordFragmentationRate is the fraction of words split into more than one
// piece, always in [0,1].
type Triple struct {
	Fertility             float64 `json:"fertility"`
	CharsPerToken         float64 `json:"chars_per_token"`
	WordFragmentationRate float64 `json:"word_fragmentation_rate"`
}

// accumulator gathers the single-pass counters. It is deliberately local
// state folded over the line sequence rather than package-level counters, so
// concurrent evaluations never share anything.
type accumulator struct {
	totalTokens int
	totalWords  int
	totalChars  int
	splitWords  int
}

func (a *accumulator) observeLine(line string, tok tokenizer.Tokenizer) error {
	words := strings.Fields(line)
	a.totalWords += len(words)
	a.totalChars += utf8.RuneCountInString(strings.ReplaceAll(line, " ", ""))

	for _, word := range words {
		pieces, err := tok.EncodePieces(word)
		if err != nil {
			return fmt.Errorf("encode %q: %w", word, err)
		}
		a.totalTokens += len(pieces)
		if len(pieces) > 1 {
			a.splitWords++
		}
	}
	return nil
}

func (a accumulator) triple() Triple {
	var t Triple
	if a.totalWords > 0 {
		t.Fertility = float64(a.totalTokens) / float64(a.totalWords)
		t.WordFragmentationRate = float64(a.splitWords) / float64(a.totalWords)
	}
	if a.totalTokens > 0 {
		t.CharsPerToken = float64(a.totalChars) / float64(a.totalTokens)
	}
	return t
}

// Evaluate computes the metric triple over lines in one linear pass. Lines
// are split on whitespace into words and each word is encoded separately;
// characters are counted excluding spaces. An empty corpus yields the zero
// Triple. An encode failure means the tokenizer handle is unusable and is
// returned as a fatal error: degrading to zero metrics would misrepresent
// tokenizer quality. Neither lines nor the tokenizer are mutated.
func Evaluate(lines []string, tok tokenizer.Tokenizer) (Triple, error) {
	var acc accumulator
	for _, line := range lines {
		if err := acc.observeLine(line, tok); err != nil {
			return Triple{}, err
		}
	}
	return acc.triple(), nil
}
