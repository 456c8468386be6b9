package metrics

import (
	"errors"
	"math"
	"strings"
	"testing"
)

// fakeTokenizer splits words by a fixed piece table; unmapped words encode
// to a single piece.
type fakeTokenizer struct {
	pieces map[string][]string
}

func (f *fakeTokenizer) EncodePieces(text string) ([]string, error) {
	if p, ok := f.pieces[text]; ok {
		return p, nil
	}
	return []string{text}, nil
}

// failingTokenizer simulates an unusable tokenizer handle.
type failingTokenizer struct{}

var errEncode = errors.New("encoder not available")

func (failingTokenizer) EncodePieces(string) ([]string, error) {
	return nil, errEncode
}

// charTokenizer splits every word into single-rune pieces.
type charTokenizer struct{}

func (charTokenizer) EncodePieces(text string) ([]string, error) {
	out := make([]string, 0, len(text))
	for _, r := range text {
		out = append(out, string(r))
	}
	return out, nil
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestEvaluate_ReferenceScenario(t *testing.T) {
	// "unbelievable" encodes to 3 pieces, "cat" to 1, over a two-word corpus.
	tok := &fakeTokenizer{pieces: map[string][]string{
		"unbelievable": {"un", "believ", "able"},
	}}

	got, err := Evaluate([]string{"unbelievable cat"}, tok)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	if !almostEqual(got.Fertility, 2.0) {
		t.Errorf("Fertility = %v, want 2.0", got.Fertility)
	}
	if !almostEqual(got.WordFragmentationRate, 0.5) {
		t.Errorf("WordFragmentationRate = %v, want 0.5", got.WordFragmentationRate)
	}
	// 15 non-space chars over 4 tokens.
	if !almostEqual(got.CharsPerToken, 15.0/4.0) {
		t.Errorf("CharsPerToken = %v, want %v", got.CharsPerToken, 15.0/4.0)
	}
}

func TestEvaluate_EmptyCorpus(t *testing.T) {
	got, err := Evaluate(nil, &fakeTokenizer{})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	if got != (Triple{}) {
		t.Errorf("Evaluate(empty) = %+v, want zero triple", got)
	}
}

func TestEvaluate_MultiLineAccumulation(t *testing.T) {
	tok := &fakeTokenizer{pieces: map[string][]string{
		"hello": {"he", "llo"},
		"world": {"wor", "ld"},
	}}

	got, err := Evaluate([]string{"hello world", "hello", "cat"}, tok)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	// 4 words, 7 tokens, 3 split words.
	if !almostEqual(got.Fertility, 7.0/4.0) {
		t.Errorf("Fertility = %v, want %v", got.Fertility, 7.0/4.0)
	}
	if !almostEqual(got.WordFragmentationRate, 3.0/4.0) {
		t.Errorf("WordFragmentationRate = %v, want %v", got.WordFragmentationRate, 3.0/4.0)
	}
}

func TestEvaluate_CountsRunesNotBytes(t *testing.T) {
	got, err := Evaluate([]string{"héé"}, &fakeTokenizer{})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	// One word, one token, 3 characters (not 5 bytes).
	if !almostEqual(got.CharsPerToken, 3.0) {
		t.Errorf("CharsPerToken = %v, want 3.0", got.CharsPerToken)
	}
}

func TestEvaluate_MetricBounds(t *testing.T) {
	lines := []string{"the quick brown fox", "jumps over the lazy dog"}

	for name, tok := range map[string]interface {
		EncodePieces(string) ([]string, error)
	}{
		"identity":  &fakeTokenizer{},
		"char-wise": charTokenizer{},
	} {
		got, err := Evaluate(lines, tok)
		if err != nil {
			t.Fatalf("%s: Evaluate: %v", name, err)
		}

		if got.Fertility < 1.0 {
			t.Errorf("%s: Fertility = %v, want >= 1.0 for non-empty words", name, got.Fertility)
		}
		if got.WordFragmentationRate < 0 || got.WordFragmentationRate > 1 {
			t.Errorf("%s: WordFragmentationRate = %v, want within [0,1]", name, got.WordFragmentationRate)
		}
		if got.CharsPerToken < 0 {
			t.Errorf("%s: CharsPerToken = %v, want >= 0", name, got.CharsPerToken)
		}
	}
}

func TestEvaluate_TokenizerFailureIsFatal(t *testing.T) {
	_, err := Evaluate([]string{"some text"}, failingTokenizer{})

	if err == nil {
		t.Fatal("expected error from failing tokenizer")
	}
	if !errors.Is(err, errEncode) {
		t.Errorf("expected wrapped encode error, got: %v", err)
	}
	if !strings.Contains(err.Error(), "some") {
		t.Errorf("error should identify the offending word, got: %v", err)
	}
}

func TestEvaluate_Deterministic(t *testing.T) {
	tok := &fakeTokenizer{pieces: map[string][]string{"alpha": {"al", "pha"}}}
	lines := []string{"alpha beta", "gamma alpha"}

	first, err := Evaluate(lines, tok)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	second, err := Evaluate(lines, tok)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	if first != second {
		t.Errorf("repeated evaluation differs: %+v vs %+v", first, second)
	}
}
