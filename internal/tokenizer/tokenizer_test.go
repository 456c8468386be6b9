package tokenizer

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// modelPath returns the path to a real tokenizer model, skipping if absent.
func modelPath(t *testing.T) string {
	t.Helper()
	// Walk up from the package dir to find models/tokenizer.model.
	dir, err := filepath.Abs(".")
	if err != nil {
		t.Fatalf("abs path: %v", err)
	}

	for {
		candidate := filepath.Join(dir, "models", "tokenizer.model")

		_, err = os.Stat(candidate)
		if err == nil {
			return candidate
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}

		dir = parent
	}

	t.Skip("models/tokenizer.model not found; skipping tokenizer tests")

	return ""
}

// ---------------------------------------------------------------------------
// SentencePiece backend
// ---------------------------------------------------------------------------

func TestNewSentencePieceTokenizer_ValidModel(t *testing.T) {
	path := modelPath(t)

	tok, err := NewSentencePieceTokenizer(path)
	if err != nil {
		t.Fatalf("NewSentencePieceTokenizer(%q): %v", path, err)
	}

	if tok == nil {
		t.Fatal("expected non-nil tokenizer")
	}
}

func TestNewSentencePieceTokenizer_MissingFile(t *testing.T) {
	_, err := NewSentencePieceTokenizer("/nonexistent/tokenizer.model")
	if err == nil {
		t.Fatal("expected error for missing model file")
	}
}

func TestNewSentencePieceTokenizer_EmptyPath(t *testing.T) {
	_, err := NewSentencePieceTokenizer("")
	if err == nil {
		t.Fatal("expected error for empty path")
	}

	if !errors.Is(err, ErrEmptyPath) {
		t.Errorf("expected ErrEmptyPath, got: %v", err)
	}
}

func TestNewSentencePieceTokenizerFromBytes_Empty(t *testing.T) {
	_, err := NewSentencePieceTokenizerFromBytes(nil)
	if err == nil {
		t.Fatal("expected error for empty model data")
	}
}

func TestNewSentencePieceTokenizerFromBytes_MatchesFileBacked(t *testing.T) {
	path := modelPath(t)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read model file: %v", err)
	}

	fromBytes, err := NewSentencePieceTokenizerFromBytes(data)
	if err != nil {
		t.Fatalf("NewSentencePieceTokenizerFromBytes: %v", err)
	}

	fromFile, err := NewSentencePieceTokenizer(path)
	if err != nil {
		t.Fatalf("NewSentencePieceTokenizer: %v", err)
	}

	const input = "hello world"
	gotBytes, err := fromBytes.EncodePieces(input)
	if err != nil {
		t.Fatalf("EncodePieces (bytes-backed): %v", err)
	}
	gotFile, err := fromFile.EncodePieces(input)
	if err != nil {
		t.Fatalf("EncodePieces (file-backed): %v", err)
	}

	if len(gotBytes) == 0 {
		t.Fatal("expected at least one piece from bytes-backed tokenizer")
	}
	if len(gotBytes) != len(gotFile) {
		t.Fatalf("piece count mismatch: bytes-backed %v, file-backed %v", gotBytes, gotFile)
	}
	for i := range gotBytes {
		if gotBytes[i] != gotFile[i] {
			t.Errorf("piece[%d] = %q, file-backed has %q", i, gotBytes[i], gotFile[i])
		}
	}
}

func TestSentencePieceEncodePieces_EmptyString(t *testing.T) {
	path := modelPath(t)

	tok, err := NewSentencePieceTokenizer(path)
	if err != nil {
		t.Fatalf("NewSentencePieceTokenizer: %v", err)
	}

	got, err := tok.EncodePieces("")
	if err != nil {
		t.Fatalf("EncodePieces(\"\") should not error: %v", err)
	}

	if len(got) != 0 {
		t.Errorf("EncodePieces(\"\") = %v, want empty slice", got)
	}
}

func TestSentencePieceEncodePieces_NonEmpty(t *testing.T) {
	path := modelPath(t)

	tok, err := NewSentencePieceTokenizer(path)
	if err != nil {
		t.Fatalf("NewSentencePieceTokenizer: %v", err)
	}

	pieces, err := tok.EncodePieces("hello world")
	if err != nil {
		t.Fatalf("EncodePieces: %v", err)
	}

	if len(pieces) == 0 {
		t.Fatal("expected at least one piece for non-empty input")
	}

	for i, p := range pieces {
		if p == "" {
			t.Errorf("piece[%d] is empty", i)
		}
	}
}

func TestSentencePiece_ImplementsInterface(t *testing.T) {
	var _ Tokenizer = (*SentencePieceTokenizer)(nil)
}

// ---------------------------------------------------------------------------
// tiktoken backend
// ---------------------------------------------------------------------------

// requireTiktoken initializes the encoding, skipping when the rank data
// cannot be fetched (offline environments).
func requireTiktoken(t *testing.T, tok *TiktokenTokenizer) {
	t.Helper()

	if err := tok.init(); err != nil {
		t.Skipf("tiktoken encoding unavailable: %v", err)
	}
}

func TestNewTiktokenTokenizer_DefaultEncoding(t *testing.T) {
	tok := NewTiktokenTokenizer("")
	if tok.encoding != DefaultTiktokenEncoding {
		t.Errorf("encoding = %q, want %q", tok.encoding, DefaultTiktokenEncoding)
	}
	if tok.Name() != "tiktoken["+DefaultTiktokenEncoding+"]" {
		t.Errorf("unexpected Name: %q", tok.Name())
	}
}

func TestTiktokenEncodePieces_UnknownEncoding(t *testing.T) {
	tok := NewTiktokenTokenizer("no-such-encoding")

	_, err := tok.EncodePieces("hello")
	if err == nil {
		t.Fatal("expected error for unknown encoding")
	}
}

func TestTiktokenEncodePieces_RoundTrip(t *testing.T) {
	tok := NewTiktokenTokenizer("")
	requireTiktoken(t, tok)

	pieces, err := tok.EncodePieces("unbelievable")
	if err != nil {
		t.Fatalf("EncodePieces: %v", err)
	}

	if len(pieces) == 0 {
		t.Fatal("expected at least one piece")
	}

	// Concatenated pieces must reproduce the input.
	joined := ""
	for _, p := range pieces {
		joined += p
	}
	if joined != "unbelievable" {
		t.Errorf("pieces %v concatenate to %q, want %q", pieces, joined, "unbelievable")
	}
}

func TestTiktoken_ImplementsInterface(t *testing.T) {
	var _ Tokenizer = (*TiktokenTokenizer)(nil)
}
