package tokenizer

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultTiktokenEncoding is used when no encoding name is configured.
const DefaultTiktokenEncoding = "cl100k_base"

// TiktokenTokenizer implements Tokenizer over a named tiktoken BPE encoding.
// The encoding is initialized lazily because the library may fetch its rank
// data on first use.
type TiktokenTokenizer struct {
	encoding string
	enc      *tiktoken.Tiktoken
	once     sync.Once
	initErr  error
}

// NewTiktokenTokenizer creates a tokenizer for the named encoding
// (e.g. cl100k_base, o200k_base). An empty name selects DefaultTiktokenEncoding.
func NewTiktokenTokenizer(encoding string) *TiktokenTokenizer {
	if encoding == "" {
		encoding = DefaultTiktokenEncoding
	}
	return &TiktokenTokenizer{encoding: encoding}
}

func (t *TiktokenTokenizer) init() error {
	t.once.Do(func() {
		enc, err := tiktoken.GetEncoding(t.encoding)
		if err != nil {
			t.initErr = fmt.Errorf("init tiktoken encoding %s: %w", t.encoding, err)
			return
		}
		t.enc = enc
	})
	return t.initErr
}

// EncodePieces tokenizes text and recovers each piece by decoding its token
// ID individually, so the result is an ordered sequence of piece strings.
func (t *TiktokenTokenizer) EncodePieces(text string) ([]string, error) {
	if err := t.init(); err != nil {
		return nil, err
	}
	if text == "" {
		return []string{}, nil
	}

	ids := t.enc.Encode(text, nil, nil)

	pieces := make([]string, len(ids))
	for i, id := range ids {
		pieces[i] = t.enc.Decode([]int{id})
	}

	return pieces, nil
}

// Name identifies the encoding for logs and reports.
func (t *TiktokenTokenizer) Name() string {
	return fmt.Sprintf("tiktoken[%s]", t.encoding)
}
