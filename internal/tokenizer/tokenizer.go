// Package tokenizer provides subword tokenizer handles for corpus
// evaluation. The primary implementation wraps a trained SentencePiece
// model; a tiktoken backend grades off-the-shelf BPE encodings against a
// corpus without training.
package tokenizer

// Tokenizer encodes text into an ordered sequence of subword pieces.
// Implementations are read-only after construction and safe for concurrent
// use by multiple evaluations.
type Tokenizer interface {
	// EncodePieces tokenizes text and returns the subword pieces in order.
	EncodePieces(text string) ([]string, error)
}
