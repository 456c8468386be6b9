package config

import (
	"fmt"
	"strings"
)

const (
	BackendSentencePiece = "sentencepiece"
	BackendTiktoken      = "tiktoken"
)

func NormalizeBackend(raw string) (string, error) {
	backend := strings.ToLower(strings.TrimSpace(raw))
	if backend == "" {
		backend = BackendSentencePiece
	}
	switch backend {
	case BackendSentencePiece, BackendTiktoken:
		return backend, nil
	case "spm", "sp":
		return BackendSentencePiece, nil
	default:
		return "", fmt.Errorf(
			"invalid backend %q (expected %s|%s)",
			raw,
			BackendSentencePiece,
			BackendTiktoken,
		)
	}
}
