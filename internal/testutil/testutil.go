// Package testutil provides shared skip helpers for integration tests.
//
// Each helper calls t.Skip with a clear human-readable reason when the named
// prerequisite is absent, so integration tests remain runnable in partial
// environments without failing noisily.
//
// Typical usage:
//
//	func TestMyIntegration(t *testing.T) {
//	    testutil.RequireSpmTrain(t)
//	    model := testutil.RequireTokenizerModel(t)
//	    ...
//	}
package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// RequireSpmTrain skips the test if the spm_train binary is not found in
// PATH or the path given by the TOKEVAL_SPM_TRAIN environment variable.
func RequireSpmTrain(tb testing.TB) {
	tb.Helper()

	exe := os.Getenv("TOKEVAL_SPM_TRAIN")
	if exe == "" {
		exe = "spm_train"
	}

	_, err := exec.LookPath(exe)
	if err != nil {
		tb.Skipf("spm_train binary not available (%q not in PATH); set TOKEVAL_SPM_TRAIN to override", exe)
	}
}

// RequireTokenizerModel skips the test unless a trained SentencePiece model
// can be located, and returns its path. It checks the TOKEVAL_PATHS_MODEL_PATH
// env var first, then walks up from the working directory looking for
// models/tokenizer.model.
func RequireTokenizerModel(tb testing.TB) string {
	tb.Helper()

	if p := os.Getenv("TOKEVAL_PATHS_MODEL_PATH"); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
		tb.Skipf("tokenizer model not found at TOKEVAL_PATHS_MODEL_PATH=%q", p)
	}

	dir, err := os.Getwd()
	if err != nil {
		tb.Skipf("cannot resolve working directory: %v", err)
	}

	for {
		p := filepath.Join(dir, "models", "tokenizer.model")
		if _, err := os.Stat(p); err == nil {
			return p
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	tb.Skip("tokenizer model not found; set TOKEVAL_PATHS_MODEL_PATH or commit models/tokenizer.model")
	return ""
}
