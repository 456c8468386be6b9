// Package corpus loads text from mixed file sources, normalizes every
// record, and aggregates the survivors into a single training corpus file.
package corpus

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/example/go-tokeval/internal/text"
)

// SourceType selects how a source file is decomposed into records.
type SourceType string

const (
	// SourceLineText treats each physical line as one record.
	SourceLineText SourceType = "line-text"
	// SourceTabular treats each row of a delimited file as one record,
	// taking text from a named or default column.
	SourceTabular SourceType = "tabular"
)

// ErrColumnNotFound is returned inside a Result when the requested text
// column is absent from a tabular source's header.
var ErrColumnNotFound = errors.New("text column not found")

// ParseSourceType converts a user-supplied string to a SourceType.
// Common file-extension spellings are accepted as aliases.
func ParseSourceType(raw string) (SourceType, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "line-text", "text", "txt", "md":
		return SourceLineText, nil
	case "tabular", "csv":
		return SourceTabular, nil
	default:
		return "", fmt.Errorf("invalid source type %q (expected %s|%s)", raw, SourceLineText, SourceTabular)
	}
}

// Result is the outcome of loading a single source file. A non-nil Err marks
// the source as partially or fully failed; Lines always holds whatever was
// extracted and normalized before the failure. Loading never panics and
// never aborts a batch: the caller decides how to report Err.
type Result struct {
	Source string
	Lines  []string
	Err    error
}

// Load reads one source file, normalizes every extracted record, and keeps
// the non-empty results in original order. textColumn is only consulted for
// tabular sources; empty selects the first column.
func Load(path string, typ SourceType, textColumn string) Result {
	switch typ {
	case SourceTabular:
		return loadTabular(path, textColumn)
	default:
		return loadLines(path)
	}
}

func loadLines(path string) Result {
	res := Result{Source: path}

	f, err := os.Open(path)
	if err != nil {
		res.Err = fmt.Errorf("open %s: %w", filepath.Base(path), err)
		return res
	}
	defer f.Close()

	// bufio.Reader instead of Scanner: corpus lines may exceed the default
	// Scanner token limit.
	r := bufio.NewReader(f)
	for {
		line, err := r.ReadString('\n')
		if line != "" {
			if normalized := text.Normalize(line); normalized != "" {
				res.Lines = append(res.Lines, normalized)
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				res.Err = fmt.Errorf("read %s: %w", filepath.Base(path), err)
			}
			return res
		}
	}
}

func loadTabular(path, textColumn string) Result {
	res := Result{Source: path}

	f, err := os.Open(path)
	if err != nil {
		res.Err = fmt.Errorf("open %s: %w", filepath.Base(path), err)
		return res
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			res.Err = fmt.Errorf("read %s: empty tabular file", filepath.Base(path))
		} else {
			res.Err = fmt.Errorf("read %s: %w", filepath.Base(path), err)
		}
		return res
	}

	col, err := resolveTextColumn(header, textColumn)
	if err != nil {
		res.Err = fmt.Errorf("%s: %w", filepath.Base(path), err)
		return res
	}

	// Rows are streamed so a parse error midway still yields the rows
	// accumulated before it.
	for {
		row, err := r.Read()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				res.Err = fmt.Errorf("read %s: %w", filepath.Base(path), err)
			}
			return res
		}
		if col >= len(row) {
			continue
		}
		if normalized := text.Normalize(row[col]); normalized != "" {
			res.Lines = append(res.Lines, normalized)
		}
	}
}

// resolveTextColumn matches the requested column name against the header
// case-insensitively, defaulting to the first column when no name is given.
func resolveTextColumn(header []string, textColumn string) (int, error) {
	want := strings.TrimSpace(textColumn)
	if want == "" {
		if len(header) == 0 {
			return 0, fmt.Errorf("%w: header has no columns", ErrColumnNotFound)
		}
		return 0, nil
	}
	for i, name := range header {
		if strings.EqualFold(cleanCell(name), want) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %q not in header %v", ErrColumnNotFound, textColumn, header)
}

// cleanCell trims a header cell and drops a UTF-8 BOM left by spreadsheet
// exports.
func cleanCell(v string) string {
	return strings.TrimSpace(strings.TrimPrefix(v, "\uFEFF"))
}
