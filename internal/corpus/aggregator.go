package corpus

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
)

// DefaultExtensions maps the file extensions scanned by Aggregate to their
// source types: txt and md are line-oriented, csv is tabular.
func DefaultExtensions() map[string]SourceType {
	return map[string]SourceType{
		"txt": SourceLineText,
		"md":  SourceLineText,
		"csv": SourceTabular,
	}
}

// AggregateOptions configures a corpus aggregation run.
type AggregateOptions struct {
	// Dir is the directory scanned for source files (non-recursive).
	Dir string
	// OutputPath receives the merged corpus; an existing file is overwritten.
	OutputPath string
	// Extensions maps extension (without dot) to source type.
	// Nil selects DefaultExtensions.
	Extensions map[string]SourceType
	// TextColumn names the text column for tabular sources; empty selects
	// the first column.
	TextColumn string
	// Workers bounds concurrent file loads. Values below 2 load sequentially.
	Workers int
	// Logger receives per-source skip warnings. Nil selects slog.Default.
	Logger *slog.Logger
}

// sourceFile is one unit of aggregation work with its fixed output position.
type sourceFile struct {
	path string
	typ  SourceType
}

// Aggregate merges every matching file under opts.Dir into one normalized
// line-per-record corpus at opts.OutputPath and returns the number of lines
// written.
//
// Work order is deterministic for a given directory snapshot: extensions are
// processed in lexicographic order, and files within an extension in
// lexicographic filename order. With Workers > 1 files are loaded in
// parallel, but results are concatenated in the predetermined order, never
// completion order, so the output is reproducible.
//
// A source that cannot be read is logged as a warning and skipped; its
// partial lines (if any) are still kept. Only an unreadable directory or a
// failed output write is fatal.
func Aggregate(opts AggregateOptions) (int, error) {
	work, err := enumerateSources(opts.Dir, opts.Extensions)
	if err != nil {
		return 0, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	results := loadAll(work, opts.TextColumn, opts.Workers)

	var lines []string
	for _, res := range results {
		if res.Err != nil {
			logger.Warn("skipping source",
				slog.String("source", res.Source),
				slog.String("error", res.Err.Error()),
			)
		}
		lines = append(lines, res.Lines...)
	}

	if err := writeCorpus(opts.OutputPath, lines); err != nil {
		return 0, err
	}

	logger.Info("corpus prepared",
		slog.Int("lines", len(lines)),
		slog.Int("sources", len(work)),
		slog.String("output", opts.OutputPath),
	)

	return len(lines), nil
}

// enumerateSources builds the fixed work list: extensions in lexicographic
// order, filenames in lexicographic order within each extension.
func enumerateSources(dir string, extensions map[string]SourceType) ([]sourceFile, error) {
	if extensions == nil {
		extensions = DefaultExtensions()
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read source directory %s: %w", dir, err)
	}

	exts := make([]string, 0, len(extensions))
	for ext := range extensions {
		exts = append(exts, ext)
	}
	sort.Strings(exts)

	var work []sourceFile
	for _, ext := range exts {
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			name := entry.Name()
			if !strings.EqualFold(strings.TrimPrefix(filepath.Ext(name), "."), ext) {
				continue
			}
			work = append(work, sourceFile{
				path: filepath.Join(dir, name),
				typ:  extensions[ext],
			})
		}
	}
	return work, nil
}

// loadAll loads every source, optionally fanning out across a bounded worker
// pool. Results land in a slice indexed by work position; a failed load
// carries its diagnostic in Result.Err and never cancels the other loads.
func loadAll(work []sourceFile, textColumn string, workers int) []Result {
	results := make([]Result, len(work))

	if workers < 2 {
		for i, src := range work {
			results[i] = Load(src.path, src.typ, textColumn)
		}
		return results
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for i, src := range work {
		i, src := i, src
		g.Go(func() error {
			results[i] = Load(src.path, src.typ, textColumn)
			return nil
		})
	}
	// Workers never return errors; Wait only synchronizes.
	_ = g.Wait()

	return results
}

func writeCorpus(path string, lines []string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create corpus file %s: %w", path, err)
	}

	w := bufio.NewWriter(f)
	for _, line := range lines {
		if _, err := w.WriteString(line); err != nil {
			_ = f.Close()
			return fmt.Errorf("write corpus file %s: %w", path, err)
		}
		if err := w.WriteByte('\n'); err != nil {
			_ = f.Close()
			return fmt.Errorf("write corpus file %s: %w", path, err)
		}
	}

	if err := w.Flush(); err != nil {
		_ = f.Close()
		return fmt.Errorf("flush corpus file %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close corpus file %s: %w", path, err)
	}
	return nil
}
