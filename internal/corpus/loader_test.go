package corpus

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestParseSourceType(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    SourceType
		wantErr bool
	}{
		{name: "empty defaults to line-text", input: "", want: SourceLineText},
		{name: "canonical line-text", input: "line-text", want: SourceLineText},
		{name: "txt alias", input: "txt", want: SourceLineText},
		{name: "md alias", input: "md", want: SourceLineText},
		{name: "canonical tabular", input: "tabular", want: SourceTabular},
		{name: "csv alias", input: "CSV", want: SourceTabular},
		{name: "unknown type", input: "parquet", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSourceType(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseSourceType(%q): expected error, got %q", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseSourceType(%q): %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseSourceType(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestLoad_LineText(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "sample.txt",
		"first line\n"+
			"   \n"+
			"Hello,   world!!\n"+
			"\x01control\x7F here\n"+
			"last without newline")

	res := Load(path, SourceLineText, "")
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}

	want := []string{"first line", "Hello, world!!", "control here", "last without newline"}
	assertLines(t, res.Lines, want)
}

func TestLoad_LineTextMissingFile(t *testing.T) {
	res := Load(filepath.Join(t.TempDir(), "absent.txt"), SourceLineText, "")

	if res.Err == nil {
		t.Fatal("expected error for missing file")
	}
	if len(res.Lines) != 0 {
		t.Errorf("expected zero lines, got %v", res.Lines)
	}
}

func TestLoad_TabularNamedColumn(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "data.csv",
		"id,Comment,score\n"+
			"1,\"Hello,   world!!\",0.5\n"+
			"2,,0.1\n"+
			"3,another   row,0.9\n")

	// Column match is case-insensitive.
	res := Load(path, SourceTabular, "comment")
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}

	want := []string{"Hello, world!!", "another row"}
	assertLines(t, res.Lines, want)
}

func TestLoad_TabularDefaultColumn(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "data.csv",
		"text,extra\n"+
			"row one,x\n"+
			"row two,y\n")

	res := Load(path, SourceTabular, "")
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}

	assertLines(t, res.Lines, []string{"row one", "row two"})
}

func TestLoad_TabularBOMHeader(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "data.csv", "\uFEFFtext\nhello\n")

	res := Load(path, SourceTabular, "text")
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}

	assertLines(t, res.Lines, []string{"hello"})
}

func TestLoad_TabularMissingColumn(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "data.csv", "id,text\n1,hello\n")

	res := Load(path, SourceTabular, "body")

	if res.Err == nil {
		t.Fatal("expected error for missing column")
	}
	if !errors.Is(res.Err, ErrColumnNotFound) {
		t.Errorf("expected ErrColumnNotFound, got: %v", res.Err)
	}
	if len(res.Lines) != 0 {
		t.Errorf("expected zero lines, got %v", res.Lines)
	}
}

func TestLoad_TabularPartialOnParseError(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "data.csv",
		"text\n"+
			"good one\n"+
			"good two\n"+
			"\"unterminated\n")

	res := Load(path, SourceTabular, "")

	if res.Err == nil {
		t.Fatal("expected parse error for unterminated quote")
	}

	// Rows accumulated before the failure survive.
	assertLines(t, res.Lines, []string{"good one", "good two"})
}

func TestLoad_TabularEmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "data.csv", "")

	res := Load(path, SourceTabular, "")
	if res.Err == nil {
		t.Fatal("expected error for empty tabular file")
	}
}

func assertLines(t *testing.T, got, want []string) {
	t.Helper()

	if len(got) != len(want) {
		t.Fatalf("got %d lines %v, want %d lines %v", len(got), got, len(want), want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
