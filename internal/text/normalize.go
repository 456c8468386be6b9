// Package text canonicalizes raw corpus text into a comparable form.
package text

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Normalize canonicalizes raw text for corpus preparation and evaluation.
// It applies Unicode NFKC (full-width forms and ligatures fold to their
// canonical representation), strips the ASCII control range U+0000..U+001F
// and U+007F, collapses every remaining whitespace run to a single space,
// and trims the edges. Any string is accepted; the result may be empty and
// callers drop empties. Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	s = norm.NFKC.String(s)

	// Strip controls before whitespace handling. Tabs and newlines fall in
	// the control range and are removed, not converted to spaces.
	s = strings.Map(func(r rune) rune {
		if r <= 0x1F || r == 0x7F {
			return -1
		}
		return r
	}, s)

	// Collapse each maximal whitespace run to one ASCII space; FieldsFunc
	// also drops leading and trailing whitespace.
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}

// NormalizeAll normalizes a batch of strings, preserving order.
func NormalizeAll(texts []string) []string {
	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = Normalize(t)
	}
	return out
}
