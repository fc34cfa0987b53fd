// Package textkey folds free text into comparison keys for header names,
// status values and shop identifiers exported by spreadsheet tools, which
// mix full-width and half-width forms, stray whitespace and case.
package textkey

import (
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// A Caser may hold state, so each call takes its own.
var folders = sync.Pool{New: func() any { c := cases.Fold(); return &c }}

// Fold returns the comparison key for s: NFKC-normalised (full-width
// letters and digits become ASCII), case-folded and trimmed. The BOM is
// dropped since the first header of a UTF-8-BOM file carries it.
func Fold(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	s = norm.NFKC.String(s)
	c := folders.Get().(*cases.Caser)
	defer folders.Put(c)
	return strings.TrimSpace(c.String(s))
}

// Clean NFC-normalises s and trims surrounding whitespace without changing
// case. Use it for values that are emitted, not only compared.
func Clean(s string) string {
	return strings.TrimSpace(norm.NFC.String(strings.TrimPrefix(s, "\ufeff")))
}

// Set is a set of folded keys.
type Set map[string]struct{}

// NewSet folds each value into a Set.
func NewSet(values ...string) Set {
	s := make(Set, len(values))
	for _, v := range values {
		if k := Fold(v); k != "" {
			s[k] = struct{}{}
		}
	}
	return s
}

// Has reports whether the folded form of v is in s.
func (s Set) Has(v string) bool {
	_, ok := s[Fold(v)]
	return ok
}
