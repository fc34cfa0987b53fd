package extract

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// DefaultShopTokenPattern finds identifiers like _SH0004_ in file names.
const DefaultShopTokenPattern = `_(SH\d{4})_`

// ShopToken pulls an advisory shop identifier out of a file name. It is a
// fallback for rows that carry no identifier, never a source of display
// data.
type ShopToken struct {
	re *regexp.Regexp
}

// NewShopToken compiles pattern. The first capture group, or the whole
// match when there is none, is the identifier.
func NewShopToken(pattern string) (*ShopToken, error) {
	if pattern == "" {
		pattern = DefaultShopTokenPattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("shop token pattern: %w", err)
	}
	return &ShopToken{re: re}, nil
}

// Find returns the identifier embedded in name's stem, or "".
func (s *ShopToken) Find(name string) string {
	base := filepath.Base(name)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	m := s.re.FindStringSubmatch(stem)
	switch {
	case m == nil:
		return ""
	case len(m) > 1:
		return m[1]
	default:
		return m[0]
	}
}
