package archive

import (
	"path/filepath"
	"strings"

	"github.com/roach88/orderingest/internal/fingerprint"
)

// DefaultTag names the digest algorithm inside archive names.
const DefaultTag = "sha256"

// tagSeparator splits the original stem from the digest tag.
const tagSeparator = "__"

// Namer builds and parses archive names.
type Namer struct {
	Tag          string
	PrefixLength int
}

// DefaultNamer returns the sha256/10-hex naming used unless configured.
func DefaultNamer() Namer {
	return Namer{Tag: DefaultTag, PrefixLength: fingerprint.DefaultPrefixLength}
}

func (n Namer) tag() string {
	if n.Tag == "" {
		return DefaultTag
	}
	return n.Tag
}

func (n Namer) marker() string {
	return tagSeparator + n.tag() + "_"
}

// Name returns the archive name for original (a base name) with content d.
func (n Namer) Name(original string, d fingerprint.Digest) string {
	ext := filepath.Ext(original)
	stem := strings.TrimSuffix(original, ext)
	return stem + n.marker() + d.Prefix(n.PrefixLength) + ext
}

// Parse extracts the original stem and digest prefix from an archive name.
// ok is false for names that do not follow the format, including dotfiles
// left behind by an interrupted copy.
func (n Namer) Parse(name string) (stem, prefix string, ok bool) {
	if name == "" || strings.HasPrefix(name, ".") {
		return "", "", false
	}
	base := strings.TrimSuffix(name, filepath.Ext(name))
	i := strings.LastIndex(base, n.marker())
	if i <= 0 {
		return "", "", false
	}
	prefix = base[i+len(n.marker()):]
	if !fingerprint.ValidPrefix(prefix) {
		return "", "", false
	}
	return base[:i], prefix, true
}
