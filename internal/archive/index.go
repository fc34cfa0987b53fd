package archive

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/roach88/orderingest/internal/fingerprint"
)

// Index answers whether content has been archived, by scanning the archive
// directory at query time.
type Index struct {
	dir   string
	namer Namer
}

// NewIndex returns an Index over dir.
func NewIndex(dir string, namer Namer) *Index {
	return &Index{dir: dir, namer: namer}
}

// Entry is one archived file as seen by a scan.
type Entry struct {
	Name   string
	Stem   string
	Prefix string
}

// Lookup returns the archived name holding content d, if any.
//
// A name matches when its embedded prefix is a prefix of d's full hex form,
// so archives written with a different prefix length stay authoritative.
// A missing archive directory is an empty archive.
func (ix *Index) Lookup(d fingerprint.Digest) (string, bool, error) {
	entries, err := ix.Entries()
	if err != nil {
		return "", false, err
	}
	full := d.String()
	for _, e := range entries {
		if strings.HasPrefix(full, e.Prefix) {
			return e.Name, true, nil
		}
	}
	return "", false, nil
}

// IsKnown reports whether content d has been archived.
func (ix *Index) IsKnown(d fingerprint.Digest) (bool, error) {
	_, ok, err := ix.Lookup(d)
	return ok, err
}

// Entries lists every well-formed archive name, sorted by name.
func (ix *Index) Entries() ([]Entry, error) {
	des, err := os.ReadDir(ix.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("archive: scan %s: %w", ix.dir, err)
	}
	var out []Entry
	for _, de := range des {
		if de.IsDir() {
			continue
		}
		stem, prefix, ok := ix.namer.Parse(de.Name())
		if !ok {
			continue
		}
		out = append(out, Entry{Name: de.Name(), Stem: stem, Prefix: prefix})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
