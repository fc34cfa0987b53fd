// Package shops loads the shop directory: the authoritative mapping from
// shop identifier to display name.
//
// Only active shops of the configured platform are visible. Inactive shops
// of that platform are remembered so rows referencing them can be excluded
// instead of being reported as unknown.
package shops

import (
	"errors"

	"github.com/roach88/orderingest/internal/textkey"
)

var (
	// ErrConfigMissing means the directory resource is absent or unreadable.
	ErrConfigMissing = errors.New("shop directory missing")

	// ErrInvalid means the directory exists but cannot be used.
	ErrInvalid = errors.New("shop directory invalid")
)

// Entry is one shop.
type Entry struct {
	ID       string
	Name     string
	Platform string
	Active   bool
}

// Status is the outcome of resolving a shop identifier.
type Status int

const (
	// Unknown identifiers have no entry for the platform.
	Unknown Status = iota
	// Active identifiers resolve to a display name.
	Active
	// Inactive identifiers exist but are switched off.
	Inactive
)

func (s Status) String() string {
	switch s {
	case Active:
		return "active"
	case Inactive:
		return "inactive"
	}
	return "unknown"
}

// Directory is a read-only shop lookup.
type Directory struct {
	platform string
	active   map[string]Entry
	inactive map[string]Entry
}

// NewDirectory builds a Directory for platform from entries. Entries of
// other platforms are ignored. The first entry for an identifier wins.
func NewDirectory(platform string, entries ...Entry) *Directory {
	d := &Directory{
		platform: platform,
		active:   make(map[string]Entry),
		inactive: make(map[string]Entry),
	}
	want := textkey.Fold(platform)
	for _, e := range entries {
		if textkey.Fold(e.Platform) != want {
			continue
		}
		key := textkey.Fold(e.ID)
		if key == "" {
			continue
		}
		if _, seen := d.active[key]; seen {
			continue
		}
		if e.Active {
			delete(d.inactive, key)
			d.active[key] = e
			continue
		}
		if _, seen := d.inactive[key]; !seen {
			d.inactive[key] = e
		}
	}
	return d
}

// Resolve looks up id. The returned Entry is only meaningful for Active.
func (d *Directory) Resolve(id string) (Entry, Status) {
	key := textkey.Fold(id)
	if e, ok := d.active[key]; ok {
		return e, Active
	}
	if e, ok := d.inactive[key]; ok {
		return e, Inactive
	}
	return Entry{}, Unknown
}

// Platform returns the platform the directory was built for.
func (d *Directory) Platform() string {
	return d.platform
}

// Len returns the number of active shops.
func (d *Directory) Len() int {
	return len(d.active)
}
