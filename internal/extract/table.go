package extract

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"strings"
)

// ErrEmpty means the file holds no data rows.
var ErrEmpty = errors.New("extract: no data rows")

// ErrUnsupported means no extractor handles the file's extension.
var ErrUnsupported = errors.New("extract: unsupported file type")

// Table is the header and data rows of one file.
type Table struct {
	Header []string
	Rows   []TableRow
}

// TableRow is one data row and the source line it came from.
type TableRow struct {
	Line  int
	Cells []string
}

// Cell returns the i-th cell, or "" when the row is short.
func (r TableRow) Cell(i int) string {
	if i < 0 || i >= len(r.Cells) {
		return ""
	}
	return r.Cells[i]
}

// Extractor reads one file's content.
type Extractor interface {
	Extract(ctx context.Context, name string, data []byte) (*Table, error)
}

// Registry picks an Extractor by file extension.
type Registry struct {
	byExt map[string]Extractor
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byExt: make(map[string]Extractor)}
}

// DefaultRegistry handles .csv, .xlsx and .xlsm. sheet selects the
// worksheet for spreadsheets; empty means the first one.
func DefaultRegistry(sheet string) *Registry {
	r := NewRegistry()
	r.Register(CSV{}, ".csv")
	r.Register(XLSX{Sheet: sheet}, ".xlsx", ".xlsm")
	return r
}

// Register binds e to the given extensions (case-insensitive).
func (r *Registry) Register(e Extractor, exts ...string) {
	for _, ext := range exts {
		r.byExt[strings.ToLower(ext)] = e
	}
}

// For returns the extractor for name.
func (r *Registry) For(name string) (Extractor, bool) {
	e, ok := r.byExt[strings.ToLower(filepath.Ext(name))]
	return e, ok
}

// Extensions lists registered extensions, sorted.
func (r *Registry) Extensions() []string {
	out := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// Extract dispatches to the extractor registered for name.
func (r *Registry) Extract(ctx context.Context, name string, data []byte) (*Table, error) {
	e, ok := r.For(name)
	if !ok {
		return nil, ErrUnsupported
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.Extract(ctx, name, data)
}
