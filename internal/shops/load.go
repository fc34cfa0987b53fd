package shops

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/roach88/orderingest/internal/textkey"
)

// Required directory columns.
const (
	ColPlatform = "platform"
	ColShopID   = "shop_id"
	ColShopName = "shop_name"
	ColStatus   = "shop_status"
)

// LoadCSV reads the directory export at path.
//
// The first row holds column names. Spreadsheet exports often carry a
// second, human-readable title row; it is skipped when its status cell is
// not a boolean. Only rows whose platform matches are kept.
func LoadCSV(path, platform string) (*Directory, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrConfigMissing, path)
		}
		return nil, fmt.Errorf("%w: %v", ErrConfigMissing, err)
	}
	defer f.Close()

	d, err := ReadCSV(f, platform)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// ReadCSV parses a directory export from r.
func ReadCSV(r io.Reader, platform string) (*Directory, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigMissing, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrInvalid)
	}

	cols := make(map[string]int)
	for i, name := range records[0] {
		cols[textkey.Fold(name)] = i
	}
	var missing []string
	for _, c := range []string{ColPlatform, ColShopID, ColShopName, ColStatus} {
		if _, ok := cols[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing columns %s", ErrInvalid, strings.Join(missing, ", "))
	}

	cell := func(row []string, col string) string {
		i := cols[col]
		if i >= len(row) {
			return ""
		}
		return textkey.Clean(row[i])
	}

	var entries []Entry
	for n, row := range records[1:] {
		active, ok := ParseStatus(cell(row, ColStatus))
		if !ok && n == 0 {
			continue // title row
		}
		entries = append(entries, Entry{
			ID:       cell(row, ColShopID),
			Name:     cell(row, ColShopName),
			Platform: cell(row, ColPlatform),
			Active:   active,
		})
	}

	d := NewDirectory(platform, entries...)
	if d.Len() == 0 {
		return nil, fmt.Errorf("%w: no active shops for platform %q", ErrInvalid, platform)
	}
	return d, nil
}

// ParseStatus interprets a shop_status cell. ok is false for values that
// are not recognisably boolean.
func ParseStatus(s string) (active, ok bool) {
	switch textkey.Fold(s) {
	case "true", "1", "yes", "y", "是", "啟用":
		return true, true
	case "false", "0", "no", "n", "否", "停用":
		return false, true
	}
	return false, false
}
