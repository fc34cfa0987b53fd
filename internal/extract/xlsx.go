package extract

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// XLSX extracts the first worksheet (or Sheet, when set) of an Office Open
// XML workbook.
type XLSX struct {
	Sheet string
}

// Extract implements Extractor.
func (x XLSX) Extract(_ context.Context, name string, data []byte) (*Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("extract %s: open workbook: %w", name, err)
	}
	defer f.Close()

	sheet := x.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("extract %s: %w", name, ErrEmpty)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("extract %s: sheet %q: %w", name, sheet, err)
	}

	t := &Table{}
	for i, cells := range rows {
		if t.Header == nil {
			if blank(cells) {
				continue
			}
			t.Header = cells
			continue
		}
		if blank(cells) {
			continue
		}
		t.Rows = append(t.Rows, TableRow{Line: i + 1, Cells: cells})
	}
	if len(t.Rows) == 0 {
		return nil, fmt.Errorf("extract %s: %w", name, ErrEmpty)
	}
	return t, nil
}
