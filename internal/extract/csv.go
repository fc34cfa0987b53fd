package extract

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// CSV extracts comma-separated exports. UTF-8 (with or without BOM) is
// read as is; anything that is not valid UTF-8 is decoded as Big5, the
// legacy encoding of Traditional Chinese spreadsheet tools.
type CSV struct{}

// Extract implements Extractor.
func (CSV) Extract(_ context.Context, name string, data []byte) (*Table, error) {
	text, err := decodeText(data)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", name, err)
	}

	cr := csv.NewReader(bytes.NewReader(text))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = false

	t := &Table{}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("extract %s: %w", name, err)
		}
		line, _ := cr.FieldPos(0)
		if t.Header == nil {
			t.Header = rec
			continue
		}
		if blank(rec) {
			continue
		}
		t.Rows = append(t.Rows, TableRow{Line: line, Cells: rec})
	}
	if len(t.Rows) == 0 {
		return nil, fmt.Errorf("extract %s: %w", name, ErrEmpty)
	}
	return t, nil
}

func decodeText(data []byte) ([]byte, error) {
	if utf8.Valid(data) {
		out, _, err := transform.Bytes(unicode.BOMOverride(transform.Nop), data)
		return out, err
	}
	out, _, err := transform.Bytes(traditionalchinese.Big5.NewDecoder(), data)
	if err != nil {
		return nil, fmt.Errorf("decode big5: %w", err)
	}
	return out, nil
}

func blank(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}
