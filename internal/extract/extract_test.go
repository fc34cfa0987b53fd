package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/traditionalchinese"
)

const ordersCSV = "訂單編號,訂單狀態,訂單成立日期,寄送方式,包裹查詢號碼\n" +
	"A1,待出貨,2025-12-30 10:00,7-ELEVEN,TW1\n" +
	"\n" +
	"A2,已完成,2025-12-30 11:00,全家,TW2\n"

func TestCSV_UTF8WithBOM(t *testing.T) {
	tbl, err := CSV{}.Extract(context.Background(), "in.csv", []byte("\ufeff"+ordersCSV))
	require.NoError(t, err)

	assert.Equal(t, "訂單編號", tbl.Header[0], "BOM stripped from first header")
	require.Len(t, tbl.Rows, 2, "blank line skipped")
	assert.Equal(t, 2, tbl.Rows[0].Line)
	assert.Equal(t, 4, tbl.Rows[1].Line)
	assert.Equal(t, "A2", tbl.Rows[1].Cell(0))
	assert.Equal(t, "", tbl.Rows[1].Cell(99))
}

func TestCSV_Big5Fallback(t *testing.T) {
	encoded, err := traditionalchinese.Big5.NewEncoder().Bytes([]byte(ordersCSV))
	require.NoError(t, err)

	tbl, err := CSV{}.Extract(context.Background(), "legacy.csv", encoded)
	require.NoError(t, err)
	assert.Equal(t, "訂單狀態", tbl.Header[1])
	assert.Equal(t, "待出貨", tbl.Rows[0].Cell(1))
}

func TestCSV_HeaderOnlyIsEmpty(t *testing.T) {
	_, err := CSV{}.Extract(context.Background(), "in.csv", []byte("訂單編號,訂單狀態\n"))
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = CSV{}.Extract(context.Background(), "in.csv", nil)
	assert.ErrorIs(t, err, ErrEmpty)
}

func workbook(t *testing.T, rows [][]string) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for r, row := range rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue("Sheet1", cell, v))
		}
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestXLSX_FirstSheet(t *testing.T) {
	data := workbook(t, [][]string{
		{"訂單編號", "訂單狀態", "shop_id"},
		{"A1", "待出貨", "SH0001"},
		{},
		{"A2", "待出貨"},
	})

	tbl, err := XLSX{}.Extract(context.Background(), "orders.xlsx", data)
	require.NoError(t, err)
	assert.Equal(t, []string{"訂單編號", "訂單狀態", "shop_id"}, tbl.Header)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, 2, tbl.Rows[0].Line)
	assert.Equal(t, 4, tbl.Rows[1].Line)
	assert.Equal(t, "", tbl.Rows[1].Cell(2))
}

func TestXLSX_NamedSheetMissing(t *testing.T) {
	data := workbook(t, [][]string{{"訂單編號"}, {"A1"}})
	_, err := XLSX{Sheet: "Orders"}.Extract(context.Background(), "orders.xlsx", data)
	assert.Error(t, err)
}

func TestXLSX_Corrupt(t *testing.T) {
	_, err := XLSX{}.Extract(context.Background(), "bad.xlsx", []byte("not a zip"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open workbook")
}

func TestRegistry(t *testing.T) {
	r := DefaultRegistry("")
	assert.Equal(t, []string{".csv", ".xlsm", ".xlsx"}, r.Extensions())

	_, ok := r.For("ORDERS.XLSX")
	assert.True(t, ok)

	_, err := r.Extract(context.Background(), "notes.txt", []byte("x"))
	assert.ErrorIs(t, err, ErrUnsupported)

	tbl, err := r.Extract(context.Background(), "in.csv", []byte(ordersCSV))
	require.NoError(t, err)
	assert.Len(t, tbl.Rows, 2)
}

func TestRegistry_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := DefaultRegistry("").Extract(ctx, "in.csv", []byte(ordersCSV))
	assert.ErrorIs(t, err, context.Canceled)
}
