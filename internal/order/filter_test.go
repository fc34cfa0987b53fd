package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/orderingest/internal/shops"
)

func testDirectory() *shops.Directory {
	return shops.NewDirectory("Shopee",
		shops.Entry{ID: "SH0001", Name: "台北店", Platform: "Shopee", Active: true},
		shops.Entry{ID: "SH0002", Name: "台中店", Platform: "Shopee", Active: false},
		shops.Entry{ID: "SH0004", Name: "新竹店", Platform: "Shopee", Active: true},
	)
}

func testStage() *Stage {
	return &Stage{Directory: testDirectory(), Pending: NewStatusMatcher()}
}

func TestFilter_PendingOnly(t *testing.T) {
	rows := []Row{
		{Line: 2, ShopID: "SH0001", Status: "待出貨", OrderNumber: "A1"},
		{Line: 3, ShopID: "SH0001", Status: "已完成", OrderNumber: "A2"},
		{Line: 4, ShopID: "SH0001", Status: " PENDING ", OrderNumber: "A3"},
	}
	b := testStage().Filter("in.csv", "", rows)

	require.Equal(t, 2, b.Count())
	assert.Equal(t, "A1", b.Records[0].OrderNumber)
	assert.Equal(t, "A3", b.Records[1].OrderNumber)
	assert.Equal(t, 3, b.Rows)
	assert.Equal(t, 2, b.Pending)
	assert.Empty(t, b.Issues)
}

func TestFilter_DedupFirstWinsInRowOrder(t *testing.T) {
	rows := []Row{
		{Line: 2, ShopID: "SH0001", Status: "待出貨", OrderNumber: "B2", Tracking: "first"},
		{Line: 3, ShopID: "SH0001", Status: "待出貨", OrderNumber: "A1"},
		{Line: 4, ShopID: "SH0004", Status: "待出貨", OrderNumber: "B2", Tracking: "second"},
	}
	b := testStage().Filter("in.csv", "", rows)

	require.Equal(t, 2, b.Count())
	assert.Equal(t, []string{"B2", "A1"}, orderNumbers(b.Records), "encounter order, not sorted")
	assert.Equal(t, "first", b.Records[0].Tracking)
	assert.Equal(t, 1, b.Duplicates)
}

func TestFilter_ShopResolution(t *testing.T) {
	rows := []Row{
		{Line: 2, ShopID: "SH0001", Status: "待出貨", OrderNumber: "A1"},
		{Line: 3, ShopID: "", Status: "待出貨", OrderNumber: "A2"},
		{Line: 4, ShopID: "SH0002", Status: "待出貨", OrderNumber: "A3"},
		{Line: 5, ShopID: "SH0099", Status: "待出貨", OrderNumber: "A4"},
	}

	b := testStage().Filter("orders_SH0004_.csv", "SH0004", rows)
	require.Equal(t, []string{"A1", "A2", "A4"}, orderNumbers(b.Records))

	assert.Equal(t, "台北店", b.Records[0].ShopName)
	assert.Equal(t, "SH0004", b.Records[1].ShopID, "file name token used as fallback")
	assert.Equal(t, "新竹店", b.Records[1].ShopName)
	assert.True(t, b.Records[2].Unresolved)
	assert.Equal(t, "SH0099", b.Records[2].ShopName)

	require.Len(t, b.Issues, 2)
	assert.Equal(t, IssueShopInactive, b.Issues[0].Kind)
	assert.True(t, b.Issues[0].Dropped())
	assert.Equal(t, IssueShopUnresolved, b.Issues[1].Kind)
	assert.False(t, b.Issues[1].Dropped())
}

func TestFilter_ShopMissingIsRowLevel(t *testing.T) {
	rows := []Row{
		{Line: 2, ShopID: "", Status: "待出貨", OrderNumber: "A1"},
		{Line: 3, ShopID: "SH0001", Status: "待出貨", OrderNumber: "A2"},
	}
	b := testStage().Filter("export.csv", "", rows)

	assert.Equal(t, []string{"A2"}, orderNumbers(b.Records))
	require.Len(t, b.Issues, 1)
	assert.Equal(t, IssueShopMissing, b.Issues[0].Kind)
	assert.Equal(t, 2, b.Issues[0].Line)
	assert.Contains(t, b.Issues[0].String(), "order A1 has no shop identifier")
}

func TestFilter_InactiveNeverEmitted(t *testing.T) {
	rows := []Row{
		{Line: 2, ShopID: "SH0002", Status: "待出貨", OrderNumber: "A1"},
		{Line: 3, ShopID: "", Status: "待出貨", OrderNumber: "A2"},
	}
	// Inactive via row field and via file name token.
	b := testStage().Filter("orders_SH0002_.csv", "SH0002", rows)
	assert.Empty(t, b.Records)
	assert.Len(t, b.Issues, 2)
}

func TestFilter_OrderNumberMissing(t *testing.T) {
	b := testStage().Filter("x.csv", "", []Row{{Line: 7, ShopID: "SH0001", Status: "待出貨"}})
	assert.Empty(t, b.Records)
	require.Len(t, b.Issues, 1)
	assert.Equal(t, IssueOrderNumberMissing, b.Issues[0].Kind)
	assert.Equal(t, "line 7: no order number, dropped", b.Issues[0].String())
}

func TestFilter_CleansValues(t *testing.T) {
	b := testStage().Filter("x.csv", "", []Row{{
		Line: 2, ShopID: " SH0001 ", Status: "待出貨", OrderNumber: " A1\t",
		OrderDate: "2025-12-30 10:00 ", Carrier: " 7-ELEVEN", Tracking: "TW123 ",
	}})
	require.Equal(t, 1, b.Count())
	r := b.Records[0]
	assert.Equal(t, "SH0001", r.ShopID)
	assert.Equal(t, "A1", r.OrderNumber)
	assert.Equal(t, "2025-12-30 10:00", r.OrderDate)
	assert.Equal(t, "7-ELEVEN", r.Carrier)
	assert.Equal(t, "TW123", r.Tracking)
	assert.Equal(t, "x.csv", r.Source)
}

func TestFilter_Empty(t *testing.T) {
	b := testStage().Filter("x.csv", "", nil)
	assert.Equal(t, 0, b.Count())
	assert.NotNil(t, b.Records)
}

func TestStatusMatcher_Custom(t *testing.T) {
	m := NewStatusMatcher("To Ship")
	assert.True(t, m.Match("to ship"))
	assert.False(t, m.Match("待出貨"))
}

func TestIssueKindString(t *testing.T) {
	assert.Equal(t, "ROW_SHOP_UNRESOLVED", IssueShopUnresolved.String())
	assert.Equal(t, "ROW_SHOP_MISSING", IssueShopMissing.String())
	assert.Equal(t, "IssueKind(0)", IssueKind(0).String())
}

func orderNumbers(records []Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.OrderNumber
	}
	return out
}
