package extract

import (
	"fmt"
	"strings"

	"github.com/roach88/orderingest/internal/order"
	"github.com/roach88/orderingest/internal/textkey"
)

// Field is an order field a column can map onto.
type Field string

const (
	FieldShopID      Field = "shop_id"
	FieldStatus      Field = "status"
	FieldOrderDate   Field = "order_date"
	FieldOrderNumber Field = "order_number"
	FieldCarrier     Field = "carrier"
	FieldTracking    Field = "tracking"
	FieldNote        Field = "note"
)

// Fields lists every field in output order.
var Fields = []Field{
	FieldShopID, FieldStatus, FieldOrderDate, FieldOrderNumber,
	FieldCarrier, FieldTracking, FieldNote,
}

// required fields make the whole file unusable when absent.
var required = map[Field]bool{
	FieldStatus:      true,
	FieldOrderNumber: true,
}

// DefaultAliases are the header names marketplace exports use per field.
var DefaultAliases = map[Field][]string{
	FieldShopID:      {"shop_id", "商店id", "商店代碼", "shop code", "store_id", "商店ID"},
	FieldStatus:      {"訂單狀態", "order_status", "order status", "status", "狀態"},
	FieldOrderDate:   {"訂單日期", "訂單成立日期", "order_date", "order date", "日期", "date"},
	FieldOrderNumber: {"訂單編號", "order_id", "order id", "訂單id", "order_sn"},
	FieldCarrier:     {"寄送方式", "物流公司", "logistics_company", "logistics company", "物流", "shipping_company", "出貨方式"},
	FieldTracking:    {"包裹查詢號碼", "物流單號", "tracking_number", "tracking number", "追蹤號碼", "tracking_id", "追蹤編號"},
	FieldNote:        {"備註", "note", "remark"},
}

// Columns maps header names onto fields.
type Columns struct {
	aliases map[Field]textkey.Set
}

// NewColumns builds a mapper. overrides replace the default aliases of the
// fields they name.
func NewColumns(overrides map[Field][]string) *Columns {
	c := &Columns{aliases: make(map[Field]textkey.Set, len(Fields))}
	for _, f := range Fields {
		names := DefaultAliases[f]
		if o, ok := overrides[f]; ok && len(o) > 0 {
			names = o
		}
		c.aliases[f] = textkey.NewSet(names...)
	}
	return c
}

// Mapping is a header resolved against Columns.
type Mapping struct {
	index   map[Field]int
	Missing []Field // optional fields with no column
}

// Index returns the column for f, or -1.
func (m *Mapping) Index(f Field) int {
	if i, ok := m.index[f]; ok {
		return i
	}
	return -1
}

// Resolve maps header. For each field the leftmost matching column wins.
// A missing required field is an error.
func (c *Columns) Resolve(header []string) (*Mapping, error) {
	m := &Mapping{index: make(map[Field]int)}
	var absent []string
	for _, f := range Fields {
		idx := -1
		for i, h := range header {
			if c.aliases[f].Has(h) {
				idx = i
				break
			}
		}
		switch {
		case idx >= 0:
			m.index[f] = idx
		case required[f]:
			absent = append(absent, string(f))
		default:
			m.Missing = append(m.Missing, f)
		}
	}
	if len(absent) > 0 {
		return nil, fmt.Errorf("extract: missing required columns: %s", strings.Join(absent, ", "))
	}
	return m, nil
}

// Rows maps every table row onto an order.Row.
func (m *Mapping) Rows(t *Table) []order.Row {
	out := make([]order.Row, 0, len(t.Rows))
	get := func(r TableRow, f Field) string { return r.Cell(m.Index(f)) }
	for _, r := range t.Rows {
		out = append(out, order.Row{
			Line:        r.Line,
			ShopID:      get(r, FieldShopID),
			Status:      get(r, FieldStatus),
			OrderDate:   get(r, FieldOrderDate),
			OrderNumber: get(r, FieldOrderNumber),
			Carrier:     get(r, FieldCarrier),
			Tracking:    get(r, FieldTracking),
			Note:        get(r, FieldNote),
		})
	}
	return out
}
