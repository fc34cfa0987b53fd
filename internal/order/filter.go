package order

import (
	"fmt"

	"github.com/roach88/orderingest/internal/shops"
	"github.com/roach88/orderingest/internal/textkey"
)

// Directory resolves shop identifiers.
type Directory interface {
	Resolve(id string) (shops.Entry, shops.Status)
}

// IssueKind classifies a row-level problem.
type IssueKind int

const (
	// IssueShopUnresolved: the identifier is not in the directory. The row
	// is kept.
	IssueShopUnresolved IssueKind = iota + 1
	// IssueShopMissing: neither the row nor the file name carries an
	// identifier. The row is dropped.
	IssueShopMissing
	// IssueShopInactive: the identifier belongs to a switched-off shop.
	// The row is dropped.
	IssueShopInactive
	// IssueOrderNumberMissing: the row has no order number to dedup on.
	// The row is dropped.
	IssueOrderNumberMissing
)

func (k IssueKind) String() string {
	switch k {
	case IssueShopUnresolved:
		return "ROW_SHOP_UNRESOLVED"
	case IssueShopMissing:
		return "ROW_SHOP_MISSING"
	case IssueShopInactive:
		return "ROW_SHOP_INACTIVE"
	case IssueOrderNumberMissing:
		return "ROW_ORDER_NUMBER_MISSING"
	}
	return fmt.Sprintf("IssueKind(%d)", int(k))
}

// Issue is a row-level warning or error. Issues never abort the file.
type Issue struct {
	Kind        IssueKind
	Line        int
	ShopID      string
	OrderNumber string
}

// Dropped reports whether the row was excluded from output.
func (i Issue) Dropped() bool {
	return i.Kind != IssueShopUnresolved
}

func (i Issue) String() string {
	switch i.Kind {
	case IssueShopUnresolved:
		return fmt.Sprintf("line %d: shop %s not in directory, kept", i.Line, i.ShopID)
	case IssueShopMissing:
		return fmt.Sprintf("line %d: order %s has no shop identifier in row or file name, dropped", i.Line, i.OrderNumber)
	case IssueShopInactive:
		return fmt.Sprintf("line %d: shop %s is inactive, order %s dropped", i.Line, i.ShopID, i.OrderNumber)
	case IssueOrderNumberMissing:
		return fmt.Sprintf("line %d: no order number, dropped", i.Line)
	}
	return fmt.Sprintf("line %d: %s", i.Line, i.Kind)
}

// Batch is the filtered, deduplicated output of one input.
type Batch struct {
	Source  string
	Records []Record
	Issues  []Issue

	Rows       int // rows handed in
	Pending    int // rows with a pending status
	Duplicates int // pending rows dropped as repeated order numbers
}

// Count returns the number of records emitted.
func (b *Batch) Count() int {
	return len(b.Records)
}

// Stage is the per-input filter/dedup stage.
type Stage struct {
	Directory Directory
	Pending   StatusMatcher
}

// Filter runs the stage over rows from source. fallbackShopID is the
// identifier embedded in the input's name; it is consulted only for rows
// that carry none themselves.
//
// Steps, in order: keep pending rows; resolve the shop; drop repeated order
// numbers keeping the first in row order.
func (s *Stage) Filter(source, fallbackShopID string, rows []Row) *Batch {
	b := &Batch{Source: source, Rows: len(rows)}
	var kept []Record
	for _, row := range rows {
		if !s.Pending.Match(row.Status) {
			continue
		}
		b.Pending++

		rec, issue, ok := s.resolve(source, fallbackShopID, row)
		if issue != nil {
			b.Issues = append(b.Issues, *issue)
		}
		if ok {
			kept = append(kept, rec)
		}
	}
	b.Records, b.Duplicates = Dedup(kept)
	return b
}

func (s *Stage) resolve(source, fallbackShopID string, row Row) (Record, *Issue, bool) {
	rec := Record{
		ShopID:      textkey.Clean(row.ShopID),
		OrderDate:   textkey.Clean(row.OrderDate),
		OrderNumber: textkey.Clean(row.OrderNumber),
		Carrier:     textkey.Clean(row.Carrier),
		Tracking:    textkey.Clean(row.Tracking),
		Note:        textkey.Clean(row.Note),
		Source:      source,
	}
	if rec.ShopID == "" {
		rec.ShopID = textkey.Clean(fallbackShopID)
	}
	if rec.ShopID == "" {
		return Record{}, &Issue{Kind: IssueShopMissing, Line: row.Line, OrderNumber: rec.OrderNumber}, false
	}
	if rec.OrderNumber == "" {
		return Record{}, &Issue{Kind: IssueOrderNumberMissing, Line: row.Line, ShopID: rec.ShopID}, false
	}

	entry, status := s.Directory.Resolve(rec.ShopID)
	switch status {
	case shops.Active:
		rec.ShopName = entry.Name
		return rec, nil, true
	case shops.Inactive:
		return Record{}, &Issue{Kind: IssueShopInactive, Line: row.Line, ShopID: rec.ShopID, OrderNumber: rec.OrderNumber}, false
	default:
		rec.ShopName = rec.ShopID
		rec.Unresolved = true
		return rec, &Issue{Kind: IssueShopUnresolved, Line: row.Line, ShopID: rec.ShopID, OrderNumber: rec.OrderNumber}, true
	}
}

// Dedup drops records whose order number was already seen, keeping the
// first. Order is preserved.
func Dedup(records []Record) (kept []Record, dropped int) {
	seen := make(map[string]struct{}, len(records))
	kept = make([]Record, 0, len(records))
	for _, r := range records {
		if _, dup := seen[r.OrderNumber]; dup {
			dropped++
			continue
		}
		seen[r.OrderNumber] = struct{}{}
		kept = append(kept, r)
	}
	return kept, dropped
}
