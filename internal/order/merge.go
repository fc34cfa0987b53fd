package order

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// DefaultLocale orders shop names the way the shop directory's users read
// them.
const DefaultLocale = "zh-Hant"

// dateLayouts are the order-date formats seen in marketplace exports.
var dateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	"2006/01/02",
	"2006/1/2 15:04",
	"2006/1/2",
	time.RFC3339,
}

// Sorter orders merged records by shop name (locale collation), order date,
// then carrier. Empty keys sort after non-empty ones.
//
// A Sorter is not safe for concurrent use.
type Sorter struct {
	coll *collate.Collator
}

// NewSorter returns a Sorter collating shop names for locale (BCP 47).
func NewSorter(locale string) (*Sorter, error) {
	if locale == "" {
		locale = DefaultLocale
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("sort locale %q: %w", locale, err)
	}
	return &Sorter{coll: collate.New(tag)}, nil
}

// Compare returns -1, 0 or +1.
func (s *Sorter) Compare(a, b Record) int {
	if c := emptyLast(a.ShopName, b.ShopName, s.coll.CompareString); c != 0 {
		return c
	}
	if c := emptyLast(a.OrderDate, b.OrderDate, compareDates); c != 0 {
		return c
	}
	return emptyLast(a.Carrier, b.Carrier, strings.Compare)
}

// Sort orders records in place. The sort is stable: records with equal
// keys keep their processing order.
func (s *Sorter) Sort(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return s.Compare(records[i], records[j]) < 0
	})
}

func emptyLast(a, b string, cmp func(a, b string) int) int {
	switch {
	case a == "" && b == "":
		return 0
	case a == "":
		return 1
	case b == "":
		return -1
	}
	return cmp(a, b)
}

// compareDates orders parseable dates chronologically, ahead of
// unparseable ones, which compare as plain strings.
func compareDates(a, b string) int {
	ta, okA := parseDate(a)
	tb, okB := parseDate(b)
	switch {
	case okA && okB:
		return ta.Compare(tb)
	case okA:
		return -1
	case okB:
		return 1
	}
	return strings.Compare(a, b)
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Merged is the result of the cross-input merge stage.
type Merged struct {
	Records    []Record
	Input      int // records across all batches before global dedup
	Duplicates int // records dropped as repeated order numbers across inputs
}

// Merge concatenates batches in the given order, drops repeated order
// numbers keeping the first, and sorts the survivors. Batches must be in
// discovery order.
func Merge(batches []*Batch, sorter *Sorter) *Merged {
	var all []Record
	for _, b := range batches {
		if b == nil {
			continue
		}
		all = append(all, b.Records...)
	}
	kept, dropped := Dedup(all)
	sorter.Sort(kept)
	return &Merged{Records: kept, Input: len(all), Duplicates: dropped}
}
