package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustSorter(t *testing.T, locale string) *Sorter {
	t.Helper()
	s, err := NewSorter(locale)
	require.NoError(t, err)
	return s
}

func TestMerge_CrossInputDedup(t *testing.T) {
	first := &Batch{Source: "ab93f1c2a3.xlsx", Records: []Record{
		{ShopName: "North", OrderNumber: "A1", Source: "first"},
		{ShopName: "North", OrderNumber: "A2", Source: "first"},
	}}
	second := &Batch{Source: "ef41aa90bc.xlsx", Records: []Record{
		{ShopName: "North", OrderNumber: "A2", Source: "second"},
		{ShopName: "North", OrderNumber: "A3", Source: "second"},
	}}

	m := Merge([]*Batch{first, second}, mustSorter(t, "en"))

	assert.Equal(t, []string{"A1", "A2", "A3"}, orderNumbers(m.Records))
	assert.Equal(t, "first", m.Records[1].Source, "A2 comes from the first input in discovery order")
	assert.Equal(t, 4, m.Input)
	assert.Equal(t, 1, m.Duplicates)
}

func TestMerge_DiscoveryOrderDecidesWinner(t *testing.T) {
	a := &Batch{Records: []Record{{ShopName: "S", OrderNumber: "X", Tracking: "from-a"}}}
	b := &Batch{Records: []Record{{ShopName: "S", OrderNumber: "X", Tracking: "from-b"}}}

	m := Merge([]*Batch{b, a}, mustSorter(t, "en"))
	require.Len(t, m.Records, 1)
	assert.Equal(t, "from-b", m.Records[0].Tracking)
}

func TestMerge_Empty(t *testing.T) {
	m := Merge(nil, mustSorter(t, ""))
	assert.Empty(t, m.Records)
	assert.Equal(t, 0, m.Input)

	m = Merge([]*Batch{nil, {Source: "empty"}}, mustSorter(t, ""))
	assert.Empty(t, m.Records)
}

func TestSorter_CompositeKey(t *testing.T) {
	records := []Record{
		{ShopName: "beta", OrderDate: "2025-12-30", Carrier: "B", OrderNumber: "1"},
		{ShopName: "Alpha", OrderDate: "2025-12-31", Carrier: "A", OrderNumber: "2"},
		{ShopName: "alpha", OrderDate: "2025-12-30", Carrier: "Z", OrderNumber: "3"},
		{ShopName: "alpha", OrderDate: "2025-12-30", Carrier: "C", OrderNumber: "4"},
		{ShopName: "", OrderDate: "2025-01-01", Carrier: "A", OrderNumber: "5"},
	}
	mustSorter(t, "en").Sort(records)

	assert.Equal(t, []string{"4", "3", "2", "1", "5"}, orderNumbers(records))
}

func TestSorter_LocaleAwareNames(t *testing.T) {
	// Byte order puts "Zeta" before "apple"; collation does not.
	records := []Record{
		{ShopName: "Zeta", OrderNumber: "1"},
		{ShopName: "apple", OrderNumber: "2"},
		{ShopName: "Éclair", OrderNumber: "3"},
	}
	mustSorter(t, "en").Sort(records)
	assert.Equal(t, []string{"2", "3", "1"}, orderNumbers(records))
}

func TestSorter_Stable(t *testing.T) {
	var records []Record
	for _, n := range []string{"5", "1", "4", "2", "3"} {
		records = append(records, Record{ShopName: "Same", OrderDate: "2025-12-30", Carrier: "X", OrderNumber: n})
	}
	mustSorter(t, "en").Sort(records)
	assert.Equal(t, []string{"5", "1", "4", "2", "3"}, orderNumbers(records))
}

func TestSorter_DatesChronological(t *testing.T) {
	records := []Record{
		{ShopName: "S", OrderDate: "2025/12/9", OrderNumber: "late"},
		{ShopName: "S", OrderDate: "2025/1/10", OrderNumber: "early"},
		{ShopName: "S", OrderDate: "", OrderNumber: "none"},
	}
	mustSorter(t, "en").Sort(records)
	assert.Equal(t, []string{"early", "late", "none"}, orderNumbers(records))
}

func TestSorter_UnparseableDatesAfterParseable(t *testing.T) {
	records := []Record{
		{ShopName: "S", OrderDate: "2024/1/5x", OrderNumber: "garbled"},
		{ShopName: "S", OrderDate: "2024/1/10", OrderNumber: "tenth"},
		{ShopName: "S", OrderDate: "2024/1/9", OrderNumber: "ninth"},
		{ShopName: "S", OrderDate: "soon", OrderNumber: "text"},
	}
	mustSorter(t, "en").Sort(records)
	assert.Equal(t, []string{"ninth", "tenth", "garbled", "text"}, orderNumbers(records))
}

func TestCompareDates_Transitive(t *testing.T) {
	dates := []string{"2024/1/10", "2024/1/5x", "2024/1/9", "2024-01-09 08:00", "soon"}
	for _, a := range dates {
		for _, b := range dates {
			for _, c := range dates {
				if compareDates(a, b) < 0 && compareDates(b, c) < 0 {
					assert.Negative(t, compareDates(a, c), "%q < %q < %q", a, b, c)
				}
			}
			assert.Equal(t, -compareDates(a, b), compareDates(b, a), "%q vs %q", a, b)
		}
	}
}

func TestNewSorter_BadLocale(t *testing.T) {
	_, err := NewSorter("not a locale!")
	assert.Error(t, err)
}

func TestDedup(t *testing.T) {
	kept, dropped := Dedup([]Record{{OrderNumber: "a"}, {OrderNumber: "b"}, {OrderNumber: "a"}})
	assert.Equal(t, []string{"a", "b"}, orderNumbers(kept))
	assert.Equal(t, 1, dropped)
}
