package order

// Row is one raw row handed over by an extractor, already mapped onto the
// fields the pipeline understands. Fields not present in the source are
// empty.
type Row struct {
	Line        int // 1-based source line, header included
	ShopID      string
	Status      string
	OrderDate   string
	OrderNumber string
	Carrier     string
	Tracking    string
	Note        string
}

// Record is an order that survived filtering.
type Record struct {
	ShopID      string
	ShopName    string
	OrderDate   string
	OrderNumber string
	Carrier     string
	Tracking    string
	Note        string

	// Source is the base name of the input the record came from.
	Source string

	// Unresolved is set when the shop identifier has no directory entry;
	// ShopName then carries the identifier itself.
	Unresolved bool
}
