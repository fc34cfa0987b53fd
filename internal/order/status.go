package order

import "github.com/roach88/orderingest/internal/textkey"

// DefaultPendingStatuses are the status values meaning "waiting to ship" in
// the marketplace exports this pipeline reads.
var DefaultPendingStatuses = []string{
	"待出貨",
	"待處理",
	"pending",
	"待出貨中",
	"待發貨",
	"待寄出",
	"待出貨（待處理）",
}

// StatusMatcher selects pending-shipment rows. Matching ignores case,
// surrounding space and full-width forms.
type StatusMatcher struct {
	set textkey.Set
}

// NewStatusMatcher matches any of statuses, or DefaultPendingStatuses when
// none are given.
func NewStatusMatcher(statuses ...string) StatusMatcher {
	if len(statuses) == 0 {
		statuses = DefaultPendingStatuses
	}
	return StatusMatcher{set: textkey.NewSet(statuses...)}
}

// Match reports whether status is a pending-shipment status.
func (m StatusMatcher) Match(status string) bool {
	return m.set.Has(status)
}
