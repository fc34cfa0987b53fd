// Package order holds the order data model and the two record stages of a
// run: the per-input filter/dedup stage and the cross-input merge/sort stage.
//
// Order numbers are the global dedup key. Whenever two records share one,
// the record met first in processing order is kept and the rest are dropped
// silently. Processing order inside an input is row order; across inputs it
// is the order the inputs were discovered.
package order
