// Package extract is the boundary between raw export files and the order
// pipeline. An Extractor turns one file's bytes into a Table; Columns maps
// a Table's header onto order fields and yields order.Rows.
//
// Nothing here decides what is pending, resolves shops or deduplicates:
// those belong to package order.
package extract
