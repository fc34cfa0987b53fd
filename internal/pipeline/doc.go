// Package pipeline runs one ingestion batch.
//
// A run scans the inbound directory, fingerprints and classifies every
// file, converts the new ones, commits each to the archive only after its
// output is on disk, and finally merges everything converted in this run
// into a single sorted output. Each file moves through a fixed set of
// states (see State); a failing file stops where it is and stays in the
// inbound directory for the next run.
//
// Files are classified sequentially in discovery order, so the first of
// two identical inputs always wins the claim. Conversion may run on
// several workers. The merge waits for every file to reach a terminal
// state.
package pipeline
