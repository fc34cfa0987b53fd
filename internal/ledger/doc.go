// Package ledger provides an optional SQLite record of runs and per-file
// outcomes.
//
// The ledger is an audit trail, not a source of truth. Whether content has
// been processed is decided by the archive directory alone; deleting the
// ledger database changes nothing about what a run will do.
//
// # Tables
//
//   - runs: one row per run, keyed by the run's UUIDv7
//   - file_outcomes: one row per inbound file per run, keyed by
//     (run_id, seq) where seq is the file's discovery position
//
// Writes use ON CONFLICT DO NOTHING so a retried write is harmless. Reads
// order by seq, then id, so listings are stable.
//
// # Database Configuration
//
//   - WAL mode
//   - synchronous=NORMAL
//   - busy_timeout=5000
//   - foreign_keys=ON
package ledger
