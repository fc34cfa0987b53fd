package ledger

import (
	"context"
	"fmt"
	"time"
)

// Outcome statuses, matching the audit log.
const (
	StatusProcessed = "PROCESSED"
	StatusSkipped   = "SKIPPED_DUPLICATE"
	StatusError     = "ERROR"
)

// Run is one row of the runs table.
type Run struct {
	ID          string    `json:"id"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"` // zero while running or after a crash
	Processed   int       `json:"processed"`
	Skipped     int       `json:"skipped"`
	Errored     int       `json:"errored"`
	MergedPath  string    `json:"merged_path,omitempty"`
	MergedCount int       `json:"merged_count"`
}

// Outcome is one file's terminal state in a run.
type Outcome struct {
	RunID      string `json:"run_id"`
	Seq        int    `json:"seq"`
	File       string `json:"file"`
	Digest     string `json:"digest,omitempty"`
	Status     string `json:"status"`
	ShopID     string `json:"shop_id"`
	Detail     string `json:"detail,omitempty"`
	Records    int    `json:"records"`
	ArchivedAs string `json:"archived_as,omitempty"`
}

// timeLayout is fixed-width so stored times sort as strings.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// BeginRun inserts a run row. A repeated BeginRun for the same ID is a
// no-op.
func (l *Ledger) BeginRun(ctx context.Context, id string, started time.Time) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO runs (id, started_at) VALUES (?, ?)
		ON CONFLICT(id) DO NOTHING
	`, id, started.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("begin run: %w", err)
	}
	return nil
}

// RecordOutcome inserts one file outcome. Duplicate (run, seq) pairs are
// ignored.
func (l *Ledger) RecordOutcome(ctx context.Context, o Outcome) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO file_outcomes
		(run_id, seq, file, digest, status, shop_id, detail, records, archived_as)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, seq) DO NOTHING
	`,
		o.RunID,
		o.Seq,
		o.File,
		o.Digest,
		o.Status,
		o.ShopID,
		o.Detail,
		o.Records,
		o.ArchivedAs,
	)
	if err != nil {
		return fmt.Errorf("record outcome: %w", err)
	}
	return nil
}

// FinishRun stores the run's totals.
func (l *Ledger) FinishRun(ctx context.Context, r Run) error {
	res, err := l.db.ExecContext(ctx, `
		UPDATE runs SET
			finished_at = ?, processed = ?, skipped = ?, errored = ?,
			merged_path = ?, merged_count = ?
		WHERE id = ?
	`,
		r.FinishedAt.UTC().Format(timeLayout),
		r.Processed,
		r.Skipped,
		r.Errored,
		r.MergedPath,
		r.MergedCount,
		r.ID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("finish run: unknown run %s", r.ID)
	}
	return nil
}

// Runs returns the most recent runs, newest first. limit <= 0 means all.
func (l *Ledger) Runs(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, started_at, finished_at, processed, skipped, errored, merged_path, merged_count
		FROM runs
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var started, finished string
		if err := rows.Scan(&r.ID, &started, &finished, &r.Processed, &r.Skipped, &r.Errored, &r.MergedPath, &r.MergedCount); err != nil {
			return nil, fmt.Errorf("list runs: scan: %w", err)
		}
		if r.StartedAt, err = parseTime(started); err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		if r.FinishedAt, err = parseTime(finished); err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Outcomes returns a run's file outcomes in discovery order.
func (l *Ledger) Outcomes(ctx context.Context, runID string) ([]Outcome, error) {
	return l.queryOutcomes(ctx, `WHERE run_id = ? ORDER BY seq ASC, id ASC`, runID)
}

// OutcomesForDigest returns every outcome recorded for content whose full
// digest starts with prefix, oldest first.
func (l *Ledger) OutcomesForDigest(ctx context.Context, prefix string) ([]Outcome, error) {
	return l.queryOutcomes(ctx, `WHERE digest LIKE ? || '%' ORDER BY id ASC`, prefix)
}

func (l *Ledger) queryOutcomes(ctx context.Context, where string, args ...any) ([]Outcome, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT run_id, seq, file, digest, status, shop_id, detail, records, archived_as
		FROM file_outcomes `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("list outcomes: %w", err)
	}
	defer rows.Close()

	var out []Outcome
	for rows.Next() {
		var o Outcome
		if err := rows.Scan(&o.RunID, &o.Seq, &o.File, &o.Digest, &o.Status, &o.ShopID, &o.Detail, &o.Records, &o.ArchivedAs); err != nil {
			return nil, fmt.Errorf("list outcomes: scan: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(timeLayout, s)
}
