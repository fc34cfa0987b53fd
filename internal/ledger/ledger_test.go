package ledger

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	l1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, l1.Close())

	l2, err := Open(path)
	require.NoError(t, err)
	defer l2.Close()

	v, err := l2.schemaVersion()
	require.NoError(t, err)
	assert.Equal(t, len(migrations), v)
}

func TestClose_Nil(t *testing.T) {
	var l *Ledger
	assert.NoError(t, l.Close())
}

func TestRunLifecycle(t *testing.T) {
	ctx := context.Background()
	l := createTestLedger(t)
	started := time.Date(2025, 12, 30, 14, 0, 0, 0, time.UTC)

	require.NoError(t, l.BeginRun(ctx, "run-1", started))
	require.NoError(t, l.BeginRun(ctx, "run-1", started.Add(time.Hour)), "repeat is a no-op")

	require.NoError(t, l.RecordOutcome(ctx, Outcome{
		RunID: "run-1", Seq: 2, File: "b.xlsx", Digest: "ef41aa90bc00", Status: StatusSkipped,
		Detail: "duplicate content",
	}))
	require.NoError(t, l.RecordOutcome(ctx, Outcome{
		RunID: "run-1", Seq: 1, File: "a.xlsx", Digest: "ab93f1c2a300", Status: StatusProcessed,
		ShopID: "SH0001", Records: 2, ArchivedAs: "a__sha256_ab93f1c2a3.xlsx",
	}))
	require.NoError(t, l.RecordOutcome(ctx, Outcome{
		RunID: "run-1", Seq: 1, File: "a.xlsx", Status: StatusError,
	}), "duplicate seq ignored")

	require.NoError(t, l.FinishRun(ctx, Run{
		ID: "run-1", FinishedAt: started.Add(time.Minute),
		Processed: 1, Skipped: 1, MergedPath: "/out/m.csv", MergedCount: 2,
	}))

	runs, err := l.Runs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.True(t, started.Equal(runs[0].StartedAt))
	assert.True(t, started.Add(time.Minute).Equal(runs[0].FinishedAt))
	assert.Equal(t, 1, runs[0].Processed)
	assert.Equal(t, 2, runs[0].MergedCount)

	outs, err := l.Outcomes(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, outs, 2)
	assert.Equal(t, "a.xlsx", outs[0].File)
	assert.Equal(t, StatusProcessed, outs[0].Status)
	assert.Equal(t, "b.xlsx", outs[1].File)
}

func TestFinishRun_Unknown(t *testing.T) {
	err := createTestLedger(t).FinishRun(context.Background(), Run{ID: "missing", FinishedAt: time.Now()})
	assert.ErrorContains(t, err, "unknown run")
}

func TestRecordOutcome_BadStatus(t *testing.T) {
	ctx := context.Background()
	l := createTestLedger(t)
	require.NoError(t, l.BeginRun(ctx, "r", time.Now()))
	err := l.RecordOutcome(ctx, Outcome{RunID: "r", Seq: 1, File: "x", Status: "DONE"})
	assert.Error(t, err)
}

func TestRecordOutcome_UnknownRun(t *testing.T) {
	err := createTestLedger(t).RecordOutcome(context.Background(), Outcome{RunID: "nope", Seq: 1, File: "x", Status: StatusError})
	assert.Error(t, err, "foreign key enforced")
}

func TestRuns_NewestFirstAndLimit(t *testing.T) {
	ctx := context.Background()
	l := createTestLedger(t)
	base := time.Date(2025, 12, 30, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"r1", "r2", "r3"} {
		require.NoError(t, l.BeginRun(ctx, id, base.Add(time.Duration(i)*time.Hour)))
	}

	runs, err := l.Runs(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "r3", runs[0].ID)
	assert.Equal(t, "r2", runs[1].ID)
	assert.True(t, runs[0].FinishedAt.IsZero())

	all, err := l.Runs(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestOutcomesForDigest(t *testing.T) {
	ctx := context.Background()
	l := createTestLedger(t)
	require.NoError(t, l.BeginRun(ctx, "r1", time.Now()))
	require.NoError(t, l.BeginRun(ctx, "r2", time.Now()))
	require.NoError(t, l.RecordOutcome(ctx, Outcome{RunID: "r1", Seq: 1, File: "a.xlsx", Digest: "ab93f1c2a3ff", Status: StatusError}))
	require.NoError(t, l.RecordOutcome(ctx, Outcome{RunID: "r2", Seq: 1, File: "a.xlsx", Digest: "ab93f1c2a3ff", Status: StatusProcessed}))
	require.NoError(t, l.RecordOutcome(ctx, Outcome{RunID: "r2", Seq: 2, File: "b.xlsx", Digest: "ef41aa90bcff", Status: StatusProcessed}))

	outs, err := l.OutcomesForDigest(ctx, "ab93f1c2a3")
	require.NoError(t, err)
	require.Len(t, outs, 2)
	assert.Equal(t, "r1", outs[0].RunID)
	assert.Equal(t, StatusProcessed, outs[1].Status)
}
