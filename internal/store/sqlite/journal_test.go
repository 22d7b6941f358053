package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := NewJournal(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func TestJournalRunLifecycle(t *testing.T) {
	j := newJournal(t)
	ctx := context.Background()

	runID, err := j.BeginRun(ctx, "historical")
	require.NoError(t, err)
	require.NotZero(t, runID)

	require.NoError(t, j.RecordAttempt(ctx, runID, "ValidatePrimary", 1, "failure", "table is empty"))
	require.NoError(t, j.RecordAttempt(ctx, runID, "ValidatePrimary", 2, "success", ""))
	require.NoError(t, j.RecordFetch(ctx, runID, "FetchPrimary", "etfdb", "https://etfdb.com/compare/volume/"))
	require.NoError(t, j.FinishRun(ctx, runID, "Done", ""))

	var state string
	var attempts, fetches int
	require.NoError(t, j.conn.QueryRow(`SELECT state FROM runs WHERE id = ?`, runID).Scan(&state))
	require.NoError(t, j.conn.QueryRow(`SELECT COUNT(*) FROM attempts WHERE run_id = ?`, runID).Scan(&attempts))
	require.NoError(t, j.conn.QueryRow(`SELECT COUNT(*) FROM fetches WHERE run_id = ?`, runID).Scan(&fetches))

	require.Equal(t, "Done", state)
	require.Equal(t, 2, attempts)
	require.Equal(t, 1, fetches)
}

func TestJournalSeparateRuns(t *testing.T) {
	j := newJournal(t)
	ctx := context.Background()

	first, err := j.BeginRun(ctx, "historical")
	require.NoError(t, err)
	second, err := j.BeginRun(ctx, "compare")
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	require.NoError(t, j.FinishRun(ctx, first, "Failed", "timestamp gate exhausted"))

	var reason string
	require.NoError(t, j.conn.QueryRow(`SELECT reason FROM runs WHERE id = ?`, first).Scan(&reason))
	require.Equal(t, "timestamp gate exhausted", reason)

	var state string
	require.NoError(t, j.conn.QueryRow(`SELECT state FROM runs WHERE id = ?`, second).Scan(&state))
	require.Equal(t, "running", state, "an unfinished run keeps its initial state")
}
