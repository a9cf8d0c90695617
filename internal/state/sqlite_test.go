package state

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/medallion/internal/testutil"
)

func openStore(t *testing.T, path string) *SQLiteStore {
	t.Helper()
	store := NewSQLiteStore(testutil.NewTestLogger(t))
	require.NoError(t, store.Open(path))
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOpen_CreatesSchema(t *testing.T) {
	store := openStore(t, filepath.Join(t.TempDir(), "state.db"))

	runs, err := store.ListRuns(10)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestOpen_InvalidPath(t *testing.T) {
	store := NewSQLiteStore(nil)
	err := store.Open("/nonexistent/dir/state.db")
	assert.Error(t, err)
}

func TestRunLifecycle(t *testing.T) {
	store := openStore(t, ":memory:")

	run, err := store.CreateRun("dev")
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, RunStatusRunning, run.Status)

	require.NoError(t, store.CompleteRun(run.ID, RunStatusCompleted, ""))

	got, err := store.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, RunStatusCompleted, got.Status)
	require.NotNil(t, got.CompletedAt)
	assert.Empty(t, got.Error)
}

func TestCompleteRun_WithError(t *testing.T) {
	store := openStore(t, ":memory:")

	run, err := store.CreateRun("dev")
	require.NoError(t, err)
	require.NoError(t, store.CompleteRun(run.ID, RunStatusFailed, "extract blew up"))

	got, err := store.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, RunStatusFailed, got.Status)
	assert.Equal(t, "extract blew up", got.Error)
}

func TestCompleteRun_Unknown(t *testing.T) {
	store := openStore(t, ":memory:")
	assert.Error(t, store.CompleteRun("no-such-run", RunStatusCompleted, ""))
}

func TestGetRun_NotFound(t *testing.T) {
	store := openStore(t, ":memory:")
	_, err := store.GetRun("missing")
	assert.Error(t, err)
}

func TestGetLatestRun(t *testing.T) {
	store := openStore(t, ":memory:")

	latest, err := store.GetLatestRun("dev")
	require.NoError(t, err)
	assert.Nil(t, latest)

	_, err = store.CreateRun("dev")
	require.NoError(t, err)
	second, err := store.CreateRun("dev")
	require.NoError(t, err)

	latest, err = store.GetLatestRun("dev")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, second.ID, latest.ID)
}

func TestListRuns_LimitAndOrder(t *testing.T) {
	store := openStore(t, ":memory:")

	for i := 0; i < 5; i++ {
		_, err := store.CreateRun("dev")
		require.NoError(t, err)
	}

	runs, err := store.ListRuns(3)
	require.NoError(t, err)
	assert.Len(t, runs, 3)
}

func TestRecordAndListStages(t *testing.T) {
	store := openStore(t, ":memory:")

	run, err := store.CreateRun("dev")
	require.NoError(t, err)

	for _, stage := range []string{"extract", "clean", "model"} {
		require.NoError(t, store.RecordStage(&StageRun{
			RunID:   run.ID,
			Stage:   stage,
			Status:  StageStatusSuccess,
			RowsIn:  10,
			RowsOut: 10,
		}))
	}

	stages, err := store.ListStageRuns(run.ID)
	require.NoError(t, err)
	require.Len(t, stages, 3)
	assert.Equal(t, "extract", stages[0].Stage)
	assert.Equal(t, "model", stages[2].Stage)
	assert.Equal(t, 10, stages[1].RowsIn)
}
