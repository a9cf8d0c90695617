package pipeline

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/medallion/internal/state"
	"github.com/leapstack-labs/medallion/internal/testutil"
)

// openTestStore returns an in-memory run-history store closed with the test.
func openTestStore(t *testing.T) *state.SQLiteStore {
	t.Helper()
	store := state.NewSQLiteStore(testutil.DiscardLogger())
	require.NoError(t, store.Open(":memory:"))
	t.Cleanup(func() { _ = store.Close() })
	return store
}
