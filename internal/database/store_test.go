package database_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/faxinabot/internal/database"
)

func dhaka(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Dhaka")
	require.NoError(t, err)
	return loc
}

func openStore(t *testing.T, path string) (database.Store, *sqlx.DB) {
	t.Helper()
	db, err := database.NewDB(path)
	require.NoError(t, err)
	return database.NewStore(db, nil, dhaka(t)), db
}

func newTestStore(t *testing.T) database.Store {
	t.Helper()
	store, db := openStore(t, filepath.Join(t.TempDir(), "test.db"))
	t.Cleanup(func() { database.CloseDB(db) })
	return store
}

func TestCaptureMessage_Idempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)

	first := time.Date(2025, 5, 1, 10, 0, 0, 0, dhaka(t))
	require.NoError(t, store.CaptureMessage(ctx, -100, 7, first))
	require.NoError(t, store.CaptureMessage(ctx, -100, 7, first.Add(time.Hour)))

	pending, err := store.ListPendingMessages(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, int64(-100), pending[0].GroupID)
	assert.Equal(t, 7, pending[0].MessageID)
	assert.True(t, first.Equal(pending[0].CapturedAt), "duplicate capture must keep the original timestamp")
	assert.Equal(t, "Asia/Dhaka", pending[0].CapturedAt.Location().String())
}

func TestCaptureMessage_Validation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)
	now := time.Now()

	assert.Error(t, store.CaptureMessage(ctx, 0, 1, now))
	assert.Error(t, store.CaptureMessage(ctx, -1, 0, now))
	assert.Error(t, store.CaptureMessage(ctx, -1, 1, time.Time{}))
}

func TestListPendingMessages_InsertionOrder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)
	base := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.CaptureMessage(ctx, -2, 5, base.Add(2*time.Hour)))
	require.NoError(t, store.CaptureMessage(ctx, -1, 3, base))
	require.NoError(t, store.CaptureMessage(ctx, -2, 6, base.Add(time.Hour)))

	pending, err := store.ListPendingMessages(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 3)
	assert.Equal(t, []int{5, 3, 6}, []int{pending[0].MessageID, pending[1].MessageID, pending[2].MessageID})
}

func TestListEligibleMessages_Cutoff(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)
	cutoff := time.Date(2025, 5, 2, 0, 0, 0, 0, dhaka(t))

	require.NoError(t, store.CaptureMessage(ctx, -1, 1, cutoff.Add(-time.Hour)))
	require.NoError(t, store.CaptureMessage(ctx, -1, 2, cutoff))
	require.NoError(t, store.CaptureMessage(ctx, -1, 3, cutoff.Add(time.Millisecond)))
	// Same instant written from a different zone must compare equal.
	require.NoError(t, store.CaptureMessage(ctx, -1, 4, cutoff.In(time.UTC)))

	eligible, err := store.ListEligibleMessages(ctx, cutoff)
	require.NoError(t, err)

	var ids []int
	for _, m := range eligible {
		ids = append(ids, m.MessageID)
	}
	assert.Equal(t, []int{1, 2, 4}, ids)
}

func TestRemoveMessage_Idempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.CaptureMessage(ctx, -1, 1, time.Now()))
	require.NoError(t, store.CaptureMessage(ctx, -1, 2, time.Now()))

	require.NoError(t, store.RemoveMessage(ctx, -1, 1))
	require.NoError(t, store.RemoveMessage(ctx, -1, 1))
	require.NoError(t, store.RemoveMessage(ctx, -999, 42))

	pending, err := store.ListPendingMessages(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 2, pending[0].MessageID)

	count, err := store.CountPendingMessages(ctx, -1)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestGroupEnablement(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)

	enabled, err := store.IsGroupEnabled(ctx, -10)
	require.NoError(t, err)
	assert.False(t, enabled)

	require.NoError(t, store.EnableGroup(ctx, -10))
	require.NoError(t, store.EnableGroup(ctx, -10))
	require.NoError(t, store.EnableGroup(ctx, -20))

	enabled, err = store.IsGroupEnabled(ctx, -10)
	require.NoError(t, err)
	assert.True(t, enabled)

	groups, err := store.ListEnabledGroups(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, int64(-20), groups[0].GroupID)
	assert.Equal(t, int64(-10), groups[1].GroupID)

	require.NoError(t, store.DisableGroup(ctx, -10))
	require.NoError(t, store.DisableGroup(ctx, -10))

	enabled, err = store.IsGroupEnabled(ctx, -10)
	require.NoError(t, err)
	assert.False(t, enabled)

	assert.Error(t, store.EnableGroup(ctx, 0))
}

func TestDisableGroup_KeepsPendingMessages(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.EnableGroup(ctx, -5))
	require.NoError(t, store.CaptureMessage(ctx, -5, 11, time.Now()))
	require.NoError(t, store.DisableGroup(ctx, -5))

	count, err := store.CountPendingMessages(ctx, -5)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestStore_SurvivesRestart(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "restart.db")
	captured := time.Date(2025, 5, 1, 12, 30, 0, 0, dhaka(t))

	store, db := openStore(t, path)
	require.NoError(t, store.EnableGroup(ctx, -77))
	require.NoError(t, store.CaptureMessage(ctx, -77, 900, captured))
	database.CloseDB(db)

	reopened, db := openStore(t, path)
	t.Cleanup(func() { database.CloseDB(db) })

	enabled, err := reopened.IsGroupEnabled(ctx, -77)
	require.NoError(t, err)
	assert.True(t, enabled)

	eligible, err := reopened.ListEligibleMessages(ctx, captured.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, eligible, 1)
	assert.Equal(t, 900, eligible[0].MessageID)
	assert.True(t, captured.Equal(eligible[0].CapturedAt))
}

func TestRunSQLMaintenance(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)

	require.NoError(t, store.Ping(context.Background()))
	require.NoError(t, store.RunSQLMaintenance(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, store.RunSQLMaintenance(ctx), context.Canceled)
}

func TestExtractDBNameFromPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "plain path", input: "storage.db", expected: "storage.db"},
		{name: "file prefix", input: "file:data/storage.db", expected: "data/storage.db"},
		{name: "query params", input: "file:storage.db?cache=shared", expected: "storage.db"},
		{name: "escaped", input: "my%20bot.db", expected: "my bot.db"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, database.ExtractDBNameFromPath(tt.input))
		})
	}
}
