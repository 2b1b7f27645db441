package couturelite

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/alanz0209/KisCoutureApp/couturesync"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store, err := NewSQLiteStore(db)
	require.NoError(t, err)
	return store
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t)

	data, err := store.Get(ctx, CollectionClients)
	require.NoError(t, err)
	require.Nil(t, data, "unwritten collection reads as nil")

	require.NoError(t, store.Set(ctx, CollectionClients, []byte(`[{"id":"c1"}]`)))
	data, err = store.Get(ctx, CollectionClients)
	require.NoError(t, err)
	require.JSONEq(t, `[{"id":"c1"}]`, string(data))

	// Overwrite replaces, not appends.
	require.NoError(t, store.Set(ctx, CollectionClients, []byte(`[]`)))
	data, err = store.Get(ctx, CollectionClients)
	require.NoError(t, err)
	require.JSONEq(t, `[]`, string(data))
}

func TestLoadCollection(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()

	t.Run("missing collection is an empty slice", func(t *testing.T) {
		clients, err := loadCollection[couturesync.Client](ctx, store, CollectionClients)
		require.NoError(t, err)
		require.NotNil(t, clients)
		require.Empty(t, clients)
	})

	t.Run("typed round trip", func(t *testing.T) {
		in := []couturesync.Client{{ID: "temp_1", Nom: "Diallo", Prenoms: "Aissatou",
			SyncSource: couturesync.SyncSourceOffline}}
		require.NoError(t, saveCollection(ctx, store, CollectionClients, in))

		out, err := loadCollection[couturesync.Client](ctx, store, CollectionClients)
		require.NoError(t, err)
		require.Equal(t, in, out)
	})

	t.Run("malformed payload is rejected", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, CollectionOrders, []byte(`{"not":"an array"}`)))
		_, err := loadCollection[couturesync.Order](ctx, store, CollectionOrders)
		require.ErrorContains(t, err, "malformed")
	})
}

func TestSyncState(t *testing.T) {
	ctx := context.Background()
	state := NewSyncState(NewMemStore())

	last, err := state.LastSync(ctx)
	require.NoError(t, err)
	require.True(t, last.IsZero())

	stamp := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, state.SetLastSync(ctx, stamp))
	last, err = state.LastSync(ctx)
	require.NoError(t, err)
	require.True(t, last.Equal(stamp))

	// Attempt timestamps are tracked independently.
	attempt, err := state.LastSyncAttempt(ctx)
	require.NoError(t, err)
	require.True(t, attempt.IsZero())

	require.NoError(t, state.SetLastSyncAttempt(ctx, stamp.Add(time.Minute)))
	attempt, err = state.LastSyncAttempt(ctx)
	require.NoError(t, err)
	require.True(t, attempt.Equal(stamp.Add(time.Minute)))

	last, err = state.LastSync(ctx)
	require.NoError(t, err)
	require.True(t, last.Equal(stamp))
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := t.TempDir() + "/replica.db"

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	store, err := NewSQLiteStore(db)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, CollectionPending, []byte(`[{"entity_type":"client"}]`)))
	require.NoError(t, db.Close())

	db, err = sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()
	store, err = NewSQLiteStore(db)
	require.NoError(t, err)

	data, err := store.Get(ctx, CollectionPending)
	require.NoError(t, err)
	require.JSONEq(t, `[{"entity_type":"client"}]`, string(data))
}
