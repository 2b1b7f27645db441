package couturelite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/alanz0209/KisCoutureApp/couturesync"
)

func newTestQueue() (*PendingQueue, *time.Time) {
	clock := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	q := &PendingQueue{store: NewMemStore(), now: func() time.Time { return clock }}
	return q, &clock
}

func TestPendingQueue_AppendKeepsEveryEntry(t *testing.T) {
	ctx := context.Background()
	q, clock := newTestQueue()

	c := couturesync.Client{ID: "temp_1", Nom: "Diallo", Prenoms: "Aissatou"}
	require.NoError(t, q.Append(ctx, EntityClient, ActionCreate, c))
	*clock = clock.Add(time.Minute)
	require.NoError(t, q.Append(ctx, EntityClient, ActionUpdate, c))

	changes, err := q.All(ctx)
	require.NoError(t, err)
	require.Len(t, changes, 2, "no dedup: create then update are two entries")
	require.Equal(t, ActionCreate, changes[0].Action)
	require.Equal(t, ActionUpdate, changes[1].Action)
	require.True(t, changes[1].Timestamp.After(changes[0].Timestamp))
	require.Equal(t, "temp_1", changes[0].RecordID())
}

func TestPendingQueue_DrainAllClears(t *testing.T) {
	ctx := context.Background()
	q, _ := newTestQueue()

	require.NoError(t, q.Append(ctx, EntityOrder, ActionDelete, deleteRef{ID: "srv-1"}))

	drained, err := q.DrainAll(ctx)
	require.NoError(t, err)
	require.Len(t, drained, 1)
	require.Equal(t, "srv-1", drained[0].RecordID())

	remaining, err := q.All(ctx)
	require.NoError(t, err)
	require.Empty(t, remaining)
}

func TestPendingQueue_RequeuePreservesTimestamps(t *testing.T) {
	ctx := context.Background()
	q, clock := newTestQueue()

	require.NoError(t, q.Append(ctx, EntityClient, ActionDelete, deleteRef{ID: "srv-1"}))
	original := *clock

	drained, err := q.DrainAll(ctx)
	require.NoError(t, err)

	*clock = clock.Add(time.Hour)
	require.NoError(t, q.Requeue(ctx, drained))

	changes, err := q.All(ctx)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	require.True(t, changes[0].Timestamp.Equal(original), "requeue must not restamp")
}

func TestPendingChange_RecordIDMalformedPayload(t *testing.T) {
	ch := PendingChange{Payload: []byte(`not json`)}
	require.Empty(t, ch.RecordID())
}
