package couturelite

import (
	"context"
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/alanz0209/KisCoutureApp/couturesync"
)

func TestClientRepo_OfflineCreateQueuesAndTags(t *testing.T) {
	ctx := context.Background()
	te := newTestEngine(t, newFakeServer(t), false)

	created, err := te.Clients.Create(ctx, couturesync.Client{Nom: "Diallo", Prenoms: "Aissatou"})
	require.NoError(t, err)
	require.True(t, couturesync.IsTempID(created.ID))
	require.Equal(t, couturesync.SyncSourceOffline, created.SyncSource)
	require.True(t, created.CreatedAt.Equal(te.clock))

	got, err := te.Clients.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created.ID, got.ID)

	pending, err := te.Queue().All(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, EntityClient, pending[0].Entity)
	require.Equal(t, ActionCreate, pending[0].Action)
}

func TestClientRepo_CreateFallsBackWhenServerRejects(t *testing.T) {
	ctx := context.Background()
	server := newFakeServer(t)
	te := newTestEngine(t, server, true)

	// The fake exposes no create route, so the POST fails and the repo
	// degrades to the offline path: local temp record plus a queued create.
	created, err := te.Clients.Create(ctx, couturesync.Client{Nom: "Kone", Prenoms: "Mariam"})
	require.NoError(t, err)
	require.True(t, couturesync.IsTempID(created.ID))

	pending, err := te.Queue().All(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
}

func TestClientRepo_OfflineUpdateMissingRecord(t *testing.T) {
	ctx := context.Background()
	te := newTestEngine(t, newFakeServer(t), false)

	tel := "0102"
	_, err := te.Clients.Update(ctx, "srv-unknown", couturesync.ClientPatch{Telephone: &tel})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestClientRepo_OfflineUpdatePatchesAndQueues(t *testing.T) {
	ctx := context.Background()
	te := newTestEngine(t, newFakeServer(t), false)

	created, err := te.Clients.Create(ctx, couturesync.Client{Nom: "Toure", Prenoms: "Fatou"})
	require.NoError(t, err)

	te.advance(time.Minute)
	tel := "0999"
	updated, err := te.Clients.Update(ctx, created.ID, couturesync.ClientPatch{Telephone: &tel})
	require.NoError(t, err)
	require.Equal(t, "0999", updated.Telephone)
	require.True(t, updated.UpdatedAt.After(created.UpdatedAt))

	pending, err := te.Queue().All(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2, "create and update queue separately")
}

func TestOrderRepo_OfflineCreateDerivesAmounts(t *testing.T) {
	ctx := context.Background()
	te := newTestEngine(t, newFakeServer(t), false)

	order, err := te.Orders.Create(ctx, couturesync.Order{
		ClientID: "temp_c", MontantTotal: 200, MontantAvance: 200,
	})
	require.NoError(t, err)
	require.Equal(t, float64(0), order.MontantRestant)
	require.Equal(t, couturesync.OrderStatusTermine, order.Status)
	require.True(t, order.CompletedAt.Equal(te.clock))
}

func TestOrderRepo_OfflineListFiltersByStatus(t *testing.T) {
	ctx := context.Background()
	te := newTestEngine(t, newFakeServer(t), false)

	_, err := te.Orders.Create(ctx, couturesync.Order{ClientID: "c", MontantTotal: 100, MontantAvance: 10})
	require.NoError(t, err)
	_, err = te.Orders.Create(ctx, couturesync.Order{ClientID: "c", MontantTotal: 100, MontantAvance: 100})
	require.NoError(t, err)

	enCours, err := te.Orders.List(ctx, couturesync.OrderStatusEnCours)
	require.NoError(t, err)
	require.Len(t, enCours, 1)

	all, err := te.Orders.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestMeasurementRepo_OfflineImageInlinesAsBase64(t *testing.T) {
	ctx := context.Background()
	te := newTestEngine(t, newFakeServer(t), false)

	img := &ImageAttachment{Name: "profil.jpg", Data: []byte{0xFF, 0xD8, 0xFF}}
	m, err := te.Measurements.Create(ctx, couturesync.Measurement{ClientID: "temp_c"}, img)
	require.NoError(t, err)
	require.Equal(t, "profil.jpg", m.ImagePath)
	require.Equal(t, base64.StdEncoding.EncodeToString(img.Data), m.ImageData)
}

func TestMeasurementRepo_RequireServerImagesRefusesOffline(t *testing.T) {
	ctx := context.Background()
	server := newFakeServer(t)

	store := NewMemStore()
	net := NewStaticConnectivity(false)
	config := DefaultConfig()
	config.RequireServerImages = true
	engine := NewEngine(store, NewRemoteAPI(server.srv.URL), net, config, nil)

	img := &ImageAttachment{Name: "profil.jpg", Data: []byte{1, 2, 3}}
	_, err := engine.Measurements.Create(ctx, couturesync.Measurement{ClientID: "c"}, img)
	require.ErrorIs(t, err, ErrOfflineUnavailable)

	// Without an image the offline write is fine.
	m, err := engine.Measurements.Create(ctx, couturesync.Measurement{ClientID: "c"}, nil)
	require.NoError(t, err)
	require.True(t, couturesync.IsTempID(m.ID))
}

func TestMeasurementRepo_TempClientIDStaysLocal(t *testing.T) {
	ctx := context.Background()
	server := newFakeServer(t)
	te := newTestEngine(t, server, true)

	// A temp client exists nowhere but here; the repo must not ask the
	// server for its measurements.
	poitrine := 92.0
	te.net.SetOnline(false)
	m, err := te.Measurements.Create(ctx,
		couturesync.Measurement{ClientID: "temp_c1", Poitrine: &poitrine}, nil)
	require.NoError(t, err)
	te.net.SetOnline(true)

	got, err := te.Measurements.ListByClient(ctx, "temp_c1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, m.ID, got[0].ID)
}

func TestStatsService_OfflineFallbackComputesLocally(t *testing.T) {
	ctx := context.Background()
	te := newTestEngine(t, newFakeServer(t), false)

	_, err := te.Clients.Create(ctx, couturesync.Client{Nom: "Diallo", Prenoms: "Aissatou"})
	require.NoError(t, err)
	clients, err := te.Clients.List(ctx)
	require.NoError(t, err)
	require.Len(t, clients, 1)

	_, err = te.Orders.Create(ctx, couturesync.Order{
		ClientID: clients[0].ID, MontantTotal: 100, MontantAvance: 40,
	})
	require.NoError(t, err)

	st, err := te.Stats.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, st.TotalClients)
	require.Equal(t, 1, st.TotalOrders)
	require.Equal(t, float64(100), st.TotalRevenue)
	require.Equal(t, float64(60), st.TotalRestant)
}

func TestStatsService_OfflineServesCachedSnapshotWhenReplicaEmpty(t *testing.T) {
	ctx := context.Background()
	server := newFakeServer(t)
	server.clients = []couturesync.Client{{ID: "srv-1", Nom: "Diallo", Prenoms: "Aissatou"}}
	server.orders = []couturesync.Order{{
		ID: "srv-2", ClientID: "srv-1", MontantTotal: 100, MontantAvance: 40, MontantRestant: 60,
	}}
	te := newTestEngine(t, server, true)

	// An online fetch caches the server answer without touching the replica.
	st, err := te.Stats.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, st.TotalClients)

	te.net.SetOnline(false)
	st, err = te.Stats.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, st.TotalClients)
	require.Equal(t, float64(100), st.TotalRevenue)
	require.Equal(t, float64(60), st.TotalRestant)
}
