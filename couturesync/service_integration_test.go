package couturesync

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// serviceHarness spins up a throwaway PostgreSQL and a Service on top of it.
type serviceHarness struct {
	t       *testing.T
	ctx     context.Context
	pool    *pgxpool.Pool
	service *Service
}

func newServiceHarness(t *testing.T) *serviceHarness {
	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}
	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("kiscouture_test"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
	service, err := NewService(ctx, pool, logger)
	require.NoError(t, err)

	return &serviceHarness{t: t, ctx: ctx, pool: pool, service: service}
}

func TestService_ClientCRUD(t *testing.T) {
	h := newServiceHarness(t)

	created, err := h.service.CreateClient(h.ctx, Client{
		Nom: "Diallo", Prenoms: "Aissatou", Telephone: "0102030405",
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.False(t, IsTempID(created.ID))
	require.Equal(t, SyncSourceOnline, created.SyncSource)

	got, err := h.service.GetClient(h.ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "Diallo", got.Nom)

	tel := "0999"
	updated, err := h.service.UpdateClient(h.ctx, created.ID, ClientPatch{Telephone: &tel})
	require.NoError(t, err)
	require.Equal(t, "0999", updated.Telephone)
	require.True(t, updated.UpdatedAt.After(created.UpdatedAt) || updated.UpdatedAt.Equal(created.UpdatedAt))

	require.NoError(t, h.service.DeleteClient(h.ctx, created.ID))
	_, err = h.service.GetClient(h.ctx, created.ID)
	require.ErrorIs(t, err, ErrRecordNotFound)

	require.ErrorIs(t, h.service.DeleteClient(h.ctx, created.ID), ErrRecordNotFound)
}

func TestService_OrderLifecycleAndStats(t *testing.T) {
	h := newServiceHarness(t)

	client, err := h.service.CreateClient(h.ctx, Client{Nom: "Kone", Prenoms: "Mariam"})
	require.NoError(t, err)

	order, err := h.service.CreateOrder(h.ctx, Order{
		ClientID: client.ID, MontantTotal: 150, MontantAvance: 50,
	})
	require.NoError(t, err)
	require.Equal(t, float64(100), order.MontantRestant)
	require.Equal(t, OrderStatusEnCours, order.Status)

	avance := 150.0
	order, err = h.service.UpdateOrder(h.ctx, order.ID, OrderPatch{MontantAvance: &avance})
	require.NoError(t, err)
	require.Equal(t, float64(0), order.MontantRestant)

	enCours, err := h.service.ListOrders(h.ctx, OrderStatusEnCours)
	require.NoError(t, err)
	require.Len(t, enCours, 1) // status is not re-derived by updates

	st, err := h.service.Stats(h.ctx)
	require.NoError(t, err)
	require.Equal(t, 1, st.TotalClients)
	require.Equal(t, 1, st.TotalOrders)
	require.Equal(t, float64(150), st.TotalRevenue)
	require.Equal(t, float64(150), st.TotalAvance)
}

func TestService_ProcessSync_AssignsIDsAndRewritesReferences(t *testing.T) {
	h := newServiceHarness(t)
	now := time.Now().UTC().Truncate(time.Millisecond)

	poitrine := 92.0
	resp, err := h.service.ProcessSync(h.ctx, &SyncRequest{
		Clients: []Client{{
			ID: "temp_1", Nom: "Toure", Prenoms: "Fatou",
			CreatedAt: now, UpdatedAt: now, SyncSource: SyncSourceOffline,
		}},
		Orders: []Order{{
			ID: "temp_2", ClientID: "temp_1",
			MontantTotal: 80, MontantAvance: 80, MontantRestant: 0,
			Status: OrderStatusTermine, CompletedAt: now,
			CreatedAt: now, UpdatedAt: now, SyncSource: SyncSourceOffline,
		}},
		Measurements: []Measurement{{
			ID: "temp_3", ClientID: "temp_1", Poitrine: &poitrine,
			CreatedAt: now, UpdatedAt: now, SyncSource: SyncSourceOffline,
		}},
	})
	require.NoError(t, err)

	require.Len(t, resp.IDMappings, 3)
	clientID := resp.IDMappings["temp_1"]
	require.NotEmpty(t, clientID)
	require.False(t, IsTempID(clientID))

	// The order and measurement must reference the server-assigned client id.
	order, err := h.service.GetOrder(h.ctx, resp.IDMappings["temp_2"])
	require.NoError(t, err)
	require.Equal(t, clientID, order.ClientID)
	require.Equal(t, OrderStatusTermine, order.Status)

	measurement, err := h.service.GetMeasurement(h.ctx, resp.IDMappings["temp_3"])
	require.NoError(t, err)
	require.Equal(t, clientID, measurement.ClientID)

	require.Len(t, resp.Clients, 1)
	require.Len(t, resp.Orders, 1)
	require.Len(t, resp.Measurements, 1)
}

func TestService_ProcessSync_LastWriteWins(t *testing.T) {
	h := newServiceHarness(t)

	client, err := h.service.CreateClient(h.ctx, Client{Nom: "Traore", Prenoms: "Awa"})
	require.NoError(t, err)

	// A stale client pushes an older version; it must not clobber the row.
	stale := client
	stale.Telephone = "stale"
	stale.UpdatedAt = client.UpdatedAt.Add(-time.Hour)
	_, err = h.service.ProcessSync(h.ctx, &SyncRequest{Clients: []Client{stale}})
	require.NoError(t, err)

	got, err := h.service.GetClient(h.ctx, client.ID)
	require.NoError(t, err)
	require.NotEqual(t, "stale", got.Telephone)

	// A strictly newer version wins.
	fresh := client
	fresh.Telephone = "fresh"
	fresh.UpdatedAt = client.UpdatedAt.Add(time.Hour)
	_, err = h.service.ProcessSync(h.ctx, &SyncRequest{Clients: []Client{fresh}})
	require.NoError(t, err)

	got, err = h.service.GetClient(h.ctx, client.ID)
	require.NoError(t, err)
	require.Equal(t, "fresh", got.Telephone)
}

func TestService_ProcessSync_SkipsUnresolvedReferences(t *testing.T) {
	h := newServiceHarness(t)

	// An order whose client never made it into the batch stays out of the
	// database instead of breaking the transaction.
	resp, err := h.service.ProcessSync(h.ctx, &SyncRequest{
		Orders: []Order{{
			ID: "temp_9", ClientID: "temp_missing",
			MontantTotal: 10, UpdatedAt: time.Now(),
		}},
	})
	require.NoError(t, err)
	require.Empty(t, resp.IDMappings)
	require.Empty(t, resp.Orders)
}
