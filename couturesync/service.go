// Copyright 2025 KisCouture
// SPDX-License-Identifier: Apache-2.0

package couturesync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrRecordNotFound is returned by lookups and mutations targeting an id the
// database does not hold.
var ErrRecordNotFound = errors.New("record not found")

// Service is the server-side data layer for the atelier: CRUD over clients,
// orders and measurements, the dashboard aggregate, and the bulk sync
// endpoint used by offline clients.
type Service struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates the service from an existing pool and initializes the
// schema. The pool's lifecycle stays with the caller.
func NewService(ctx context.Context, pool *pgxpool.Pool, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{pool: pool, logger: logger, now: time.Now}
	if err := s.initializeSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// Pool exposes the underlying connection pool for advanced integrations.
func (s *Service) Pool() *pgxpool.Pool { return s.pool }

func (s *Service) initializeSchema(ctx context.Context) error {
	migrations := []string{
		/*language=postgresql*/ `CREATE TABLE IF NOT EXISTS clients (
			id         TEXT PRIMARY KEY,
			nom        TEXT NOT NULL,
			prenoms    TEXT NOT NULL,
			email      TEXT NOT NULL DEFAULT '',
			telephone  TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		/*language=postgresql*/ `CREATE TABLE IF NOT EXISTS orders (
			id              TEXT PRIMARY KEY,
			client_id       TEXT NOT NULL REFERENCES clients(id) ON DELETE CASCADE,
			montant_total   DOUBLE PRECISION NOT NULL DEFAULT 0,
			montant_avance  DOUBLE PRECISION NOT NULL DEFAULT 0,
			montant_restant DOUBLE PRECISION NOT NULL DEFAULT 0,
			status          TEXT NOT NULL DEFAULT 'en_cours',
			created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
			completed_at    TIMESTAMPTZ
		)`,
		/*language=postgresql*/ `CREATE TABLE IF NOT EXISTS measurements (
			id                TEXT PRIMARY KEY,
			client_id         TEXT NOT NULL REFERENCES clients(id) ON DELETE CASCADE,
			do_val            DOUBLE PRECISION,
			poitrine          DOUBLE PRECISION,
			taille            DOUBLE PRECISION,
			longueur          DOUBLE PRECISION,
			manche            DOUBLE PRECISION,
			tour_manche       DOUBLE PRECISION,
			ceinture          DOUBLE PRECISION,
			bassin            DOUBLE PRECISION,
			cuisse            DOUBLE PRECISION,
			longueur_pantalon DOUBLE PRECISION,
			bas               DOUBLE PRECISION,
			longueur_genou    DOUBLE PRECISION,
			tour_mollet       DOUBLE PRECISION,
			description       TEXT NOT NULL DEFAULT '',
			image_path        TEXT NOT NULL DEFAULT '',
			image_data        TEXT NOT NULL DEFAULT '',
			created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at        TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		/*language=postgresql*/ `CREATE INDEX IF NOT EXISTS idx_orders_client ON orders(client_id)`,
		/*language=postgresql*/ `CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status)`,
		/*language=postgresql*/ `CREATE INDEX IF NOT EXISTS idx_measurements_client ON measurements(client_id)`,
	}
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		for _, ddl := range migrations {
			if _, err := tx.Exec(ctx, ddl); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
		}
		return nil
	})
}

// --- Clients ---

const clientColumns = `id, nom, prenoms, email, telephone, created_at, updated_at`

func scanClient(row pgx.CollectableRow) (Client, error) {
	var c Client
	err := row.Scan(&c.ID, &c.Nom, &c.Prenoms, &c.Email, &c.Telephone, &c.CreatedAt, &c.UpdatedAt)
	c.SyncSource = SyncSourceOnline
	return c, err
}

func (s *Service) ListClients(ctx context.Context) ([]Client, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+clientColumns+` FROM clients ORDER BY nom, prenoms`)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	return pgx.CollectRows(rows, scanClient)
}

func (s *Service) GetClient(ctx context.Context, id string) (Client, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE id = $1`, id)
	if err != nil {
		return Client{}, fmt.Errorf("failed to get client: %w", err)
	}
	c, err := pgx.CollectOneRow(rows, scanClient)
	if errors.Is(err, pgx.ErrNoRows) {
		return Client{}, ErrRecordNotFound
	}
	return c, err
}

func (s *Service) CreateClient(ctx context.Context, c Client) (Client, error) {
	c.ID = uuid.New().String()
	now := s.now()
	c.CreatedAt, c.UpdatedAt = now, now
	c.SyncSource = SyncSourceOnline
	_, err := s.pool.Exec(ctx,
		`INSERT INTO clients (id, nom, prenoms, email, telephone, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		c.ID, c.Nom, c.Prenoms, c.Email, c.Telephone, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return Client{}, fmt.Errorf("failed to create client: %w", err)
	}
	return c, nil
}

func (s *Service) UpdateClient(ctx context.Context, id string, patch ClientPatch) (Client, error) {
	c, err := s.GetClient(ctx, id)
	if err != nil {
		return Client{}, err
	}
	patch.ApplyTo(&c, s.now())
	_, err = s.pool.Exec(ctx,
		`UPDATE clients SET nom = $2, prenoms = $3, email = $4, telephone = $5, updated_at = $6
		 WHERE id = $1`,
		c.ID, c.Nom, c.Prenoms, c.Email, c.Telephone, c.UpdatedAt)
	if err != nil {
		return Client{}, fmt.Errorf("failed to update client: %w", err)
	}
	return c, nil
}

func (s *Service) DeleteClient(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete client: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// --- Orders ---

const orderColumns = `id, client_id, montant_total, montant_avance, montant_restant,
	status, created_at, updated_at, completed_at`

func scanOrder(row pgx.CollectableRow) (Order, error) {
	var o Order
	var completed *time.Time
	err := row.Scan(&o.ID, &o.ClientID, &o.MontantTotal, &o.MontantAvance, &o.MontantRestant,
		&o.Status, &o.CreatedAt, &o.UpdatedAt, &completed)
	if completed != nil {
		o.CompletedAt = *completed
	}
	o.SyncSource = SyncSourceOnline
	return o, err
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// ListOrders returns all orders, optionally filtered by status.
func (s *Service) ListOrders(ctx context.Context, status string) ([]Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders`
	args := []any{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

func (s *Service) GetOrder(ctx context.Context, id string) (Order, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	if err != nil {
		return Order{}, fmt.Errorf("failed to get order: %w", err)
	}
	o, err := pgx.CollectOneRow(rows, scanOrder)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrRecordNotFound
	}
	return o, err
}

func (s *Service) CreateOrder(ctx context.Context, o Order) (Order, error) {
	o.ID = uuid.New().String()
	now := s.now()
	o.CreatedAt, o.UpdatedAt = now, now
	o.Derive(now)
	o.SyncSource = SyncSourceOnline
	return o, s.insertOrder(ctx, s.pool, o)
}

// queryExecer abstracts over *pgxpool.Pool and pgx.Tx so inserts can run
// standalone or inside the bulk sync transaction.
type queryExecer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func (s *Service) insertOrder(ctx context.Context, db queryExecer, o Order) error {
	_, err := db.Exec(ctx,
		`INSERT INTO orders (id, client_id, montant_total, montant_avance, montant_restant,
			status, created_at, updated_at, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		o.ID, o.ClientID, o.MontantTotal, o.MontantAvance, o.MontantRestant,
		o.Status, o.CreatedAt, o.UpdatedAt, nullableTime(o.CompletedAt))
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

func (s *Service) UpdateOrder(ctx context.Context, id string, patch OrderPatch) (Order, error) {
	o, err := s.GetOrder(ctx, id)
	if err != nil {
		return Order{}, err
	}
	patch.ApplyTo(&o, s.now())
	_, err = s.pool.Exec(ctx,
		`UPDATE orders SET client_id = $2, montant_total = $3, montant_avance = $4,
			montant_restant = $5, status = $6, updated_at = $7, completed_at = $8
		 WHERE id = $1`,
		o.ID, o.ClientID, o.MontantTotal, o.MontantAvance, o.MontantRestant,
		o.Status, o.UpdatedAt, nullableTime(o.CompletedAt))
	if err != nil {
		return Order{}, fmt.Errorf("failed to update order: %w", err)
	}
	return o, nil
}

func (s *Service) DeleteOrder(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// --- Measurements ---

const measurementColumns = `id, client_id, do_val, poitrine, taille, longueur, manche,
	tour_manche, ceinture, bassin, cuisse, longueur_pantalon, bas, longueur_genou,
	tour_mollet, description, image_path, image_data, created_at, updated_at`

func scanMeasurement(row pgx.CollectableRow) (Measurement, error) {
	var m Measurement
	err := row.Scan(&m.ID, &m.ClientID, &m.Do, &m.Poitrine, &m.Taille, &m.Longueur,
		&m.Manche, &m.TourManche, &m.Ceinture, &m.Bassin, &m.Cuisse,
		&m.LongueurPantalon, &m.Bas, &m.LongueurGenou, &m.TourMollet,
		&m.Description, &m.ImagePath, &m.ImageData, &m.CreatedAt, &m.UpdatedAt)
	m.SyncSource = SyncSourceOnline
	return m, err
}

func (s *Service) ListMeasurements(ctx context.Context) ([]Measurement, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+measurementColumns+` FROM measurements ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list measurements: %w", err)
	}
	return pgx.CollectRows(rows, scanMeasurement)
}

func (s *Service) ListMeasurementsByClient(ctx context.Context, clientID string) ([]Measurement, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+measurementColumns+` FROM measurements WHERE client_id = $1 ORDER BY created_at DESC`,
		clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list measurements for client: %w", err)
	}
	return pgx.CollectRows(rows, scanMeasurement)
}

func (s *Service) GetMeasurement(ctx context.Context, id string) (Measurement, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+measurementColumns+` FROM measurements WHERE id = $1`, id)
	if err != nil {
		return Measurement{}, fmt.Errorf("failed to get measurement: %w", err)
	}
	m, err := pgx.CollectOneRow(rows, scanMeasurement)
	if errors.Is(err, pgx.ErrNoRows) {
		return Measurement{}, ErrRecordNotFound
	}
	return m, err
}

func (s *Service) CreateMeasurement(ctx context.Context, m Measurement) (Measurement, error) {
	m.ID = uuid.New().String()
	now := s.now()
	m.CreatedAt, m.UpdatedAt = now, now
	m.SyncSource = SyncSourceOnline
	return m, s.insertMeasurement(ctx, s.pool, m)
}

func (s *Service) insertMeasurement(ctx context.Context, db queryExecer, m Measurement) error {
	_, err := db.Exec(ctx,
		`INSERT INTO measurements (id, client_id, do_val, poitrine, taille, longueur, manche,
			tour_manche, ceinture, bassin, cuisse, longueur_pantalon, bas, longueur_genou,
			tour_mollet, description, image_path, image_data, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`,
		m.ID, m.ClientID, m.Do, m.Poitrine, m.Taille, m.Longueur, m.Manche,
		m.TourManche, m.Ceinture, m.Bassin, m.Cuisse, m.LongueurPantalon, m.Bas,
		m.LongueurGenou, m.TourMollet, m.Description, m.ImagePath, m.ImageData,
		m.CreatedAt, m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create measurement: %w", err)
	}
	return nil
}

func (s *Service) UpdateMeasurement(ctx context.Context, id string, patch MeasurementPatch) (Measurement, error) {
	m, err := s.GetMeasurement(ctx, id)
	if err != nil {
		return Measurement{}, err
	}
	patch.ApplyTo(&m, s.now())
	_, err = s.pool.Exec(ctx,
		`UPDATE measurements SET client_id = $2, do_val = $3, poitrine = $4, taille = $5,
			longueur = $6, manche = $7, tour_manche = $8, ceinture = $9, bassin = $10,
			cuisse = $11, longueur_pantalon = $12, bas = $13, longueur_genou = $14,
			tour_mollet = $15, description = $16, image_path = $17, image_data = $18,
			updated_at = $19
		 WHERE id = $1`,
		m.ID, m.ClientID, m.Do, m.Poitrine, m.Taille, m.Longueur, m.Manche,
		m.TourManche, m.Ceinture, m.Bassin, m.Cuisse, m.LongueurPantalon, m.Bas,
		m.LongueurGenou, m.TourMollet, m.Description, m.ImagePath, m.ImageData,
		m.UpdatedAt)
	if err != nil {
		return Measurement{}, fmt.Errorf("failed to update measurement: %w", err)
	}
	return m, nil
}

func (s *Service) DeleteMeasurement(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM measurements WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete measurement: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// --- Stats ---

// Stats computes the dashboard aggregate. Orders whose client reference no
// longer resolves are excluded from the totals.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.pool.QueryRow(ctx, /*language=postgresql*/ `
		SELECT
			(SELECT count(*) FROM clients),
			count(o.id),
			count(o.id) FILTER (WHERE o.status = 'en_cours'),
			count(o.id) FILTER (WHERE o.status = 'termine'),
			COALESCE(sum(o.montant_total), 0),
			COALESCE(sum(o.montant_avance), 0),
			COALESCE(sum(o.montant_restant), 0)
		FROM orders o
		JOIN clients c ON c.id = o.client_id`).Scan(
		&st.TotalClients, &st.TotalOrders, &st.OrdersEnCours, &st.OrdersTermine,
		&st.TotalRevenue, &st.TotalAvance, &st.TotalRestant)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to compute stats: %w", err)
	}
	return st, nil
}
