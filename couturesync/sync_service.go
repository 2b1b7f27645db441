// Copyright 2025 KisCouture
// SPDX-License-Identifier: Apache-2.0

package couturesync

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ProcessSync applies one client's batch of offline records atomically.
//
// Records carrying a temporary id are inserted under a fresh server id; the
// temp-to-server pairs are returned as id_mappings so the client can rewrite
// its local replica. Records carrying a server id apply last-write-wins:
// the stored row is replaced only when the incoming updated_at is strictly
// newer, so a stale client cannot clobber fresher server state. Client id
// references inside orders and measurements are rewritten through the
// mappings minted in the same batch before insertion, keeping foreign keys
// valid when a client and its dependents arrive together.
//
// The whole batch commits or rolls back as one transaction. The response
// carries the post-sync snapshot of all three collections.
func (s *Service) ProcessSync(ctx context.Context, req *SyncRequest) (*SyncResponse, error) {
	mappings := make(map[string]string)
	skipped := 0

	err := pgx.BeginTxFunc(ctx, s.pool,
		pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadWrite},
		func(tx pgx.Tx) error {
			now := s.now()

			for _, c := range req.Clients {
				c.SyncSource = SyncSourceOnline
				if c.CreatedAt.IsZero() {
					c.CreatedAt = now
				}
				if c.UpdatedAt.IsZero() {
					c.UpdatedAt = now
				}
				if IsTempID(c.ID) {
					serverID := uuid.New().String()
					mappings[c.ID] = serverID
					c.ID = serverID
				}
				_, err := tx.Exec(ctx, /*language=postgresql*/ `
					INSERT INTO clients (id, nom, prenoms, email, telephone, created_at, updated_at)
					VALUES ($1, $2, $3, $4, $5, $6, $7)
					ON CONFLICT (id) DO UPDATE SET
						nom = EXCLUDED.nom, prenoms = EXCLUDED.prenoms,
						email = EXCLUDED.email, telephone = EXCLUDED.telephone,
						updated_at = EXCLUDED.updated_at
					WHERE clients.updated_at < EXCLUDED.updated_at`,
					c.ID, c.Nom, c.Prenoms, c.Email, c.Telephone, c.CreatedAt, c.UpdatedAt)
				if err != nil {
					return fmt.Errorf("failed to sync client %s: %w", c.ID, err)
				}
			}

			for _, o := range req.Orders {
				o.SyncSource = SyncSourceOnline
				if o.CreatedAt.IsZero() {
					o.CreatedAt = now
				}
				if o.UpdatedAt.IsZero() {
					o.UpdatedAt = now
				}
				if mapped, ok := mappings[o.ClientID]; ok {
					o.ClientID = mapped
				}
				if IsTempID(o.ClientID) {
					// The referenced client never made it into this batch;
					// the order stays client-side until a later pass.
					s.logger.Warn("skipping order with unresolved client reference",
						"order_id", o.ID, "client_id", o.ClientID)
					skipped++
					continue
				}
				if IsTempID(o.ID) {
					serverID := uuid.New().String()
					mappings[o.ID] = serverID
					o.ID = serverID
				}
				_, err := tx.Exec(ctx, /*language=postgresql*/ `
					INSERT INTO orders (id, client_id, montant_total, montant_avance,
						montant_restant, status, created_at, updated_at, completed_at)
					VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
					ON CONFLICT (id) DO UPDATE SET
						client_id = EXCLUDED.client_id,
						montant_total = EXCLUDED.montant_total,
						montant_avance = EXCLUDED.montant_avance,
						montant_restant = EXCLUDED.montant_restant,
						status = EXCLUDED.status,
						updated_at = EXCLUDED.updated_at,
						completed_at = EXCLUDED.completed_at
					WHERE orders.updated_at < EXCLUDED.updated_at`,
					o.ID, o.ClientID, o.MontantTotal, o.MontantAvance, o.MontantRestant,
					o.Status, o.CreatedAt, o.UpdatedAt, nullableTime(o.CompletedAt))
				if err != nil {
					return fmt.Errorf("failed to sync order %s: %w", o.ID, err)
				}
			}

			for _, m := range req.Measurements {
				m.SyncSource = SyncSourceOnline
				if m.CreatedAt.IsZero() {
					m.CreatedAt = now
				}
				if m.UpdatedAt.IsZero() {
					m.UpdatedAt = now
				}
				if mapped, ok := mappings[m.ClientID]; ok {
					m.ClientID = mapped
				}
				if IsTempID(m.ClientID) {
					s.logger.Warn("skipping measurement with unresolved client reference",
						"measurement_id", m.ID, "client_id", m.ClientID)
					skipped++
					continue
				}
				if IsTempID(m.ID) {
					serverID := uuid.New().String()
					mappings[m.ID] = serverID
					m.ID = serverID
				}
				_, err := tx.Exec(ctx, /*language=postgresql*/ `
					INSERT INTO measurements (id, client_id, do_val, poitrine, taille,
						longueur, manche, tour_manche, ceinture, bassin, cuisse,
						longueur_pantalon, bas, longueur_genou, tour_mollet,
						description, image_path, image_data, created_at, updated_at)
					VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
						$14, $15, $16, $17, $18, $19, $20)
					ON CONFLICT (id) DO UPDATE SET
						client_id = EXCLUDED.client_id,
						do_val = EXCLUDED.do_val, poitrine = EXCLUDED.poitrine,
						taille = EXCLUDED.taille, longueur = EXCLUDED.longueur,
						manche = EXCLUDED.manche, tour_manche = EXCLUDED.tour_manche,
						ceinture = EXCLUDED.ceinture, bassin = EXCLUDED.bassin,
						cuisse = EXCLUDED.cuisse,
						longueur_pantalon = EXCLUDED.longueur_pantalon,
						bas = EXCLUDED.bas, longueur_genou = EXCLUDED.longueur_genou,
						tour_mollet = EXCLUDED.tour_mollet,
						description = EXCLUDED.description,
						image_path = EXCLUDED.image_path,
						image_data = EXCLUDED.image_data,
						updated_at = EXCLUDED.updated_at
					WHERE measurements.updated_at < EXCLUDED.updated_at`,
					m.ID, m.ClientID, m.Do, m.Poitrine, m.Taille, m.Longueur, m.Manche,
					m.TourManche, m.Ceinture, m.Bassin, m.Cuisse, m.LongueurPantalon,
					m.Bas, m.LongueurGenou, m.TourMollet, m.Description, m.ImagePath,
					m.ImageData, m.CreatedAt, m.UpdatedAt)
				if err != nil {
					return fmt.Errorf("failed to sync measurement %s: %w", m.ID, err)
				}
			}

			return nil
		})
	if err != nil {
		return nil, err
	}

	s.logger.Info("sync batch applied",
		"clients", len(req.Clients),
		"orders", len(req.Orders),
		"measurements", len(req.Measurements),
		"mapped", len(mappings),
		"skipped", skipped)

	clients, err := s.ListClients(ctx)
	if err != nil {
		return nil, err
	}
	orders, err := s.ListOrders(ctx, "")
	if err != nil {
		return nil, err
	}
	measurements, err := s.ListMeasurements(ctx)
	if err != nil {
		return nil, err
	}
	return &SyncResponse{
		Clients:      clients,
		Orders:       orders,
		Measurements: measurements,
		IDMappings:   mappings,
	}, nil
}
