// Copyright 2025 KisCouture
// SPDX-License-Identifier: Apache-2.0

package couturelite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alanz0209/KisCoutureApp/couturesync"
)

// scopedPtr narrows recordPtr to types that also carry a client reference.
type scopedPtr[T any] interface {
	recordPtr[T]
	couturesync.ClientScoped
}

// Reconcile runs one full reconciliation pass against the server:
//
//  1. Upload every unsynced local record (temp-id records plus records
//     modified since the last successful sync) in a single bulk request.
//  2. Drain the pending queue: replay queued deletes against the server,
//     requeue the ones that fail; keep creates and updates queued when
//     their record still carries a temporary id after step 3.
//  3. Rewrite the id mappings returned by the upload through every local
//     collection, both record ids and client references.
//  4. Download the server snapshot per entity type, merge it with the local
//     replica and persist the result. Each type fails independently.
//  5. On a fully clean pass, drop queued creates and updates whose record is
//     gone from the replica (the natural-key merge can collapse a temporary
//     record into the server's copy; its queue entry can never succeed).
//
// A bulk upload failure aborts the whole pass with the queue untouched, so
// the next pass replays everything. last_sync advances only when all three
// entity types downloaded and persisted successfully.
//
// Returns ErrOffline when the connectivity signal reports offline, and nil
// without doing anything when another pass is already in flight.
func (e *Engine) Reconcile(ctx context.Context) error {
	if !e.net.Online() {
		return ErrOffline
	}
	if !e.syncing.CompareAndSwap(false, true) {
		e.logger.Debug("reconciliation already in flight, skipping")
		return nil
	}
	defer e.syncing.Store(false)

	lastSync, err := e.state.LastSync(ctx)
	if err != nil {
		return err
	}

	clients, err := loadCollection[couturesync.Client](ctx, e.store, CollectionClients)
	if err != nil {
		return err
	}
	orders, err := loadCollection[couturesync.Order](ctx, e.store, CollectionOrders)
	if err != nil {
		return err
	}
	measurements, err := loadCollection[couturesync.Measurement](ctx, e.store, CollectionMeasurements)
	if err != nil {
		return err
	}

	outClients := selectOutgoing[couturesync.Client](clients, lastSync)
	outOrders := selectOutgoing[couturesync.Order](orders, lastSync)
	outMeasurements := selectOutgoing[couturesync.Measurement](measurements, lastSync)

	mappings := map[string]string{}
	if len(outClients)+len(outOrders)+len(outMeasurements) > 0 {
		e.logger.Info("uploading unsynced records",
			"clients", len(outClients),
			"orders", len(outOrders),
			"measurements", len(outMeasurements))
		resp, err := e.remote.Sync(ctx, couturesync.SyncRequest{
			Clients:      outClients,
			Orders:       outOrders,
			Measurements: outMeasurements,
		})
		if err != nil {
			return fmt.Errorf("bulk upload failed: %w", err)
		}
		mappings = resp.IDMappings
	}

	if err := e.processQueue(ctx, mappings); err != nil {
		return err
	}

	applyIDMappings(mappings, clients, orders, measurements)

	var errs []error
	mergedClients, mergedOrders, mergedMeasurements := clients, orders, measurements
	if serverClients, err := e.remote.ListClients(ctx); err != nil {
		errs = append(errs, fmt.Errorf("clients: %w", err))
	} else {
		mergedClients = mergeCollections[couturesync.Client](clients, serverClients)
		if err := saveCollection(ctx, e.store, CollectionClients, mergedClients); err != nil {
			errs = append(errs, fmt.Errorf("clients: %w", err))
		}
	}
	if serverOrders, err := e.remote.ListOrders(ctx, ""); err != nil {
		errs = append(errs, fmt.Errorf("orders: %w", err))
	} else {
		mergedOrders = mergeCollections[couturesync.Order](orders, serverOrders)
		if err := saveCollection(ctx, e.store, CollectionOrders, mergedOrders); err != nil {
			errs = append(errs, fmt.Errorf("orders: %w", err))
		}
	}
	if serverMeasurements, err := e.remote.ListMeasurements(ctx); err != nil {
		errs = append(errs, fmt.Errorf("measurements: %w", err))
	} else {
		mergedMeasurements = mergeCollections[couturesync.Measurement](measurements, serverMeasurements)
		if err := saveCollection(ctx, e.store, CollectionMeasurements, mergedMeasurements); err != nil {
			errs = append(errs, fmt.Errorf("measurements: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("reconciliation incomplete: %w", errors.Join(errs...))
	}

	if err := e.dropOrphanedChanges(ctx, mergedClients, mergedOrders, mergedMeasurements); err != nil {
		return err
	}

	if err := e.state.SetLastSync(ctx, e.now()); err != nil {
		return err
	}
	e.logger.Info("reconciliation complete")
	return nil
}

// processQueue drains the pending change log after a successful upload.
// Deletes replay against the server individually; a failed delete goes back
// on the queue for the next pass. Deletes targeting records that never
// reached the server (still temp-id) are dropped, and they cancel any queued
// creates or updates for the same record. Remaining creates and updates rode
// the bulk upload; they stay queued only when their record's temporary id
// received no mapping, meaning the server did not accept it.
func (e *Engine) processQueue(ctx context.Context, mappings map[string]string) error {
	drained, err := e.queue.DrainAll(ctx)
	if err != nil {
		return err
	}

	cancelled := map[string]bool{}
	for _, ch := range drained {
		if ch.Action == ActionDelete {
			if id := ch.RecordID(); couturesync.IsTempID(id) {
				cancelled[id] = true
			}
		}
	}

	var requeue []PendingChange
	for _, ch := range drained {
		id := ch.RecordID()
		if ch.Action == ActionDelete {
			if couturesync.IsTempID(id) {
				continue
			}
			if err := e.remoteDelete(ctx, ch.Entity, id); err != nil {
				e.logger.Warn("queued delete failed, keeping it queued",
					"entity", ch.Entity, "id", id, "error", err)
				requeue = append(requeue, ch)
			}
			continue
		}
		if couturesync.IsTempID(id) && !cancelled[id] {
			if _, mapped := mappings[id]; !mapped {
				requeue = append(requeue, ch)
			}
		}
	}
	return e.queue.Requeue(ctx, requeue)
}

// dropOrphanedChanges removes queued creates and updates whose record no
// longer exists in the merged replica. A temporary record collapsed by the
// natural-key merge never receives an id mapping, so its queue entry would
// otherwise come back on every pass with nothing left to upload. Queued
// deletes are kept; they target the server, not the replica.
func (e *Engine) dropOrphanedChanges(ctx context.Context, clients []couturesync.Client, orders []couturesync.Order, measurements []couturesync.Measurement) error {
	queued, err := e.queue.DrainAll(ctx)
	if err != nil {
		return err
	}
	if len(queued) == 0 {
		return nil
	}
	var kept []PendingChange
	for _, ch := range queued {
		if ch.Action != ActionDelete && !recordPresent(ch, clients, orders, measurements) {
			e.logger.Warn("dropping queued change, record gone from the replica",
				"entity", ch.Entity, "action", ch.Action, "id", ch.RecordID())
			continue
		}
		kept = append(kept, ch)
	}
	return e.queue.Requeue(ctx, kept)
}

func recordPresent(ch PendingChange, clients []couturesync.Client, orders []couturesync.Order, measurements []couturesync.Measurement) bool {
	id := ch.RecordID()
	switch ch.Entity {
	case EntityClient:
		return indexByID[couturesync.Client](clients, id) >= 0
	case EntityOrder:
		return indexByID[couturesync.Order](orders, id) >= 0
	case EntityMeasurement:
		return indexByID[couturesync.Measurement](measurements, id) >= 0
	}
	return false
}

func (e *Engine) remoteDelete(ctx context.Context, entity EntityType, id string) error {
	switch entity {
	case EntityClient:
		return e.remote.DeleteClient(ctx, id)
	case EntityOrder:
		return e.remote.DeleteOrder(ctx, id)
	case EntityMeasurement:
		return e.remote.DeleteMeasurement(ctx, id)
	}
	return fmt.Errorf("unknown entity type %q", entity)
}

// selectOutgoing picks the records a sync pass must upload: everything with
// a temporary id, plus server-known records modified after the last
// successful sync. With a zero lastSync every timestamped record qualifies.
// The modified set is selected on timestamp alone, not on sync_source, so
// offline edits of server-known records ride the bulk upload; their queue
// entries are then dropped rather than replayed one by one. The server's
// last-write-wins upsert makes re-uploading an already-synced record a no-op.
func selectOutgoing[T any, PT recordPtr[T]](records []T, lastSync time.Time) []T {
	var out []T
	for i := range records {
		p := PT(&records[i])
		if couturesync.IsTempID(p.RecordID()) {
			out = append(out, records[i])
			continue
		}
		if p.ModifiedAt().After(lastSync) {
			out = append(out, records[i])
		}
	}
	return out
}

// applyIDMappings rewrites server-assigned ids through all three local
// collections in place: the records' own ids, then the client references
// held by orders and measurements. Remapped records are marked as
// server-sourced since the server now owns them.
func applyIDMappings(mappings map[string]string, clients []couturesync.Client, orders []couturesync.Order, measurements []couturesync.Measurement) {
	if len(mappings) == 0 {
		return
	}
	remapIDs[couturesync.Client](mappings, clients)
	remapIDs[couturesync.Order](mappings, orders)
	remapIDs[couturesync.Measurement](mappings, measurements)
	remapClientRefs[couturesync.Order](mappings, orders)
	remapClientRefs[couturesync.Measurement](mappings, measurements)
}

func remapIDs[T any, PT recordPtr[T]](mappings map[string]string, records []T) {
	for i := range records {
		p := PT(&records[i])
		if real, ok := mappings[p.RecordID()]; ok {
			p.SetRecordID(real)
			p.SetSource(couturesync.SyncSourceOnline)
		}
	}
}

func remapClientRefs[T any, PT scopedPtr[T]](mappings map[string]string, records []T) {
	for i := range records {
		p := PT(&records[i])
		if real, ok := mappings[p.ClientRef()]; ok {
			p.SetClientRef(real)
		}
	}
}
