// Copyright 2025 KisCouture
// SPDX-License-Identifier: Apache-2.0

package couturelite

import (
	"context"

	"github.com/alanz0209/KisCoutureApp/couturesync"
)

// recordPtr constrains a pointer to an entity type to the Record interface,
// letting the collection helpers work uniformly over value slices.
type recordPtr[T any] interface {
	*T
	couturesync.Record
}

// tagOnline marks every record in place as server-sourced.
func tagOnline[T any, PT recordPtr[T]](records []T) {
	for i := range records {
		PT(&records[i]).SetSource(couturesync.SyncSourceOnline)
	}
}

// indexByID returns the position of the record with the given id, or -1.
func indexByID[T any, PT recordPtr[T]](records []T, id string) int {
	for i := range records {
		if PT(&records[i]).RecordID() == id {
			return i
		}
	}
	return -1
}

// removeByID filters out the record with the given id, reporting whether it
// was present.
func removeByID[T any, PT recordPtr[T]](records []T, id string) ([]T, bool) {
	out := records[:0]
	found := false
	for i := range records {
		if PT(&records[i]).RecordID() == id {
			found = true
			continue
		}
		out = append(out, records[i])
	}
	return out, found
}

// deleteRef is the payload of a queued delete: just the record identity.
type deleteRef struct {
	ID string `json:"id"`
}

// ClientRepo is the offline-capable facade over the clients collection.
// Every operation prefers the remote API and degrades silently to the local
// replica when the call fails or connectivity is absent.
type ClientRepo struct {
	e *Engine
}

// List fetches clients from the server when online, overwriting the local
// collection with the authoritative result. On failure, or offline, it reads
// the local replica.
func (r *ClientRepo) List(ctx context.Context) ([]couturesync.Client, error) {
	e := r.e
	if e.net.Online() {
		clients, err := e.remote.ListClients(ctx)
		if err == nil {
			tagOnline[couturesync.Client](clients)
			if err := saveCollection(ctx, e.store, CollectionClients, clients); err != nil {
				return nil, err
			}
			return clients, nil
		}
		e.logger.Warn("client list falling back to local replica", "error", err)
	}
	return loadCollection[couturesync.Client](ctx, e.store, CollectionClients)
}

// Get reads a single client from the local replica.
func (r *ClientRepo) Get(ctx context.Context, id string) (couturesync.Client, error) {
	clients, err := loadCollection[couturesync.Client](ctx, r.e.store, CollectionClients)
	if err != nil {
		return couturesync.Client{}, err
	}
	if i := indexByID[couturesync.Client](clients, id); i >= 0 {
		return clients[i], nil
	}
	return couturesync.Client{}, ErrNotFound
}

// Create registers a new client. Online success returns the server record
// without duplicating it locally (the next List brings it in). Otherwise the
// client is stored locally under a temporary id and a create is queued.
func (r *ClientRepo) Create(ctx context.Context, c couturesync.Client) (couturesync.Client, error) {
	e := r.e
	if e.net.Online() {
		created, err := e.remote.CreateClient(ctx, c)
		if err == nil {
			created.SyncSource = couturesync.SyncSourceOnline
			return created, nil
		}
		e.logger.Warn("client create falling back to offline", "error", err)
	}

	now := e.now()
	c.ID = NewTempID()
	c.CreatedAt = now
	c.UpdatedAt = now
	c.SyncSource = couturesync.SyncSourceOffline

	clients, err := loadCollection[couturesync.Client](ctx, e.store, CollectionClients)
	if err != nil {
		return couturesync.Client{}, err
	}
	clients = append(clients, c)
	if err := saveCollection(ctx, e.store, CollectionClients, clients); err != nil {
		return couturesync.Client{}, err
	}
	if err := e.queue.Append(ctx, EntityClient, ActionCreate, c); err != nil {
		return couturesync.Client{}, err
	}
	return c, nil
}

// Update applies a partial update. Online success overwrites the local entry
// with the server record; otherwise the patch is merged into the local entry
// and an update is queued. Returns ErrNotFound when the offline target does
// not exist locally.
func (r *ClientRepo) Update(ctx context.Context, id string, patch couturesync.ClientPatch) (couturesync.Client, error) {
	e := r.e
	if e.net.Online() {
		updated, err := e.remote.UpdateClient(ctx, id, patch)
		if err == nil {
			updated.SyncSource = couturesync.SyncSourceOnline
			clients, err := loadCollection[couturesync.Client](ctx, e.store, CollectionClients)
			if err != nil {
				return couturesync.Client{}, err
			}
			if i := indexByID[couturesync.Client](clients, id); i >= 0 {
				clients[i] = updated
				if err := saveCollection(ctx, e.store, CollectionClients, clients); err != nil {
					return couturesync.Client{}, err
				}
			}
			return updated, nil
		}
		e.logger.Warn("client update falling back to offline", "id", id, "error", err)
	}

	clients, err := loadCollection[couturesync.Client](ctx, e.store, CollectionClients)
	if err != nil {
		return couturesync.Client{}, err
	}
	i := indexByID[couturesync.Client](clients, id)
	if i < 0 {
		return couturesync.Client{}, ErrNotFound
	}
	patch.ApplyTo(&clients[i], e.now())
	if err := saveCollection(ctx, e.store, CollectionClients, clients); err != nil {
		return couturesync.Client{}, err
	}
	if err := e.queue.Append(ctx, EntityClient, ActionUpdate, clients[i]); err != nil {
		return couturesync.Client{}, err
	}
	return clients[i], nil
}

// Delete removes the client. The remote delete is best effort: a failure is
// logged and a pending delete is queued so the remote copy goes away on the
// next sync. The local entry is always removed.
func (r *ClientRepo) Delete(ctx context.Context, id string) error {
	e := r.e
	confirmed := false
	if e.net.Online() {
		if err := e.remote.DeleteClient(ctx, id); err == nil {
			confirmed = true
		} else {
			e.logger.Warn("remote client delete failed, queueing", "id", id, "error", err)
		}
	}

	clients, err := loadCollection[couturesync.Client](ctx, e.store, CollectionClients)
	if err != nil {
		return err
	}
	clients, _ = removeByID[couturesync.Client](clients, id)
	if err := saveCollection(ctx, e.store, CollectionClients, clients); err != nil {
		return err
	}
	if !confirmed {
		return e.queue.Append(ctx, EntityClient, ActionDelete, deleteRef{ID: id})
	}
	return nil
}
