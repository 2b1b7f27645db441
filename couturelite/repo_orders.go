// Copyright 2025 KisCouture
// SPDX-License-Identifier: Apache-2.0

package couturelite

import (
	"context"

	"github.com/alanz0209/KisCoutureApp/couturesync"
)

// OrderRepo is the offline-capable facade over the orders collection.
type OrderRepo struct {
	e *Engine
}

// List fetches orders, optionally filtered by status. Online, the remote
// result overwrites the local collection; on failure or offline the local
// replica is filtered in place.
func (r *OrderRepo) List(ctx context.Context, status string) ([]couturesync.Order, error) {
	e := r.e
	if e.net.Online() {
		orders, err := e.remote.ListOrders(ctx, status)
		if err == nil {
			tagOnline[couturesync.Order](orders)
			if err := saveCollection(ctx, e.store, CollectionOrders, orders); err != nil {
				return nil, err
			}
			return orders, nil
		}
		e.logger.Warn("order list falling back to local replica", "error", err)
	}

	orders, err := loadCollection[couturesync.Order](ctx, e.store, CollectionOrders)
	if err != nil {
		return nil, err
	}
	if status == "" {
		return orders, nil
	}
	filtered := orders[:0]
	for _, o := range orders {
		if o.Status == status {
			filtered = append(filtered, o)
		}
	}
	return filtered, nil
}

// Get reads an order from the local replica.
func (r *OrderRepo) Get(ctx context.Context, id string) (couturesync.Order, error) {
	orders, err := loadCollection[couturesync.Order](ctx, r.e.store, CollectionOrders)
	if err != nil {
		return couturesync.Order{}, err
	}
	if i := indexByID[couturesync.Order](orders, id); i >= 0 {
		return orders[i], nil
	}
	return couturesync.Order{}, ErrNotFound
}

// Create registers a new order. The offline path derives montant_restant,
// status and completed_at locally with the same rules the server applies, so
// an offline-created order is immediately consistent with the eventual
// server computation.
func (r *OrderRepo) Create(ctx context.Context, o couturesync.Order) (couturesync.Order, error) {
	e := r.e
	if e.net.Online() {
		created, err := e.remote.CreateOrder(ctx, o)
		if err == nil {
			created.SyncSource = couturesync.SyncSourceOnline
			return created, nil
		}
		e.logger.Warn("order create falling back to offline", "error", err)
	}

	now := e.now()
	o.ID = NewTempID()
	o.CreatedAt = now
	o.UpdatedAt = now
	o.SyncSource = couturesync.SyncSourceOffline
	o.Derive(now)

	orders, err := loadCollection[couturesync.Order](ctx, e.store, CollectionOrders)
	if err != nil {
		return couturesync.Order{}, err
	}
	orders = append(orders, o)
	if err := saveCollection(ctx, e.store, CollectionOrders, orders); err != nil {
		return couturesync.Order{}, err
	}
	if err := e.queue.Append(ctx, EntityOrder, ActionCreate, o); err != nil {
		return couturesync.Order{}, err
	}
	return o, nil
}

// Update applies a partial update, merging into the local entry and queueing
// when the remote call is unavailable.
func (r *OrderRepo) Update(ctx context.Context, id string, patch couturesync.OrderPatch) (couturesync.Order, error) {
	e := r.e
	if e.net.Online() {
		updated, err := e.remote.UpdateOrder(ctx, id, patch)
		if err == nil {
			updated.SyncSource = couturesync.SyncSourceOnline
			orders, err := loadCollection[couturesync.Order](ctx, e.store, CollectionOrders)
			if err != nil {
				return couturesync.Order{}, err
			}
			if i := indexByID[couturesync.Order](orders, id); i >= 0 {
				orders[i] = updated
				if err := saveCollection(ctx, e.store, CollectionOrders, orders); err != nil {
					return couturesync.Order{}, err
				}
			}
			return updated, nil
		}
		e.logger.Warn("order update falling back to offline", "id", id, "error", err)
	}

	orders, err := loadCollection[couturesync.Order](ctx, e.store, CollectionOrders)
	if err != nil {
		return couturesync.Order{}, err
	}
	i := indexByID[couturesync.Order](orders, id)
	if i < 0 {
		return couturesync.Order{}, ErrNotFound
	}
	patch.ApplyTo(&orders[i], e.now())
	if err := saveCollection(ctx, e.store, CollectionOrders, orders); err != nil {
		return couturesync.Order{}, err
	}
	if err := e.queue.Append(ctx, EntityOrder, ActionUpdate, orders[i]); err != nil {
		return couturesync.Order{}, err
	}
	return orders[i], nil
}

// Delete removes the order, queueing a remote delete when it could not be
// confirmed.
func (r *OrderRepo) Delete(ctx context.Context, id string) error {
	e := r.e
	confirmed := false
	if e.net.Online() {
		if err := e.remote.DeleteOrder(ctx, id); err == nil {
			confirmed = true
		} else {
			e.logger.Warn("remote order delete failed, queueing", "id", id, "error", err)
		}
	}

	orders, err := loadCollection[couturesync.Order](ctx, e.store, CollectionOrders)
	if err != nil {
		return err
	}
	orders, _ = removeByID[couturesync.Order](orders, id)
	if err := saveCollection(ctx, e.store, CollectionOrders, orders); err != nil {
		return err
	}
	if !confirmed {
		return e.queue.Append(ctx, EntityOrder, ActionDelete, deleteRef{ID: id})
	}
	return nil
}
