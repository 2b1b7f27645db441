// Copyright 2025 KisCouture
// SPDX-License-Identifier: Apache-2.0

package couturelite

import (
	"context"
	"encoding/json"

	"github.com/alanz0209/KisCoutureApp/couturesync"
)

// StatsService serves the dashboard aggregate. Online it asks the server and
// caches the answer; offline it recomputes the same numbers from the local
// replica, or serves the cached server answer when the replica is empty, so
// the dashboard stays live without connectivity.
type StatsService struct {
	e *Engine
}

func (s *StatsService) Get(ctx context.Context) (couturesync.Stats, error) {
	e := s.e
	if e.net.Online() {
		st, err := e.remote.Stats(ctx)
		if err == nil {
			if data, err := json.Marshal(st); err == nil {
				if err := e.store.Set(ctx, CollectionStats, data); err != nil {
					e.logger.Warn("failed to cache stats", "error", err)
				}
			}
			return st, nil
		}
		e.logger.Warn("stats falling back to local computation", "error", err)
	}

	clients, err := loadCollection[couturesync.Client](ctx, e.store, CollectionClients)
	if err != nil {
		return couturesync.Stats{}, err
	}
	orders, err := loadCollection[couturesync.Order](ctx, e.store, CollectionOrders)
	if err != nil {
		return couturesync.Stats{}, err
	}
	// An empty replica has nothing to compute from; the last server answer,
	// if any, is a better dashboard than all zeros.
	if len(clients) == 0 && len(orders) == 0 {
		if cached, ok := s.cached(ctx); ok {
			return cached, nil
		}
	}
	return couturesync.ComputeStats(clients, orders), nil
}

func (s *StatsService) cached(ctx context.Context) (couturesync.Stats, bool) {
	data, err := s.e.store.Get(ctx, CollectionStats)
	if err != nil || len(data) == 0 {
		return couturesync.Stats{}, false
	}
	var st couturesync.Stats
	if err := json.Unmarshal(data, &st); err != nil {
		return couturesync.Stats{}, false
	}
	return st, true
}
