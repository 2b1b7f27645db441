// Copyright 2025 KisCouture
// SPDX-License-Identifier: Apache-2.0

// Package couturelite is the offline-first client engine for KisCouture.
//
// It keeps a local replica of the atelier dataset (clients, orders, body
// measurements) in a durable key-value store, lets the application read and
// mutate it whether or not the authoritative server is reachable, queues
// offline mutations, and reconciles the replica with the server once
// connectivity returns.
package couturelite

import (
	"log/slog"
	"sync/atomic"
	"time"
)

// Config holds tuning knobs for the engine.
type Config struct {
	// RequireServerImages refuses offline measurement writes that attach an
	// image, instead of falling back to inline base64 storage. Deployments
	// that depend on server-side image processing set this.
	RequireServerImages bool

	// SyncMinInterval is the minimum gap between reconciliation attempts
	// enforced by the scheduler.
	SyncMinInterval time.Duration

	// SyncTick is how often the scheduler re-checks whether a periodic
	// reconciliation is due.
	SyncTick time.Duration

	// ProbeInterval is how often the connectivity monitor probes the server.
	ProbeInterval time.Duration
}

// DefaultConfig returns the production defaults.
func DefaultConfig() *Config {
	return &Config{
		SyncMinInterval: 5 * time.Minute,
		SyncTick:        time.Minute,
		ProbeInterval:   30 * time.Second,
	}
}

// Engine wires the local store, the remote API and the connectivity signal
// into the per-entity repositories, the pending change queue and the sync
// orchestrator. One Engine serves one operator session; its operations are
// safe to call from a single logical thread of control.
type Engine struct {
	Clients      *ClientRepo
	Orders       *OrderRepo
	Measurements *MeasurementRepo
	Stats        *StatsService

	store  Store
	remote *RemoteAPI
	net    Connectivity
	state  *SyncState
	queue  *PendingQueue
	config *Config
	logger *slog.Logger

	now     func() time.Time
	syncing atomic.Bool // guards against overlapping reconciliation passes
}

// NewEngine creates an engine. config may be nil for defaults; logger may be
// nil for slog.Default().
func NewEngine(store Store, remote *RemoteAPI, net Connectivity, config *Config, logger *slog.Logger) *Engine {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		store:  store,
		remote: remote,
		net:    net,
		state:  NewSyncState(store),
		config: config,
		logger: logger,
		now:    time.Now,
	}
	e.queue = &PendingQueue{store: store, now: func() time.Time { return e.now() }}
	e.Clients = &ClientRepo{e: e}
	e.Orders = &OrderRepo{e: e}
	e.Measurements = &MeasurementRepo{e: e}
	e.Stats = &StatsService{e: e}
	return e
}

// State exposes the sync metadata accessor shared with the scheduler.
func (e *Engine) State() *SyncState { return e.state }

// Queue exposes the pending change queue.
func (e *Engine) Queue() *PendingQueue { return e.queue }

// Online reports the current connectivity state.
func (e *Engine) Online() bool { return e.net.Online() }
