// Copyright 2025 KisCouture
// SPDX-License-Identifier: Apache-2.0

package couturelite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Collection names used in the local store. The three entity collections hold
// JSON arrays of records; the remaining keys hold engine-owned metadata.
const (
	CollectionClients      = "clients"
	CollectionOrders       = "orders"
	CollectionMeasurements = "measurements"
	CollectionPending      = "pending_changes"
	CollectionLastSync     = "last_sync"
	CollectionLastAttempt  = "last_sync_attempt"
	CollectionStats        = "stats"
)

// Store is the durable key-value mapping from collection name to an encoded
// sequence of records. Get returns (nil, nil) for a collection that has never
// been written.
type Store interface {
	Get(ctx context.Context, collection string) ([]byte, error)
	Set(ctx context.Context, collection string, data []byte) error
}

// SQLiteStore is the durable Store implementation, a single key-value table
// in a SQLite database file. It survives process restarts, which is what
// carries the replica and the pending queue across offline sessions.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore prepares the backing table and returns a store bound to db.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS offline_data (
		collection TEXT NOT NULL PRIMARY KEY,
		payload    BLOB NOT NULL,
		updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
	)`)
	if err != nil {
		return nil, fmt.Errorf("failed to create offline_data table: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, collection string) ([]byte, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM offline_data WHERE collection = ?`, collection).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read collection %s: %w", collection, err)
	}
	return payload, nil
}

func (s *SQLiteStore) Set(ctx context.Context, collection string, data []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO offline_data (collection, payload, updated_at)
		VALUES (?, ?, strftime('%Y-%m-%dT%H:%M:%fZ','now'))
		ON CONFLICT(collection) DO UPDATE SET
			payload = excluded.payload,
			updated_at = excluded.updated_at
	`, collection, data)
	if err != nil {
		return fmt.Errorf("failed to write collection %s: %w", collection, err)
	}
	return nil
}

// MemStore is an in-memory Store for tests and throwaway sessions.
type MemStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemStore() *MemStore {
	return &MemStore{data: make(map[string][]byte)}
}

func (s *MemStore) Get(_ context.Context, collection string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.data[collection]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (s *MemStore) Set(_ context.Context, collection string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	s.data[collection] = cp
	return nil
}

// loadCollection decodes a stored collection into a typed slice. A missing
// collection decodes to an empty slice; a payload that does not match the
// schema is rejected here, at the store boundary, rather than leaking
// malformed records into the engine.
func loadCollection[T any](ctx context.Context, store Store, collection string) ([]T, error) {
	data, err := store.Get(ctx, collection)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return []T{}, nil
	}
	var records []T
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("collection %s holds malformed records: %w", collection, err)
	}
	return records, nil
}

// saveCollection encodes and persists a typed slice under collection.
func saveCollection[T any](ctx context.Context, store Store, collection string, records []T) error {
	if records == nil {
		records = []T{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to encode collection %s: %w", collection, err)
	}
	return store.Set(ctx, collection, data)
}

// SyncState gives the orchestrator and the scheduler their documented access
// to the process-wide sync metadata. It is injected rather than global so
// tests can use an isolated store.
type SyncState struct {
	store Store
}

func NewSyncState(store Store) *SyncState {
	return &SyncState{store: store}
}

// LastSync returns the timestamp of the last successful full reconciliation,
// or the zero time when none has completed yet.
func (s *SyncState) LastSync(ctx context.Context) (time.Time, error) {
	return s.loadTime(ctx, CollectionLastSync)
}

func (s *SyncState) SetLastSync(ctx context.Context, t time.Time) error {
	return s.saveTime(ctx, CollectionLastSync, t)
}

// LastSyncAttempt returns the timestamp of the last attempted reconciliation,
// successful or not.
func (s *SyncState) LastSyncAttempt(ctx context.Context) (time.Time, error) {
	return s.loadTime(ctx, CollectionLastAttempt)
}

func (s *SyncState) SetLastSyncAttempt(ctx context.Context, t time.Time) error {
	return s.saveTime(ctx, CollectionLastAttempt, t)
}

func (s *SyncState) loadTime(ctx context.Context, collection string) (time.Time, error) {
	data, err := s.store.Get(ctx, collection)
	if err != nil {
		return time.Time{}, err
	}
	if len(data) == 0 {
		return time.Time{}, nil
	}
	var t time.Time
	if err := json.Unmarshal(data, &t); err != nil {
		return time.Time{}, fmt.Errorf("collection %s holds a malformed timestamp: %w", collection, err)
	}
	return t, nil
}

func (s *SyncState) saveTime(ctx context.Context, collection string, t time.Time) error {
	data, err := json.Marshal(t)
	if err != nil {
		return err
	}
	return s.store.Set(ctx, collection, data)
}
