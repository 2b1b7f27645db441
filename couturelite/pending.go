// Copyright 2025 KisCouture
// SPDX-License-Identifier: Apache-2.0

package couturelite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// EntityType names the record kinds tracked by the pending queue.
type EntityType string

const (
	EntityClient      EntityType = "client"
	EntityOrder       EntityType = "order"
	EntityMeasurement EntityType = "measurement"
)

// ChangeAction is the kind of offline mutation.
type ChangeAction string

const (
	ActionCreate ChangeAction = "create"
	ActionUpdate ChangeAction = "update"
	ActionDelete ChangeAction = "delete"
)

// PendingChange is one queued offline mutation. Entries are immutable once
// appended; multiple mutations of the same record queue as separate entries.
type PendingChange struct {
	Entity    EntityType      `json:"entity_type"`
	Action    ChangeAction    `json:"action"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

// RecordID extracts the id field from the change payload, or "" when the
// payload has none.
func (c PendingChange) RecordID() string {
	var probe struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(c.Payload, &probe); err != nil {
		return ""
	}
	return probe.ID
}

// PendingQueue is the append-only log of unsynced local mutations, persisted
// under the pending_changes collection.
type PendingQueue struct {
	store Store
	now   func() time.Time
}

// Append stamps the change with the capture time and appends it. No
// deduplication: a record created then updated offline produces two entries.
func (q *PendingQueue) Append(ctx context.Context, entity EntityType, action ChangeAction, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode pending change payload: %w", err)
	}
	changes, err := loadCollection[PendingChange](ctx, q.store, CollectionPending)
	if err != nil {
		return err
	}
	changes = append(changes, PendingChange{
		Entity:    entity,
		Action:    action,
		Payload:   data,
		Timestamp: q.now(),
	})
	return saveCollection(ctx, q.store, CollectionPending, changes)
}

// All returns the queued changes without consuming them.
func (q *PendingQueue) All(ctx context.Context) ([]PendingChange, error) {
	return loadCollection[PendingChange](ctx, q.store, CollectionPending)
}

// DrainAll returns the full list and clears it. Called once per sync pass,
// after the upload succeeded; a crash between drain and persist loses the
// drained entries (accepted at-most-once processing).
func (q *PendingQueue) DrainAll(ctx context.Context) ([]PendingChange, error) {
	changes, err := loadCollection[PendingChange](ctx, q.store, CollectionPending)
	if err != nil {
		return nil, err
	}
	if err := saveCollection(ctx, q.store, CollectionPending, []PendingChange{}); err != nil {
		return nil, err
	}
	return changes, nil
}

// Requeue puts previously drained changes back, preserving their original
// capture timestamps. Used for entries whose upload did not succeed.
func (q *PendingQueue) Requeue(ctx context.Context, changes []PendingChange) error {
	if len(changes) == 0 {
		return nil
	}
	current, err := loadCollection[PendingChange](ctx, q.store, CollectionPending)
	if err != nil {
		return err
	}
	current = append(current, changes...)
	return saveCollection(ctx, q.store, CollectionPending, current)
}
