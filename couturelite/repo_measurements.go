// Copyright 2025 KisCouture
// SPDX-License-Identifier: Apache-2.0

package couturelite

import (
	"context"
	"encoding/base64"

	"github.com/alanz0209/KisCoutureApp/couturesync"
)

// ImageAttachment is a reference photo captured alongside a measurement.
type ImageAttachment struct {
	Name string
	Data []byte
}

// MeasurementRepo is the offline-capable facade over the measurements
// collection. When operating offline, attached images are inlined into the
// record as base64 so the measurement stays self-contained until it can be
// uploaded. If the engine is configured to require server-side image
// processing, offline image writes fail with ErrOfflineUnavailable instead.
type MeasurementRepo struct {
	e *Engine
}

// ListByClient returns the measurements for one client. A temporary client id
// can only exist locally, so it short-circuits to the local replica. Online,
// the remote result replaces the client's local entries.
func (r *MeasurementRepo) ListByClient(ctx context.Context, clientID string) ([]couturesync.Measurement, error) {
	e := r.e
	if !couturesync.IsTempID(clientID) && e.net.Online() {
		fresh, err := e.remote.ListMeasurementsByClient(ctx, clientID)
		if err == nil {
			tagOnline[couturesync.Measurement](fresh)
			all, err := loadCollection[couturesync.Measurement](ctx, e.store, CollectionMeasurements)
			if err != nil {
				return nil, err
			}
			kept := all[:0]
			for _, m := range all {
				if m.ClientID != clientID {
					kept = append(kept, m)
				}
			}
			kept = append(kept, fresh...)
			if err := saveCollection(ctx, e.store, CollectionMeasurements, kept); err != nil {
				return nil, err
			}
			return fresh, nil
		}
		e.logger.Warn("measurement list falling back to local replica", "client_id", clientID, "error", err)
	}

	all, err := loadCollection[couturesync.Measurement](ctx, e.store, CollectionMeasurements)
	if err != nil {
		return nil, err
	}
	var out []couturesync.Measurement
	for _, m := range all {
		if m.ClientID == clientID {
			out = append(out, m)
		}
	}
	return out, nil
}

// Create registers a new measurement, inlining the image when one is
// attached.
func (r *MeasurementRepo) Create(ctx context.Context, m couturesync.Measurement, img *ImageAttachment) (couturesync.Measurement, error) {
	e := r.e
	if img != nil {
		m.ImagePath = img.Name
		m.ImageData = base64.StdEncoding.EncodeToString(img.Data)
	}

	if e.net.Online() {
		created, err := e.remote.CreateMeasurement(ctx, m)
		if err == nil {
			created.SyncSource = couturesync.SyncSourceOnline
			return created, nil
		}
		e.logger.Warn("measurement create falling back to offline", "error", err)
	}

	if img != nil && e.config.RequireServerImages {
		return couturesync.Measurement{}, ErrOfflineUnavailable
	}

	now := e.now()
	m.ID = NewTempID()
	m.CreatedAt = now
	m.UpdatedAt = now
	m.SyncSource = couturesync.SyncSourceOffline

	all, err := loadCollection[couturesync.Measurement](ctx, e.store, CollectionMeasurements)
	if err != nil {
		return couturesync.Measurement{}, err
	}
	all = append(all, m)
	if err := saveCollection(ctx, e.store, CollectionMeasurements, all); err != nil {
		return couturesync.Measurement{}, err
	}
	if err := e.queue.Append(ctx, EntityMeasurement, ActionCreate, m); err != nil {
		return couturesync.Measurement{}, err
	}
	return m, nil
}

// Update applies a partial update. When no new image is attached the
// existing inline image is preserved (the patch leaves nil fields alone).
func (r *MeasurementRepo) Update(ctx context.Context, id string, patch couturesync.MeasurementPatch, img *ImageAttachment) (couturesync.Measurement, error) {
	e := r.e
	if img != nil {
		encoded := base64.StdEncoding.EncodeToString(img.Data)
		patch.ImagePath = &img.Name
		patch.ImageData = &encoded
	}

	if e.net.Online() {
		updated, err := e.remote.UpdateMeasurement(ctx, id, patch)
		if err == nil {
			updated.SyncSource = couturesync.SyncSourceOnline
			all, err := loadCollection[couturesync.Measurement](ctx, e.store, CollectionMeasurements)
			if err != nil {
				return couturesync.Measurement{}, err
			}
			if i := indexByID[couturesync.Measurement](all, id); i >= 0 {
				all[i] = updated
				if err := saveCollection(ctx, e.store, CollectionMeasurements, all); err != nil {
					return couturesync.Measurement{}, err
				}
			}
			return updated, nil
		}
		e.logger.Warn("measurement update falling back to offline", "id", id, "error", err)
	}

	if img != nil && e.config.RequireServerImages {
		return couturesync.Measurement{}, ErrOfflineUnavailable
	}

	all, err := loadCollection[couturesync.Measurement](ctx, e.store, CollectionMeasurements)
	if err != nil {
		return couturesync.Measurement{}, err
	}
	i := indexByID[couturesync.Measurement](all, id)
	if i < 0 {
		return couturesync.Measurement{}, ErrNotFound
	}
	patch.ApplyTo(&all[i], e.now())
	if err := saveCollection(ctx, e.store, CollectionMeasurements, all); err != nil {
		return couturesync.Measurement{}, err
	}
	if err := e.queue.Append(ctx, EntityMeasurement, ActionUpdate, all[i]); err != nil {
		return couturesync.Measurement{}, err
	}
	return all[i], nil
}

// Delete removes the measurement, queueing a remote delete when it could not
// be confirmed.
func (r *MeasurementRepo) Delete(ctx context.Context, id string) error {
	e := r.e
	confirmed := false
	if e.net.Online() {
		if err := e.remote.DeleteMeasurement(ctx, id); err == nil {
			confirmed = true
		} else {
			e.logger.Warn("remote measurement delete failed, queueing", "id", id, "error", err)
		}
	}

	all, err := loadCollection[couturesync.Measurement](ctx, e.store, CollectionMeasurements)
	if err != nil {
		return err
	}
	all, _ = removeByID[couturesync.Measurement](all, id)
	if err := saveCollection(ctx, e.store, CollectionMeasurements, all); err != nil {
		return err
	}
	if !confirmed {
		return e.queue.Append(ctx, EntityMeasurement, ActionDelete, deleteRef{ID: id})
	}
	return nil
}
