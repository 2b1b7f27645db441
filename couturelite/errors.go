// Copyright 2025 KisCouture
// SPDX-License-Identifier: Apache-2.0

package couturelite

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an update or delete targets a record that
	// does not exist in the local store.
	ErrNotFound = errors.New("record not found")

	// ErrOffline is returned by Reconcile when the connectivity signal
	// reports no connection; reconciliation is only meaningful online.
	ErrOffline = errors.New("offline: remote API not reachable")

	// ErrOfflineUnavailable marks operations that fundamentally require
	// connectivity (e.g. measurement creation when the caller insists on
	// server-side image processing). Not retried, surfaced to the caller.
	ErrOfflineUnavailable = errors.New("operation requires connectivity")
)

// NetworkError wraps a remote call that did not complete. Repositories never
// let it escape to callers; they degrade to the offline path instead. The
// orchestrator surfaces it only when a whole reconciliation pass fails.
type NetworkError struct {
	Op  string // e.g. "GET /api/clients"
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("remote call %s failed: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// IsNetworkError reports whether err is (or wraps) a failed remote call.
// Callers can use it to distinguish connectivity trouble, which the next
// sync pass will heal, from genuine application errors.
func IsNetworkError(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}
