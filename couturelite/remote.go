// Copyright 2025 KisCouture
// SPDX-License-Identifier: Apache-2.0

package couturelite

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/alanz0209/KisCoutureApp/couturesync"
)

// RemoteAPI is the HTTP client for the authoritative couturesync server.
// Every failed call is reported as a *NetworkError so repositories can
// uniformly degrade to the offline path.
type RemoteAPI struct {
	BaseURL string
	// Token optionally supplies a bearer token per request.
	Token func(ctx context.Context) (string, error)
	HTTP  *http.Client
}

// NewRemoteAPI creates a remote client for the given base URL
// (e.g. "http://localhost:8080").
func NewRemoteAPI(baseURL string) *RemoteAPI {
	return &RemoteAPI{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Health probes the server. Used by the connectivity monitor.
func (r *RemoteAPI) Health(ctx context.Context) error {
	return r.do(ctx, http.MethodGet, "/healthz", nil, nil, nil)
}

func (r *RemoteAPI) ListClients(ctx context.Context) ([]couturesync.Client, error) {
	var out []couturesync.Client
	if err := r.do(ctx, http.MethodGet, "/api/clients", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *RemoteAPI) CreateClient(ctx context.Context, c couturesync.Client) (couturesync.Client, error) {
	var out couturesync.Client
	err := r.do(ctx, http.MethodPost, "/api/clients", nil, c, &out)
	return out, err
}

func (r *RemoteAPI) UpdateClient(ctx context.Context, id string, patch couturesync.ClientPatch) (couturesync.Client, error) {
	var out couturesync.Client
	err := r.do(ctx, http.MethodPut, "/api/clients/"+url.PathEscape(id), nil, patch, &out)
	return out, err
}

func (r *RemoteAPI) DeleteClient(ctx context.Context, id string) error {
	return r.do(ctx, http.MethodDelete, "/api/clients/"+url.PathEscape(id), nil, nil, nil)
}

// ListOrders fetches orders, optionally filtered by status server-side.
func (r *RemoteAPI) ListOrders(ctx context.Context, status string) ([]couturesync.Order, error) {
	var query url.Values
	if status != "" {
		query = url.Values{"status": {status}}
	}
	var out []couturesync.Order
	if err := r.do(ctx, http.MethodGet, "/api/orders", query, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *RemoteAPI) CreateOrder(ctx context.Context, o couturesync.Order) (couturesync.Order, error) {
	var out couturesync.Order
	err := r.do(ctx, http.MethodPost, "/api/orders", nil, o, &out)
	return out, err
}

func (r *RemoteAPI) UpdateOrder(ctx context.Context, id string, patch couturesync.OrderPatch) (couturesync.Order, error) {
	var out couturesync.Order
	err := r.do(ctx, http.MethodPut, "/api/orders/"+url.PathEscape(id), nil, patch, &out)
	return out, err
}

func (r *RemoteAPI) DeleteOrder(ctx context.Context, id string) error {
	return r.do(ctx, http.MethodDelete, "/api/orders/"+url.PathEscape(id), nil, nil, nil)
}

func (r *RemoteAPI) ListMeasurements(ctx context.Context) ([]couturesync.Measurement, error) {
	var out []couturesync.Measurement
	if err := r.do(ctx, http.MethodGet, "/api/measurements", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *RemoteAPI) ListMeasurementsByClient(ctx context.Context, clientID string) ([]couturesync.Measurement, error) {
	var out []couturesync.Measurement
	path := "/api/measurements/client/" + url.PathEscape(clientID)
	if err := r.do(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *RemoteAPI) CreateMeasurement(ctx context.Context, m couturesync.Measurement) (couturesync.Measurement, error) {
	var out couturesync.Measurement
	err := r.do(ctx, http.MethodPost, "/api/measurements", nil, m, &out)
	return out, err
}

func (r *RemoteAPI) UpdateMeasurement(ctx context.Context, id string, patch couturesync.MeasurementPatch) (couturesync.Measurement, error) {
	var out couturesync.Measurement
	err := r.do(ctx, http.MethodPut, "/api/measurements/"+url.PathEscape(id), nil, patch, &out)
	return out, err
}

func (r *RemoteAPI) DeleteMeasurement(ctx context.Context, id string) error {
	return r.do(ctx, http.MethodDelete, "/api/measurements/"+url.PathEscape(id), nil, nil, nil)
}

func (r *RemoteAPI) Stats(ctx context.Context) (couturesync.Stats, error) {
	var out couturesync.Stats
	err := r.do(ctx, http.MethodGet, "/api/stats", nil, nil, &out)
	return out, err
}

// Sync posts the bulk reconciliation request and returns the authoritative
// snapshot plus the temporary-id mappings.
func (r *RemoteAPI) Sync(ctx context.Context, req couturesync.SyncRequest) (*couturesync.SyncResponse, error) {
	var out couturesync.SyncResponse
	if err := r.do(ctx, http.MethodPost, "/api/sync", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// do performs one JSON round trip. Any transport failure or non-2xx status
// is wrapped in *NetworkError.
func (r *RemoteAPI) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	op := method + " " + path

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body for %s: %w", op, err)
		}
		reqBody = bytes.NewReader(data)
	}

	u := r.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request %s: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.Token != nil {
		token, err := r.Token(ctx)
		if err != nil {
			return fmt.Errorf("failed to obtain token for %s: %w", op, err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	httpClient := r.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &NetworkError{Op: op, Err: fmt.Errorf("status %d: %s", resp.StatusCode, bytes.TrimSpace(data))}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &NetworkError{Op: op, Err: fmt.Errorf("failed to decode response: %w", err)}
		}
	}
	return nil
}
