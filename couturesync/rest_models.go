// Copyright 2025 KisCouture
// SPDX-License-Identifier: Apache-2.0

package couturesync

// REST/JSON models for the HTTP API.

// SyncRequest is the bulk reconciliation upload: everything the client
// created offline (temporary ids) plus online records edited since its last
// successful sync.
type SyncRequest struct {
	Clients      []Client      `json:"clients"`
	Orders       []Order       `json:"orders"`
	Measurements []Measurement `json:"measurements"`
}

// SyncResponse echoes the authoritative snapshot after the upload has been
// applied. IDMappings maps every accepted temporary id to the server-assigned
// id; temporary ids the server rejected are simply absent and remain pending
// on the client.
type SyncResponse struct {
	Clients      []Client          `json:"clients"`
	Orders       []Order           `json:"orders"`
	Measurements []Measurement     `json:"measurements"`
	IDMappings   map[string]string `json:"id_mappings"`
}

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HealthResponse is returned by the health endpoint, which doubles as the
// connectivity probe target for offline clients.
type HealthResponse struct {
	Status  string `json:"status"`
	AppName string `json:"app_name"`
}

// DeleteResponse confirms a deletion.
type DeleteResponse struct {
	Message string `json:"message"`
}
