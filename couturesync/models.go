// Copyright 2025 KisCouture
// SPDX-License-Identifier: Apache-2.0

package couturesync

import (
	"strings"
	"time"
)

// SyncSource tags a record's provenance. Online records came from the
// authoritative server; offline records were created or edited locally while
// the remote API was unreachable and still await reconciliation.
type SyncSource string

const (
	SyncSourceOnline  SyncSource = "online"
	SyncSourceOffline SyncSource = "offline"
)

// TempIDPrefix marks locally generated placeholder ids. Server-assigned ids
// are opaque UUIDs and never carry this prefix, so the two id spaces are
// lexically disjoint.
const TempIDPrefix = "temp_"

// IsTempID reports whether id is a locally generated placeholder that has not
// been acknowledged by the server yet.
func IsTempID(id string) bool {
	return strings.HasPrefix(id, TempIDPrefix)
}

// Order statuses.
const (
	OrderStatusEnCours = "en_cours"
	OrderStatusTermine = "termine"
)

// Record is implemented by every syncable entity type. The sync engine only
// needs identity, conflict-ordering timestamps and the provenance tag; all
// entity-specific fields ride along opaquely.
type Record interface {
	RecordID() string
	SetRecordID(id string)
	// ModifiedAt returns updated_at, falling back to created_at, falling back
	// to the zero time. Used for last-write-wins ordering during merge.
	ModifiedAt() time.Time
	Source() SyncSource
	SetSource(src SyncSource)
	// NaturalKey returns a content-based identity used to detect that an
	// unsynced local record duplicates a server record. Empty string means
	// the type has no natural key and no dedup is attempted.
	NaturalKey() string
}

// ClientScoped is implemented by record types carrying a foreign reference to
// a Client. Used to rewrite references when temporary client ids are replaced
// by server-assigned ones.
type ClientScoped interface {
	ClientRef() string
	SetClientRef(id string)
}

// Client is an atelier customer.
type Client struct {
	ID         string     `json:"id"`
	Nom        string     `json:"nom"`
	Prenoms    string     `json:"prenoms"`
	Email      string     `json:"email,omitempty"`
	Telephone  string     `json:"telephone"`
	CreatedAt  time.Time  `json:"created_at,omitzero"`
	UpdatedAt  time.Time  `json:"updated_at,omitzero"`
	SyncSource SyncSource `json:"sync_source,omitempty"`
}

func (c *Client) RecordID() string { return c.ID }
func (c *Client) SetRecordID(id string) { c.ID = id }
func (c *Client) ModifiedAt() time.Time { return coalesceTime(c.UpdatedAt, c.CreatedAt) }
func (c *Client) Source() SyncSource { return c.SyncSource }
func (c *Client) SetSource(src SyncSource) { c.SyncSource = src }

// NaturalKey matches clients by full name. Deliberately approximate: the
// original system had no stronger identity for offline-created clients.
func (c *Client) NaturalKey() string { return c.Nom + "\x1f" + c.Prenoms }

// Order is a tailoring commande for a client.
type Order struct {
	ID             string     `json:"id"`
	ClientID       string     `json:"client_id"`
	MontantTotal   float64    `json:"montant_total"`
	MontantAvance  float64    `json:"montant_avance"`
	MontantRestant float64    `json:"montant_restant"`
	Status         string     `json:"status"`
	CreatedAt      time.Time  `json:"created_at,omitzero"`
	UpdatedAt      time.Time  `json:"updated_at,omitzero"`
	CompletedAt    time.Time  `json:"completed_at,omitzero"`
	SyncSource     SyncSource `json:"sync_source,omitempty"`
}

func (o *Order) RecordID() string { return o.ID }
func (o *Order) SetRecordID(id string) { o.ID = id }
func (o *Order) ModifiedAt() time.Time { return coalesceTime(o.UpdatedAt, o.CreatedAt) }
func (o *Order) Source() SyncSource { return o.SyncSource }
func (o *Order) SetSource(src SyncSource) { o.SyncSource = src }
func (o *Order) NaturalKey() string { return "" }

func (o *Order) ClientRef() string { return o.ClientID }
func (o *Order) SetClientRef(id string) { o.ClientID = id }

// Derive computes montant_restant, status and completed_at from the order's
// amounts. Clients run the same computation when creating orders offline, so
// an offline-created order is immediately consistent with what the server
// will eventually store.
func (o *Order) Derive(now time.Time) {
	o.MontantRestant = o.MontantTotal - o.MontantAvance
	if o.MontantRestant <= 0 {
		o.Status = OrderStatusTermine
		if o.CompletedAt.IsZero() {
			o.CompletedAt = now
		}
	} else {
		o.Status = OrderStatusEnCours
		o.CompletedAt = time.Time{}
	}
}

// Measurement holds a client's body measurements. All measures are optional;
// the reference image is either a server-side path or, when captured offline,
// an inline base64 blob in ImageData.
type Measurement struct {
	ID               string     `json:"id"`
	ClientID         string     `json:"client_id"`
	Do               *float64   `json:"do,omitempty"`
	Poitrine         *float64   `json:"poitrine,omitempty"`
	Taille           *float64   `json:"taille,omitempty"`
	Longueur         *float64   `json:"longueur,omitempty"`
	Manche           *float64   `json:"manche,omitempty"`
	TourManche       *float64   `json:"tour_manche,omitempty"`
	Ceinture         *float64   `json:"ceinture,omitempty"`
	Bassin           *float64   `json:"bassin,omitempty"`
	Cuisse           *float64   `json:"cuisse,omitempty"`
	LongueurPantalon *float64   `json:"longueur_pantalon,omitempty"`
	Bas              *float64   `json:"bas,omitempty"`
	LongueurGenou    *float64   `json:"longueur_genou,omitempty"`
	TourMollet       *float64   `json:"tour_mollet,omitempty"`
	Description      string     `json:"description,omitempty"`
	ImagePath        string     `json:"image_path,omitempty"`
	ImageData        string     `json:"image_data,omitempty"`
	CreatedAt        time.Time  `json:"created_at,omitzero"`
	UpdatedAt        time.Time  `json:"updated_at,omitzero"`
	SyncSource       SyncSource `json:"sync_source,omitempty"`
}

func (m *Measurement) RecordID() string { return m.ID }
func (m *Measurement) SetRecordID(id string) { m.ID = id }
func (m *Measurement) ModifiedAt() time.Time { return coalesceTime(m.UpdatedAt, m.CreatedAt) }
func (m *Measurement) Source() SyncSource { return m.SyncSource }
func (m *Measurement) SetSource(src SyncSource) { m.SyncSource = src }
func (m *Measurement) NaturalKey() string { return "" }

func (m *Measurement) ClientRef() string { return m.ClientID }
func (m *Measurement) SetClientRef(id string) { m.ClientID = id }

// Stats is the dashboard aggregate over clients and orders.
type Stats struct {
	TotalClients  int     `json:"total_clients"`
	TotalOrders   int     `json:"total_orders"`
	OrdersEnCours int     `json:"orders_en_cours"`
	OrdersTermine int     `json:"orders_termine"`
	TotalRevenue  float64 `json:"total_revenue"`
	TotalAvance   float64 `json:"total_avance"`
	TotalRestant  float64 `json:"total_restant"`
}

// ComputeStats derives the dashboard aggregate from raw collections. Shared
// by the server (as a cross-check in tests) and the client's offline stats
// fallback so both report identical numbers. Orders with no client reference
// are excluded, matching the original dashboard behavior.
func ComputeStats(clients []Client, orders []Order) Stats {
	st := Stats{TotalClients: len(clients)}
	for _, o := range orders {
		if o.ClientID == "" {
			continue
		}
		st.TotalOrders++
		switch o.Status {
		case OrderStatusTermine:
			st.OrdersTermine++
		case OrderStatusEnCours:
			st.OrdersEnCours++
		}
		st.TotalRevenue += o.MontantTotal
		st.TotalAvance += o.MontantAvance
		st.TotalRestant += o.MontantRestant
	}
	return st
}

func coalesceTime(updated, created time.Time) time.Time {
	if !updated.IsZero() {
		return updated
	}
	return created
}
