// Copyright 2025 KisCouture
// SPDX-License-Identifier: Apache-2.0

package couturesync

import "time"

// Patch types carry partial updates: nil fields are left untouched. The same
// shapes serve as PUT request bodies and as the local-store merge step when a
// client edits a record offline.

// ClientPatch is a partial update of a Client.
type ClientPatch struct {
	Nom       *string `json:"nom,omitempty"`
	Prenoms   *string `json:"prenoms,omitempty"`
	Email     *string `json:"email,omitempty"`
	Telephone *string `json:"telephone,omitempty"`
}

// ApplyTo merges the patch into c and stamps updated_at.
func (p ClientPatch) ApplyTo(c *Client, now time.Time) {
	if p.Nom != nil {
		c.Nom = *p.Nom
	}
	if p.Prenoms != nil {
		c.Prenoms = *p.Prenoms
	}
	if p.Email != nil {
		c.Email = *p.Email
	}
	if p.Telephone != nil {
		c.Telephone = *p.Telephone
	}
	c.UpdatedAt = now
}

// OrderPatch is a partial update of an Order. montant_restant is always
// recomputed from the resulting amounts; an explicit status is honored as
// given (completing an order sets completed_at), matching the original
// update behavior where status is not re-derived on update.
type OrderPatch struct {
	MontantTotal  *float64 `json:"montant_total,omitempty"`
	MontantAvance *float64 `json:"montant_avance,omitempty"`
	Status        *string  `json:"status,omitempty"`
}

func (p OrderPatch) ApplyTo(o *Order, now time.Time) {
	if p.MontantTotal != nil {
		o.MontantTotal = *p.MontantTotal
	}
	if p.MontantAvance != nil {
		o.MontantAvance = *p.MontantAvance
	}
	o.MontantRestant = o.MontantTotal - o.MontantAvance
	if p.Status != nil {
		o.Status = *p.Status
		if o.Status == OrderStatusTermine && o.CompletedAt.IsZero() {
			o.CompletedAt = now
		}
	}
	o.UpdatedAt = now
}

// MeasurementPatch is a partial update of a Measurement.
type MeasurementPatch struct {
	Do               *float64 `json:"do,omitempty"`
	Poitrine         *float64 `json:"poitrine,omitempty"`
	Taille           *float64 `json:"taille,omitempty"`
	Longueur         *float64 `json:"longueur,omitempty"`
	Manche           *float64 `json:"manche,omitempty"`
	TourManche       *float64 `json:"tour_manche,omitempty"`
	Ceinture         *float64 `json:"ceinture,omitempty"`
	Bassin           *float64 `json:"bassin,omitempty"`
	Cuisse           *float64 `json:"cuisse,omitempty"`
	LongueurPantalon *float64 `json:"longueur_pantalon,omitempty"`
	Bas              *float64 `json:"bas,omitempty"`
	LongueurGenou    *float64 `json:"longueur_genou,omitempty"`
	TourMollet       *float64 `json:"tour_mollet,omitempty"`
	Description      *string  `json:"description,omitempty"`
	ImagePath        *string  `json:"image_path,omitempty"`
	ImageData        *string  `json:"image_data,omitempty"`
}

func (p MeasurementPatch) ApplyTo(m *Measurement, now time.Time) {
	if p.Do != nil {
		m.Do = p.Do
	}
	if p.Poitrine != nil {
		m.Poitrine = p.Poitrine
	}
	if p.Taille != nil {
		m.Taille = p.Taille
	}
	if p.Longueur != nil {
		m.Longueur = p.Longueur
	}
	if p.Manche != nil {
		m.Manche = p.Manche
	}
	if p.TourManche != nil {
		m.TourManche = p.TourManche
	}
	if p.Ceinture != nil {
		m.Ceinture = p.Ceinture
	}
	if p.Bassin != nil {
		m.Bassin = p.Bassin
	}
	if p.Cuisse != nil {
		m.Cuisse = p.Cuisse
	}
	if p.LongueurPantalon != nil {
		m.LongueurPantalon = p.LongueurPantalon
	}
	if p.Bas != nil {
		m.Bas = p.Bas
	}
	if p.LongueurGenou != nil {
		m.LongueurGenou = p.LongueurGenou
	}
	if p.TourMollet != nil {
		m.TourMollet = p.TourMollet
	}
	if p.Description != nil {
		m.Description = *p.Description
	}
	if p.ImagePath != nil {
		m.ImagePath = *p.ImagePath
	}
	if p.ImageData != nil {
		m.ImageData = *p.ImageData
	}
	m.UpdatedAt = now
}
