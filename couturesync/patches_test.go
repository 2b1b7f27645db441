package couturesync

import (
	"testing"
	"time"
)

func TestClientPatchApplyTo(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	c := Client{ID: "c1", Nom: "Diallo", Prenoms: "Aissatou", Telephone: "01020304"}

	tel := "0999"
	ClientPatch{Telephone: &tel}.ApplyTo(&c, now)

	if c.Telephone != "0999" {
		t.Errorf("expected patched telephone, got %q", c.Telephone)
	}
	if c.Nom != "Diallo" || c.Prenoms != "Aissatou" {
		t.Error("unpatched fields must not change")
	}
	if !c.UpdatedAt.Equal(now) {
		t.Errorf("expected updated_at %v, got %v", now, c.UpdatedAt)
	}
}

func TestOrderPatchRecomputesRestant(t *testing.T) {
	now := time.Now()
	o := Order{MontantTotal: 100, MontantAvance: 20, MontantRestant: 80, Status: OrderStatusEnCours}

	avance := 70.0
	OrderPatch{MontantAvance: &avance}.ApplyTo(&o, now)
	if o.MontantRestant != 30 {
		t.Errorf("expected restant 30, got %v", o.MontantRestant)
	}
	if o.Status != OrderStatusEnCours {
		t.Errorf("status must not change without an explicit patch, got %s", o.Status)
	}
}

func TestOrderPatchExplicitCompletion(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	o := Order{MontantTotal: 100, MontantAvance: 20, Status: OrderStatusEnCours}

	status := OrderStatusTermine
	OrderPatch{Status: &status}.ApplyTo(&o, now)
	if o.Status != OrderStatusTermine {
		t.Errorf("expected termine, got %s", o.Status)
	}
	if !o.CompletedAt.Equal(now) {
		t.Errorf("expected completed_at %v, got %v", now, o.CompletedAt)
	}
	// The explicit status stands even though a balance remains.
	if o.MontantRestant != 80 {
		t.Errorf("expected restant 80, got %v", o.MontantRestant)
	}
}

func TestMeasurementPatchPreservesUnsetFields(t *testing.T) {
	now := time.Now()
	poitrine := 92.0
	m := Measurement{ClientID: "c1", Poitrine: &poitrine, ImagePath: "/uploads/m1.jpg"}

	taille := 70.0
	MeasurementPatch{Taille: &taille}.ApplyTo(&m, now)

	if m.Taille == nil || *m.Taille != 70 {
		t.Error("expected taille to be patched")
	}
	if m.Poitrine == nil || *m.Poitrine != 92 {
		t.Error("unpatched measure must survive")
	}
	if m.ImagePath != "/uploads/m1.jpg" {
		t.Error("image must survive a patch that does not mention it")
	}
}
