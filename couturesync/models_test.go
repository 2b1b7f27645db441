package couturesync

import (
	"testing"
	"time"
)

func TestIsTempID(t *testing.T) {
	tests := []struct {
		name     string
		id       string
		expected bool
	}{
		{"temp id", "temp_1735689600000", true},
		{"uuid", "550e8400-e29b-41d4-a716-446655440000", false},
		{"empty", "", false},
		{"prefix only", "temp_", true},
		{"temp in middle", "id_temp_1", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTempID(tt.id); got != tt.expected {
				t.Errorf("IsTempID(%q) = %v, expected %v", tt.id, got, tt.expected)
			}
		})
	}
}

func TestOrderDerive(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("outstanding balance keeps order en_cours", func(t *testing.T) {
		o := Order{MontantTotal: 100, MontantAvance: 40}
		o.Derive(now)
		if o.MontantRestant != 60 {
			t.Errorf("expected restant 60, got %v", o.MontantRestant)
		}
		if o.Status != OrderStatusEnCours {
			t.Errorf("expected status %s, got %s", OrderStatusEnCours, o.Status)
		}
		if !o.CompletedAt.IsZero() {
			t.Error("en_cours order should not carry completed_at")
		}
	})

	t.Run("full payment completes the order", func(t *testing.T) {
		o := Order{MontantTotal: 100, MontantAvance: 100}
		o.Derive(now)
		if o.Status != OrderStatusTermine {
			t.Errorf("expected status %s, got %s", OrderStatusTermine, o.Status)
		}
		if !o.CompletedAt.Equal(now) {
			t.Errorf("expected completed_at %v, got %v", now, o.CompletedAt)
		}
	})

	t.Run("overpayment also completes", func(t *testing.T) {
		o := Order{MontantTotal: 100, MontantAvance: 120}
		o.Derive(now)
		if o.Status != OrderStatusTermine {
			t.Errorf("expected status %s, got %s", OrderStatusTermine, o.Status)
		}
		if o.MontantRestant != -20 {
			t.Errorf("expected restant -20, got %v", o.MontantRestant)
		}
	})

	t.Run("existing completed_at is preserved", func(t *testing.T) {
		earlier := now.Add(-24 * time.Hour)
		o := Order{MontantTotal: 50, MontantAvance: 50, CompletedAt: earlier}
		o.Derive(now)
		if !o.CompletedAt.Equal(earlier) {
			t.Errorf("expected completed_at %v, got %v", earlier, o.CompletedAt)
		}
	})

	t.Run("refund reopens the order", func(t *testing.T) {
		o := Order{MontantTotal: 100, MontantAvance: 100}
		o.Derive(now)
		o.MontantAvance = 30
		o.Derive(now.Add(time.Hour))
		if o.Status != OrderStatusEnCours {
			t.Errorf("expected status %s, got %s", OrderStatusEnCours, o.Status)
		}
		if !o.CompletedAt.IsZero() {
			t.Error("reopened order should clear completed_at")
		}
	})
}

func TestClientNaturalKey(t *testing.T) {
	a := &Client{Nom: "Diallo", Prenoms: "Aissatou"}
	b := &Client{Nom: "Diallo", Prenoms: "Aissatou", Telephone: "0102030405"}
	c := &Client{Nom: "Diall", Prenoms: "oAissatou"}

	if a.NaturalKey() != b.NaturalKey() {
		t.Error("same nom+prenoms should produce the same natural key")
	}
	if a.NaturalKey() == c.NaturalKey() {
		t.Error("natural key must not collide across field boundaries")
	}
}

func TestModifiedAtFallback(t *testing.T) {
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	updated := created.Add(time.Hour)

	c := &Client{CreatedAt: created, UpdatedAt: updated}
	if !c.ModifiedAt().Equal(updated) {
		t.Errorf("expected updated_at %v, got %v", updated, c.ModifiedAt())
	}

	c = &Client{CreatedAt: created}
	if !c.ModifiedAt().Equal(created) {
		t.Errorf("expected created_at fallback %v, got %v", created, c.ModifiedAt())
	}
}

func TestComputeStats(t *testing.T) {
	clients := []Client{{ID: "c1"}, {ID: "c2"}}
	orders := []Order{
		{ID: "o1", ClientID: "c1", MontantTotal: 100, MontantAvance: 40, MontantRestant: 60, Status: OrderStatusEnCours},
		{ID: "o2", ClientID: "c2", MontantTotal: 200, MontantAvance: 200, MontantRestant: 0, Status: OrderStatusTermine},
		// Orphaned order: excluded from every aggregate.
		{ID: "o3", ClientID: "", MontantTotal: 999, Status: OrderStatusEnCours},
	}

	st := ComputeStats(clients, orders)
	if st.TotalClients != 2 {
		t.Errorf("expected 2 clients, got %d", st.TotalClients)
	}
	if st.TotalOrders != 2 {
		t.Errorf("expected 2 orders, got %d", st.TotalOrders)
	}
	if st.OrdersEnCours != 1 || st.OrdersTermine != 1 {
		t.Errorf("unexpected status counts: %d en_cours, %d termine", st.OrdersEnCours, st.OrdersTermine)
	}
	if st.TotalRevenue != 300 {
		t.Errorf("expected revenue 300, got %v", st.TotalRevenue)
	}
	if st.TotalAvance != 240 {
		t.Errorf("expected avance 240, got %v", st.TotalAvance)
	}
	if st.TotalRestant != 60 {
		t.Errorf("expected restant 60, got %v", st.TotalRestant)
	}
}
