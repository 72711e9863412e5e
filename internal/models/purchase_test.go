package models

import (
	"testing"

	"github.com/google/uuid"
)

func TestCanTransitionPurchase(t *testing.T) {
	legal := map[[2]string]bool{
		{PurchaseStatusPending, PurchaseStatusConfirmed}:   true,
		{PurchaseStatusPending, PurchaseStatusDeclined}:    true,
		{PurchaseStatusPending, PurchaseStatusCancelled}:   true,
		{PurchaseStatusConfirmed, PurchaseStatusCompleted}: true,
	}

	statuses := []string{
		PurchaseStatusPending, PurchaseStatusConfirmed, PurchaseStatusDeclined,
		PurchaseStatusCancelled, PurchaseStatusCompleted,
	}

	for _, from := range statuses {
		for _, to := range statuses {
			want := legal[[2]string{from, to}]
			if got := CanTransitionPurchase(from, to); got != want {
				t.Errorf("CanTransitionPurchase(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestActorMayTransitionPurchase(t *testing.T) {
	buyer := uuid.New()
	seller := uuid.New()
	stranger := uuid.New()
	p := &Purchase{BuyerID: buyer, SellerID: seller}

	tests := []struct {
		name string
		user uuid.UUID
		to   string
		want bool
	}{
		{"seller may confirm", seller, PurchaseStatusConfirmed, true},
		{"buyer may not confirm", buyer, PurchaseStatusConfirmed, false},
		{"seller may decline", seller, PurchaseStatusDeclined, true},
		{"buyer may not decline", buyer, PurchaseStatusDeclined, false},
		{"buyer may cancel", buyer, PurchaseStatusCancelled, true},
		{"seller may not cancel", seller, PurchaseStatusCancelled, false},
		{"buyer may complete", buyer, PurchaseStatusCompleted, true},
		{"seller may complete", seller, PurchaseStatusCompleted, true},
		{"stranger may do nothing", stranger, PurchaseStatusConfirmed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.ActorMayTransitionPurchase(tt.user, tt.to); got != tt.want {
				t.Errorf("ActorMayTransitionPurchase(%s) = %v, want %v", tt.to, got, tt.want)
			}
		})
	}
}
