package models

import (
	"time"

	"github.com/google/uuid"
)

// Purchase statuses.
//
// Status flow:
//
//	pending -> confirmed -> completed
//	        -> declined
//	        -> cancelled (by buyer)
const (
	PurchaseStatusPending   = "pending"
	PurchaseStatusConfirmed = "confirmed"
	PurchaseStatusDeclined  = "declined"
	PurchaseStatusCancelled = "cancelled"
	PurchaseStatusCompleted = "completed"
)

// Purchase represents a buy request for a single item at its listed
// price. Item fields are snapshotted at request time.
type Purchase struct {
	ID          uuid.UUID  `json:"id"`
	ItemID      uuid.UUID  `json:"item_id"`
	ItemTitle   string     `json:"item_title"`
	ItemImage   string     `json:"item_image,omitempty"`
	ItemPrice   int64      `json:"item_price"`
	BuyerID     uuid.UUID  `json:"buyer_id"`
	BuyerName   string     `json:"buyer_name"`
	SellerID    uuid.UUID  `json:"seller_id"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	Buyer  *PublicUser `json:"buyer,omitempty"`
	Seller *PublicUser `json:"seller,omitempty"`
}

// CanTransitionPurchase reports whether a status move is legal.
func CanTransitionPurchase(from, to string) bool {
	switch from {
	case PurchaseStatusPending:
		return to == PurchaseStatusConfirmed || to == PurchaseStatusDeclined || to == PurchaseStatusCancelled
	case PurchaseStatusConfirmed:
		return to == PurchaseStatusCompleted
	default:
		return false
	}
}

// ActorMayTransitionPurchase enforces who may request each status:
// confirm/decline belong to the seller, cancel to the buyer, and either
// party may complete a confirmed purchase.
func (p *Purchase) ActorMayTransitionPurchase(userID uuid.UUID, to string) bool {
	switch to {
	case PurchaseStatusConfirmed, PurchaseStatusDeclined:
		return userID == p.SellerID
	case PurchaseStatusCancelled:
		return userID == p.BuyerID
	case PurchaseStatusCompleted:
		return userID == p.SellerID || userID == p.BuyerID
	default:
		return false
	}
}
