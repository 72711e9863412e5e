package models

import (
	"time"

	"github.com/google/uuid"
)

// Exchange statuses.
//
// Status flow:
//
//	pending -> accepted -> completed
//	        -> declined
//	        -> cancelled (by proposer)
const (
	ExchangeStatusPending   = "pending"
	ExchangeStatusAccepted  = "accepted"
	ExchangeStatusDeclined  = "declined"
	ExchangeStatusCancelled = "cancelled"
	ExchangeStatusCompleted = "completed"
)

// Payment directions for the cash difference of an exchange.
const (
	PaymentByProposer = "proposer"
	PaymentByReceiver = "receiver"
	PaymentByNone     = "none"
)

// Exchange represents a bartering proposal between two items. Item
// title/image/price are snapshotted at proposal time so the record stays
// readable after the items change.
type Exchange struct {
	ID                uuid.UUID  `json:"id"`
	ProposerID        uuid.UUID  `json:"proposer_id"`
	ProposerItemID    uuid.UUID  `json:"proposer_item_id"`
	ProposerItemTitle string     `json:"proposer_item_title"`
	ProposerItemImage string     `json:"proposer_item_image,omitempty"`
	ProposerItemPrice int64      `json:"proposer_item_price"`
	ReceiverID        uuid.UUID  `json:"receiver_id"`
	ReceiverItemID    uuid.UUID  `json:"receiver_item_id"`
	ReceiverItemTitle string     `json:"receiver_item_title"`
	ReceiverItemImage string     `json:"receiver_item_image,omitempty"`
	ReceiverItemPrice int64      `json:"receiver_item_price"`
	AdditionalCash    int64      `json:"additional_cash"`
	PriceDifference   int64      `json:"price_difference"`
	PaymentDirection  string     `json:"payment_direction"`
	Message           string     `json:"message,omitempty"`
	Status            string     `json:"status"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`

	Proposer *PublicUser `json:"proposer,omitempty"`
	Receiver *PublicUser `json:"receiver,omitempty"`
}

// PriceDifference returns the absolute gap between the two item prices.
func PriceDifference(a, b int64) int64 {
	if a > b {
		return a - b
	}
	return b - a
}

// PaymentDirection determines who covers the price gap of an exchange.
// If the receiver's item is worth more, the proposer pays the difference;
// if it is worth less, the receiver does; equal prices need no payment.
func PaymentDirection(proposerItemPrice, receiverItemPrice int64) (payer string, amount int64) {
	diff := receiverItemPrice - proposerItemPrice
	switch {
	case diff > 0:
		return PaymentByProposer, diff
	case diff < 0:
		return PaymentByReceiver, -diff
	default:
		return PaymentByNone, 0
	}
}

// CanTransitionExchange reports whether a status move is legal.
func CanTransitionExchange(from, to string) bool {
	switch from {
	case ExchangeStatusPending:
		return to == ExchangeStatusAccepted || to == ExchangeStatusDeclined || to == ExchangeStatusCancelled
	case ExchangeStatusAccepted:
		return to == ExchangeStatusCompleted
	default:
		return false
	}
}

// ActorMayTransitionExchange enforces who may request each status:
// accept/decline belong to the receiver, cancel to the proposer, and
// either party may complete an accepted exchange.
func (e *Exchange) ActorMayTransitionExchange(userID uuid.UUID, to string) bool {
	switch to {
	case ExchangeStatusAccepted, ExchangeStatusDeclined:
		return userID == e.ReceiverID
	case ExchangeStatusCancelled:
		return userID == e.ProposerID
	case ExchangeStatusCompleted:
		return userID == e.ProposerID || userID == e.ReceiverID
	default:
		return false
	}
}

// IsParty reports whether the user is one of the two sides of the exchange.
func (e *Exchange) IsParty(userID uuid.UUID) bool {
	return userID == e.ProposerID || userID == e.ReceiverID
}

// OtherParty returns the counterpart of the given user in the exchange.
func (e *Exchange) OtherParty(userID uuid.UUID) uuid.UUID {
	if userID == e.ProposerID {
		return e.ReceiverID
	}
	return e.ProposerID
}
