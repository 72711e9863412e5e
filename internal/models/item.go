package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Item statuses. An item is terminal once it leaves active.
const (
	ItemStatusActive    = "active"
	ItemStatusSold      = "sold"
	ItemStatusExchanged = "exchanged"
)

// Item represents a second-hand listing.
type Item struct {
	ID           uuid.UUID   `json:"id"`
	UserID       uuid.UUID   `json:"user_id"`
	Title        string      `json:"title"`
	Description  string      `json:"description"`
	Price        int64       `json:"price"` // whole rupees
	Category     string      `json:"category"`
	Condition    string      `json:"condition"`
	Location     string      `json:"location"`
	ExchangeType string      `json:"exchange_type"`
	Status       string      `json:"status"`
	Images       []ItemImage `json:"images"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`

	Owner *PublicUser `json:"owner,omitempty"`
}

// ItemImage is one uploaded image of a listing, ordered by position.
type ItemImage struct {
	ID        uuid.UUID `json:"id"`
	ItemID    uuid.UUID `json:"item_id"`
	URL       string    `json:"url"`
	PublicID  string    `json:"public_id"`
	IsMain    bool      `json:"is_main"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
}

// CanTransitionItemStatus reports whether an item status change is legal.
// The only legal moves are active -> sold and active -> exchanged. This is
// the rule the completion transactions enforce with their
// "AND status = 'active'" UPDATE guards.
func CanTransitionItemStatus(from, to string) bool {
	if from != ItemStatusActive {
		return false
	}
	return to == ItemStatusSold || to == ItemStatusExchanged
}

// OpenToExchange reports whether the item can be the target of an
// exchange proposal.
func (i *Item) OpenToExchange() bool {
	return i.ExchangeType == "open_to_exchange" || i.ExchangeType == "exchange_only"
}

// ItemFilter holds the client-side filters applied on top of a search
// window. Zero values mean "no constraint".
type ItemFilter struct {
	Category  string
	Location  string
	Condition string
	MinPrice  int64
	MaxPrice  int64
}

// MatchesSearch reports whether the item's title or description contains
// the term, case-insensitively. An empty term matches everything.
func (i *Item) MatchesSearch(term string) bool {
	if term == "" {
		return true
	}
	t := strings.ToLower(term)
	return strings.Contains(strings.ToLower(i.Title), t) ||
		strings.Contains(strings.ToLower(i.Description), t)
}

// MatchesFilter applies category/location/condition equality and the
// price range.
func (i *Item) MatchesFilter(f ItemFilter) bool {
	if f.Category != "" && f.Category != "All" && i.Category != f.Category {
		return false
	}
	if f.Location != "" && i.Location != f.Location {
		return false
	}
	if f.Condition != "" && i.Condition != f.Condition {
		return false
	}
	if f.MinPrice > 0 && i.Price < f.MinPrice {
		return false
	}
	if f.MaxPrice > 0 && i.Price > f.MaxPrice {
		return false
	}
	return true
}
