package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Conversation is a 1:1 channel between two users, keyed by the sorted
// pair of participant IDs so both sides always resolve the same record.
type Conversation struct {
	ID            uuid.UUID  `json:"id"`
	Key           string     `json:"key"`
	UserA         uuid.UUID  `json:"user_a"`
	UserB         uuid.UUID  `json:"user_b"`
	ItemID        *uuid.UUID `json:"item_id,omitempty"`
	ItemTitle     string     `json:"item_title,omitempty"`
	LastMessage   string     `json:"last_message,omitempty"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	OtherUser   *PublicUser `json:"other_user,omitempty"`
	UnreadCount int         `json:"unread_count,omitempty"`
}

// Message is one append-only chat message.
type Message struct {
	ID             uuid.UUID `json:"id"`
	ConversationID uuid.UUID `json:"conversation_id"`
	SenderID       uuid.UUID `json:"sender_id"`
	SenderName     string    `json:"sender_name"`
	Content        string    `json:"content"`
	Read           bool      `json:"read"`
	CreatedAt      time.Time `json:"created_at"`
}

// ConversationKey builds the deterministic conversation identity from two
// participant IDs: sorted and joined with an underscore, so the key is the
// same regardless of argument order.
func ConversationKey(a, b uuid.UUID) string {
	ids := []string{a.String(), b.String()}
	if strings.Compare(ids[0], ids[1]) > 0 {
		ids[0], ids[1] = ids[1], ids[0]
	}
	return ids[0] + "_" + ids[1]
}

// SortParticipants returns the two IDs in key order (user_a < user_b).
func SortParticipants(a, b uuid.UUID) (uuid.UUID, uuid.UUID) {
	if strings.Compare(a.String(), b.String()) > 0 {
		return b, a
	}
	return a, b
}

// OtherParticipant returns the participant that is not the given user.
func (c *Conversation) OtherParticipant(userID uuid.UUID) uuid.UUID {
	if userID == c.UserA {
		return c.UserB
	}
	return c.UserA
}

// HasParticipant reports whether the user belongs to the conversation.
func (c *Conversation) HasParticipant(userID uuid.UUID) bool {
	return userID == c.UserA || userID == c.UserB
}

// AdoptItemContext attaches an item reference to a conversation that has
// none yet. The first item reference wins; a later one never overwrites
// it. Reports whether the conversation changed.
func (c *Conversation) AdoptItemContext(itemID *uuid.UUID, itemTitle string) bool {
	if c.ItemID != nil || itemID == nil {
		return false
	}
	c.ItemID = itemID
	c.ItemTitle = itemTitle
	return true
}
