package websocket

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
)

func newTestClient(userID string) *Client {
	return &Client{
		ID:        uuid.New(),
		UserID:    userID,
		send:      make(chan []byte, writeBufferSize),
		closeChan: make(chan struct{}),
	}
}

func TestManagerAddRemoveClient(t *testing.T) {
	m := NewManager()
	c := newTestClient("user-1")
	c.manager = m

	m.AddClient(c)
	if got := m.ConnectedUsers(); got != 1 {
		t.Fatalf("ConnectedUsers() = %d, want 1", got)
	}

	m.RemoveClient(c.ID)
	if got := m.ConnectedUsers(); got != 0 {
		t.Fatalf("ConnectedUsers() after remove = %d, want 0", got)
	}

	// Removing twice must be a no-op.
	m.RemoveClient(c.ID)
}

func TestManagerSendToUser(t *testing.T) {
	m := NewManager()
	c1 := newTestClient("user-1")
	c1.manager = m
	c2 := newTestClient("user-1")
	c2.manager = m
	other := newTestClient("user-2")
	other.manager = m

	m.AddClient(c1)
	m.AddClient(c2)
	m.AddClient(other)

	m.SendToUser("user-1", Event{Type: EventNewMessage, ConversationID: "k"})

	for _, c := range []*Client{c1, c2} {
		select {
		case raw := <-c.send:
			var ev Event
			if err := json.Unmarshal(raw, &ev); err != nil {
				t.Fatalf("failed to decode event: %v", err)
			}
			if ev.Type != EventNewMessage || ev.ConversationID != "k" {
				t.Errorf("unexpected event: %+v", ev)
			}
			if ev.Timestamp.IsZero() {
				t.Error("event timestamp should be set on send")
			}
		default:
			t.Fatal("expected event queued for every connection of the user")
		}
	}

	select {
	case <-other.send:
		t.Fatal("event leaked to a different user")
	default:
	}
}

func TestManagerSendToUnknownUser(t *testing.T) {
	m := NewManager()
	// Must not panic or block.
	m.SendToUser("nobody", Event{Type: EventNewMessage})
	m.SendToUser("", Event{Type: EventNewMessage})
}
