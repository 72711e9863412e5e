// Package websocket pushes chat events to connected clients. It stands in
// for the realtime-database subscriptions of the original client: the REST
// endpoints stay the authoritative snapshot, the socket only signals that a
// fresh fetch is worthwhile or carries the newest message.
package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Manager is the central registry of all WebSocket connections.
type Manager struct {
	clients      map[uuid.UUID]*Client
	clientsMutex sync.RWMutex
	userClients  map[string]map[uuid.UUID]bool // userID -> set of client IDs
	userMutex    sync.RWMutex
	ctx          context.Context
	cancel       context.CancelFunc
}

// EventType identifies a WebSocket event.
type EventType string

const (
	EventNewMessage          EventType = "new_message"
	EventConversationUpdated EventType = "conversation_updated"
	EventMessagesRead        EventType = "messages_read"
	EventExchangeUpdated     EventType = "exchange_updated"
	EventPurchaseUpdated     EventType = "purchase_updated"
	EventConnected           EventType = "connected"
)

// Event is the wire format pushed to clients.
type Event struct {
	Type           EventType   `json:"type"`
	ConversationID string      `json:"conversation_id,omitempty"`
	UserID         string      `json:"user_id,omitempty"`
	Timestamp      time.Time   `json:"timestamp"`
	Payload        interface{} `json:"payload,omitempty"`
}

// NewManager creates a Manager.
func NewManager() *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		clients:     make(map[uuid.UUID]*Client),
		userClients: make(map[string]map[uuid.UUID]bool),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// AddClient registers a new client connection.
func (m *Manager) AddClient(client *Client) {
	m.clientsMutex.Lock()
	m.clients[client.ID] = client
	m.clientsMutex.Unlock()

	m.userMutex.Lock()
	if _, exists := m.userClients[client.UserID]; !exists {
		m.userClients[client.UserID] = make(map[uuid.UUID]bool)
	}
	m.userClients[client.UserID][client.ID] = true
	m.userMutex.Unlock()

	slog.Info("websocket client connected", "client", client.ID, "user", client.UserID)
}

// RemoveClient drops a client connection.
func (m *Manager) RemoveClient(clientID uuid.UUID) {
	m.clientsMutex.RLock()
	client, exists := m.clients[clientID]
	m.clientsMutex.RUnlock()

	if !exists {
		return
	}

	userID := client.UserID

	m.userMutex.Lock()
	if clients, ok := m.userClients[userID]; ok {
		delete(clients, clientID)
		if len(clients) == 0 {
			delete(m.userClients, userID)
		}
	}
	m.userMutex.Unlock()

	m.clientsMutex.Lock()
	delete(m.clients, clientID)
	m.clientsMutex.Unlock()

	slog.Info("websocket client disconnected", "client", clientID, "user", userID)
}

// ConnectedUsers returns the number of distinct users online.
func (m *Manager) ConnectedUsers() int {
	m.userMutex.RLock()
	defer m.userMutex.RUnlock()
	return len(m.userClients)
}

// SendToUser delivers an event to every connection of a user. Offline
// users miss nothing: the data is already persisted and will be picked up
// by the next REST fetch.
func (m *Manager) SendToUser(userID string, event Event) {
	if userID == "" {
		return
	}

	m.userMutex.RLock()
	clientIDs, exists := m.userClients[userID]
	m.userMutex.RUnlock()

	if !exists || len(clientIDs) == 0 {
		return
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	eventJSON, err := json.Marshal(event)
	if err != nil {
		slog.Error("failed to marshal websocket event", "error", err)
		return
	}

	for clientID := range clientIDs {
		m.clientsMutex.RLock()
		client, exists := m.clients[clientID]
		m.clientsMutex.RUnlock()

		if !exists {
			continue
		}

		select {
		case client.send <- eventJSON:
		default:
			// Send buffer full: the client is too slow, drop it.
			slog.Warn("send channel full, closing connection", "client", client.ID)
			client.conn.Close()
			m.RemoveClient(client.ID)
		}
	}
}

// Shutdown closes every connection and stops the manager.
func (m *Manager) Shutdown() {
	m.cancel()

	m.clientsMutex.Lock()
	for _, client := range m.clients {
		client.conn.Close()
	}
	m.clients = make(map[uuid.UUID]*Client)
	m.clientsMutex.Unlock()

	m.userMutex.Lock()
	m.userClients = make(map[string]map[uuid.UUID]bool)
	m.userMutex.Unlock()
}
