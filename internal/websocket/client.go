package websocket

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// How long to wait for a pong from the client.
	pongWait = 60 * time.Second

	// Ping interval, must be shorter than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Largest frame accepted from a client.
	maxMessageSize = 64 * 1024

	// Outgoing message buffer per connection.
	writeBufferSize = 256
)

// Client is a single WebSocket connection of one user.
type Client struct {
	ID        uuid.UUID
	UserID    string
	conn      *websocket.Conn
	send      chan []byte
	manager   *Manager
	closeChan chan struct{}
}

// NewClient wraps an upgraded connection.
func NewClient(userID string, conn *websocket.Conn, manager *Manager) *Client {
	return &Client{
		ID:        uuid.New(),
		UserID:    userID,
		conn:      conn,
		send:      make(chan []byte, writeBufferSize),
		manager:   manager,
		closeChan: make(chan struct{}),
	}
}

// Start registers the client and runs its read and write pumps.
func (c *Client) Start() {
	c.manager.AddClient(c)

	go c.readPump()
	go c.writePump()
}

// readPump consumes frames from the client. The server is push-only for
// chat data, so inbound frames only keep the connection alive.
func (c *Client) readPump() {
	defer func() {
		c.manager.RemoveClient(c.ID)
		c.conn.Close()
		close(c.closeChan)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Warn("unexpected websocket close", "client", c.ID, "error", err)
			}
			break
		}
	}
}

// writePump sends queued events and keepalive pings to the client.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				slog.Warn("failed to write websocket message", "client", c.ID, "error", err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.closeChan:
			return
		}
	}
}
