package websocket

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/swapsphere/swapsphere-api/internal/utils"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// The browser client cannot set an Authorization header on a socket,
	// so the token travels as a query parameter and CORS stays open.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler upgrades an authenticated HTTP request to a WebSocket
// connection. The session token is expected in the "token" query
// parameter.
func Handler(manager *Manager, jwtService *utils.JWTService) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token == "" {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}

		userID, err := jwtService.ExtractUserID(token)
		if err != nil {
			http.Error(w, "invalid or expired token", http.StatusUnauthorized)
			return
		}
		if _, err := uuid.Parse(userID); err != nil {
			http.Error(w, "invalid user ID", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Warn("websocket upgrade failed", "error", err)
			return
		}

		client := NewClient(userID, conn, manager)
		client.Start()

		manager.SendToUser(userID, Event{
			Type:      EventConnected,
			UserID:    userID,
			Timestamp: time.Now(),
		})
	})
}
