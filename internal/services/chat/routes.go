package chat

import (
	"github.com/gofiber/fiber/v3"

	"github.com/swapsphere/swapsphere-api/internal/middleware"
)

// SetupRoutes registers the chat endpoints. All of them require auth.
func (s *ChatService) SetupRoutes(app *fiber.App) {
	protected := app.Group("/api/conversations")
	protected.Use(middleware.AuthMiddleware(s.jwtService))

	protected.Post("/", s.StartConversation)
	protected.Get("/", s.GetConversations)
	protected.Get("/:id/messages", s.GetMessages)
	protected.Post("/:id/messages", s.SendMessage)
	protected.Post("/:id/read", s.MarkRead)
}
