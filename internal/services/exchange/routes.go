package exchange

import (
	"github.com/gofiber/fiber/v3"

	"github.com/swapsphere/swapsphere-api/internal/middleware"
)

// SetupRoutes registers the exchange endpoints. All of them require auth.
func (s *ExchangeService) SetupRoutes(app *fiber.App) {
	protected := app.Group("/api/exchanges")
	protected.Use(middleware.AuthMiddleware(s.jwtService))

	protected.Post("/", s.CreateExchange)
	protected.Get("/received", s.GetReceivedExchanges)
	protected.Get("/sent", s.GetSentExchanges)
	protected.Get("/completed", s.GetCompletedExchanges)
	protected.Get("/:id", s.GetExchange)
	protected.Put("/:id/status", s.UpdateExchangeStatus)
}
