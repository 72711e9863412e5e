package purchase

import (
	"github.com/gofiber/fiber/v3"

	"github.com/swapsphere/swapsphere-api/internal/middleware"
)

// SetupRoutes registers the purchase endpoints. All of them require auth.
func (s *PurchaseService) SetupRoutes(app *fiber.App) {
	protected := app.Group("/api/purchases")
	protected.Use(middleware.AuthMiddleware(s.jwtService))

	protected.Post("/", s.CreatePurchase)
	protected.Get("/received", s.GetReceivedPurchases)
	protected.Get("/sent", s.GetSentPurchases)
	protected.Put("/:id/status", s.UpdatePurchaseStatus)
}
