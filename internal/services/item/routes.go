package item

import (
	"github.com/gofiber/fiber/v3"

	"github.com/swapsphere/swapsphere-api/internal/middleware"
)

// SetupRoutes registers the item endpoints. Browsing is public, mutations
// require auth.
func (s *ItemService) SetupRoutes(app *fiber.App) {
	app.Get("/api/items", s.GetItems)
	app.Get("/api/items/search", s.SearchItems)
	app.Get("/api/items/:id", s.GetItem)
	app.Get("/api/users/:id/exchangeable-items", s.GetExchangeableItems)

	requireAuth := middleware.AuthMiddleware(s.jwtService)
	app.Post("/api/items", s.CreateItem, requireAuth)
	app.Get("/api/my/items", s.GetMyItems, requireAuth)
	app.Put("/api/items/:id", s.UpdateItem, requireAuth)
	app.Delete("/api/items/:id", s.DeleteItem, requireAuth)
}
