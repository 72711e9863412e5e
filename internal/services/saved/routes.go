package saved

import (
	"github.com/gofiber/fiber/v3"

	"github.com/swapsphere/swapsphere-api/internal/middleware"
)

// SetupRoutes registers the saved-items endpoints. All of them require auth.
func (s *SavedService) SetupRoutes(app *fiber.App) {
	protected := app.Group("/api/saved")
	protected.Use(middleware.AuthMiddleware(s.jwtService))

	protected.Get("/", s.GetSavedItems)
	protected.Post("/:id", s.SaveItem)
	protected.Delete("/:id", s.UnsaveItem)
}
