package upload

import (
	"github.com/gofiber/fiber/v3"

	"github.com/swapsphere/swapsphere-api/internal/middleware"
)

// SetupRoutes registers the upload endpoints. All of them require auth.
func (s *UploadService) SetupRoutes(app *fiber.App) {
	protected := app.Group("/api/upload")
	protected.Use(middleware.AuthMiddleware(s.jwtService))

	protected.Get("/params", s.GenerateUploadParams)
	protected.Delete("/*", s.DeleteImage)
}
