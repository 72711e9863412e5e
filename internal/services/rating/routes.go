package rating

import (
	"github.com/gofiber/fiber/v3"

	"github.com/swapsphere/swapsphere-api/internal/middleware"
)

// SetupRoutes registers the rating endpoints. Reading a user's ratings is
// public, submitting requires auth.
func (s *RatingService) SetupRoutes(app *fiber.App) {
	app.Get("/api/users/:id/ratings", s.GetUserRatings)

	requireAuth := middleware.AuthMiddleware(s.jwtService)
	app.Post("/api/ratings", s.SubmitRating, requireAuth)
	app.Get("/api/exchanges/:id/my-rating", s.GetMyRatingForExchange, requireAuth)
}
