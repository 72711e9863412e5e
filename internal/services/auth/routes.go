package auth

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/limiter"

	"github.com/swapsphere/swapsphere-api/internal/middleware"
)

// SetupRoutes registers the auth and profile endpoints.
func (s *AuthService) SetupRoutes(app *fiber.App) {
	// Credential endpoints are rate limited per client IP.
	authLimiter := limiter.New(limiter.Config{
		Max:        10,
		Expiration: time.Minute,
		LimitReached: func(c fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": MessageFor(CodeTooManyRequests), "code": CodeTooManyRequests,
			})
		},
	})

	app.Post("/api/auth/register", s.Register, authLimiter)
	app.Post("/api/auth/login", s.Login, authLimiter)
	app.Post("/api/auth/password/reset-request", s.RequestPasswordReset, authLimiter)
	app.Post("/api/auth/password/reset", s.ResetPassword, authLimiter)

	app.Get("/api/users/:id", s.GetPublicUser)

	requireAuth := middleware.AuthMiddleware(s.jwtService)
	app.Get("/api/profile", s.GetProfile, requireAuth)
	app.Put("/api/profile", s.UpdateProfile, requireAuth)
}
