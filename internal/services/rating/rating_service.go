package rating

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/swapsphere/swapsphere-api/internal/config"
	"github.com/swapsphere/swapsphere-api/internal/db"
	"github.com/swapsphere/swapsphere-api/internal/metrics"
	"github.com/swapsphere/swapsphere-api/internal/models"
	"github.com/swapsphere/swapsphere-api/internal/utils"
)

// RatingService handles post-exchange ratings and keeps the aggregate on
// the rated user's profile in sync.
type RatingService struct {
	cfg        *config.Config
	jwtService *utils.JWTService
}

// NewRatingService creates a new RatingService.
func NewRatingService(cfg *config.Config) *RatingService {
	return &RatingService{
		cfg:        cfg,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
	}
}

// SubmitRating records a 1-5 rating for the other party of a completed
// exchange. The insert and the profile aggregate update happen in one
// transaction; UNIQUE (exchange_id, rater_id) rejects double submits.
func (s *RatingService) SubmitRating(c fiber.Ctx) error {
	raterID, err := uuid.Parse(c.Locals("userID").(string))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	var requestData struct {
		ExchangeID uuid.UUID `json:"exchange_id"`
		Rating     int       `json:"rating"`
	}
	if err := c.Bind().Body(&requestData); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if !models.IsValidRating(requestData.Rating) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Rating must be between 1 and 5"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	var (
		proposerID, receiverID       uuid.UUID
		proposerTitle, receiverTitle string
		status                       string
	)
	err = db.Pool.QueryRow(ctx, `
        SELECT proposer_id, receiver_id, proposer_item_title, receiver_item_title, status
        FROM exchanges
        WHERE id = $1
    `, requestData.ExchangeID).Scan(&proposerID, &receiverID, &proposerTitle, &receiverTitle, &status)

	if err != nil {
		if err == pgx.ErrNoRows {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Exchange not found"})
		}
		slog.Error("failed to load exchange", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}

	if status != models.ExchangeStatusCompleted {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Only completed exchanges can be rated"})
	}

	var ratedUserID uuid.UUID
	var itemTitle string
	switch raterID {
	case proposerID:
		ratedUserID, itemTitle = receiverID, receiverTitle
	case receiverID:
		ratedUserID, itemTitle = proposerID, proposerTitle
	default:
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Not your exchange"})
	}

	var alreadyRated bool
	err = db.Pool.QueryRow(ctx, `
        SELECT EXISTS (SELECT 1 FROM ratings WHERE exchange_id = $1 AND rater_id = $2)
    `, requestData.ExchangeID, raterID).Scan(&alreadyRated)
	if err != nil {
		slog.Error("failed to check existing rating", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}
	if alreadyRated {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "You already rated this exchange"})
	}

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}
	defer tx.Rollback(ctx)

	ratingID := uuid.New()

	_, err = tx.Exec(ctx, `
        INSERT INTO ratings (id, exchange_id, rater_id, rated_user_id, rating, exchange_item_title)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, ratingID, requestData.ExchangeID, raterID, ratedUserID, requestData.Rating, itemTitle)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "You already rated this exchange"})
		}
		slog.Error("failed to insert rating", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save rating"})
	}

	// Recompute the aggregate from every rating the user has received.
	rows, err := tx.Query(ctx, `SELECT rating FROM ratings WHERE rated_user_id = $1`, ratedUserID)
	if err != nil {
		slog.Error("failed to query ratings", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save rating"})
	}

	var values []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			slog.Error("failed to scan rating", "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save rating"})
		}
		values = append(values, v)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		slog.Error("failed to read ratings", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save rating"})
	}

	avg, count := models.AverageRating(values)

	_, err = tx.Exec(ctx, `
        UPDATE users SET rating = $1, rating_count = $2, updated_at = NOW() WHERE id = $3
    `, avg, count, ratedUserID)
	if err != nil {
		slog.Error("failed to update user aggregate", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save rating"})
	}

	if err = tx.Commit(ctx); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}

	metrics.RatingsSubmitted.Inc()

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":      true,
		"rating_id":    ratingID,
		"rating":       avg,
		"rating_count": count,
	})
}

// GetUserRatings returns the ratings a user has received, newest first.
func (s *RatingService) GetUserRatings(c fiber.Ctx) error {
	userUUID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	rows, err := db.Pool.Query(ctx, `
        SELECT r.id, r.exchange_id, r.rater_id, r.rated_user_id, r.rating, r.exchange_item_title, r.created_at,
               u.id, u.name, u.location, u.profile_image, u.rating, u.rating_count
        FROM ratings r
        JOIN users u ON u.id = r.rater_id
        WHERE r.rated_user_id = $1
        ORDER BY r.created_at DESC
    `, userUUID)
	if err != nil {
		slog.Error("failed to query ratings", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load ratings"})
	}
	defer rows.Close()

	ratings := []models.Rating{}
	for rows.Next() {
		var r models.Rating
		var rater models.PublicUser
		if err := rows.Scan(
			&r.ID, &r.ExchangeID, &r.RaterID, &r.RatedUserID, &r.Rating, &r.ExchangeItemTitle, &r.CreatedAt,
			&rater.ID, &rater.Name, &rater.Location, &rater.ProfileImage, &rater.Rating, &rater.RatingCount,
		); err != nil {
			slog.Error("failed to scan rating", "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load ratings"})
		}
		r.Rater = &rater
		ratings = append(ratings, r)
	}
	if err := rows.Err(); err != nil {
		slog.Error("failed to read ratings", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load ratings"})
	}

	return c.JSON(fiber.Map{"ratings": ratings, "count": len(ratings)})
}

// GetMyRatingForExchange returns the caller's rating for one exchange, if
// any. The client uses this to decide whether to show the rating prompt.
func (s *RatingService) GetMyRatingForExchange(c fiber.Ctx) error {
	raterID, err := uuid.Parse(c.Locals("userID").(string))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	exchangeID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid exchange ID"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	var r models.Rating
	err = db.Pool.QueryRow(ctx, `
        SELECT id, exchange_id, rater_id, rated_user_id, rating, exchange_item_title, created_at
        FROM ratings
        WHERE exchange_id = $1 AND rater_id = $2
    `, exchangeID, raterID).Scan(&r.ID, &r.ExchangeID, &r.RaterID, &r.RatedUserID, &r.Rating, &r.ExchangeItemTitle, &r.CreatedAt)

	if err != nil {
		if err == pgx.ErrNoRows {
			return c.JSON(fiber.Map{"rated": false})
		}
		slog.Error("failed to query rating", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}

	return c.JSON(fiber.Map{"rated": true, "rating": r})
}
