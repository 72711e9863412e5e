package saved

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/swapsphere/swapsphere-api/internal/config"
	"github.com/swapsphere/swapsphere-api/internal/db"
	"github.com/swapsphere/swapsphere-api/internal/models"
	"github.com/swapsphere/swapsphere-api/internal/utils"
)

// SavedService handles the user's saved-items list.
type SavedService struct {
	cfg        *config.Config
	jwtService *utils.JWTService
}

// NewSavedService creates a new SavedService.
func NewSavedService(cfg *config.Config) *SavedService {
	return &SavedService{
		cfg:        cfg,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
	}
}

// SaveItem bookmarks an item for the caller. Saving twice is a no-op.
func (s *SavedService) SaveItem(c fiber.Ctx) error {
	userID, err := uuid.Parse(c.Locals("userID").(string))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	itemID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid item ID"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	_, err = db.Pool.Exec(ctx, `
        INSERT INTO saved_items (id, user_id, item_id) VALUES ($1, $2, $3)
    `, uuid.New(), userID, itemID)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505": // already saved
				return c.JSON(fiber.Map{"success": true, "saved": true})
			case "23503": // item does not exist
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Item not found"})
			}
		}
		slog.Error("failed to save item", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save item"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "saved": true})
}

// UnsaveItem removes a bookmark. Removing a missing one is a no-op.
func (s *SavedService) UnsaveItem(c fiber.Ctx) error {
	userID, err := uuid.Parse(c.Locals("userID").(string))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	itemID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid item ID"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	_, err = db.Pool.Exec(ctx, `
        DELETE FROM saved_items WHERE user_id = $1 AND item_id = $2
    `, userID, itemID)
	if err != nil {
		slog.Error("failed to unsave item", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to remove saved item"})
	}

	return c.JSON(fiber.Map{"success": true, "saved": false})
}

// GetSavedItems lists the caller's bookmarked items, most recently saved
// first. Listings that left circulation stay visible with their status.
func (s *SavedService) GetSavedItems(c fiber.Ctx) error {
	userID, err := uuid.Parse(c.Locals("userID").(string))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	rows, err := db.Pool.Query(ctx, `
        SELECT i.id, i.user_id, i.title, i.description, i.price, i.category, i.condition,
               i.location, i.exchange_type, i.status, i.created_at, i.updated_at
        FROM saved_items s
        JOIN items i ON i.id = s.item_id
        WHERE s.user_id = $1
        ORDER BY s.created_at DESC
    `, userID)
	if err != nil {
		slog.Error("failed to query saved items", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load saved items"})
	}
	defer rows.Close()

	items := []models.Item{}
	for rows.Next() {
		var item models.Item
		if err := rows.Scan(
			&item.ID, &item.UserID, &item.Title, &item.Description, &item.Price,
			&item.Category, &item.Condition, &item.Location, &item.ExchangeType,
			&item.Status, &item.CreatedAt, &item.UpdatedAt,
		); err != nil {
			slog.Error("failed to scan saved item", "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load saved items"})
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		slog.Error("failed to read saved items", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load saved items"})
	}

	return c.JSON(fiber.Map{"items": items, "count": len(items)})
}
