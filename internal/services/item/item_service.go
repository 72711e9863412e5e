package item

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/swapsphere/swapsphere-api/internal/config"
	"github.com/swapsphere/swapsphere-api/internal/constants"
	"github.com/swapsphere/swapsphere-api/internal/db"
	"github.com/swapsphere/swapsphere-api/internal/metrics"
	"github.com/swapsphere/swapsphere-api/internal/models"
	"github.com/swapsphere/swapsphere-api/internal/utils"
)

const (
	defaultPageSize = 12
	// The search scan is bounded: it fetches at most this many active
	// items and filters in memory. It will not find matches beyond the
	// window; known limitation inherited from the product's design.
	searchWindow = 50
)

// RequestImage is one image reference in a create/update request. The
// client uploads to Cloudinary first and sends the resulting URL here.
type RequestImage struct {
	URL      string `json:"url"`
	PublicID string `json:"public_id"`
}

// ItemService handles item listings.
type ItemService struct {
	cfg        *config.Config
	jwtService *utils.JWTService
}

// NewItemService creates a new ItemService.
func NewItemService(cfg *config.Config) *ItemService {
	return &ItemService{
		cfg:        cfg,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
	}
}

// CreateItem creates a new active listing for the authenticated user.
func (s *ItemService) CreateItem(c fiber.Ctx) error {
	userUUID, err := uuid.Parse(c.Locals("userID").(string))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	var requestData struct {
		Title        string         `json:"title"`
		Description  string         `json:"description"`
		Price        int64          `json:"price"`
		Category     string         `json:"category"`
		Condition    string         `json:"condition"`
		Location     string         `json:"location"`
		ExchangeType string         `json:"exchange_type"`
		Images       []RequestImage `json:"images"`
	}

	if err := c.Bind().Body(&requestData); err != nil {
		slog.Error("failed to decode request body", "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if requestData.Title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Title is required"})
	}
	if requestData.Price <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Price must be greater than zero"})
	}
	if !constants.IsValidCategory(requestData.Category) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Unknown category"})
	}
	if !constants.IsValidCondition(requestData.Condition) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Unknown condition"})
	}
	if !constants.IsValidCity(requestData.Location) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Unknown city"})
	}
	if !constants.IsValidExchangeType(requestData.ExchangeType) {
		requestData.ExchangeType = constants.ExchangeTypeSellOnly
	}
	if len(requestData.Images) > constants.MaxItemImages {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "At most 5 images per listing"})
	}

	itemID := uuid.New()

	ctx, cancel := db.GetContext()
	defer cancel()

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
        INSERT INTO items (id, user_id, title, description, price, category, condition, location, exchange_type, status)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 'active')
    `, itemID, userUUID, requestData.Title, requestData.Description, requestData.Price,
		requestData.Category, requestData.Condition, requestData.Location, requestData.ExchangeType)

	if err != nil {
		slog.Error("failed to insert item", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save item"})
	}

	for i, img := range requestData.Images {
		_, err = tx.Exec(ctx, `
            INSERT INTO item_images (item_id, url, public_id, is_main, position)
            VALUES ($1, $2, $3, $4, $5)
        `, itemID, img.URL, img.PublicID, i == 0, i)

		if err != nil {
			slog.Error("failed to insert item image", "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save images"})
		}
	}

	if err = tx.Commit(ctx); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}

	metrics.ItemsCreated.Inc()

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"item_id": itemID,
	})
}

// GetItem returns a single item with its images and owner.
func (s *ItemService) GetItem(c fiber.Ctx) error {
	itemUUID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid item ID"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	item, err := fetchItem(ctx, itemUUID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Item not found"})
		}
		slog.Error("failed to query item", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load item"})
	}

	item.Owner = fetchPublicUser(ctx, item.UserID)

	return c.JSON(fiber.Map{"item": item})
}

// GetItems returns the public browse feed: active items, optionally
// filtered by category, newest first, paginated by an opaque cursor.
func (s *ItemService) GetItems(c fiber.Ctx) error {
	category := c.Query("category")
	cursor := c.Query("cursor")

	pageSize := defaultPageSize
	if v, err := strconv.Atoi(c.Query("page_size", "")); err == nil && v > 0 && v <= 50 {
		pageSize = v
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	query := `
        SELECT id, user_id, title, description, price, category, condition, location, exchange_type, status, created_at, updated_at
        FROM items
        WHERE status = 'active'
    `
	args := []interface{}{}
	n := 1

	if category != "" && category != "All" {
		query += ` AND category = $` + strconv.Itoa(n)
		args = append(args, category)
		n++
	}

	if cursor != "" {
		createdAt, id, err := DecodeCursor(cursor)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid cursor"})
		}
		query += ` AND (created_at, id) < ($` + strconv.Itoa(n) + `, $` + strconv.Itoa(n+1) + `)`
		args = append(args, createdAt, id)
		n += 2
	}

	query += ` ORDER BY created_at DESC, id DESC LIMIT $` + strconv.Itoa(n)
	args = append(args, pageSize)

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		slog.Error("failed to query items", "error", err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Failed to load items, please try again",
			"items": []models.Item{},
		})
	}
	defer rows.Close()

	items, err := scanItems(ctx, rows)
	if err != nil {
		slog.Error("failed to scan items", "error", err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Failed to load items, please try again",
			"items": []models.Item{},
		})
	}

	var nextCursor string
	if len(items) == pageSize {
		last := items[len(items)-1]
		nextCursor = EncodeCursor(last.CreatedAt, last.ID)
	}

	return c.JSON(fiber.Map{
		"items":       items,
		"count":       len(items),
		"next_cursor": nextCursor,
	})
}

// SearchItems scans a bounded window of active items and filters it in
// memory: case-insensitive substring over title/description plus
// category/location/condition equality and a price range.
func (s *ItemService) SearchItems(c fiber.Ctx) error {
	term := c.Query("q")

	filter := models.ItemFilter{
		Category:  c.Query("category"),
		Location:  c.Query("location"),
		Condition: c.Query("condition"),
	}
	if v, err := strconv.ParseInt(c.Query("min_price", ""), 10, 64); err == nil {
		filter.MinPrice = v
	}
	if v, err := strconv.ParseInt(c.Query("max_price", ""), 10, 64); err == nil {
		filter.MaxPrice = v
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	rows, err := db.Pool.Query(ctx, `
        SELECT id, user_id, title, description, price, category, condition, location, exchange_type, status, created_at, updated_at
        FROM items
        WHERE status = 'active'
        ORDER BY created_at DESC
        LIMIT $1
    `, searchWindow)
	if err != nil {
		slog.Error("failed to query search window", "error", err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Search is unavailable, please try again",
			"items": []models.Item{},
		})
	}
	defer rows.Close()

	window, err := scanItems(ctx, rows)
	if err != nil {
		slog.Error("failed to scan search window", "error", err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Search is unavailable, please try again",
			"items": []models.Item{},
		})
	}

	items := make([]models.Item, 0, len(window))
	for _, item := range window {
		if item.MatchesSearch(term) && item.MatchesFilter(filter) {
			items = append(items, item)
		}
	}

	return c.JSON(fiber.Map{
		"items": items,
		"count": len(items),
	})
}

// GetMyItems returns the authenticated user's own listings, optionally
// filtered by status.
func (s *ItemService) GetMyItems(c fiber.Ctx) error {
	userUUID, err := uuid.Parse(c.Locals("userID").(string))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	status := c.Query("status", "all")

	ctx, cancel := db.GetContext()
	defer cancel()

	var rows pgx.Rows
	if status == "all" {
		rows, err = db.Pool.Query(ctx, `
            SELECT id, user_id, title, description, price, category, condition, location, exchange_type, status, created_at, updated_at
            FROM items
            WHERE user_id = $1
            ORDER BY created_at DESC
        `, userUUID)
	} else {
		rows, err = db.Pool.Query(ctx, `
            SELECT id, user_id, title, description, price, category, condition, location, exchange_type, status, created_at, updated_at
            FROM items
            WHERE user_id = $1 AND status = $2
            ORDER BY created_at DESC
        `, userUUID, status)
	}

	if err != nil {
		slog.Error("failed to query user items", "error", err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Failed to load items, please try again",
			"items": []models.Item{},
		})
	}
	defer rows.Close()

	items, err := scanItems(ctx, rows)
	if err != nil {
		slog.Error("failed to scan user items", "error", err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Failed to load items, please try again",
			"items": []models.Item{},
		})
	}

	return c.JSON(fiber.Map{"items": items, "count": len(items)})
}

// GetExchangeableItems returns another user's active items that are open
// to exchange, for building a proposal.
func (s *ItemService) GetExchangeableItems(c fiber.Ctx) error {
	ownerUUID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	rows, err := db.Pool.Query(ctx, `
        SELECT id, user_id, title, description, price, category, condition, location, exchange_type, status, created_at, updated_at
        FROM items
        WHERE user_id = $1 AND status = 'active' AND exchange_type IN ('open_to_exchange', 'exchange_only')
        ORDER BY created_at DESC
    `, ownerUUID)

	if err != nil {
		slog.Error("failed to query exchangeable items", "error", err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Failed to load items, please try again",
			"items": []models.Item{},
		})
	}
	defer rows.Close()

	items, err := scanItems(ctx, rows)
	if err != nil {
		slog.Error("failed to scan exchangeable items", "error", err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Failed to load items, please try again",
			"items": []models.Item{},
		})
	}

	return c.JSON(fiber.Map{"items": items, "count": len(items)})
}

// UpdateItem mutates an active listing owned by the authenticated user.
func (s *ItemService) UpdateItem(c fiber.Ctx) error {
	userUUID, err := uuid.Parse(c.Locals("userID").(string))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	itemUUID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid item ID"})
	}

	var requestData struct {
		Title        *string        `json:"title"`
		Description  *string        `json:"description"`
		Price        *int64         `json:"price"`
		Category     *string        `json:"category"`
		Condition    *string        `json:"condition"`
		Location     *string        `json:"location"`
		ExchangeType *string        `json:"exchange_type"`
		Images       []RequestImage `json:"images"`
	}

	if err := c.Bind().Body(&requestData); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if requestData.Title != nil && *requestData.Title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Title cannot be empty"})
	}
	if requestData.Price != nil && *requestData.Price <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Price must be greater than zero"})
	}
	if requestData.Category != nil && !constants.IsValidCategory(*requestData.Category) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Unknown category"})
	}
	if requestData.Condition != nil && !constants.IsValidCondition(*requestData.Condition) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Unknown condition"})
	}
	if requestData.Location != nil && !constants.IsValidCity(*requestData.Location) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Unknown city"})
	}
	if requestData.ExchangeType != nil && !constants.IsValidExchangeType(*requestData.ExchangeType) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Unknown exchange type"})
	}
	if len(requestData.Images) > constants.MaxItemImages {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "At most 5 images per listing"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}
	defer tx.Rollback(ctx)

	// Only the owner may edit, and only while the listing is active.
	tag, err := tx.Exec(ctx, `
        UPDATE items
        SET title = COALESCE($1, title),
            description = COALESCE($2, description),
            price = COALESCE($3, price),
            category = COALESCE($4, category),
            condition = COALESCE($5, condition),
            location = COALESCE($6, location),
            exchange_type = COALESCE($7, exchange_type),
            updated_at = NOW()
        WHERE id = $8 AND user_id = $9 AND status = 'active'
    `, requestData.Title, requestData.Description, requestData.Price, requestData.Category,
		requestData.Condition, requestData.Location, requestData.ExchangeType, itemUUID, userUUID)

	if err != nil {
		slog.Error("failed to update item", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update item"})
	}

	if tag.RowsAffected() == 0 {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Item not found, not yours, or no longer active"})
	}

	if requestData.Images != nil {
		if _, err = tx.Exec(ctx, `DELETE FROM item_images WHERE item_id = $1`, itemUUID); err != nil {
			slog.Error("failed to clear item images", "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update images"})
		}
		for i, img := range requestData.Images {
			if _, err = tx.Exec(ctx, `
                INSERT INTO item_images (item_id, url, public_id, is_main, position)
                VALUES ($1, $2, $3, $4, $5)
            `, itemUUID, img.URL, img.PublicID, i == 0, i); err != nil {
				slog.Error("failed to insert item image", "error", err)
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update images"})
			}
		}
	}

	if err = tx.Commit(ctx); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}

	return c.JSON(fiber.Map{"success": true, "item_id": itemUUID})
}

// DeleteItem removes a listing owned by the authenticated user.
func (s *ItemService) DeleteItem(c fiber.Ctx) error {
	userUUID, err := uuid.Parse(c.Locals("userID").(string))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	itemUUID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid item ID"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	tag, err := db.Pool.Exec(ctx, `
        DELETE FROM items WHERE id = $1 AND user_id = $2
    `, itemUUID, userUUID)

	if err != nil {
		slog.Error("failed to delete item", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete item"})
	}

	if tag.RowsAffected() == 0 {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Item not found or not yours"})
	}

	return c.JSON(fiber.Map{"success": true})
}

// fetchItem loads one item row with its images.
func fetchItem(ctx context.Context, itemID uuid.UUID) (*models.Item, error) {
	var item models.Item
	err := db.Pool.QueryRow(ctx, `
        SELECT id, user_id, title, description, price, category, condition, location, exchange_type, status, created_at, updated_at
        FROM items
        WHERE id = $1
    `, itemID).Scan(
		&item.ID, &item.UserID, &item.Title, &item.Description, &item.Price,
		&item.Category, &item.Condition, &item.Location, &item.ExchangeType,
		&item.Status, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	item.Images = fetchItemImages(ctx, item.ID)
	return &item, nil
}

// fetchItemImages loads the ordered images of an item. Failures degrade
// to an empty list.
func fetchItemImages(ctx context.Context, itemID uuid.UUID) []models.ItemImage {
	rows, err := db.Pool.Query(ctx, `
        SELECT id, item_id, url, public_id, is_main, position, created_at
        FROM item_images
        WHERE item_id = $1
        ORDER BY position ASC
    `, itemID)
	if err != nil {
		slog.Error("failed to query item images", "error", err)
		return nil
	}
	defer rows.Close()

	var images []models.ItemImage
	for rows.Next() {
		var img models.ItemImage
		if err := rows.Scan(&img.ID, &img.ItemID, &img.URL, &img.PublicID, &img.IsMain, &img.Position, &img.CreatedAt); err != nil {
			slog.Error("failed to scan item image", "error", err)
			continue
		}
		images = append(images, img)
	}
	return images
}

// fetchPublicUser loads the public profile of a user, nil on failure.
func fetchPublicUser(ctx context.Context, userID uuid.UUID) *models.PublicUser {
	var user models.PublicUser
	err := db.Pool.QueryRow(ctx, `
        SELECT id, name, location, profile_image, rating, rating_count
        FROM users
        WHERE id = $1
    `, userID).Scan(&user.ID, &user.Name, &user.Location, &user.ProfileImage, &user.Rating, &user.RatingCount)
	if err != nil {
		slog.Error("failed to query user", "user", userID, "error", err)
		return nil
	}
	return &user
}

// scanItems collects item rows and attaches their images.
func scanItems(ctx context.Context, rows pgx.Rows) ([]models.Item, error) {
	items := []models.Item{}
	for rows.Next() {
		var item models.Item
		if err := rows.Scan(
			&item.ID, &item.UserID, &item.Title, &item.Description, &item.Price,
			&item.Category, &item.Condition, &item.Location, &item.ExchangeType,
			&item.Status, &item.CreatedAt, &item.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range items {
		items[i].Images = fetchItemImages(ctx, items[i].ID)
	}
	return items, nil
}
