package exchange

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/swapsphere/swapsphere-api/internal/config"
	"github.com/swapsphere/swapsphere-api/internal/db"
	"github.com/swapsphere/swapsphere-api/internal/metrics"
	"github.com/swapsphere/swapsphere-api/internal/models"
	"github.com/swapsphere/swapsphere-api/internal/utils"
	ws "github.com/swapsphere/swapsphere-api/internal/websocket"
)

const exchangeColumns = `
    id, proposer_id, proposer_item_id, proposer_item_title, proposer_item_image, proposer_item_price,
    receiver_id, receiver_item_id, receiver_item_title, receiver_item_image, receiver_item_price,
    additional_cash, price_difference, payment_direction, message, status,
    created_at, updated_at, completed_at
`

// ExchangeService handles bartering proposals between items.
type ExchangeService struct {
	cfg        *config.Config
	jwtService *utils.JWTService
	wsManager  *ws.Manager
}

// NewExchangeService creates a new ExchangeService.
func NewExchangeService(cfg *config.Config, wsManager *ws.Manager) *ExchangeService {
	return &ExchangeService{
		cfg:        cfg,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
		wsManager:  wsManager,
	}
}

// CreateExchange proposes swapping one of the caller's items for another
// user's item. Item titles, images and prices are snapshotted so the
// record stays readable after either item changes.
func (s *ExchangeService) CreateExchange(c fiber.Ctx) error {
	proposerID, err := uuid.Parse(c.Locals("userID").(string))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	var requestData struct {
		ProposerItemID uuid.UUID `json:"proposer_item_id"`
		ReceiverItemID uuid.UUID `json:"receiver_item_id"`
		AdditionalCash int64     `json:"additional_cash"`
		Message        string    `json:"message"`
	}

	if err := c.Bind().Body(&requestData); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if requestData.AdditionalCash < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Additional cash cannot be negative"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	proposerItem, err := loadItemForExchange(ctx, requestData.ProposerItemID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Your item was not found"})
		}
		slog.Error("failed to load proposer item", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}

	receiverItem, err := loadItemForExchange(ctx, requestData.ReceiverItemID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Requested item was not found"})
		}
		slog.Error("failed to load receiver item", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}

	if proposerItem.UserID != proposerID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "You can only offer your own item"})
	}
	if receiverItem.UserID == proposerID {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "You cannot propose an exchange for your own item"})
	}
	if proposerItem.Status != models.ItemStatusActive || receiverItem.Status != models.ItemStatusActive {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Both items must still be active"})
	}
	if !receiverItem.OpenToExchange() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "This item is not open to exchange"})
	}

	// Duplicate guard: one pending proposal per item pair and proposer.
	var exists bool
	err = db.Pool.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT 1 FROM exchanges
            WHERE proposer_id = $1 AND proposer_item_id = $2 AND receiver_item_id = $3 AND status = 'pending'
        )
    `, proposerID, requestData.ProposerItemID, requestData.ReceiverItemID).Scan(&exists)
	if err != nil {
		slog.Error("failed to check pending exchange", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}
	if exists {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "You already have a pending proposal for this item"})
	}

	payer, amount := models.PaymentDirection(proposerItem.Price, receiverItem.Price)
	exchangeID := uuid.New()

	_, err = db.Pool.Exec(ctx, `
        INSERT INTO exchanges (
            id, proposer_id, proposer_item_id, proposer_item_title, proposer_item_image, proposer_item_price,
            receiver_id, receiver_item_id, receiver_item_title, receiver_item_image, receiver_item_price,
            additional_cash, price_difference, payment_direction, message, status
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, 'pending')
    `, exchangeID,
		proposerID, proposerItem.ID, proposerItem.Title, proposerItem.MainImage, proposerItem.Price,
		receiverItem.UserID, receiverItem.ID, receiverItem.Title, receiverItem.MainImage, receiverItem.Price,
		requestData.AdditionalCash, amount, payer, requestData.Message)

	if err != nil {
		slog.Error("failed to insert exchange", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create exchange"})
	}

	metrics.ExchangeTransitions.WithLabelValues(models.ExchangeStatusPending).Inc()

	s.wsManager.SendToUser(receiverItem.UserID.String(), ws.Event{
		Type: ws.EventExchangeUpdated,
		Payload: map[string]interface{}{
			"exchange_id": exchangeID,
			"status":      models.ExchangeStatusPending,
		},
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":           true,
		"exchange_id":       exchangeID,
		"payment_direction": payer,
		"price_difference":  amount,
	})
}

// GetExchange returns one exchange; only its two parties may see it.
func (s *ExchangeService) GetExchange(c fiber.Ctx) error {
	userID, err := uuid.Parse(c.Locals("userID").(string))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	exchangeID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid exchange ID"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	exchange, err := fetchExchange(ctx, exchangeID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Exchange not found"})
		}
		slog.Error("failed to query exchange", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}

	if !exchange.IsParty(userID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Not your exchange"})
	}

	attachParties(ctx, exchange)

	return c.JSON(fiber.Map{"exchange": exchange})
}

// GetReceivedExchanges lists proposals where the caller is the receiver,
// newest first.
func (s *ExchangeService) GetReceivedExchanges(c fiber.Ctx) error {
	return s.listExchanges(c, "receiver_id")
}

// GetSentExchanges lists proposals the caller made, newest first.
func (s *ExchangeService) GetSentExchanges(c fiber.Ctx) error {
	return s.listExchanges(c, "proposer_id")
}

func (s *ExchangeService) listExchanges(c fiber.Ctx, column string) error {
	userID, err := uuid.Parse(c.Locals("userID").(string))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	rows, err := db.Pool.Query(ctx, `
        SELECT `+exchangeColumns+`
        FROM exchanges
        WHERE `+column+` = $1
        ORDER BY created_at DESC
    `, userID)
	if err != nil {
		slog.Error("failed to query exchanges", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load exchanges"})
	}
	defer rows.Close()

	exchanges, err := scanExchanges(rows)
	if err != nil {
		slog.Error("failed to scan exchanges", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load exchanges"})
	}

	return c.JSON(fiber.Map{"exchanges": exchanges, "count": len(exchanges)})
}

// GetCompletedExchanges lists completed exchanges where the caller was
// either party, most recently completed first.
func (s *ExchangeService) GetCompletedExchanges(c fiber.Ctx) error {
	userID, err := uuid.Parse(c.Locals("userID").(string))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	rows, err := db.Pool.Query(ctx, `
        SELECT `+exchangeColumns+`
        FROM exchanges
        WHERE status = 'completed' AND (proposer_id = $1 OR receiver_id = $1)
        ORDER BY completed_at DESC NULLS LAST, created_at DESC
    `, userID)
	if err != nil {
		slog.Error("failed to query completed exchanges", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load exchanges"})
	}
	defer rows.Close()

	exchanges, err := scanExchanges(rows)
	if err != nil {
		slog.Error("failed to scan completed exchanges", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load exchanges"})
	}

	return c.JSON(fiber.Map{"exchanges": exchanges, "count": len(exchanges)})
}

// UpdateExchangeStatus moves an exchange through its lifecycle. Accept
// and decline belong to the receiver, cancel to the proposer; either
// party may complete an accepted exchange, which also marks both items
// as exchanged in the same transaction.
func (s *ExchangeService) UpdateExchangeStatus(c fiber.Ctx) error {
	userID, err := uuid.Parse(c.Locals("userID").(string))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	exchangeID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid exchange ID"})
	}

	var requestData struct {
		Status string `json:"status"`
	}
	if err := c.Bind().Body(&requestData); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}
	defer tx.Rollback(ctx)

	var exchange models.Exchange
	err = tx.QueryRow(ctx, `
        SELECT id, proposer_id, proposer_item_id, receiver_id, receiver_item_id, status
        FROM exchanges
        WHERE id = $1
        FOR UPDATE
    `, exchangeID).Scan(&exchange.ID, &exchange.ProposerID, &exchange.ProposerItemID,
		&exchange.ReceiverID, &exchange.ReceiverItemID, &exchange.Status)

	if err != nil {
		if err == pgx.ErrNoRows {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Exchange not found"})
		}
		slog.Error("failed to query exchange", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}

	if !models.CanTransitionExchange(exchange.Status, requestData.Status) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Cannot change status from " + exchange.Status + " to " + requestData.Status,
		})
	}
	if !exchange.ActorMayTransitionExchange(userID, requestData.Status) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "You cannot perform this action"})
	}

	if requestData.Status == models.ExchangeStatusCompleted {
		_, err = tx.Exec(ctx, `
            UPDATE exchanges SET status = $1, completed_at = NOW(), updated_at = NOW() WHERE id = $2
        `, requestData.Status, exchangeID)
		if err == nil {
			// Both items leave circulation together with the exchange.
			_, err = tx.Exec(ctx, `
                UPDATE items SET status = 'exchanged', updated_at = NOW()
                WHERE id = ANY($1) AND status = 'active'
            `, []uuid.UUID{exchange.ProposerItemID, exchange.ReceiverItemID})
		}
	} else {
		_, err = tx.Exec(ctx, `
            UPDATE exchanges SET status = $1, updated_at = NOW() WHERE id = $2
        `, requestData.Status, exchangeID)
	}

	if err != nil {
		slog.Error("failed to update exchange status", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update exchange"})
	}

	if err = tx.Commit(ctx); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}

	metrics.ExchangeTransitions.WithLabelValues(requestData.Status).Inc()

	s.wsManager.SendToUser(exchange.OtherParty(userID).String(), ws.Event{
		Type: ws.EventExchangeUpdated,
		Payload: map[string]interface{}{
			"exchange_id": exchangeID,
			"status":      requestData.Status,
		},
	})

	return c.JSON(fiber.Map{"success": true, "status": requestData.Status})
}

// exchangeItem is the slice of an item an exchange snapshots.
type exchangeItem struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Title     string
	Price     int64
	Status    string
	Type      string
	MainImage string
}

func (it *exchangeItem) OpenToExchange() bool {
	return it.Type == "open_to_exchange" || it.Type == "exchange_only"
}

func loadItemForExchange(ctx context.Context, itemID uuid.UUID) (*exchangeItem, error) {
	var it exchangeItem
	err := db.Pool.QueryRow(ctx, `
        SELECT i.id, i.user_id, i.title, i.price, i.status, i.exchange_type,
               COALESCE((SELECT url FROM item_images WHERE item_id = i.id AND is_main = true LIMIT 1), '')
        FROM items i
        WHERE i.id = $1
    `, itemID).Scan(&it.ID, &it.UserID, &it.Title, &it.Price, &it.Status, &it.Type, &it.MainImage)
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func fetchExchange(ctx context.Context, exchangeID uuid.UUID) (*models.Exchange, error) {
	var e models.Exchange
	err := db.Pool.QueryRow(ctx, `
        SELECT `+exchangeColumns+` FROM exchanges WHERE id = $1
    `, exchangeID).Scan(
		&e.ID, &e.ProposerID, &e.ProposerItemID, &e.ProposerItemTitle, &e.ProposerItemImage, &e.ProposerItemPrice,
		&e.ReceiverID, &e.ReceiverItemID, &e.ReceiverItemTitle, &e.ReceiverItemImage, &e.ReceiverItemPrice,
		&e.AdditionalCash, &e.PriceDifference, &e.PaymentDirection, &e.Message, &e.Status,
		&e.CreatedAt, &e.UpdatedAt, &e.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func scanExchanges(rows pgx.Rows) ([]models.Exchange, error) {
	exchanges := []models.Exchange{}
	for rows.Next() {
		var e models.Exchange
		if err := rows.Scan(
			&e.ID, &e.ProposerID, &e.ProposerItemID, &e.ProposerItemTitle, &e.ProposerItemImage, &e.ProposerItemPrice,
			&e.ReceiverID, &e.ReceiverItemID, &e.ReceiverItemTitle, &e.ReceiverItemImage, &e.ReceiverItemPrice,
			&e.AdditionalCash, &e.PriceDifference, &e.PaymentDirection, &e.Message, &e.Status,
			&e.CreatedAt, &e.UpdatedAt, &e.CompletedAt,
		); err != nil {
			return nil, err
		}
		exchanges = append(exchanges, e)
	}
	return exchanges, rows.Err()
}

// attachParties loads both public profiles; failures leave them nil.
func attachParties(ctx context.Context, e *models.Exchange) {
	e.Proposer = fetchPublicUser(ctx, e.ProposerID)
	e.Receiver = fetchPublicUser(ctx, e.ReceiverID)
}

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
