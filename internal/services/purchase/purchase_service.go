package purchase

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
	ws "github.com/swapsphere/swapsphere-api/internal/websocket"
)

const purchaseColumns = `
    id, item_id, item_title, item_image, item_price,
    buyer_id, buyer_name, seller_id, status,
    created_at, updated_at, completed_at
`

// PurchaseService handles buy requests at the listed price.
type PurchaseService struct {
	cfg        *config.Config
	jwtService *utils.JWTService
	wsManager  *ws.Manager
}

// NewPurchaseService creates a new PurchaseService.
func NewPurchaseService(cfg *config.Config, wsManager *ws.Manager) *PurchaseService {
	return &PurchaseService{
		cfg:        cfg,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
		wsManager:  wsManager,
	}
}

// CreatePurchase submits a buy request for an active item. One pending
// request per buyer and item; a partial unique index backs the pre-check
// against concurrent double submits.
func (s *PurchaseService) CreatePurchase(c fiber.Ctx) error {
	buyerID, err := uuid.Parse(c.Locals("userID").(string))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	var requestData struct {
		ItemID uuid.UUID `json:"item_id"`
	}
	if err := c.Bind().Body(&requestData); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	var (
		sellerID  uuid.UUID
		title     string
		price     int64
		status    string
		mainImage string
	)
	err = db.Pool.QueryRow(ctx, `
        SELECT i.user_id, i.title, i.price, i.status,
               COALESCE((SELECT url FROM item_images WHERE item_id = i.id AND is_main = true LIMIT 1), '')
        FROM items i
        WHERE i.id = $1
    `, requestData.ItemID).Scan(&sellerID, &title, &price, &status, &mainImage)

	if err != nil {
		if err == pgx.ErrNoRows {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Item not found"})
		}
		slog.Error("failed to load item", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}

	if sellerID == buyerID {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "You cannot buy your own item"})
	}
	if status != models.ItemStatusActive {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "This item is no longer available"})
	}

	var exists bool
	err = db.Pool.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT 1 FROM purchases WHERE item_id = $1 AND buyer_id = $2 AND status = 'pending'
        )
    `, requestData.ItemID, buyerID).Scan(&exists)
	if err != nil {
		slog.Error("failed to check pending purchase", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}
	if exists {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "You already have a pending request for this item"})
	}

	var buyerName string
	if err = db.Pool.QueryRow(ctx, `SELECT name FROM users WHERE id = $1`, buyerID).Scan(&buyerName); err != nil {
		slog.Error("failed to load buyer", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}

	purchaseID := uuid.New()

	_, err = db.Pool.Exec(ctx, `
        INSERT INTO purchases (id, item_id, item_title, item_image, item_price, buyer_id, buyer_name, seller_id, status)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'pending')
    `, purchaseID, requestData.ItemID, title, mainImage, price, buyerID, buyerName, sellerID)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "You already have a pending request for this item"})
		}
		slog.Error("failed to insert purchase", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create purchase request"})
	}

	metrics.PurchaseTransitions.WithLabelValues(models.PurchaseStatusPending).Inc()

	s.wsManager.SendToUser(sellerID.String(), ws.Event{
		Type: ws.EventPurchaseUpdated,
		Payload: map[string]interface{}{
			"purchase_id": purchaseID,
			"status":      models.PurchaseStatusPending,
		},
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "purchase_id": purchaseID})
}

// GetReceivedPurchases lists buy requests on the caller's items.
func (s *PurchaseService) GetReceivedPurchases(c fiber.Ctx) error {
	return s.listPurchases(c, "seller_id")
}

// GetSentPurchases lists buy requests the caller made.
func (s *PurchaseService) GetSentPurchases(c fiber.Ctx) error {
	return s.listPurchases(c, "buyer_id")
}

func (s *PurchaseService) listPurchases(c fiber.Ctx, column string) error {
	userID, err := uuid.Parse(c.Locals("userID").(string))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	rows, err := db.Pool.Query(ctx, `
        SELECT `+purchaseColumns+`
        FROM purchases
        WHERE `+column+` = $1
        ORDER BY created_at DESC
    `, userID)
	if err != nil {
		slog.Error("failed to query purchases", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load purchases"})
	}
	defer rows.Close()

	purchases := []models.Purchase{}
	for rows.Next() {
		var p models.Purchase
		if err := rows.Scan(
			&p.ID, &p.ItemID, &p.ItemTitle, &p.ItemImage, &p.ItemPrice,
			&p.BuyerID, &p.BuyerName, &p.SellerID, &p.Status,
			&p.CreatedAt, &p.UpdatedAt, &p.CompletedAt,
		); err != nil {
			slog.Error("failed to scan purchase", "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load purchases"})
		}
		purchases = append(purchases, p)
	}
	if err := rows.Err(); err != nil {
		slog.Error("failed to read purchases", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load purchases"})
	}

	return c.JSON(fiber.Map{"purchases": purchases, "count": len(purchases)})
}

// UpdatePurchaseStatus moves a purchase through its lifecycle. Confirm
// and decline belong to the seller, cancel to the buyer; either party may
// complete a confirmed purchase, which also marks the item as sold in the
// same transaction.
func (s *PurchaseService) UpdatePurchaseStatus(c fiber.Ctx) error {
	userID, err := uuid.Parse(c.Locals("userID").(string))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	purchaseID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid purchase ID"})
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

	var purchase models.Purchase
	err = tx.QueryRow(ctx, `
        SELECT id, item_id, buyer_id, seller_id, status
        FROM purchases
        WHERE id = $1
        FOR UPDATE
    `, purchaseID).Scan(&purchase.ID, &purchase.ItemID, &purchase.BuyerID, &purchase.SellerID, &purchase.Status)

	if err != nil {
		if err == pgx.ErrNoRows {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Purchase not found"})
		}
		slog.Error("failed to query purchase", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}

	if !models.CanTransitionPurchase(purchase.Status, requestData.Status) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Cannot change status from " + purchase.Status + " to " + requestData.Status,
		})
	}
	if !purchase.ActorMayTransitionPurchase(userID, requestData.Status) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "You cannot perform this action"})
	}

	if requestData.Status == models.PurchaseStatusCompleted {
		_, err = tx.Exec(ctx, `
            UPDATE purchases SET status = $1, completed_at = NOW(), updated_at = NOW() WHERE id = $2
        `, requestData.Status, purchaseID)
		if err == nil {
			// The item leaves circulation together with the purchase.
			_, err = tx.Exec(ctx, `
                UPDATE items SET status = 'sold', updated_at = NOW() WHERE id = $1 AND status = 'active'
            `, purchase.ItemID)
		}
	} else {
		_, err = tx.Exec(ctx, `
            UPDATE purchases SET status = $1, updated_at = NOW() WHERE id = $2
        `, requestData.Status, purchaseID)
	}

	if err != nil {
		slog.Error("failed to update purchase status", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update purchase"})
	}

	if err = tx.Commit(ctx); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}

	metrics.PurchaseTransitions.WithLabelValues(requestData.Status).Inc()

	other := purchase.SellerID
	if userID == purchase.SellerID {
		other = purchase.BuyerID
	}
	s.wsManager.SendToUser(other.String(), ws.Event{
		Type: ws.EventPurchaseUpdated,
		Payload: map[string]interface{}{
			"purchase_id": purchaseID,
			"status":      requestData.Status,
		},
	})

	return c.JSON(fiber.Map{"success": true, "status": requestData.Status})
}
