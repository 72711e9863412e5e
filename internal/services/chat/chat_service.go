package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"

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

const conversationColumns = `
    id, conversation_key, user_a, user_b, item_id, item_title,
    last_message, last_message_at, created_at, updated_at
`

// ChatService handles 1:1 conversations and their messages.
type ChatService struct {
	cfg        *config.Config
	jwtService *utils.JWTService
	wsManager  *ws.Manager
}

// NewChatService creates a new ChatService.
func NewChatService(cfg *config.Config, wsManager *ws.Manager) *ChatService {
	return &ChatService{
		cfg:        cfg,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
		wsManager:  wsManager,
	}
}

// StartConversation resolves or creates the single conversation between
// the caller and another user. The deterministic key makes the call
// idempotent: both sides always land in the same record, and the item
// reference of the first call wins.
func (s *ChatService) StartConversation(c fiber.Ctx) error {
	userID, err := uuid.Parse(c.Locals("userID").(string))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	var requestData struct {
		UserID    uuid.UUID  `json:"user_id"`
		ItemID    *uuid.UUID `json:"item_id"`
		ItemTitle string     `json:"item_title"`
	}
	if err := c.Bind().Body(&requestData); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if requestData.UserID == userID {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "You cannot message yourself"})
	}
	if requestData.UserID == uuid.Nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "user_id is required"})
	}

	key := models.ConversationKey(userID, requestData.UserID)
	userA, userB := models.SortParticipants(userID, requestData.UserID)

	ctx, cancel := db.GetContext()
	defer cancel()

	conversation, err := fetchConversationByKey(ctx, key)
	if err == nil {
		adoptItemContext(ctx, conversation, requestData.ItemID, strings.TrimSpace(requestData.ItemTitle))
		attachOtherUser(ctx, conversation, userID)
		return c.JSON(fiber.Map{"conversation": conversation, "created": false})
	}
	if err != pgx.ErrNoRows {
		slog.Error("failed to query conversation", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}

	conversationID := uuid.New()
	_, err = db.Pool.Exec(ctx, `
        INSERT INTO conversations (id, conversation_key, user_a, user_b, item_id, item_title)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, conversationID, key, userA, userB, requestData.ItemID, strings.TrimSpace(requestData.ItemTitle))

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			// Lost the race: the other side created it first.
			conversation, err = fetchConversationByKey(ctx, key)
			if err == nil {
				adoptItemContext(ctx, conversation, requestData.ItemID, strings.TrimSpace(requestData.ItemTitle))
				attachOtherUser(ctx, conversation, userID)
				return c.JSON(fiber.Map{"conversation": conversation, "created": false})
			}
		}
		slog.Error("failed to insert conversation", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to start conversation"})
	}

	conversation, err = fetchConversationByKey(ctx, key)
	if err != nil {
		slog.Error("failed to reload conversation", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}
	attachOtherUser(ctx, conversation, userID)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"conversation": conversation, "created": true})
}

// GetConversations lists the caller's conversations with unread counts,
// most recent activity first.
func (s *ChatService) GetConversations(c fiber.Ctx) error {
	userID, err := uuid.Parse(c.Locals("userID").(string))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	rows, err := db.Pool.Query(ctx, `
        SELECT `+conversationColumns+`,
               (SELECT COUNT(*) FROM messages m
                WHERE m.conversation_id = conversations.id AND m.sender_id != $1 AND m.read = false)
        FROM conversations
        WHERE user_a = $1 OR user_b = $1
        ORDER BY last_message_at DESC NULLS LAST, updated_at DESC
    `, userID)
	if err != nil {
		slog.Error("failed to query conversations", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load conversations"})
	}
	defer rows.Close()

	conversations := []models.Conversation{}
	for rows.Next() {
		var conv models.Conversation
		if err := rows.Scan(
			&conv.ID, &conv.Key, &conv.UserA, &conv.UserB, &conv.ItemID, &conv.ItemTitle,
			&conv.LastMessage, &conv.LastMessageAt, &conv.CreatedAt, &conv.UpdatedAt,
			&conv.UnreadCount,
		); err != nil {
			slog.Error("failed to scan conversation", "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load conversations"})
		}
		conversations = append(conversations, conv)
	}
	if err := rows.Err(); err != nil {
		slog.Error("failed to read conversations", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load conversations"})
	}

	for i := range conversations {
		attachOtherUser(ctx, &conversations[i], userID)
	}

	return c.JSON(fiber.Map{"conversations": conversations, "count": len(conversations)})
}

// GetMessages returns the full message history of a conversation, oldest
// first.
func (s *ChatService) GetMessages(c fiber.Ctx) error {
	userID, err := uuid.Parse(c.Locals("userID").(string))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	conversationID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid conversation ID"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	conversation, err := fetchConversation(ctx, conversationID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Conversation not found"})
		}
		slog.Error("failed to query conversation", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}
	if !conversation.HasParticipant(userID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Not your conversation"})
	}

	rows, err := db.Pool.Query(ctx, `
        SELECT id, conversation_id, sender_id, sender_name, content, read, created_at
        FROM messages
        WHERE conversation_id = $1
        ORDER BY created_at ASC
    `, conversationID)
	if err != nil {
		slog.Error("failed to query messages", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load messages"})
	}
	defer rows.Close()

	messages := []models.Message{}
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.SenderName, &m.Content, &m.Read, &m.CreatedAt); err != nil {
			slog.Error("failed to scan message", "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load messages"})
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		slog.Error("failed to read messages", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load messages"})
	}

	return c.JSON(fiber.Map{"messages": messages, "count": len(messages)})
}

// SendMessage appends a message and bumps the conversation preview in one
// transaction, then pushes the message to the other participant's open
// connections.
func (s *ChatService) SendMessage(c fiber.Ctx) error {
	userID, err := uuid.Parse(c.Locals("userID").(string))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	conversationID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid conversation ID"})
	}

	var requestData struct {
		Content string `json:"content"`
	}
	if err := c.Bind().Body(&requestData); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	content := strings.TrimSpace(requestData.Content)
	if content == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Message cannot be empty"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	conversation, err := fetchConversation(ctx, conversationID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Conversation not found"})
		}
		slog.Error("failed to query conversation", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}
	if !conversation.HasParticipant(userID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Not your conversation"})
	}

	var senderName string
	if err = db.Pool.QueryRow(ctx, `SELECT name FROM users WHERE id = $1`, userID).Scan(&senderName); err != nil {
		slog.Error("failed to load sender", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}
	defer tx.Rollback(ctx)

	messageID := uuid.New()

	var message models.Message
	err = tx.QueryRow(ctx, `
        INSERT INTO messages (id, conversation_id, sender_id, sender_name, content)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, conversation_id, sender_id, sender_name, content, read, created_at
    `, messageID, conversationID, userID, senderName, content).Scan(
		&message.ID, &message.ConversationID, &message.SenderID, &message.SenderName,
		&message.Content, &message.Read, &message.CreatedAt,
	)
	if err != nil {
		slog.Error("failed to insert message", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to send message"})
	}

	_, err = tx.Exec(ctx, `
        UPDATE conversations
        SET last_message = $1, last_message_at = $2, updated_at = NOW()
        WHERE id = $3
    `, utils.TruncateText(content, 100), message.CreatedAt, conversationID)
	if err != nil {
		slog.Error("failed to update conversation preview", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to send message"})
	}

	if err = tx.Commit(ctx); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}

	metrics.MessagesSent.Inc()

	recipient := conversation.OtherParticipant(userID).String()
	s.wsManager.SendToUser(recipient, ws.Event{
		Type:           ws.EventNewMessage,
		ConversationID: conversationID.String(),
		UserID:         userID.String(),
		Payload:        message,
	})
	s.wsManager.SendToUser(recipient, ws.Event{
		Type:           ws.EventConversationUpdated,
		ConversationID: conversationID.String(),
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "message": message})
}

// MarkRead flags every message from the other participant as read and
// notifies the sender so their read receipts update.
func (s *ChatService) MarkRead(c fiber.Ctx) error {
	userID, err := uuid.Parse(c.Locals("userID").(string))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	conversationID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid conversation ID"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	conversation, err := fetchConversation(ctx, conversationID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Conversation not found"})
		}
		slog.Error("failed to query conversation", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}
	if !conversation.HasParticipant(userID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Not your conversation"})
	}

	tag, err := db.Pool.Exec(ctx, `
        UPDATE messages
        SET read = true
        WHERE conversation_id = $1 AND sender_id != $2 AND read = false
    `, conversationID, userID)
	if err != nil {
		slog.Error("failed to mark messages read", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update messages"})
	}

	if tag.RowsAffected() > 0 {
		s.wsManager.SendToUser(conversation.OtherParticipant(userID).String(), ws.Event{
			Type:           ws.EventMessagesRead,
			ConversationID: conversationID.String(),
			UserID:         userID.String(),
		})
	}

	return c.JSON(fiber.Map{"success": true, "updated": tag.RowsAffected()})
}

func fetchConversation(ctx context.Context, id uuid.UUID) (*models.Conversation, error) {
	return scanOneConversation(db.Pool.QueryRow(ctx, `
        SELECT `+conversationColumns+` FROM conversations WHERE id = $1
    `, id))
}

func fetchConversationByKey(ctx context.Context, key string) (*models.Conversation, error) {
	return scanOneConversation(db.Pool.QueryRow(ctx, `
        SELECT `+conversationColumns+` FROM conversations WHERE conversation_key = $1
    `, key))
}

func scanOneConversation(row pgx.Row) (*models.Conversation, error) {
	var conv models.Conversation
	err := row.Scan(
		&conv.ID, &conv.Key, &conv.UserA, &conv.UserB, &conv.ItemID, &conv.ItemTitle,
		&conv.LastMessage, &conv.LastMessageAt, &conv.CreatedAt, &conv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// adoptItemContext attaches an item reference to a conversation that was
// started without one. The first reference wins; the guarded UPDATE keeps
// that true under concurrent calls.
func adoptItemContext(ctx context.Context, conv *models.Conversation, itemID *uuid.UUID, itemTitle string) {
	if !conv.AdoptItemContext(itemID, itemTitle) {
		return
	}

	_, err := db.Pool.Exec(ctx, `
        UPDATE conversations
        SET item_id = $1, item_title = $2, updated_at = NOW()
        WHERE id = $3 AND item_id IS NULL
    `, itemID, itemTitle, conv.ID)
	if err != nil {
		slog.Error("failed to attach item to conversation", "conversation", conv.ID, "error", err)
	}
}

// attachOtherUser loads the counterpart's public profile; failures leave
// it nil.
func attachOtherUser(ctx context.Context, conv *models.Conversation, viewerID uuid.UUID) {
	otherID := conv.OtherParticipant(viewerID)

	var user models.PublicUser
	err := db.Pool.QueryRow(ctx, `
        SELECT id, name, location, profile_image, rating, rating_count
        FROM users
        WHERE id = $1
    `, otherID).Scan(&user.ID, &user.Name, &user.Location, &user.ProfileImage, &user.Rating, &user.RatingCount)
	if err != nil {
		slog.Error("failed to query user", "user", otherID, "error", err)
		return
	}
	conv.OtherUser = &user
}
