package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/swapsphere/swapsphere-api/internal/config"
	"github.com/swapsphere/swapsphere-api/internal/constants"
	"github.com/swapsphere/swapsphere-api/internal/db"
	"github.com/swapsphere/swapsphere-api/internal/email"
	"github.com/swapsphere/swapsphere-api/internal/models"
	"github.com/swapsphere/swapsphere-api/internal/utils"
)

const resetTokenTTL = time.Hour

// AuthService handles registration, sessions and profile mutation.
type AuthService struct {
	cfg        *config.Config
	jwtService *utils.JWTService
	mailer     email.Sender
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg *config.Config, mailer email.Sender) *AuthService {
	return &AuthService{
		cfg:        cfg,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
		mailer:     mailer,
	}
}

// GetJWTService exposes the token service for middleware wiring.
func (s *AuthService) GetJWTService() *utils.JWTService {
	return s.jwtService
}

// Register creates a new account and its marketplace profile.
func (s *AuthService) Register(c fiber.Ctx) error {
	var requestData struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
		Phone    string `json:"phone"`
		Location string `json:"location"`
	}

	if err := c.Bind().Body(&requestData); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if requestData.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Name is required"})
	}
	if !utils.IsValidEmail(requestData.Email) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": MessageFor(CodeInvalidEmail), "code": CodeInvalidEmail,
		})
	}
	if len(requestData.Password) < utils.MinPasswordLength {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": MessageFor(CodeWeakPassword), "code": CodeWeakPassword,
		})
	}
	if requestData.Phone != "" && !utils.IsValidPhone(requestData.Phone) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Please enter a valid 10-digit mobile number"})
	}
	if requestData.Location != "" && !constants.IsValidCity(requestData.Location) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Unknown city"})
	}

	passwordHash, err := utils.HashPassword(requestData.Password)
	if err != nil {
		slog.Error("failed to hash password", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Registration failed"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	var user models.User
	err = db.Pool.QueryRow(ctx, `
        INSERT INTO users (email, password_hash, name, phone, location)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, email, name, phone, location, profile_image, rating, rating_count, created_at, updated_at
    `, requestData.Email, passwordHash, requestData.Name, requestData.Phone, requestData.Location).Scan(
		&user.ID, &user.Email, &user.Name, &user.Phone, &user.Location,
		&user.ProfileImage, &user.Rating, &user.RatingCount, &user.CreatedAt, &user.UpdatedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": MessageFor(CodeEmailInUse), "code": CodeEmailInUse,
			})
		}
		slog.Error("failed to create user", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Registration failed"})
	}

	token, err := s.jwtService.GenerateToken(user.ID)
	if err != nil {
		slog.Error("failed to generate token", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Registration failed"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}

// Login verifies credentials and issues a session token.
func (s *AuthService) Login(c fiber.Ctx) error {
	var requestData struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := c.Bind().Body(&requestData); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if requestData.Email == "" || requestData.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": MessageFor(CodeInvalidCredential), "code": CodeInvalidCredential,
		})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	var user models.User
	var passwordHash string
	err := db.Pool.QueryRow(ctx, `
        SELECT id, email, password_hash, name, phone, location, profile_image, rating, rating_count, created_at, updated_at
        FROM users
        WHERE email = $1
    `, requestData.Email).Scan(
		&user.ID, &user.Email, &passwordHash, &user.Name, &user.Phone, &user.Location,
		&user.ProfileImage, &user.Rating, &user.RatingCount, &user.CreatedAt, &user.UpdatedAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": MessageFor(CodeUserNotFound), "code": CodeUserNotFound,
			})
		}
		slog.Error("failed to query user", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Login failed"})
	}

	if !utils.CheckPasswordHash(requestData.Password, passwordHash) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": MessageFor(CodeWrongPassword), "code": CodeWrongPassword,
		})
	}

	token, err := s.jwtService.GenerateToken(user.ID)
	if err != nil {
		slog.Error("failed to generate token", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Login failed"})
	}

	return c.JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}

// GetProfile returns the authenticated user's full profile.
func (s *AuthService) GetProfile(c fiber.Ctx) error {
	userUUID, err := uuid.Parse(c.Locals("userID").(string))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	var user models.User
	err = db.Pool.QueryRow(ctx, `
        SELECT id, email, name, phone, location, profile_image, rating, rating_count, created_at, updated_at
        FROM users
        WHERE id = $1
    `, userUUID).Scan(
		&user.ID, &user.Email, &user.Name, &user.Phone, &user.Location,
		&user.ProfileImage, &user.Rating, &user.RatingCount, &user.CreatedAt, &user.UpdatedAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
		}
		slog.Error("failed to query profile", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load profile"})
	}

	return c.JSON(fiber.Map{"user": user})
}

// UpdateProfile mutates the owning user's profile fields.
func (s *AuthService) UpdateProfile(c fiber.Ctx) error {
	userUUID, err := uuid.Parse(c.Locals("userID").(string))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	var requestData struct {
		Name         *string `json:"name"`
		Phone        *string `json:"phone"`
		Location     *string `json:"location"`
		ProfileImage *string `json:"profile_image"`
	}

	if err := c.Bind().Body(&requestData); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if requestData.Name != nil && *requestData.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Name cannot be empty"})
	}
	if requestData.Phone != nil && *requestData.Phone != "" && !utils.IsValidPhone(*requestData.Phone) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Please enter a valid 10-digit mobile number"})
	}
	if requestData.Location != nil && *requestData.Location != "" && !constants.IsValidCity(*requestData.Location) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Unknown city"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	var user models.User
	err = db.Pool.QueryRow(ctx, `
        UPDATE users
        SET name = COALESCE($1, name),
            phone = COALESCE($2, phone),
            location = COALESCE($3, location),
            profile_image = COALESCE($4, profile_image),
            updated_at = NOW()
        WHERE id = $5
        RETURNING id, email, name, phone, location, profile_image, rating, rating_count, created_at, updated_at
    `, requestData.Name, requestData.Phone, requestData.Location, requestData.ProfileImage, userUUID).Scan(
		&user.ID, &user.Email, &user.Name, &user.Phone, &user.Location,
		&user.ProfileImage, &user.Rating, &user.RatingCount, &user.CreatedAt, &user.UpdatedAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
		}
		slog.Error("failed to update profile", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update profile"})
	}

	return c.JSON(fiber.Map{"success": true, "user": user})
}

// GetPublicUser returns the public view of any user's profile.
func (s *AuthService) GetPublicUser(c fiber.Ctx) error {
	targetUUID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	var user models.PublicUser
	err = db.Pool.QueryRow(ctx, `
        SELECT id, name, location, profile_image, rating, rating_count
        FROM users
        WHERE id = $1
    `, targetUUID).Scan(
		&user.ID, &user.Name, &user.Location, &user.ProfileImage, &user.Rating, &user.RatingCount,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
		}
		slog.Error("failed to query user", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load user"})
	}

	return c.JSON(fiber.Map{"user": user})
}

// RequestPasswordReset issues a single-use reset token and mails it.
func (s *AuthService) RequestPasswordReset(c fiber.Ctx) error {
	var requestData struct {
		Email string `json:"email"`
	}

	if err := c.Bind().Body(&requestData); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if !utils.IsValidEmail(requestData.Email) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": MessageFor(CodeInvalidEmail), "code": CodeInvalidEmail,
		})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	var userID uuid.UUID
	err := db.Pool.QueryRow(ctx, `SELECT id FROM users WHERE email = $1`, requestData.Email).Scan(&userID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": MessageFor(CodeUserNotFound), "code": CodeUserNotFound,
			})
		}
		slog.Error("failed to query user for reset", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to request password reset"})
	}

	token, err := generateResetToken()
	if err != nil {
		slog.Error("failed to generate reset token", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to request password reset"})
	}

	_, err = db.Pool.Exec(ctx, `
        INSERT INTO password_resets (token, user_id, expires_at)
        VALUES ($1, $2, $3)
    `, token, userID, time.Now().Add(resetTokenTTL))
	if err != nil {
		slog.Error("failed to store reset token", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to request password reset"})
	}

	if err := s.mailer.Send(requestData.Email, "Reset your SwapSphere password",
		"Use this code to reset your password: "+token); err != nil {
		slog.Error("failed to send reset mail", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to send reset email"})
	}

	return c.JSON(fiber.Map{"success": true, "message": "Password reset email sent"})
}

// ResetPassword consumes a reset token and stores the new password.
func (s *AuthService) ResetPassword(c fiber.Ctx) error {
	var requestData struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}

	if err := c.Bind().Body(&requestData); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if requestData.Token == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Reset token is required"})
	}
	if len(requestData.Password) < utils.MinPasswordLength {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": MessageFor(CodeWeakPassword), "code": CodeWeakPassword,
		})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to reset password"})
	}
	defer tx.Rollback(ctx)

	var userID uuid.UUID
	err = tx.QueryRow(ctx, `
        UPDATE password_resets
        SET used = TRUE
        WHERE token = $1 AND used = FALSE AND expires_at > NOW()
        RETURNING user_id
    `, requestData.Token).Scan(&userID)

	if err != nil {
		if err == pgx.ErrNoRows {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid or expired reset token"})
		}
		slog.Error("failed to consume reset token", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to reset password"})
	}

	passwordHash, err := utils.HashPassword(requestData.Password)
	if err != nil {
		slog.Error("failed to hash password", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to reset password"})
	}

	if _, err = tx.Exec(ctx, `
        UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2
    `, passwordHash, userID); err != nil {
		slog.Error("failed to update password", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to reset password"})
	}

	if err = tx.Commit(ctx); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to reset password"})
	}

	return c.JSON(fiber.Map{"success": true, "message": "Password updated"})
}

func generateResetToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
