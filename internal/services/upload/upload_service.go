package upload

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/swapsphere/swapsphere-api/internal/config"
	"github.com/swapsphere/swapsphere-api/internal/db"
	"github.com/swapsphere/swapsphere-api/internal/utils"
)

// UploadService issues signed Cloudinary upload parameters so the client
// can upload images directly, and deletes images server side so the API
// secret never reaches the client.
type UploadService struct {
	cfg        *config.Config
	jwtService *utils.JWTService
	cld        *cloudinary.Cloudinary
}

// NewUploadService creates a new UploadService. A Cloudinary client init
// failure is fatal only for deletions; signing needs no client.
func NewUploadService(cfg *config.Config) (*UploadService, error) {
	cld, err := cloudinary.NewFromParams(
		cfg.CloudinaryConfig.CloudName,
		cfg.CloudinaryConfig.APIKey,
		cfg.CloudinaryConfig.APISecret,
	)
	if err != nil {
		return nil, fmt.Errorf("init cloudinary client: %w", err)
	}

	return &UploadService{
		cfg:        cfg,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
		cld:        cld,
	}, nil
}

// GenerateSignature builds the Cloudinary request signature: parameters
// sorted by key, joined with &, API secret appended, SHA-1 hex digest.
func (s *UploadService) GenerateSignature(params map[string]string) string {
	var keys []string
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var signParts []string
	for _, k := range keys {
		signParts = append(signParts, fmt.Sprintf("%s=%s", k, params[k]))
	}
	signatureString := strings.Join(signParts, "&") + s.cfg.CloudinaryConfig.APISecret

	h := sha1.New()
	h.Write([]byte(signatureString))
	return hex.EncodeToString(h.Sum(nil))
}

// GenerateUploadParams returns the signed parameters for one direct
// client upload.
func (s *UploadService) GenerateUploadParams(c fiber.Ctx) error {
	itemID := c.Query("item_id")
	if itemID == "" {
		itemID = uuid.New().String()
	}

	timestamp := fmt.Sprintf("%d", time.Now().Unix())

	params := map[string]string{
		"timestamp": timestamp,
		"folder":    s.cfg.CloudinaryConfig.UploadFolder,
	}

	return c.JSON(fiber.Map{
		"timestamp":  timestamp,
		"signature":  s.GenerateSignature(params),
		"api_key":    s.cfg.CloudinaryConfig.APIKey,
		"cloud_name": s.cfg.CloudinaryConfig.CloudName,
		"folder":     s.cfg.CloudinaryConfig.UploadFolder,
		"item_id":    itemID,
	})
}

// DeleteImage removes an uploaded image from Cloudinary. The public_id
// must belong to the caller: one of their item images or their profile
// image.
func (s *UploadService) DeleteImage(c fiber.Ctx) error {
	userID, err := uuid.Parse(c.Locals("userID").(string))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	publicID := c.Params("*")
	if publicID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "public_id is required"})
	}

	owned, err := callerOwnsImage(userID, publicID)
	if err != nil {
		slog.Error("failed to check image ownership", "public_id", publicID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}
	if !owned {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Not your image"})
	}

	res, err := s.cld.Upload.Destroy(c.Context(), uploader.DestroyParams{PublicID: publicID})
	if err != nil {
		slog.Error("failed to delete cloudinary image", "public_id", publicID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete image"})
	}

	if res.Result != "ok" && res.Result != "not found" {
		slog.Warn("unexpected cloudinary destroy result", "public_id", publicID, "result", res.Result)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "Image service rejected the deletion"})
	}

	return c.JSON(fiber.Map{"success": true, "result": res.Result})
}

// callerOwnsImage reports whether the public_id belongs to one of the
// user's item images or to their profile image.
func callerOwnsImage(userID uuid.UUID, publicID string) (bool, error) {
	ctx, cancel := db.GetContext()
	defer cancel()

	var owned bool
	err := db.Pool.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT 1 FROM item_images img
            JOIN items i ON i.id = img.item_id
            WHERE img.public_id = $1 AND i.user_id = $2
        )
    `, publicID, userID).Scan(&owned)
	if err != nil {
		return false, err
	}
	if owned {
		return true, nil
	}

	var profileImage string
	if err := db.Pool.QueryRow(ctx, `SELECT profile_image FROM users WHERE id = $1`, userID).Scan(&profileImage); err != nil {
		return false, err
	}
	return urlReferencesPublicID(profileImage, publicID), nil
}

// urlReferencesPublicID reports whether a stored image URL points at the
// given Cloudinary public_id. Profile images store the delivery URL, which
// embeds the public_id as its path.
func urlReferencesPublicID(url, publicID string) bool {
	return publicID != "" && url != "" && strings.Contains(url, publicID)
}
