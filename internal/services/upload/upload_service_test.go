package upload

import (
	"regexp"
	"testing"

	"github.com/swapsphere/swapsphere-api/internal/config"
)

func testService() *UploadService {
	return &UploadService{
		cfg: &config.Config{
			CloudinaryConfig: config.CloudinaryConfig{APISecret: "test-secret"},
		},
	}
}

func TestGenerateSignatureIsDeterministic(t *testing.T) {
	s := testService()

	a := s.GenerateSignature(map[string]string{"timestamp": "1700000000", "folder": "items"})
	b := s.GenerateSignature(map[string]string{"folder": "items", "timestamp": "1700000000"})

	if a != b {
		t.Errorf("signature depends on map order: %q vs %q", a, b)
	}
	if !regexp.MustCompile(`^[0-9a-f]{40}$`).MatchString(a) {
		t.Errorf("signature %q is not a SHA-1 hex digest", a)
	}
}

func TestGenerateSignatureChangesWithParams(t *testing.T) {
	s := testService()

	a := s.GenerateSignature(map[string]string{"timestamp": "1700000000"})
	b := s.GenerateSignature(map[string]string{"timestamp": "1700000001"})

	if a == b {
		t.Error("different params produced the same signature")
	}
}

func TestURLReferencesPublicID(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		publicID string
		want     bool
	}{
		{"profile url embeds id", "https://res.cloudinary.com/demo/image/upload/v1/swapsphere/abc123.jpg", "swapsphere/abc123", true},
		{"different id", "https://res.cloudinary.com/demo/image/upload/v1/swapsphere/abc123.jpg", "swapsphere/xyz789", false},
		{"empty public id", "https://res.cloudinary.com/demo/image/upload/v1/swapsphere/abc123.jpg", "", false},
		{"empty url", "", "swapsphere/abc123", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := urlReferencesPublicID(tt.url, tt.publicID); got != tt.want {
				t.Errorf("urlReferencesPublicID(%q, %q) = %v, want %v", tt.url, tt.publicID, got, tt.want)
			}
		})
	}
}
