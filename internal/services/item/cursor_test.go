package item

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestCursorRoundTrip(t *testing.T) {
	createdAt := time.Date(2025, 11, 3, 14, 22, 51, 123456789, time.UTC)
	id := uuid.New()

	gotTime, gotID, err := DecodeCursor(EncodeCursor(createdAt, id))
	if err != nil {
		t.Fatalf("DecodeCursor: %v", err)
	}
	if !gotTime.Equal(createdAt) {
		t.Errorf("created_at = %v, want %v", gotTime, createdAt)
	}
	if gotID != id {
		t.Errorf("id = %v, want %v", gotID, id)
	}
}

func TestDecodeCursorRejectsGarbage(t *testing.T) {
	for _, cursor := range []string{
		"",
		"not base64 !!!",
		"bm8gc2VwYXJhdG9y",  // "no separator"
		"bm90LWEtdGltZXxhYmM", // "not-a-time|abc"
	} {
		if _, _, err := DecodeCursor(cursor); err == nil {
			t.Errorf("DecodeCursor(%q) accepted a malformed cursor", cursor)
		}
	}
}
