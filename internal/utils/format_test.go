package utils

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

func TestFormatPrice(t *testing.T) {
	tests := []struct {
		price int64
		want  string
	}{
		{0, "₹0"},
		{500, "₹500"},
		{45000, "₹45,000"},
		{100000, "₹1,00,000"},
		{4500000, "₹45,00,000"},
	}

	for _, tt := range tests {
		if got := FormatPrice(tt.price); got != tt.want {
			t.Errorf("FormatPrice(%d) = %q, want %q", tt.price, got, tt.want)
		}
	}
}

func TestFormatRelativeTime(t *testing.T) {
	now := time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		t    time.Time
		want string
	}{
		{"zero time", time.Time{}, ""},
		{"seconds ago", now.Add(-30 * time.Second), "Just now"},
		{"minutes ago", now.Add(-5 * time.Minute), "5m ago"},
		{"hours ago", now.Add(-3 * time.Hour), "3h ago"},
		{"days ago", now.Add(-2 * 24 * time.Hour), "2d ago"},
		{"same year date", now.Add(-30 * 24 * time.Hour), "16 May"},
		{"older year date", now.Add(-365 * 24 * time.Hour), "15 Jun 2024"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatRelativeTime(tt.t, now); got != tt.want {
				t.Errorf("FormatRelativeTime() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTruncateText(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		maxLength int
		want      string
	}{
		{"short text untouched", "hello", 10, "hello"},
		{"exact length untouched", "hello", 5, "hello"},
		{"long text truncated", "hello world", 5, "hello..."},
		{"trailing space trimmed", "hello world", 6, "hello..."},
		{"devanagari cut on rune boundary", "नमस्ते दुनिया", 7, "नमस्ते..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TruncateText(tt.text, tt.maxLength); got != tt.want {
				t.Errorf("TruncateText(%q, %d) = %q, want %q", tt.text, tt.maxLength, got, tt.want)
			}
		})
	}
}

func TestTruncateTextKeepsUTF8Valid(t *testing.T) {
	text := strings.Repeat("नमस्ते ", 20)

	for maxLength := 1; maxLength <= 120; maxLength++ {
		got := TruncateText(text, maxLength)
		if !utf8.ValidString(got) {
			t.Fatalf("TruncateText(%d) produced invalid UTF-8: %q", maxLength, got)
		}
	}
}
