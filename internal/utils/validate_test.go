package utils

import "testing"

func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"a@b.com", true},
		{"user.name@example.co.in", true},
		{"a@b", false},
		{"@b.com", false},
		{"a@.com", false},
		{"a b@c.com", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsValidEmail(tt.email); got != tt.want {
			t.Errorf("IsValidEmail(%q) = %v, want %v", tt.email, got, tt.want)
		}
	}
}

func TestIsValidPhone(t *testing.T) {
	tests := []struct {
		phone string
		want  bool
	}{
		{"9876543210", true},
		{"6123456789", true},
		{"98765 43210", true},
		{"1234567890", false}, // must start 6-9
		{"987654321", false},  // too short
		{"98765432100", false},
		{"abcdefghij", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsValidPhone(tt.phone); got != tt.want {
			t.Errorf("IsValidPhone(%q) = %v, want %v", tt.phone, got, tt.want)
		}
	}
}
