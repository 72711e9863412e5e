package utils

import (
	"regexp"
	"strings"
)

var (
	emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRegex = regexp.MustCompile(`^[6-9]\d{9}$`)
)

// IsValidEmail reports whether the address has a plausible mailbox shape.
func IsValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// IsValidPhone reports whether the number is a valid Indian mobile
// number: 10 digits starting with 6-9. Spaces are ignored.
func IsValidPhone(phone string) bool {
	return phoneRegex.MatchString(strings.ReplaceAll(phone, " ", ""))
}
