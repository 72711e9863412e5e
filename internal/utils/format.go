package utils

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var inPrinter = message.NewPrinter(language.MustParse("en-IN"))

// FormatPrice renders a rupee amount in Indian locale with no fractional
// digits, e.g. 45000 -> "₹45,000" and 4500000 -> "₹45,00,000".
func FormatPrice(price int64) string {
	return "₹" + inPrinter.Sprintf("%d", price)
}

// FormatRelativeTime renders a timestamp the way the feed UI shows it:
// "Just now", "5m ago", "3h ago", "2d ago", then a short date once it is
// older than a week.
func FormatRelativeTime(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}

	diff := now.Sub(t)
	switch {
	case diff < time.Minute:
		return "Just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	}

	if t.Year() != now.Year() {
		return t.Format("2 Jan 2006")
	}
	return t.Format("2 Jan")
}

// TruncateText shortens text to maxLength characters with a trailing
// ellipsis, trimming a dangling space first. Cuts on rune boundaries so
// multi-byte scripts stay valid UTF-8.
func TruncateText(text string, maxLength int) string {
	runes := []rune(text)
	if len(runes) <= maxLength {
		return text
	}
	return strings.TrimSpace(string(runes[:maxLength])) + "..."
}
