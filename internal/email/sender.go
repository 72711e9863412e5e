// Package email delivers transactional mail. No SMTP is configured in
// this deployment, so the default sender records mail on disk where an
// operator (or a test) can read it.
package email

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Sender delivers a single mail message.
type Sender interface {
	Send(to, subject, body string) error
}

// FileSender writes each message to a timestamped file in a directory.
type FileSender struct {
	Dir string
}

// NewFileSender creates the directory if needed.
func NewFileSender(dir string) (*FileSender, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create mail directory: %w", err)
	}
	return &FileSender{Dir: dir}, nil
}

// Send writes the message to a file.
func (s *FileSender) Send(to, subject, body string) error {
	name := fmt.Sprintf("%d_%s.txt", time.Now().UnixNano(), to)
	content := fmt.Sprintf("To: %s\nSubject: %s\n\n%s\n", to, subject, body)
	if err := os.WriteFile(filepath.Join(s.Dir, name), []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write mail file: %w", err)
	}
	return nil
}

// LogSender logs messages instead of delivering them. Used in development.
type LogSender struct{}

// Send logs the message.
func (LogSender) Send(to, subject, body string) error {
	slog.Info("outgoing mail", "to", to, "subject", subject, "body", body)
	return nil
}
