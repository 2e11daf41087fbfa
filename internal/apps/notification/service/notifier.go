package service

import (
	"context"
	"errors"
	"log/slog"

	"inventory-backend/internal/apps/notification/models"
)

// ErrMissingRecipient is returned when a message has no recipient
var ErrMissingRecipient = errors.New("message has no recipient")

// Notifier defines the interface for delivering messages
type Notifier interface {
	Send(ctx context.Context, msg models.Message) error
}

// noOpNotifier skips delivery (for environments without SMTP credentials)
type noOpNotifier struct {
	log *slog.Logger
}

// NewNoOpNotifier creates a notifier that only logs
func NewNoOpNotifier(log *slog.Logger) Notifier {
	return &noOpNotifier{log: log}
}

func (n *noOpNotifier) Send(_ context.Context, msg models.Message) error {
	if msg.To == "" {
		return ErrMissingRecipient
	}
	n.log.Warn("email_skipped",
		slog.String("reason", "email service not configured"),
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
		slog.Int("attachments", len(msg.Attachments)),
	)
	return nil
}
