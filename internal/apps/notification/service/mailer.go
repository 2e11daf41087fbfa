package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"inventory-backend/internal/apps/notification/models"

	gomail "gopkg.in/mail.v2"
)

// MailerConfig holds SMTP settings
type MailerConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// Timeout bounds dialing and each SMTP command; zero keeps gomail's 10s
	Timeout time.Duration
}

// smtpMailer sends messages through an SMTP relay
type smtpMailer struct {
	from string
	log  *slog.Logger
	send func(m *gomail.Message) error
}

func newDialer(cfg MailerConfig) *gomail.Dialer {
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	if cfg.Timeout > 0 {
		dialer.Timeout = cfg.Timeout
	}
	return dialer
}

// NewSMTPMailer creates a Notifier that delivers over SMTP. The SMTP exchange
// itself is bounded by cfg.Timeout; ctx is only checked before dialing.
func NewSMTPMailer(cfg MailerConfig, log *slog.Logger) Notifier {
	dialer := newDialer(cfg)
	return &smtpMailer{
		from: cfg.From,
		log:  log,
		send: func(m *gomail.Message) error { return dialer.DialAndSend(m) },
	}
}

func (m *smtpMailer) Send(ctx context.Context, msg models.Message) error {
	if msg.To == "" {
		return ErrMissingRecipient
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	message := gomail.NewMessage()
	message.SetHeader("From", m.from)
	message.SetHeader("To", msg.To)
	message.SetHeader("Subject", msg.Subject)
	message.SetBody(msg.ContentType(), msg.Body)
	for _, a := range msg.Attachments {
		message.AttachReader(a.Name, bytes.NewReader(a.Data))
	}

	if err := m.send(message); err != nil {
		m.log.Error("email_failed", slog.String("to", msg.To), slog.String("subject", msg.Subject), slog.String("reason", err.Error()))
		return fmt.Errorf("send email to %s: %w", msg.To, err)
	}

	m.log.Info("email_sent", slog.String("to", msg.To), slog.String("subject", msg.Subject))
	return nil
}
