package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	notifmodels "inventory-backend/internal/apps/notification/models"
	"inventory-backend/internal/apps/otp/models"
	"inventory-backend/internal/apps/otp/repository"
)

// DefaultWindow is how long an issued code stays valid
const DefaultWindow = 5 * time.Minute

const verificationSubject = "Inventory System - Email Verification"

// ErrEmptyIdentifier is returned when issuing for a blank identifier
var ErrEmptyIdentifier = errors.New("identifier is required")

// Verifier defines business logic for one-time passwords
type Verifier interface {
	// Issue creates a fresh code for identifier, replacing any previous one,
	// and queues it for delivery. The returned entry carries the code and the
	// issue time taken from the verifier's clock; callers must not expose the code.
	Issue(ctx context.Context, identifier string) (models.Entry, error)
	// Validate reports whether code is the live code of identifier
	Validate(ctx context.Context, identifier, code string) bool
	// Check is Validate with the reason for the result
	Check(ctx context.Context, identifier, code string) (models.Outcome, error)
	// Window is the validity period of an issued code
	Window() time.Duration
}

// Dispatcher queues a message for asynchronous delivery
type Dispatcher interface {
	Dispatch(msg notifmodels.Message) bool
}

// Option configures a Verifier
type Option func(*verifier)

// WithWindow overrides the validity period
func WithWindow(d time.Duration) Option {
	return func(v *verifier) {
		if d > 0 {
			v.window = d
		}
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(v *verifier) {
		if now != nil {
			v.now = now
		}
	}
}

// WithGenerator overrides the code generator
func WithGenerator(gen func() (string, error)) Option {
	return func(v *verifier) {
		if gen != nil {
			v.generate = gen
		}
	}
}

// verifier implements Verifier
type verifier struct {
	store      repository.Store
	dispatcher Dispatcher
	log        *slog.Logger

	window   time.Duration
	now      func() time.Time
	generate func() (string, error)
}

// NewVerifier creates a new instance of Verifier
func NewVerifier(store repository.Store, dispatcher Dispatcher, log *slog.Logger, opts ...Option) Verifier {
	v := &verifier{
		store:      store,
		dispatcher: dispatcher,
		log:        log.With(slog.String("service", "otp")),
		window:     DefaultWindow,
		now:        time.Now,
		generate:   GenerateCode,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func (v *verifier) Window() time.Duration {
	return v.window
}

func (v *verifier) Issue(ctx context.Context, identifier string) (models.Entry, error) {
	if identifier == "" {
		return models.Entry{}, ErrEmptyIdentifier
	}

	code, err := v.generate()
	if err != nil {
		return models.Entry{}, fmt.Errorf("generate otp: %w", err)
	}

	entry := models.Entry{Identifier: identifier, Code: code, IssuedAt: v.now()}
	if err := v.store.Put(ctx, entry, v.window); err != nil {
		return models.Entry{}, err
	}

	if !v.dispatcher.Dispatch(v.verificationMessage(identifier, code)) {
		v.log.Warn("otp_dispatch_failed", slog.String("identifier", identifier))
	} else {
		v.log.Info("otp_issued", slog.String("identifier", identifier))
	}
	return entry, nil
}

func (v *verifier) Validate(ctx context.Context, identifier, code string) bool {
	outcome, err := v.Check(ctx, identifier, code)
	if err != nil {
		v.log.Error("otp_check_failed", slog.String("identifier", identifier), slog.String("reason", err.Error()))
		return false
	}
	return outcome == models.OutcomeSuccess
}

func (v *verifier) Check(ctx context.Context, identifier, code string) (models.Outcome, error) {
	outcome, err := v.store.Consume(ctx, identifier, code, v.now(), v.window)
	if err != nil {
		return models.OutcomeNotFound, err
	}
	v.log.Debug("otp_checked", slog.String("identifier", identifier), slog.String("outcome", outcome.String()))
	return outcome, nil
}

func (v *verifier) verificationMessage(identifier, code string) notifmodels.Message {
	minutes := int(v.window / time.Minute)
	validity := fmt.Sprintf("%d minutes", minutes)
	if minutes == 0 {
		validity = v.window.String()
	}
	return notifmodels.Message{
		To:      identifier,
		Subject: verificationSubject,
		Body: fmt.Sprintf("Your verification OTP is: <b>%s</b><br><br>It is valid for %s. Do not share it with anyone.",
			code, validity),
		HTML: true,
	}
}
