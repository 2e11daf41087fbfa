package repository

import (
	"context"
	"time"

	"inventory-backend/internal/apps/otp/models"
)

// Store defines data operations for live OTP entries
type Store interface {
	// Put replaces any entry of the same identifier. ttl is a retention hint
	// for backends with native expiry.
	Put(ctx context.Context, entry models.Entry, ttl time.Duration) error
	// Consume checks code against the identifier's entry and removes the entry
	// on success or expiry, atomically with respect to Put.
	Consume(ctx context.Context, identifier, code string, now time.Time, window time.Duration) (models.Outcome, error)
	// Sweep removes entries issued before cutoff and returns how many were removed
	Sweep(ctx context.Context, cutoff time.Time) (int, error)
}
