package models

import (
	"time"
)

// Entry is the live one-time password of a single identifier
type Entry struct {
	Identifier string
	Code       string
	IssuedAt   time.Time
}

// ExpiresAt is the last instant at which the entry still validates
func (e Entry) ExpiresAt(window time.Duration) time.Time {
	return e.IssuedAt.Add(window)
}

// Expired reports whether the entry is older than window at now
func (e Entry) Expired(now time.Time, window time.Duration) bool {
	return now.Sub(e.IssuedAt) > window
}

// Outcome is the result of checking a submitted code
type Outcome int

const (
	// OutcomeNotFound means no live entry exists for the identifier
	OutcomeNotFound Outcome = iota
	// OutcomeSuccess means the code matched; the entry was consumed
	OutcomeSuccess
	// OutcomeExpired means the entry outlived the window; it was removed
	OutcomeExpired
	// OutcomeMismatch means the code differed; the entry is kept
	OutcomeMismatch
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeExpired:
		return "expired"
	case OutcomeMismatch:
		return "mismatch"
	default:
		return "not_found"
	}
}

// Message is the user-facing text for an outcome
func (o Outcome) Message() string {
	switch o {
	case OutcomeSuccess:
		return "OTP verified successfully"
	case OutcomeExpired:
		return "OTP expired"
	case OutcomeMismatch:
		return "Invalid OTP"
	default:
		return "OTP not found"
	}
}

// EmailOTPResponse represents the response after creating an email OTP (without exposing the value)
type EmailOTPResponse struct {
	ExpiresAt time.Time `json:"expires_at"`
}

// CreateEmailOTPRequest payload to create or override an email OTP
type CreateEmailOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// VerifyEmailOTPRequest payload to verify email OTP
type VerifyEmailOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
	Value string `json:"value" binding:"required"`
}

// VerifyEmailOTPResponse indicates verification result
type VerifyEmailOTPResponse struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
}
