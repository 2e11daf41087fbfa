package utils

import "strings"

// NormalizeEmail lowercases and trims an email address so that the same
// mailbox always maps to the same key
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
