package models

import "time"

// ResetToken is a single-use password reset grant. Only the SHA-256 digest
// of the token handed to the user is stored.
type ResetToken struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	TokenHash string    `json:"token_hash"`
	ExpiresAt time.Time `json:"expires_at"`
	Used      bool      `json:"used"`
	CreatedAt time.Time `json:"created_at"`
}

// Expired reports whether the token is past its expiry at now.
func (t ResetToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
