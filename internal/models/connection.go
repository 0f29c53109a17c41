package models

import (
	"time"

	"github.com/google/uuid"
)

// BankConnection is one successful OAuth grant against the aggregator.
// A user may hold several active connections at once (multi-bank).
// Connections are never hard-deleted; disconnect flips IsActive off so the
// audit trail survives.
type BankConnection struct {
	ID           uuid.UUID  `db:"id"`
	UserID       uuid.UUID  `db:"user_id"`
	AccessToken  string     `db:"access_token"`
	RefreshToken string     `db:"refresh_token"`
	TokenType    string     `db:"token_type"`
	ExpiresAt    time.Time  `db:"expires_at"`
	Scope        string     `db:"scope"`
	IsActive     bool       `db:"is_active"`
	LastSyncedAt *time.Time `db:"last_synced_at"`
	CreatedAt    time.Time  `db:"created_at"`
}

// Expired reports whether the access token is already unusable.
func (c *BankConnection) Expired(now time.Time) bool {
	return !c.ExpiresAt.After(now)
}
