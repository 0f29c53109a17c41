package models

import (
	"time"

	"github.com/google/uuid"
)

// NetWorthSnapshot is an append-only point-in-time record. Rows are only
// ever created, never mutated.
type NetWorthSnapshot struct {
	ID               uuid.UUID `db:"id"`
	UserID           uuid.UUID `db:"user_id"`
	TotalAssets      float64   `db:"total_assets"`
	TotalLiabilities float64   `db:"total_liabilities"`
	NetWorth         float64   `db:"net_worth"`
	SnapshotDate     time.Time `db:"snapshot_date"`
	CreatedAt        time.Time `db:"created_at"`
}
