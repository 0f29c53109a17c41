package models

import (
	"time"

	"github.com/google/uuid"
)

// Goal is a savings target. Progress, remaining and time-remaining are
// derived per request.
type Goal struct {
	ID            uuid.UUID  `db:"id"`
	UserID        uuid.UUID  `db:"user_id"`
	Name          string     `db:"name"`
	TargetAmount  float64    `db:"target_amount"`
	CurrentAmount float64    `db:"current_amount"`
	TargetDate    *time.Time `db:"target_date"`
	Category      string     `db:"category"`
	IsActive      bool       `db:"is_active"`
	CreatedAt     time.Time  `db:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"`
}
