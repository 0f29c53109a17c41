package models

import (
	"time"

	"github.com/google/uuid"
)

type AccountType string

const (
	AccountTypeChecking   AccountType = "checking"
	AccountTypeSavings    AccountType = "savings"
	AccountTypeCreditCard AccountType = "credit_card"
	AccountTypeInvestment AccountType = "investment"
	AccountTypeOther      AccountType = "other"
)

// Account is one aggregator-reported (or manually added) bank account.
// ConnectionID is nil for manual accounts. ExternalID is the aggregator's
// identifier and is globally unique; it is the natural key for
// upsert-on-sync.
type Account struct {
	ID            uuid.UUID   `db:"id"`
	UserID        uuid.UUID   `db:"user_id"`
	ConnectionID  *uuid.UUID  `db:"connection_id"`
	ExternalID    string      `db:"external_id"`
	Name          string      `db:"name"`
	Type          AccountType `db:"type"`
	Balance       float64     `db:"balance"`
	Currency      string      `db:"currency"`
	Institution   string      `db:"institution"`
	AccountNumber string      `db:"account_number"`
	IsActive      bool        `db:"is_active"`
	LastSyncedAt  *time.Time  `db:"last_synced_at"`
	CreatedAt     time.Time   `db:"created_at"`
	UpdatedAt     time.Time   `db:"updated_at"`
}

// IsLiability reports whether the account counts on the liability side of
// a net-worth calculation. Credit accounts always do; any other account in
// the red does too.
func (a *Account) IsLiability() bool {
	return a.Type == AccountTypeCreditCard || a.Balance < 0
}
