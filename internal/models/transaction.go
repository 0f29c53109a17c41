package models

import (
	"time"

	"github.com/google/uuid"
)

// Transaction is one aggregator-reported ledger line. Amount is signed:
// positive is a credit, negative is a debit. ExternalID is unique, which
// makes sync an insert-if-absent: a transaction is written once and never
// mutated by sync again. Only user-driven recategorization touches it,
// setting IsManuallyOverridden and forcing confidence to 1.
type Transaction struct {
	ID                   uuid.UUID         `db:"id"`
	AccountID            uuid.UUID         `db:"account_id"`
	ExternalID           string            `db:"external_id"`
	Amount               float64           `db:"amount"`
	Description          string            `db:"description"`
	Date                 time.Time         `db:"date"`
	Category             string            `db:"category"`
	CategoryConfidence   float64           `db:"category_confidence"`
	IsManuallyOverridden bool              `db:"is_manually_overridden"`
	Metadata             map[string]string `db:"metadata"`
	CreatedAt            time.Time         `db:"created_at"`
}

// Metadata keys captured at sync time.
const (
	MetaMerchantName     = "merchant_name"
	MetaTransactionType  = "transaction_type"
	MetaProviderCategory = "provider_category"
)
