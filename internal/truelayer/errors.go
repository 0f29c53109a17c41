package truelayer

import (
	"fmt"
	"strings"
)

// Operation names used in APIError.Op.
const (
	OpExchangeCode     = "exchange_code"
	OpRefreshToken     = "refresh_token"
	OpListAccounts     = "list_accounts"
	OpGetBalance       = "get_balance"
	OpListTransactions = "list_transactions"
)

// APIError is any non-2xx response from TrueLayer. The raw body is kept so
// callers can tell an invalid_grant (single-use code already consumed or
// expired) apart from other failures.
type APIError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("truelayer %s failed with status %d: %s", e.Op, e.StatusCode, e.Body)
}

// IsInvalidGrant reports whether the failure is the terminal,
// non-retryable "authorization code already used or expired" case. The
// caller must prompt the user to restart the connect flow.
func (e *APIError) IsInvalidGrant() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500 && strings.Contains(e.Body, "invalid_grant")
}
