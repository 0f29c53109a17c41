package truelayer

import "fmt"

// Token is the payload of both the authorization_code and refresh_token
// grants.
type Token struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

type AccountNumber struct {
	IBAN     string `json:"iban"`
	Number   string `json:"number"`
	SortCode string `json:"sort_code"`
}

type Provider struct {
	DisplayName string `json:"display_name"`
	ProviderID  string `json:"provider_id"`
	LogoURI     string `json:"logo_uri"`
}

type Account struct {
	AccountID     string        `json:"account_id"`
	AccountType   string        `json:"account_type"`
	DisplayName   string        `json:"display_name"`
	Currency      string        `json:"currency"`
	AccountNumber AccountNumber `json:"account_number"`
	Provider      Provider      `json:"provider"`
}

// validate enforces the expected account shape. One malformed entry fails
// the whole listing; a partial account list is never returned.
func (a *Account) validate() error {
	switch {
	case a.AccountID == "":
		return fmt.Errorf("account missing account_id")
	case a.AccountType == "":
		return fmt.Errorf("account %s missing account_type", a.AccountID)
	case a.DisplayName == "":
		return fmt.Errorf("account %s missing display_name", a.AccountID)
	case a.Currency == "":
		return fmt.Errorf("account %s missing currency", a.AccountID)
	case a.Provider.DisplayName == "":
		return fmt.Errorf("account %s missing provider display_name", a.AccountID)
	}
	return nil
}

type Balance struct {
	Currency  string  `json:"currency"`
	Available float64 `json:"available"`
	Current   float64 `json:"current"`
	Overdraft float64 `json:"overdraft"`
}

type Transaction struct {
	TransactionID   string   `json:"transaction_id"`
	Timestamp       string   `json:"timestamp"`
	Description     string   `json:"description"`
	Amount          float64  `json:"amount"`
	Currency        string   `json:"currency"`
	TransactionType string   `json:"transaction_type"`
	// TransactionCategory is TrueLayer's own category enum, e.g.
	// "PURCHASE" or "DIRECT_DEBIT".
	TransactionCategory string `json:"transaction_category"`
	MerchantName        string `json:"merchant_name"`
}

// resultsEnvelope is TrueLayer's standard list wrapper.
type resultsEnvelope[T any] struct {
	Results []T `json:"results"`
}
