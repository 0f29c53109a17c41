package dto

type CreateAccountRequest struct {
	Name        string  `json:"name" validate:"required"`
	Type        string  `json:"type" validate:"required,oneof=checking savings credit_card investment other"`
	Balance     float64 `json:"balance"`
	Currency    string  `json:"currency" validate:"required,len=3"`
	Institution string  `json:"institution"`
}

type UpdateAccountRequest struct {
	Name        *string  `json:"name"`
	Type        *string  `json:"type"`
	Balance     *float64 `json:"balance"`
	Institution *string  `json:"institution"`
}

type AccountResponse struct {
	ID            string  `json:"id"`
	ConnectionID  *string `json:"connectionId"`
	Name          string  `json:"name"`
	Type          string  `json:"type"`
	Balance       float64 `json:"balance"`
	Currency      string  `json:"currency"`
	Institution   string  `json:"institution"`
	AccountNumber string  `json:"accountNumber"`
	IsActive      bool    `json:"isActive"`
	LastSynced    *string `json:"lastSynced"`
	CreatedAt     string  `json:"createdAt"`
}
