package dto

type TransactionResponse struct {
	ID                   string            `json:"id"`
	AccountID            string            `json:"accountId"`
	Amount               float64           `json:"amount"`
	Description          string            `json:"description"`
	Date                 string            `json:"date"`
	Category             string            `json:"category"`
	CategoryConfidence   float64           `json:"categoryConfidence"`
	IsManuallyOverridden bool              `json:"isManuallyOverridden"`
	Metadata             map[string]string `json:"metadata,omitempty"`
}

type RecategorizeRequest struct {
	Category string `json:"category" validate:"required"`
}
