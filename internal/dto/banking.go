package dto

type ConnectResponse struct {
	AuthURL string `json:"authUrl"`
}

type CompleteConnectionRequest struct {
	Code  string `json:"code" validate:"required"`
	State string `json:"state" validate:"required"`
}

type CompleteConnectionResponse struct {
	Success           bool   `json:"success"`
	Message           string `json:"message"`
	ConnectionID      string `json:"connectionId"`
	AccountsCount     int    `json:"accountsCount"`
	TransactionsCount int    `json:"transactionsCount"`
}

type SyncResponse struct {
	Success            bool `json:"success"`
	AccountsSynced     int  `json:"accountsSynced"`
	TransactionsSynced int  `json:"transactionsSynced"`
	TotalAccounts      int  `json:"totalAccounts"`
}

type ConnectionSummary struct {
	ID         string  `json:"id"`
	Scope      string  `json:"scope"`
	LastSynced *string `json:"lastSynced"`
	CreatedAt  string  `json:"createdAt"`
}

type BankingStatusResponse struct {
	Connected     bool                `json:"connected"`
	Connections   []ConnectionSummary `json:"connections"`
	Institutions  []string            `json:"institutions"`
	LastSynced    *string             `json:"lastSynced"`
	AccountsCount int                 `json:"accountsCount"`
}

type DisconnectResponse struct {
	Success bool `json:"success"`
}
