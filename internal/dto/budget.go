package dto

type CreateBudgetRequest struct {
	Category  string  `json:"category" validate:"required"`
	Amount    float64 `json:"amount" validate:"required,gt=0"`
	Period    string  `json:"period" validate:"required,oneof=weekly monthly yearly"`
	StartDate string  `json:"startDate" validate:"required"`
	EndDate   string  `json:"endDate" validate:"required"`
}

type UpdateBudgetRequest struct {
	Category *string  `json:"category"`
	Amount   *float64 `json:"amount"`
	Period   *string  `json:"period"`
	EndDate  *string  `json:"endDate"`
	IsActive *bool    `json:"isActive"`
}

type BudgetResponse struct {
	ID        string  `json:"id"`
	Category  string  `json:"category"`
	Amount    float64 `json:"amount"`
	Period    string  `json:"period"`
	StartDate string  `json:"startDate"`
	EndDate   string  `json:"endDate"`
	IsActive  bool    `json:"isActive"`
	// Derived per request, never stored.
	Spent          float64 `json:"spent"`
	Remaining      float64 `json:"remaining"`
	PercentageUsed float64 `json:"percentageUsed"`
}
