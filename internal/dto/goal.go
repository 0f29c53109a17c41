package dto

type CreateGoalRequest struct {
	Name         string  `json:"name" validate:"required"`
	TargetAmount float64 `json:"targetAmount" validate:"required,gt=0"`
	TargetDate   string  `json:"targetDate"`
	Category     string  `json:"category"`
}

type UpdateGoalRequest struct {
	Name          *string  `json:"name"`
	TargetAmount  *float64 `json:"targetAmount"`
	CurrentAmount *float64 `json:"currentAmount"`
	TargetDate    *string  `json:"targetDate"`
	Category      *string  `json:"category"`
}

type ContributeRequest struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
}

type GoalResponse struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	TargetAmount  float64 `json:"targetAmount"`
	CurrentAmount float64 `json:"currentAmount"`
	TargetDate    *string `json:"targetDate"`
	Category      string  `json:"category"`
	// Derived per request.
	PercentComplete float64 `json:"percentComplete"`
	Remaining       float64 `json:"remaining"`
	TimeRemaining   string  `json:"timeRemaining"`
}
