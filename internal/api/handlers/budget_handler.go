package handlers

import (
	"errors"
	"time"

	"finsight/internal/dto"
	"finsight/internal/models"
	"finsight/internal/repository"
	"finsight/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type BudgetHandler struct {
	budgetRepo     *repository.BudgetRepository
	metricsService *service.MetricsService
	logger         *zap.Logger
}

func NewBudgetHandler(budgetRepo *repository.BudgetRepository, metricsService *service.MetricsService, logger *zap.Logger) *BudgetHandler {
	return &BudgetHandler{
		budgetRepo:     budgetRepo,
		metricsService: metricsService,
		logger:         logger,
	}
}

// List godoc
// @Summary List budgets with derived spend
// @Tags budgets
// @Produce json
// @Security Bearer
// @Success 200 {array} dto.BudgetResponse
// @Router /api/v1/budgets [get]
func (h *BudgetHandler) List(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	budgets, err := h.budgetRepo.ListByUser(c.Context(), userID, true)
	if err != nil {
		h.logger.Error("Failed to list budgets", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list budgets"})
	}

	resp := make([]dto.BudgetResponse, 0, len(budgets))
	for _, budget := range budgets {
		summary, err := h.metricsService.BudgetSummary(c.Context(), budget)
		if err != nil {
			h.logger.Error("Failed to derive budget spend",
				zap.String("budget_id", budget.ID.String()),
				zap.Error(err),
			)
			summary = &service.BudgetSummary{Remaining: budget.Amount}
		}
		resp = append(resp, budgetResponse(budget, summary))
	}

	return c.JSON(resp)
}

// Create godoc
// @Summary Create a budget
// @Tags budgets
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body dto.CreateBudgetRequest true "Budget"
// @Success 201 {object} dto.BudgetResponse
// @Router /api/v1/budgets [post]
func (h *BudgetHandler) Create(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var req dto.CreateBudgetRequest
	if err := c.BodyParser(&req); err != nil || req.Category == "" || req.Amount <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	startDate := parseDate(req.StartDate)
	endDate := parseDate(req.EndDate)
	if startDate.IsZero() || endDate.IsZero() || endDate.Before(startDate) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid budget window"})
	}

	now := time.Now()
	budget := &models.Budget{
		ID:        uuid.New(),
		UserID:    userID,
		Category:  req.Category,
		Amount:    req.Amount,
		Period:    models.BudgetPeriod(req.Period),
		StartDate: startDate,
		EndDate:   endDate,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.budgetRepo.Create(c.Context(), budget); err != nil {
		h.logger.Error("Failed to create budget", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create budget"})
	}

	return c.Status(fiber.StatusCreated).JSON(budgetResponse(budget, &service.BudgetSummary{Remaining: budget.Amount}))
}

// Update godoc
// @Summary Update a budget
// @Tags budgets
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path string true "Budget ID"
// @Param request body dto.UpdateBudgetRequest true "Fields to update"
// @Success 200 {object} dto.BudgetResponse
// @Failure 404 {object} map[string]string
// @Router /api/v1/budgets/{id} [put]
func (h *BudgetHandler) Update(c *fiber.Ctx) error {
	budget, status, err := h.ownedBudget(c)
	if err != nil {
		return c.Status(status).JSON(fiber.Map{"error": err.Error()})
	}

	var req dto.UpdateBudgetRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if req.Category != nil {
		budget.Category = *req.Category
	}
	if req.Amount != nil {
		budget.Amount = *req.Amount
	}
	if req.Period != nil {
		budget.Period = models.BudgetPeriod(*req.Period)
	}
	if req.EndDate != nil {
		if endDate := parseDate(*req.EndDate); !endDate.IsZero() {
			budget.EndDate = endDate
		}
	}
	if req.IsActive != nil {
		budget.IsActive = *req.IsActive
	}
	budget.UpdatedAt = time.Now()

	if err := h.budgetRepo.Update(c.Context(), budget); err != nil {
		h.logger.Error("Failed to update budget", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update budget"})
	}

	summary, err := h.metricsService.BudgetSummary(c.Context(), budget)
	if err != nil {
		summary = &service.BudgetSummary{Remaining: budget.Amount}
	}

	return c.JSON(budgetResponse(budget, summary))
}

// Delete godoc
// @Summary Delete a budget
// @Tags budgets
// @Produce json
// @Security Bearer
// @Param id path string true "Budget ID"
// @Success 200 {object} map[string]bool
// @Failure 404 {object} map[string]string
// @Router /api/v1/budgets/{id} [delete]
func (h *BudgetHandler) Delete(c *fiber.Ctx) error {
	budget, status, err := h.ownedBudget(c)
	if err != nil {
		return c.Status(status).JSON(fiber.Map{"error": err.Error()})
	}

	if err := h.budgetRepo.Delete(c.Context(), budget.ID); err != nil {
		h.logger.Error("Failed to delete budget", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete budget"})
	}

	return c.JSON(fiber.Map{"success": true})
}

func (h *BudgetHandler) ownedBudget(c *fiber.Ctx) (*models.Budget, int, error) {
	userID, err := getUserID(c)
	if err != nil {
		return nil, fiber.StatusUnauthorized, errors.New("Unauthorized")
	}

	budgetID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return nil, fiber.StatusBadRequest, errors.New("Invalid budget id")
	}

	budget, err := h.budgetRepo.GetByID(c.Context(), budgetID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fiber.StatusNotFound, errors.New("Budget not found")
		}
		h.logger.Error("Failed to load budget", zap.Error(err))
		return nil, fiber.StatusInternalServerError, errors.New("Failed to load budget")
	}

	if budget.UserID != userID {
		return nil, fiber.StatusNotFound, errors.New("Budget not found")
	}

	return budget, fiber.StatusOK, nil
}

func budgetResponse(budget *models.Budget, summary *service.BudgetSummary) dto.BudgetResponse {
	return dto.BudgetResponse{
		ID:             budget.ID.String(),
		Category:       budget.Category,
		Amount:         budget.Amount,
		Period:         string(budget.Period),
		StartDate:      budget.StartDate.Format("2006-01-02"),
		EndDate:        budget.EndDate.Format("2006-01-02"),
		IsActive:       budget.IsActive,
		Spent:          summary.Spent,
		Remaining:      summary.Remaining,
		PercentageUsed: summary.PercentUsed,
	}
}
