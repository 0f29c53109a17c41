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

type GoalHandler struct {
	goalRepo       *repository.GoalRepository
	metricsService *service.MetricsService
	logger         *zap.Logger
}

func NewGoalHandler(goalRepo *repository.GoalRepository, metricsService *service.MetricsService, logger *zap.Logger) *GoalHandler {
	return &GoalHandler{
		goalRepo:       goalRepo,
		metricsService: metricsService,
		logger:         logger,
	}
}

// List godoc
// @Summary List goals with derived progress
// @Tags goals
// @Produce json
// @Security Bearer
// @Success 200 {array} dto.GoalResponse
// @Router /api/v1/goals [get]
func (h *GoalHandler) List(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	goals, err := h.goalRepo.ListByUser(c.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to list goals", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list goals"})
	}

	resp := make([]dto.GoalResponse, 0, len(goals))
	for _, goal := range goals {
		resp = append(resp, h.goalResponse(goal))
	}

	return c.JSON(resp)
}

// Create godoc
// @Summary Create a savings goal
// @Tags goals
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body dto.CreateGoalRequest true "Goal"
// @Success 201 {object} dto.GoalResponse
// @Router /api/v1/goals [post]
func (h *GoalHandler) Create(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var req dto.CreateGoalRequest
	if err := c.BodyParser(&req); err != nil || req.Name == "" || req.TargetAmount <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	var targetDate *time.Time
	if req.TargetDate != "" {
		parsed := parseDate(req.TargetDate)
		if parsed.IsZero() {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid target date"})
		}
		targetDate = &parsed
	}

	now := time.Now()
	goal := &models.Goal{
		ID:           uuid.New(),
		UserID:       userID,
		Name:         req.Name,
		TargetAmount: req.TargetAmount,
		TargetDate:   targetDate,
		Category:     req.Category,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := h.goalRepo.Create(c.Context(), goal); err != nil {
		h.logger.Error("Failed to create goal", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create goal"})
	}

	return c.Status(fiber.StatusCreated).JSON(h.goalResponse(goal))
}

// Update godoc
// @Summary Update a goal
// @Tags goals
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path string true "Goal ID"
// @Param request body dto.UpdateGoalRequest true "Fields to update"
// @Success 200 {object} dto.GoalResponse
// @Failure 404 {object} map[string]string
// @Router /api/v1/goals/{id} [put]
func (h *GoalHandler) Update(c *fiber.Ctx) error {
	goal, status, err := h.ownedGoal(c)
	if err != nil {
		return c.Status(status).JSON(fiber.Map{"error": err.Error()})
	}

	var req dto.UpdateGoalRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if req.Name != nil {
		goal.Name = *req.Name
	}
	if req.TargetAmount != nil {
		goal.TargetAmount = *req.TargetAmount
	}
	if req.CurrentAmount != nil {
		goal.CurrentAmount = *req.CurrentAmount
	}
	if req.TargetDate != nil {
		if parsed := parseDate(*req.TargetDate); !parsed.IsZero() {
			goal.TargetDate = &parsed
		}
	}
	if req.Category != nil {
		goal.Category = *req.Category
	}
	goal.UpdatedAt = time.Now()

	if err := h.goalRepo.Update(c.Context(), goal); err != nil {
		h.logger.Error("Failed to update goal", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update goal"})
	}

	return c.JSON(h.goalResponse(goal))
}

// Contribute godoc
// @Summary Add a contribution to a goal
// @Tags goals
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path string true "Goal ID"
// @Param request body dto.ContributeRequest true "Contribution"
// @Success 200 {object} dto.GoalResponse
// @Failure 404 {object} map[string]string
// @Router /api/v1/goals/{id}/contribute [post]
func (h *GoalHandler) Contribute(c *fiber.Ctx) error {
	goal, status, err := h.ownedGoal(c)
	if err != nil {
		return c.Status(status).JSON(fiber.Map{"error": err.Error()})
	}

	var req dto.ContributeRequest
	if err := c.BodyParser(&req); err != nil || req.Amount <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Amount must be positive"})
	}

	goal.CurrentAmount += req.Amount
	goal.UpdatedAt = time.Now()

	if err := h.goalRepo.Update(c.Context(), goal); err != nil {
		h.logger.Error("Failed to record contribution", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to record contribution"})
	}

	return c.JSON(h.goalResponse(goal))
}

// Delete godoc
// @Summary Delete a goal
// @Tags goals
// @Produce json
// @Security Bearer
// @Param id path string true "Goal ID"
// @Success 200 {object} map[string]bool
// @Failure 404 {object} map[string]string
// @Router /api/v1/goals/{id} [delete]
func (h *GoalHandler) Delete(c *fiber.Ctx) error {
	goal, status, err := h.ownedGoal(c)
	if err != nil {
		return c.Status(status).JSON(fiber.Map{"error": err.Error()})
	}

	if err := h.goalRepo.Delete(c.Context(), goal.ID); err != nil {
		h.logger.Error("Failed to delete goal", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete goal"})
	}

	return c.JSON(fiber.Map{"success": true})
}

func (h *GoalHandler) ownedGoal(c *fiber.Ctx) (*models.Goal, int, error) {
	userID, err := getUserID(c)
	if err != nil {
		return nil, fiber.StatusUnauthorized, errors.New("Unauthorized")
	}

	goalID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return nil, fiber.StatusBadRequest, errors.New("Invalid goal id")
	}

	goal, err := h.goalRepo.GetByID(c.Context(), goalID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fiber.StatusNotFound, errors.New("Goal not found")
		}
		h.logger.Error("Failed to load goal", zap.Error(err))
		return nil, fiber.StatusInternalServerError, errors.New("Failed to load goal")
	}

	if goal.UserID != userID {
		return nil, fiber.StatusNotFound, errors.New("Goal not found")
	}

	return goal, fiber.StatusOK, nil
}

func (h *GoalHandler) goalResponse(goal *models.Goal) dto.GoalResponse {
	progress := h.metricsService.Progress(goal)

	return dto.GoalResponse{
		ID:              goal.ID.String(),
		Name:            goal.Name,
		TargetAmount:    goal.TargetAmount,
		CurrentAmount:   goal.CurrentAmount,
		TargetDate:      formatTimePtr(goal.TargetDate),
		Category:        goal.Category,
		PercentComplete: progress.Percent,
		Remaining:       progress.Remaining,
		TimeRemaining:   progress.TimeRemaining,
	}
}
