package handlers

import (
	"errors"
	"time"

	"finsight/internal/dto"
	"finsight/internal/models"
	"finsight/internal/repository"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type AccountHandler struct {
	accountRepo *repository.AccountRepository
	logger      *zap.Logger
}

func NewAccountHandler(accountRepo *repository.AccountRepository, logger *zap.Logger) *AccountHandler {
	return &AccountHandler{
		accountRepo: accountRepo,
		logger:      logger,
	}
}

// List godoc
// @Summary List active accounts
// @Tags accounts
// @Produce json
// @Security Bearer
// @Success 200 {array} dto.AccountResponse
// @Router /api/v1/accounts [get]
func (h *AccountHandler) List(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	accounts, err := h.accountRepo.ListActiveByUser(c.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to list accounts", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list accounts"})
	}

	resp := make([]dto.AccountResponse, 0, len(accounts))
	for _, account := range accounts {
		resp = append(resp, accountResponse(account))
	}

	return c.JSON(resp)
}

// Create godoc
// @Summary Create a manual account
// @Description Creates an account not linked to any bank connection
// @Tags accounts
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body dto.CreateAccountRequest true "Account"
// @Success 201 {object} dto.AccountResponse
// @Router /api/v1/accounts [post]
func (h *AccountHandler) Create(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var req dto.CreateAccountRequest
	if err := c.BodyParser(&req); err != nil || req.Name == "" || req.Currency == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	now := time.Now()
	account := &models.Account{
		ID:     uuid.New(),
		UserID: userID,
		// Manual accounts have no connection; the external id still has
		// to be unique, so mint one.
		ConnectionID: nil,
		ExternalID:   "manual-" + uuid.NewString(),
		Name:         req.Name,
		Type:         models.AccountType(req.Type),
		Balance:      req.Balance,
		Currency:     req.Currency,
		Institution:  req.Institution,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := h.accountRepo.Create(c.Context(), account); err != nil {
		h.logger.Error("Failed to create account", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create account"})
	}

	return c.Status(fiber.StatusCreated).JSON(accountResponse(account))
}

// Update godoc
// @Summary Update an account
// @Tags accounts
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path string true "Account ID"
// @Param request body dto.UpdateAccountRequest true "Fields to update"
// @Success 200 {object} dto.AccountResponse
// @Failure 404 {object} map[string]string
// @Router /api/v1/accounts/{id} [put]
func (h *AccountHandler) Update(c *fiber.Ctx) error {
	account, status, err := h.ownedAccount(c)
	if err != nil {
		return c.Status(status).JSON(fiber.Map{"error": err.Error()})
	}

	var req dto.UpdateAccountRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if req.Name != nil {
		account.Name = *req.Name
	}
	if req.Type != nil {
		account.Type = models.AccountType(*req.Type)
	}
	if req.Balance != nil {
		account.Balance = *req.Balance
	}
	if req.Institution != nil {
		account.Institution = *req.Institution
	}
	account.UpdatedAt = time.Now()

	if err := h.accountRepo.Update(c.Context(), account); err != nil {
		h.logger.Error("Failed to update account", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update account"})
	}

	return c.JSON(accountResponse(account))
}

// Delete godoc
// @Summary Deactivate an account
// @Description Accounts are soft-deleted; their transactions remain as historical record
// @Tags accounts
// @Produce json
// @Security Bearer
// @Param id path string true "Account ID"
// @Success 200 {object} map[string]bool
// @Failure 404 {object} map[string]string
// @Router /api/v1/accounts/{id} [delete]
func (h *AccountHandler) Delete(c *fiber.Ctx) error {
	account, status, err := h.ownedAccount(c)
	if err != nil {
		return c.Status(status).JSON(fiber.Map{"error": err.Error()})
	}

	if err := h.accountRepo.Deactivate(c.Context(), account.ID); err != nil {
		h.logger.Error("Failed to deactivate account", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete account"})
	}

	return c.JSON(fiber.Map{"success": true})
}

// ownedAccount resolves the path id and enforces that the account belongs
// to the caller.
func (h *AccountHandler) ownedAccount(c *fiber.Ctx) (*models.Account, int, error) {
	userID, err := getUserID(c)
	if err != nil {
		return nil, fiber.StatusUnauthorized, errors.New("Unauthorized")
	}

	accountID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return nil, fiber.StatusBadRequest, errors.New("Invalid account id")
	}

	account, err := h.accountRepo.GetByID(c.Context(), accountID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fiber.StatusNotFound, errors.New("Account not found")
		}
		h.logger.Error("Failed to load account", zap.Error(err))
		return nil, fiber.StatusInternalServerError, errors.New("Failed to load account")
	}

	if account.UserID != userID {
		return nil, fiber.StatusNotFound, errors.New("Account not found")
	}

	return account, fiber.StatusOK, nil
}

func accountResponse(account *models.Account) dto.AccountResponse {
	var connectionID *string
	if account.ConnectionID != nil {
		s := account.ConnectionID.String()
		connectionID = &s
	}

	return dto.AccountResponse{
		ID:            account.ID.String(),
		ConnectionID:  connectionID,
		Name:          account.Name,
		Type:          string(account.Type),
		Balance:       account.Balance,
		Currency:      account.Currency,
		Institution:   account.Institution,
		AccountNumber: account.AccountNumber,
		IsActive:      account.IsActive,
		LastSynced:    formatTimePtr(account.LastSyncedAt),
		CreatedAt:     account.CreatedAt.Format(time.RFC3339),
	}
}
