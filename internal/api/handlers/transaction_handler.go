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

type TransactionHandler struct {
	transactionRepo *repository.TransactionRepository
	accountRepo     *repository.AccountRepository
	categorizer     *service.CategorizerService
	logger          *zap.Logger
}

func NewTransactionHandler(
	transactionRepo *repository.TransactionRepository,
	accountRepo *repository.AccountRepository,
	categorizer *service.CategorizerService,
	logger *zap.Logger,
) *TransactionHandler {
	return &TransactionHandler{
		transactionRepo: transactionRepo,
		accountRepo:     accountRepo,
		categorizer:     categorizer,
		logger:          logger,
	}
}

// List godoc
// @Summary List transactions
// @Description Lists the caller's transactions, optionally filtered by account, category and date range
// @Tags transactions
// @Produce json
// @Security Bearer
// @Param accountId query string false "Filter by account"
// @Param category query string false "Filter by category"
// @Param from query string false "From date (RFC3339 or YYYY-MM-DD)"
// @Param to query string false "To date"
// @Success 200 {array} dto.TransactionResponse
// @Router /api/v1/transactions [get]
func (h *TransactionHandler) List(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	from := parseDate(c.Query("from"))
	to := parseDate(c.Query("to"))

	var transactions []*models.Transaction
	if accountIDStr := c.Query("accountId"); accountIDStr != "" {
		accountID, err := uuid.Parse(accountIDStr)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid account id"})
		}
		account, err := h.accountRepo.GetByID(c.Context(), accountID)
		if err != nil || account.UserID != userID {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Account not found"})
		}
		transactions, err = h.transactionRepo.ListByAccount(c.Context(), accountID, from, to)
		if err != nil {
			h.logger.Error("Failed to list transactions", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list transactions"})
		}
	} else {
		transactions, err = h.transactionRepo.ListByUser(c.Context(), userID, c.Query("category"), from, to)
		if err != nil {
			h.logger.Error("Failed to list transactions", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list transactions"})
		}
	}

	resp := make([]dto.TransactionResponse, 0, len(transactions))
	for _, tx := range transactions {
		resp = append(resp, transactionResponse(tx))
	}

	return c.JSON(resp)
}

// Recategorize godoc
// @Summary Recategorize a transaction
// @Description Applies a manual category override and feeds it back into the categorizer
// @Tags transactions
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path string true "Transaction ID"
// @Param request body dto.RecategorizeRequest true "New category"
// @Success 200 {object} dto.TransactionResponse
// @Failure 404 {object} map[string]string
// @Router /api/v1/transactions/{id}/category [put]
func (h *TransactionHandler) Recategorize(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	txID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid transaction id"})
	}

	var req dto.RecategorizeRequest
	if err := c.BodyParser(&req); err != nil || req.Category == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Category is required"})
	}

	tx, err := h.transactionRepo.GetByID(c.Context(), txID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Transaction not found"})
		}
		h.logger.Error("Failed to load transaction", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load transaction"})
	}

	account, err := h.accountRepo.GetByID(c.Context(), tx.AccountID)
	if err != nil || account.UserID != userID {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Transaction not found"})
	}

	// The durable truth goes to the row first; the in-memory learner is
	// only a cache on top of it.
	if err := h.transactionRepo.UpdateCategory(c.Context(), txID, req.Category, 1.0, true); err != nil {
		h.logger.Error("Failed to recategorize transaction", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to recategorize"})
	}
	h.categorizer.LearnFromOverride(tx.Description, req.Category)

	tx.Category = req.Category
	tx.CategoryConfidence = 1.0
	tx.IsManuallyOverridden = true

	return c.JSON(transactionResponse(tx))
}

func transactionResponse(tx *models.Transaction) dto.TransactionResponse {
	return dto.TransactionResponse{
		ID:                   tx.ID.String(),
		AccountID:            tx.AccountID.String(),
		Amount:               tx.Amount,
		Description:          tx.Description,
		Date:                 tx.Date.Format(time.RFC3339),
		Category:             tx.Category,
		CategoryConfidence:   tx.CategoryConfidence,
		IsManuallyOverridden: tx.IsManuallyOverridden,
		Metadata:             tx.Metadata,
	}
}

func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t
	}
	return time.Time{}
}
