package handlers

import (
	"errors"
	"net/url"
	"time"

	"finsight/internal/dto"
	"finsight/internal/repository"
	"finsight/internal/service"
	"finsight/internal/truelayer"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type BankingHandler struct {
	truelayerClient   *truelayer.Client
	syncService       *service.SyncService
	connectionService *service.ConnectionService
	metricsService    *service.MetricsService
	accountRepo       *repository.AccountRepository
	appURL            string
	logger            *zap.Logger
}

func NewBankingHandler(
	truelayerClient *truelayer.Client,
	syncService *service.SyncService,
	connectionService *service.ConnectionService,
	metricsService *service.MetricsService,
	accountRepo *repository.AccountRepository,
	appURL string,
	logger *zap.Logger,
) *BankingHandler {
	return &BankingHandler{
		truelayerClient:   truelayerClient,
		syncService:       syncService,
		connectionService: connectionService,
		metricsService:    metricsService,
		accountRepo:       accountRepo,
		appURL:            appURL,
		logger:            logger,
	}
}

// Connect godoc
// @Summary Start a bank connection
// @Description Returns the TrueLayer authorization URL to redirect the user to
// @Tags banking
// @Produce json
// @Security Bearer
// @Success 200 {object} dto.ConnectResponse
// @Router /api/v1/banking/connect [get]
func (h *BankingHandler) Connect(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	authURL, state := h.truelayerClient.AuthorizationURL()
	h.syncService.RegisterState(userID, state)

	return c.JSON(dto.ConnectResponse{AuthURL: authURL})
}

// Callback is TrueLayer's OAuth redirect target. It forwards code and
// state back to the client app, which then calls complete-connection with
// the caller's own credentials.
func (h *BankingHandler) Callback(c *fiber.Ctx) error {
	if errParam := c.Query("error"); errParam != "" {
		return c.Redirect(h.appURL + "/banking/callback?error=" + url.QueryEscape(errParam))
	}

	q := url.Values{}
	q.Set("code", c.Query("code"))
	q.Set("state", c.Query("state"))
	return c.Redirect(h.appURL + "/banking/callback?" + q.Encode())
}

// CompleteConnection godoc
// @Summary Complete a bank connection
// @Description Exchanges the authorization code, persists the connection and runs the initial sync
// @Tags banking
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body dto.CompleteConnectionRequest true "Code and state from the callback"
// @Success 200 {object} dto.CompleteConnectionResponse
// @Failure 400 {object} map[string]string
// @Router /api/v1/banking/complete-connection [post]
func (h *BankingHandler) CompleteConnection(c *fiber.Ctx) error {
	identity, err := getIdentity(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var req dto.CompleteConnectionRequest
	if err := c.BodyParser(&req); err != nil || req.Code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Code is required"})
	}

	conn, result, err := h.syncService.CompleteConnection(c.Context(), identity, req.Code, req.State)
	switch {
	case errors.Is(err, service.ErrCodeAlreadyUsed), errors.Is(err, service.ErrCodeExpired):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "This authorization code has already been used or expired. Please reconnect your bank.",
		})
	case errors.Is(err, service.ErrStateMismatch):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Connection attempt could not be verified. Please restart the connect flow.",
		})
	case err != nil:
		h.logger.Error("Complete connection failed", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "Failed to complete bank connection"})
	}

	h.snapshotNetWorth(c, identity.UserID)

	return c.JSON(dto.CompleteConnectionResponse{
		Success:           true,
		Message:           "Bank connected successfully",
		ConnectionID:      conn.ID.String(),
		AccountsCount:     result.AccountsCreated,
		TransactionsCount: result.TransactionsCreated,
	})
}

// Sync godoc
// @Summary Re-sync the active connection
// @Tags banking
// @Produce json
// @Security Bearer
// @Success 200 {object} dto.SyncResponse
// @Failure 400 {object} map[string]string
// @Router /api/v1/banking/sync [post]
func (h *BankingHandler) Sync(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	conn, err := h.connectionService.Active(c.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrNoActiveConnection) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "No active bank connection"})
		}
		h.logger.Error("Failed to load connection", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Sync failed"})
	}

	result, err := h.syncService.SyncNow(c.Context(), conn)
	if err != nil {
		h.logger.Error("Sync failed", zap.String("connection_id", conn.ID.String()), zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "Sync failed"})
	}

	h.snapshotNetWorth(c, userID)

	return c.JSON(dto.SyncResponse{
		Success:            true,
		AccountsSynced:     result.AccountsCreated,
		TransactionsSynced: result.TransactionsCreated,
		TotalAccounts:      result.TotalAccounts,
	})
}

// Status godoc
// @Summary Connection and account summary
// @Tags banking
// @Produce json
// @Security Bearer
// @Success 200 {object} dto.BankingStatusResponse
// @Router /api/v1/banking/status [get]
func (h *BankingHandler) Status(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	connections, err := h.connectionService.ListActive(c.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to list connections", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load status"})
	}

	accounts, err := h.accountRepo.ListActiveByUser(c.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to list accounts", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load status"})
	}

	resp := dto.BankingStatusResponse{
		Connected:     len(connections) > 0,
		Connections:   make([]dto.ConnectionSummary, 0, len(connections)),
		AccountsCount: len(accounts),
	}

	var lastSynced *time.Time
	for _, conn := range connections {
		resp.Connections = append(resp.Connections, dto.ConnectionSummary{
			ID:         conn.ID.String(),
			Scope:      conn.Scope,
			LastSynced: formatTimePtr(conn.LastSyncedAt),
			CreatedAt:  conn.CreatedAt.Format(time.RFC3339),
		})
		if conn.LastSyncedAt != nil && (lastSynced == nil || conn.LastSyncedAt.After(*lastSynced)) {
			lastSynced = conn.LastSyncedAt
		}
	}
	resp.LastSynced = formatTimePtr(lastSynced)

	seen := make(map[string]bool)
	for _, account := range accounts {
		if account.Institution != "" && !seen[account.Institution] {
			seen[account.Institution] = true
			resp.Institutions = append(resp.Institutions, account.Institution)
		}
	}

	return c.JSON(resp)
}

// Disconnect godoc
// @Summary Deactivate all connections for the caller
// @Tags banking
// @Produce json
// @Security Bearer
// @Success 200 {object} dto.DisconnectResponse
// @Router /api/v1/banking/disconnect [delete]
func (h *BankingHandler) Disconnect(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	if err := h.connectionService.DeactivateAll(c.Context(), userID); err != nil {
		h.logger.Error("Disconnect failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Disconnect failed"})
	}

	return c.JSON(dto.DisconnectResponse{Success: true})
}

// DisconnectOne godoc
// @Summary Deactivate one connection
// @Tags banking
// @Produce json
// @Security Bearer
// @Param connectionId path string true "Connection ID"
// @Success 200 {object} dto.DisconnectResponse
// @Failure 404 {object} map[string]string
// @Router /api/v1/banking/disconnect/{connectionId} [delete]
func (h *BankingHandler) DisconnectOne(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	connectionID, err := uuid.Parse(c.Params("connectionId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid connection id"})
	}

	if err := h.connectionService.Deactivate(c.Context(), userID, connectionID); err != nil {
		if errors.Is(err, service.ErrConnectionNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Connection not found"})
		}
		h.logger.Error("Disconnect failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Disconnect failed"})
	}

	return c.JSON(dto.DisconnectResponse{Success: true})
}

// snapshotNetWorth recomputes opportunistically after a sync; a failure
// here never fails the request.
func (h *BankingHandler) snapshotNetWorth(c *fiber.Ctx, userID uuid.UUID) {
	if _, err := h.metricsService.SnapshotNetWorth(c.Context(), userID); err != nil {
		h.logger.Warn("Net worth snapshot failed after sync",
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
	}
}
