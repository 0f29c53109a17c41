package handlers

import (
	"time"

	"finsight/internal/dto"
	"finsight/internal/models"
	"finsight/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type NetWorthHandler struct {
	metricsService *service.MetricsService
	logger         *zap.Logger
}

func NewNetWorthHandler(metricsService *service.MetricsService, logger *zap.Logger) *NetWorthHandler {
	return &NetWorthHandler{
		metricsService: metricsService,
		logger:         logger,
	}
}

// Current godoc
// @Summary Current net worth
// @Tags net-worth
// @Produce json
// @Security Bearer
// @Success 200 {object} dto.NetWorthResponse
// @Router /api/v1/net-worth [get]
func (h *NetWorthHandler) Current(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	snapshot, err := h.metricsService.LatestSnapshot(c.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to load net worth", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load net worth"})
	}

	return c.JSON(netWorthResponse(snapshot))
}

// Snapshot godoc
// @Summary Record a net worth snapshot from current balances
// @Tags net-worth
// @Produce json
// @Security Bearer
// @Success 201 {object} dto.NetWorthResponse
// @Router /api/v1/net-worth/snapshot [post]
func (h *NetWorthHandler) Snapshot(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	snapshot, err := h.metricsService.SnapshotNetWorth(c.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to snapshot net worth", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to snapshot net worth"})
	}

	return c.Status(fiber.StatusCreated).JSON(netWorthResponse(snapshot))
}

// History godoc
// @Summary Net worth history
// @Description Stored snapshots for the window, or a reconstructed daily
// @Description series when ?days= is given.
// @Tags net-worth
// @Produce json
// @Security Bearer
// @Param days query int false "Reconstruct a daily series over N days"
// @Param from query string false "Window start (YYYY-MM-DD)"
// @Param to query string false "Window end (YYYY-MM-DD)"
// @Success 200 {array} dto.NetWorthPointResponse
// @Router /api/v1/net-worth/history [get]
func (h *NetWorthHandler) History(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	if days := c.QueryInt("days"); days > 0 {
		points, err := h.metricsService.HistorySeries(c.Context(), userID, days)
		if err != nil {
			h.logger.Error("Failed to build net worth series", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to build net worth series"})
		}

		resp := make([]dto.NetWorthPointResponse, 0, len(points))
		for _, p := range points {
			resp = append(resp, dto.NetWorthPointResponse{
				Date:     p.Date.Format("2006-01-02"),
				NetWorth: p.NetWorth,
			})
		}
		return c.JSON(resp)
	}

	to := parseDate(c.Query("to"))
	if to.IsZero() {
		to = time.Now()
	}
	from := parseDate(c.Query("from"))
	if from.IsZero() {
		from = to.AddDate(0, -3, 0)
	}

	snapshots, err := h.metricsService.History(c.Context(), userID, from, to)
	if err != nil {
		h.logger.Error("Failed to load net worth history", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load net worth history"})
	}

	resp := make([]dto.NetWorthPointResponse, 0, len(snapshots))
	for _, s := range snapshots {
		resp = append(resp, dto.NetWorthPointResponse{
			Date:     s.SnapshotDate.Format("2006-01-02"),
			NetWorth: s.NetWorth,
		})
	}

	return c.JSON(resp)
}

func netWorthResponse(snapshot *models.NetWorthSnapshot) dto.NetWorthResponse {
	return dto.NetWorthResponse{
		TotalAssets:      snapshot.TotalAssets,
		TotalLiabilities: snapshot.TotalLiabilities,
		NetWorth:         snapshot.NetWorth,
		SnapshotDate:     snapshot.SnapshotDate.Format(time.RFC3339),
	}
}
