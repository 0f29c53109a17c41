package scheduler

import (
	"context"
	"time"

	"finsight/internal/service"

	"go.uber.org/zap"
)

// Scheduler periodically refreshes every active bank connection. A failure
// on one connection never blocks the others.
type Scheduler struct {
	syncService       *service.SyncService
	connectionService *service.ConnectionService
	interval          time.Duration
	notifyCh          chan struct{}
	logger            *zap.Logger
}

func New(
	syncService *service.SyncService,
	connectionService *service.ConnectionService,
	interval time.Duration,
	logger *zap.Logger,
) *Scheduler {
	return &Scheduler{
		syncService:       syncService,
		connectionService: connectionService,
		interval:          interval,
		notifyCh:          make(chan struct{}, 1),
		logger:            logger,
	}
}

// Notify triggers an immediate sync pass. Non-blocking if one is already pending.
func (s *Scheduler) Notify() {
	select {
	case s.notifyCh <- struct{}{}:
	default:
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Sync scheduler started", zap.Duration("interval", s.interval))
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Sync scheduler stopped")
			return
		case <-ticker.C:
			s.runPass(ctx)
		case <-s.notifyCh:
			s.logger.Info("Sync scheduler triggered by notification")
			s.runPass(ctx)
		}
	}
}

func (s *Scheduler) runPass(ctx context.Context) {
	connections, err := s.connectionService.ListAllActive(ctx)
	if err != nil {
		s.logger.Error("Failed to list active connections", zap.Error(err))
		return
	}

	if len(connections) == 0 {
		return
	}

	s.logger.Info("Starting scheduled sync pass", zap.Int("connections", len(connections)))

	for _, conn := range connections {
		if ctx.Err() != nil {
			return
		}

		result, err := s.syncService.SyncScheduled(ctx, conn)
		if err != nil {
			s.logger.Error("Scheduled sync failed",
				zap.String("connection_id", conn.ID.String()),
				zap.String("user_id", conn.UserID.String()),
				zap.Error(err),
			)
			continue
		}

		s.logger.Info("Scheduled sync completed",
			zap.String("connection_id", conn.ID.String()),
			zap.Int("accounts_created", result.AccountsCreated),
			zap.Int("transactions_created", result.TransactionsCreated),
		)
	}
}
