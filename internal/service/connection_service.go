package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"finsight/internal/models"
	"finsight/internal/truelayer"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

var (
	ErrNoActiveConnection = errors.New("no active bank connection")
	ErrConnectionNotFound = errors.New("connection not found")
)

// ConnectionService owns the BankConnection lifecycle: creation after a
// token exchange, refresh persistence, sync stamping, and deactivation
// with its cascade onto accounts.
type ConnectionService struct {
	connections ConnectionStore
	accounts    AccountStore
	logger      *zap.Logger
}

func NewConnectionService(connections ConnectionStore, accounts AccountStore, logger *zap.Logger) *ConnectionService {
	return &ConnectionService{
		connections: connections,
		accounts:    accounts,
		logger:      logger,
	}
}

// Create persists a new active connection from a freshly exchanged token.
func (s *ConnectionService) Create(ctx context.Context, userID uuid.UUID, token *truelayer.Token, scope string) (*models.BankConnection, error) {
	now := time.Now()
	conn := &models.BankConnection{
		ID:           uuid.New(),
		UserID:       userID,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.TokenType,
		ExpiresAt:    now.Add(time.Duration(token.ExpiresIn) * time.Second),
		Scope:        scope,
		IsActive:     true,
		CreatedAt:    now,
	}

	if err := s.connections.Create(ctx, conn); err != nil {
		return nil, fmt.Errorf("failed to create connection: %w", err)
	}

	s.logger.Info("Bank connection created",
		zap.String("connection_id", conn.ID.String()),
		zap.String("user_id", userID.String()),
	)

	return conn, nil
}

// Active returns the most recently created active connection for the
// user, for callers that assume a single primary connection.
func (s *ConnectionService) Active(ctx context.Context, userID uuid.UUID) (*models.BankConnection, error) {
	conn, err := s.connections.GetActiveByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoActiveConnection
		}
		return nil, err
	}
	return conn, nil
}

// ListActive returns all active connections for true multi-bank support.
func (s *ConnectionService) ListActive(ctx context.Context, userID uuid.UUID) ([]*models.BankConnection, error) {
	return s.connections.ListActiveByUser(ctx, userID)
}

// ListAllActive returns every active connection across users, for the
// background sync pass.
func (s *ConnectionService) ListAllActive(ctx context.Context) ([]*models.BankConnection, error) {
	return s.connections.ListAllActive(ctx)
}

// SaveRefreshedTokens persists a refreshed token pair and updates the
// in-memory connection so the caller can keep using it.
func (s *ConnectionService) SaveRefreshedTokens(ctx context.Context, conn *models.BankConnection, token *truelayer.Token) error {
	expiresAt := time.Now().Add(time.Duration(token.ExpiresIn) * time.Second)
	if err := s.connections.UpdateTokens(ctx, conn.ID, token.AccessToken, token.RefreshToken, token.TokenType, expiresAt); err != nil {
		return fmt.Errorf("failed to persist refreshed tokens: %w", err)
	}

	conn.AccessToken = token.AccessToken
	conn.RefreshToken = token.RefreshToken
	conn.TokenType = token.TokenType
	conn.ExpiresAt = expiresAt

	return nil
}

// MarkSynced stamps the connection's last-synced timestamp.
func (s *ConnectionService) MarkSynced(ctx context.Context, id uuid.UUID, syncedAt time.Time) error {
	return s.connections.UpdateLastSynced(ctx, id, syncedAt)
}

// DeactivateAll soft-deletes every connection for the user and cascades
// to the user's accounts. Transactions are historical record and stay
// untouched.
func (s *ConnectionService) DeactivateAll(ctx context.Context, userID uuid.UUID) error {
	if err := s.connections.DeactivateAllByUser(ctx, userID); err != nil {
		return fmt.Errorf("failed to deactivate connections: %w", err)
	}
	if err := s.accounts.DeactivateAllByUser(ctx, userID); err != nil {
		return fmt.Errorf("failed to deactivate accounts: %w", err)
	}

	s.logger.Info("All bank connections deactivated", zap.String("user_id", userID.String()))
	return nil
}

// Deactivate soft-deletes one of the user's connections and the accounts
// linked to it. A connection owned by someone else reads as not found.
func (s *ConnectionService) Deactivate(ctx context.Context, userID, connectionID uuid.UUID) error {
	conn, err := s.connections.GetByID(ctx, connectionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrConnectionNotFound
		}
		return err
	}
	if conn.UserID != userID {
		return ErrConnectionNotFound
	}

	if err := s.connections.Deactivate(ctx, connectionID); err != nil {
		return fmt.Errorf("failed to deactivate connection: %w", err)
	}
	if err := s.accounts.DeactivateByConnection(ctx, connectionID); err != nil {
		return fmt.Errorf("failed to deactivate linked accounts: %w", err)
	}

	s.logger.Info("Bank connection deactivated", zap.String("connection_id", connectionID.String()))
	return nil
}
