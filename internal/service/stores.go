package service

import (
	"context"
	"time"

	"finsight/internal/models"
	"finsight/internal/truelayer"

	"github.com/google/uuid"
)

// Narrow persistence interfaces consumed by the services. The concrete
// implementations live in internal/repository; not-found is reported as
// pgx.ErrNoRows by both the real repositories and the test fakes.

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

type ConnectionStore interface {
	Create(ctx context.Context, conn *models.BankConnection) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.BankConnection, error)
	GetActiveByUser(ctx context.Context, userID uuid.UUID) (*models.BankConnection, error)
	ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]*models.BankConnection, error)
	ListAllActive(ctx context.Context) ([]*models.BankConnection, error)
	UpdateTokens(ctx context.Context, id uuid.UUID, accessToken, refreshToken, tokenType string, expiresAt time.Time) error
	UpdateLastSynced(ctx context.Context, id uuid.UUID, syncedAt time.Time) error
	Deactivate(ctx context.Context, id uuid.UUID) error
	DeactivateAllByUser(ctx context.Context, userID uuid.UUID) error
}

type AccountStore interface {
	Create(ctx context.Context, account *models.Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
	GetByExternalID(ctx context.Context, externalID string) (*models.Account, error)
	ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]*models.Account, error)
	UpdateBalance(ctx context.Context, id uuid.UUID, balance float64, syncedAt time.Time) error
	DeactivateAllByUser(ctx context.Context, userID uuid.UUID) error
	DeactivateByConnection(ctx context.Context, connectionID uuid.UUID) error
}

type TransactionStore interface {
	Create(ctx context.Context, tx *models.Transaction) error
	GetByExternalID(ctx context.Context, externalID string) (*models.Transaction, error)
	ListByUser(ctx context.Context, userID uuid.UUID, category string, from, to time.Time) ([]*models.Transaction, error)
}

type SnapshotStore interface {
	Create(ctx context.Context, snapshot *models.NetWorthSnapshot) error
	Latest(ctx context.Context, userID uuid.UUID) (*models.NetWorthSnapshot, error)
	ListByUser(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*models.NetWorthSnapshot, error)
}

// Aggregator is the outbound TrueLayer surface the reconciliation engine
// drives. *truelayer.Client satisfies it.
type Aggregator interface {
	ExchangeCode(ctx context.Context, code string) (*truelayer.Token, error)
	RefreshToken(ctx context.Context, refreshToken string) (*truelayer.Token, error)
	Accounts(ctx context.Context, accessToken string) ([]truelayer.Account, error)
	Balance(ctx context.Context, accessToken, accountID string) (*truelayer.Balance, error)
	Transactions(ctx context.Context, accessToken, accountID string, from, to time.Time) ([]truelayer.Transaction, error)
}
