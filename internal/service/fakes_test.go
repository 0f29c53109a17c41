package service

import (
	"context"
	"time"

	"finsight/internal/models"
	"finsight/internal/truelayer"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// In-memory store fakes. Like the real repositories they report not-found
// as pgx.ErrNoRows.

type fakeAggregator struct {
	token     *truelayer.Token
	refreshed *truelayer.Token

	accounts    []truelayer.Account
	accountsErr error

	balances   map[string]*truelayer.Balance
	balanceErr map[string]error

	transactions map[string][]truelayer.Transaction
	txErr        map[string]error

	exchangeErr error

	exchangeCalls int
	refreshCalls  int
}

func (f *fakeAggregator) ExchangeCode(ctx context.Context, code string) (*truelayer.Token, error) {
	f.exchangeCalls++
	if f.exchangeErr != nil {
		return nil, f.exchangeErr
	}
	return f.token, nil
}

func (f *fakeAggregator) RefreshToken(ctx context.Context, refreshToken string) (*truelayer.Token, error) {
	f.refreshCalls++
	if f.refreshed == nil {
		return nil, &truelayer.APIError{Op: "refresh_token", StatusCode: 400, Body: "invalid_grant"}
	}
	return f.refreshed, nil
}

func (f *fakeAggregator) Accounts(ctx context.Context, accessToken string) ([]truelayer.Account, error) {
	if f.accountsErr != nil {
		return nil, f.accountsErr
	}
	return f.accounts, nil
}

func (f *fakeAggregator) Balance(ctx context.Context, accessToken, accountID string) (*truelayer.Balance, error) {
	if err := f.balanceErr[accountID]; err != nil {
		return nil, err
	}
	if balance, ok := f.balances[accountID]; ok {
		return balance, nil
	}
	return &truelayer.Balance{Currency: "GBP"}, nil
}

func (f *fakeAggregator) Transactions(ctx context.Context, accessToken, accountID string, from, to time.Time) ([]truelayer.Transaction, error) {
	if err := f.txErr[accountID]; err != nil {
		return nil, err
	}
	return f.transactions[accountID], nil
}

type fakeConnectionStore struct {
	conns map[uuid.UUID]*models.BankConnection
}

func newFakeConnectionStore() *fakeConnectionStore {
	return &fakeConnectionStore{conns: make(map[uuid.UUID]*models.BankConnection)}
}

func (f *fakeConnectionStore) Create(ctx context.Context, conn *models.BankConnection) error {
	copied := *conn
	f.conns[conn.ID] = &copied
	return nil
}

func (f *fakeConnectionStore) GetByID(ctx context.Context, id uuid.UUID) (*models.BankConnection, error) {
	conn, ok := f.conns[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *conn
	return &copied, nil
}

func (f *fakeConnectionStore) GetActiveByUser(ctx context.Context, userID uuid.UUID) (*models.BankConnection, error) {
	var newest *models.BankConnection
	for _, conn := range f.conns {
		if conn.UserID != userID || !conn.IsActive {
			continue
		}
		if newest == nil || conn.CreatedAt.After(newest.CreatedAt) {
			newest = conn
		}
	}
	if newest == nil {
		return nil, pgx.ErrNoRows
	}
	copied := *newest
	return &copied, nil
}

func (f *fakeConnectionStore) ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]*models.BankConnection, error) {
	var out []*models.BankConnection
	for _, conn := range f.conns {
		if conn.UserID == userID && conn.IsActive {
			copied := *conn
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeConnectionStore) ListAllActive(ctx context.Context) ([]*models.BankConnection, error) {
	var out []*models.BankConnection
	for _, conn := range f.conns {
		if conn.IsActive {
			copied := *conn
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeConnectionStore) UpdateTokens(ctx context.Context, id uuid.UUID, accessToken, refreshToken, tokenType string, expiresAt time.Time) error {
	conn, ok := f.conns[id]
	if !ok {
		return pgx.ErrNoRows
	}
	conn.AccessToken = accessToken
	conn.RefreshToken = refreshToken
	conn.TokenType = tokenType
	conn.ExpiresAt = expiresAt
	return nil
}

func (f *fakeConnectionStore) UpdateLastSynced(ctx context.Context, id uuid.UUID, syncedAt time.Time) error {
	conn, ok := f.conns[id]
	if !ok {
		return pgx.ErrNoRows
	}
	conn.LastSyncedAt = &syncedAt
	return nil
}

func (f *fakeConnectionStore) Deactivate(ctx context.Context, id uuid.UUID) error {
	conn, ok := f.conns[id]
	if !ok {
		return pgx.ErrNoRows
	}
	conn.IsActive = false
	return nil
}

func (f *fakeConnectionStore) DeactivateAllByUser(ctx context.Context, userID uuid.UUID) error {
	for _, conn := range f.conns {
		if conn.UserID == userID {
			conn.IsActive = false
		}
	}
	return nil
}

type fakeAccountStore struct {
	accounts map[uuid.UUID]*models.Account
}

func newFakeAccountStore() *fakeAccountStore {
	return &fakeAccountStore{accounts: make(map[uuid.UUID]*models.Account)}
}

func (f *fakeAccountStore) Create(ctx context.Context, account *models.Account) error {
	copied := *account
	f.accounts[account.ID] = &copied
	return nil
}

func (f *fakeAccountStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	account, ok := f.accounts[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *account
	return &copied, nil
}

func (f *fakeAccountStore) GetByExternalID(ctx context.Context, externalID string) (*models.Account, error) {
	for _, account := range f.accounts {
		if account.ExternalID == externalID {
			copied := *account
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeAccountStore) ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]*models.Account, error) {
	var out []*models.Account
	for _, account := range f.accounts {
		if account.UserID == userID && account.IsActive {
			copied := *account
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeAccountStore) UpdateBalance(ctx context.Context, id uuid.UUID, balance float64, syncedAt time.Time) error {
	account, ok := f.accounts[id]
	if !ok {
		return pgx.ErrNoRows
	}
	account.Balance = balance
	account.LastSyncedAt = &syncedAt
	return nil
}

func (f *fakeAccountStore) DeactivateAllByUser(ctx context.Context, userID uuid.UUID) error {
	for _, account := range f.accounts {
		if account.UserID == userID {
			account.IsActive = false
		}
	}
	return nil
}

func (f *fakeAccountStore) DeactivateByConnection(ctx context.Context, connectionID uuid.UUID) error {
	for _, account := range f.accounts {
		if account.ConnectionID != nil && *account.ConnectionID == connectionID {
			account.IsActive = false
		}
	}
	return nil
}

type fakeTransactionStore struct {
	txs map[string]*models.Transaction
}

func newFakeTransactionStore() *fakeTransactionStore {
	return &fakeTransactionStore{txs: make(map[string]*models.Transaction)}
}

func (f *fakeTransactionStore) Create(ctx context.Context, tx *models.Transaction) error {
	copied := *tx
	f.txs[tx.ExternalID] = &copied
	return nil
}

func (f *fakeTransactionStore) GetByExternalID(ctx context.Context, externalID string) (*models.Transaction, error) {
	tx, ok := f.txs[externalID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *tx
	return &copied, nil
}

func (f *fakeTransactionStore) ListByUser(ctx context.Context, userID uuid.UUID, category string, from, to time.Time) ([]*models.Transaction, error) {
	var out []*models.Transaction
	for _, tx := range f.txs {
		if category != "" && tx.Category != category {
			continue
		}
		if !from.IsZero() && tx.Date.Before(from) {
			continue
		}
		if !to.IsZero() && tx.Date.After(to) {
			continue
		}
		copied := *tx
		out = append(out, &copied)
	}
	return out, nil
}

type fakeUserStore struct {
	users map[uuid.UUID]*models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[uuid.UUID]*models.User)}
}

func (f *fakeUserStore) Create(ctx context.Context, user *models.User) error {
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUserStore) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, user := range f.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type fakeSnapshotStore struct {
	snapshots []*models.NetWorthSnapshot
}

func (f *fakeSnapshotStore) Create(ctx context.Context, snapshot *models.NetWorthSnapshot) error {
	copied := *snapshot
	f.snapshots = append(f.snapshots, &copied)
	return nil
}

func (f *fakeSnapshotStore) Latest(ctx context.Context, userID uuid.UUID) (*models.NetWorthSnapshot, error) {
	var latest *models.NetWorthSnapshot
	for _, snapshot := range f.snapshots {
		if snapshot.UserID != userID {
			continue
		}
		if latest == nil || snapshot.SnapshotDate.After(latest.SnapshotDate) {
			latest = snapshot
		}
	}
	if latest == nil {
		return nil, pgx.ErrNoRows
	}
	copied := *latest
	return &copied, nil
}

func (f *fakeSnapshotStore) ListByUser(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*models.NetWorthSnapshot, error) {
	var out []*models.NetWorthSnapshot
	for _, snapshot := range f.snapshots {
		if snapshot.UserID != userID {
			continue
		}
		if snapshot.SnapshotDate.Before(from) || snapshot.SnapshotDate.After(to) {
			continue
		}
		copied := *snapshot
		out = append(out, &copied)
	}
	return out, nil
}
