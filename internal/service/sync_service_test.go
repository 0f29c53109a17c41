package service

import (
	"context"
	"testing"
	"time"

	"finsight/internal/models"
	"finsight/internal/truelayer"
	"finsight/pkg/config"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type syncEnv struct {
	svc          *SyncService
	aggregator   *fakeAggregator
	connections  *fakeConnectionStore
	accounts     *fakeAccountStore
	transactions *fakeTransactionStore
	users        *fakeUserStore
}

func newSyncEnv(aggregator *fakeAggregator) *syncEnv {
	logger := zap.NewNop()
	connections := newFakeConnectionStore()
	accounts := newFakeAccountStore()
	transactions := newFakeTransactionStore()
	users := newFakeUserStore()

	connSvc := NewConnectionService(connections, accounts, logger)
	svc := NewSyncService(
		aggregator,
		connSvc,
		accounts,
		transactions,
		users,
		NewCategorizerService(logger),
		config.SyncConfig{InitialWindowDays: 180, ScheduledWindowDays: 7},
		[]string{"info", "accounts", "balance", "transactions", "offline_access"},
		logger,
	)

	return &syncEnv{
		svc:          svc,
		aggregator:   aggregator,
		connections:  connections,
		accounts:     accounts,
		transactions: transactions,
		users:        users,
	}
}

func (e *syncEnv) addConnection(t *testing.T, userID uuid.UUID, expiresAt time.Time) *models.BankConnection {
	t.Helper()
	conn := &models.BankConnection{
		ID:           uuid.New(),
		UserID:       userID,
		AccessToken:  "access-token",
		RefreshToken: "refresh-token",
		TokenType:    "Bearer",
		ExpiresAt:    expiresAt,
		IsActive:     true,
		CreatedAt:    time.Now(),
	}
	require.NoError(t, e.connections.Create(context.Background(), conn))
	return conn
}

func tlAccount(id, name string) truelayer.Account {
	account := truelayer.Account{
		AccountID:   id,
		AccountType: "TRANSACTION",
		DisplayName: name,
		Currency:    "GBP",
	}
	account.AccountNumber.Number = "12345678"
	account.Provider.DisplayName = "Demo Bank"
	return account
}

func tlTx(id, description string, amount float64, daysAgo int) truelayer.Transaction {
	return truelayer.Transaction{
		TransactionID:   id,
		Timestamp:       time.Now().AddDate(0, 0, -daysAgo).Format(time.RFC3339),
		Description:     description,
		Amount:          amount,
		Currency:        "GBP",
		TransactionType: "DEBIT",
	}
}

func TestSyncCreatesAccountsAndTransactions(t *testing.T) {
	aggregator := &fakeAggregator{
		accounts: []truelayer.Account{tlAccount("acc-1", "Current Account")},
		balances: map[string]*truelayer.Balance{
			"acc-1": {Currency: "GBP", Current: 1250.30, Available: 1200},
		},
		transactions: map[string][]truelayer.Transaction{
			"acc-1": {
				tlTx("tx-1", "TESCO EXPRESS LONDON", -34.20, 1),
				tlTx("tx-2", "ACME LTD SALARY", 2750, 3),
			},
		},
	}
	env := newSyncEnv(aggregator)
	conn := env.addConnection(t, uuid.New(), time.Now().Add(time.Hour))

	result, err := env.svc.SyncNow(context.Background(), conn)
	require.NoError(t, err)

	assert.Equal(t, 1, result.TotalAccounts)
	assert.Equal(t, 1, result.AccountsCreated)
	assert.Equal(t, 2, result.TransactionsCreated)

	account, err := env.accounts.GetByExternalID(context.Background(), "acc-1")
	require.NoError(t, err)
	assert.Equal(t, 1250.30, account.Balance)
	assert.Equal(t, "Demo Bank", account.Institution)
	assert.Equal(t, "****5678", account.AccountNumber)

	tx, err := env.transactions.GetByExternalID(context.Background(), "tx-1")
	require.NoError(t, err)
	assert.Equal(t, models.CategoryGroceries, tx.Category)
	assert.Equal(t, 0.8, tx.CategoryConfidence)

	stored, err := env.connections.GetByID(context.Background(), conn.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.LastSyncedAt)
}

func TestSyncIsIdempotent(t *testing.T) {
	aggregator := &fakeAggregator{
		accounts: []truelayer.Account{tlAccount("acc-1", "Current Account")},
		transactions: map[string][]truelayer.Transaction{
			"acc-1": {tlTx("tx-1", "TESCO EXPRESS", -12, 1)},
		},
	}
	env := newSyncEnv(aggregator)
	conn := env.addConnection(t, uuid.New(), time.Now().Add(time.Hour))

	first, err := env.svc.SyncNow(context.Background(), conn)
	require.NoError(t, err)
	assert.Equal(t, 1, first.AccountsCreated)
	assert.Equal(t, 1, first.TransactionsCreated)

	second, err := env.svc.SyncNow(context.Background(), conn)
	require.NoError(t, err)
	assert.Equal(t, 0, second.AccountsCreated)
	assert.Equal(t, 0, second.TransactionsCreated)
	assert.Equal(t, 1, second.TotalAccounts)
}

func TestSyncNeverMutatesExistingTransactions(t *testing.T) {
	aggregator := &fakeAggregator{
		accounts: []truelayer.Account{tlAccount("acc-1", "Current Account")},
		transactions: map[string][]truelayer.Transaction{
			"acc-1": {tlTx("tx-1", "TESCO EXPRESS", -12, 1)},
		},
	}
	env := newSyncEnv(aggregator)
	conn := env.addConnection(t, uuid.New(), time.Now().Add(time.Hour))

	_, err := env.svc.SyncNow(context.Background(), conn)
	require.NoError(t, err)

	// Simulate a user recategorization between syncs.
	stored := env.transactions.txs["tx-1"]
	stored.Category = models.CategoryShopping
	stored.CategoryConfidence = 1.0
	stored.IsManuallyOverridden = true

	_, err = env.svc.SyncNow(context.Background(), conn)
	require.NoError(t, err)

	tx, err := env.transactions.GetByExternalID(context.Background(), "tx-1")
	require.NoError(t, err)
	assert.Equal(t, models.CategoryShopping, tx.Category)
	assert.True(t, tx.IsManuallyOverridden)
}

func TestSyncIsolatesPerAccountFailures(t *testing.T) {
	aggregator := &fakeAggregator{
		accounts: []truelayer.Account{
			tlAccount("acc-1", "Current"),
			tlAccount("acc-2", "Savings"),
			tlAccount("acc-3", "Credit"),
		},
		balances: map[string]*truelayer.Balance{
			"acc-1": {Currency: "GBP", Current: 100},
			"acc-3": {Currency: "GBP", Current: 300},
		},
		balanceErr: map[string]error{
			"acc-2": &truelayer.APIError{Op: "get_balance", StatusCode: 500, Body: "server error"},
		},
		txErr: map[string]error{
			"acc-2": &truelayer.APIError{Op: "list_transactions", StatusCode: 500, Body: "server error"},
		},
		transactions: map[string][]truelayer.Transaction{
			"acc-1": {tlTx("tx-1", "TESCO", -5, 1)},
			"acc-3": {tlTx("tx-3", "NETFLIX.COM", -8.99, 2)},
		},
	}
	env := newSyncEnv(aggregator)
	conn := env.addConnection(t, uuid.New(), time.Now().Add(time.Hour))

	result, err := env.svc.SyncNow(context.Background(), conn)
	require.NoError(t, err)

	assert.Equal(t, 3, result.TotalAccounts)
	assert.Equal(t, 3, result.AccountsCreated)
	assert.Equal(t, 2, result.TransactionsCreated)

	// The failing account still exists, just with no balance applied.
	account, err := env.accounts.GetByExternalID(context.Background(), "acc-2")
	require.NoError(t, err)
	assert.Equal(t, 0.0, account.Balance)

	healthy, err := env.accounts.GetByExternalID(context.Background(), "acc-3")
	require.NoError(t, err)
	assert.Equal(t, 300.0, healthy.Balance)
}

func TestSyncAbortsWhenAccountListingFails(t *testing.T) {
	aggregator := &fakeAggregator{
		accountsErr: &truelayer.APIError{Op: "list_accounts", StatusCode: 502, Body: "bad gateway"},
	}
	env := newSyncEnv(aggregator)
	conn := env.addConnection(t, uuid.New(), time.Now().Add(time.Hour))

	_, err := env.svc.SyncNow(context.Background(), conn)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "account listing failed")
}

func TestSyncRefreshesExpiredToken(t *testing.T) {
	aggregator := &fakeAggregator{
		refreshed: &truelayer.Token{
			AccessToken:  "fresh-access",
			RefreshToken: "fresh-refresh",
			TokenType:    "Bearer",
			ExpiresIn:    3600,
		},
		accounts: []truelayer.Account{tlAccount("acc-1", "Current")},
	}
	env := newSyncEnv(aggregator)
	conn := env.addConnection(t, uuid.New(), time.Now().Add(-time.Minute))

	_, err := env.svc.SyncNow(context.Background(), conn)
	require.NoError(t, err)
	assert.Equal(t, 1, aggregator.refreshCalls)

	stored, err := env.connections.GetByID(context.Background(), conn.ID)
	require.NoError(t, err)
	assert.Equal(t, "fresh-access", stored.AccessToken)
	assert.Equal(t, "fresh-refresh", stored.RefreshToken)
	assert.True(t, stored.ExpiresAt.After(time.Now()))
}

func TestSyncFailsWhenRefreshFails(t *testing.T) {
	aggregator := &fakeAggregator{
		accounts: []truelayer.Account{tlAccount("acc-1", "Current")},
	}
	env := newSyncEnv(aggregator)
	conn := env.addConnection(t, uuid.New(), time.Now().Add(-time.Minute))

	_, err := env.svc.SyncNow(context.Background(), conn)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token refresh failed")
	assert.Empty(t, env.accounts.accounts)
}

func TestCompleteConnection(t *testing.T) {
	aggregator := &fakeAggregator{
		token: &truelayer.Token{
			AccessToken:  "access",
			RefreshToken: "refresh",
			TokenType:    "Bearer",
			ExpiresIn:    3600,
		},
		accounts: []truelayer.Account{tlAccount("acc-1", "Current")},
		transactions: map[string][]truelayer.Transaction{
			"acc-1": {tlTx("tx-1", "TESCO", -5, 1)},
		},
	}
	env := newSyncEnv(aggregator)

	identity := Identity{UserID: uuid.New(), Username: "demo", Email: "demo@example.com"}
	env.svc.RegisterState(identity.UserID, "state-1")

	conn, result, err := env.svc.CompleteConnection(context.Background(), identity, "code-1", "state-1")
	require.NoError(t, err)
	require.NotNil(t, conn)
	require.NotNil(t, result)

	assert.Equal(t, identity.UserID, conn.UserID)
	assert.True(t, conn.IsActive)
	assert.Equal(t, 1, result.AccountsCreated)
	assert.Equal(t, 1, result.TransactionsCreated)

	// The caller was provisioned from the JWT identity.
	user, err := env.users.GetByID(context.Background(), identity.UserID)
	require.NoError(t, err)
	assert.Equal(t, "demo@example.com", user.Email)
}

func TestCompleteConnectionRejectsReplayedCode(t *testing.T) {
	aggregator := &fakeAggregator{
		token: &truelayer.Token{AccessToken: "access", RefreshToken: "refresh", TokenType: "Bearer", ExpiresIn: 3600},
	}
	env := newSyncEnv(aggregator)

	identity := Identity{UserID: uuid.New(), Username: "demo", Email: "demo@example.com"}
	env.svc.RegisterState(identity.UserID, "state-1")

	_, _, err := env.svc.CompleteConnection(context.Background(), identity, "code-1", "state-1")
	require.NoError(t, err)
	require.Equal(t, 1, aggregator.exchangeCalls)

	// The replay is rejected before any aggregator call.
	env.svc.RegisterState(identity.UserID, "state-2")
	_, _, err = env.svc.CompleteConnection(context.Background(), identity, "code-1", "state-2")
	assert.ErrorIs(t, err, ErrCodeAlreadyUsed)
	assert.Equal(t, 1, aggregator.exchangeCalls)
}

func TestCompleteConnectionRejectsBadState(t *testing.T) {
	env := newSyncEnv(&fakeAggregator{})
	identity := Identity{UserID: uuid.New(), Username: "demo", Email: "demo@example.com"}
	env.svc.RegisterState(identity.UserID, "state-1")

	_, _, err := env.svc.CompleteConnection(context.Background(), identity, "code-1", "wrong-state")
	assert.ErrorIs(t, err, ErrStateMismatch)
	assert.Equal(t, 0, env.aggregator.exchangeCalls)

	// An empty state never matches.
	_, _, err = env.svc.CompleteConnection(context.Background(), identity, "code-1", "")
	assert.ErrorIs(t, err, ErrStateMismatch)
}

func TestCompleteConnectionMapsInvalidGrant(t *testing.T) {
	aggregator := &fakeAggregator{
		exchangeErr: &truelayer.APIError{Op: "exchange_code", StatusCode: 400, Body: `{"error":"invalid_grant"}`},
	}
	env := newSyncEnv(aggregator)

	identity := Identity{UserID: uuid.New(), Username: "demo", Email: "demo@example.com"}
	env.svc.RegisterState(identity.UserID, "state-1")

	_, _, err := env.svc.CompleteConnection(context.Background(), identity, "stale-code", "state-1")
	assert.ErrorIs(t, err, ErrCodeExpired)
}

func TestCompleteConnectionProvisionsUserOnce(t *testing.T) {
	aggregator := &fakeAggregator{
		token: &truelayer.Token{AccessToken: "access", RefreshToken: "refresh", TokenType: "Bearer", ExpiresIn: 3600},
	}
	env := newSyncEnv(aggregator)

	identity := Identity{UserID: uuid.New(), Username: "demo", Email: "demo@example.com"}
	existing := &models.User{ID: identity.UserID, Username: "original", Email: "original@example.com"}
	require.NoError(t, env.users.Create(context.Background(), existing))

	env.svc.RegisterState(identity.UserID, "state-1")
	_, _, err := env.svc.CompleteConnection(context.Background(), identity, "code-1", "state-1")
	require.NoError(t, err)

	user, err := env.users.GetByID(context.Background(), identity.UserID)
	require.NoError(t, err)
	assert.Equal(t, "original@example.com", user.Email)
}
