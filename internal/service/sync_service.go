package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"finsight/internal/models"
	"finsight/internal/truelayer"
	"finsight/pkg/config"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

var (
	// ErrCodeAlreadyUsed means the same authorization code was submitted
	// twice, typically a client-side redirect race. Terminal: no second
	// exchange is ever attempted.
	ErrCodeAlreadyUsed = errors.New("authorization code already used")
	// ErrCodeExpired means the aggregator rejected the code as consumed
	// or expired. The user must restart the connect flow.
	ErrCodeExpired = errors.New("authorization code expired or already redeemed")
	// ErrStateMismatch means the OAuth state echoed back by the callback
	// does not match the one generated for this user.
	ErrStateMismatch = errors.New("oauth state mismatch")
)

const (
	usedCodeTTL     = time.Hour
	pendingStateTTL = 15 * time.Minute
)

// Identity is the stable caller identity resolved upstream (JWT claims).
type Identity struct {
	UserID   uuid.UUID
	Username string
	Email    string
}

type SyncResult struct {
	AccountsCreated     int
	TransactionsCreated int
	TotalAccounts       int
}

// SyncService is the reconciliation engine: it drives one full sync pass
// for one connection with idempotent upserts and best-effort partial
// completion, and owns the connect-completion flow.
type SyncService struct {
	aggregator   Aggregator
	connections  *ConnectionService
	accounts     AccountStore
	transactions TransactionStore
	users        UserStore
	categorizer  *CategorizerService
	logger       *zap.Logger

	initialWindow   time.Duration
	scheduledWindow time.Duration
	scope           string

	// usedCodes and pendingStates are process-local guards; both are
	// swept on access once their entries age out.
	guards syncGuards
}

func NewSyncService(
	aggregator Aggregator,
	connections *ConnectionService,
	accounts AccountStore,
	transactions TransactionStore,
	users UserStore,
	categorizer *CategorizerService,
	cfg config.SyncConfig,
	scopes []string,
	logger *zap.Logger,
) *SyncService {
	return &SyncService{
		aggregator:      aggregator,
		connections:     connections,
		accounts:        accounts,
		transactions:    transactions,
		users:           users,
		categorizer:     categorizer,
		logger:          logger,
		initialWindow:   time.Duration(cfg.InitialWindowDays) * 24 * time.Hour,
		scheduledWindow: time.Duration(cfg.ScheduledWindowDays) * 24 * time.Hour,
		scope:           strings.Join(scopes, " "),
		guards:          newSyncGuards(),
	}
}

// RegisterState remembers the OAuth state generated for a user's connect
// attempt so the callback can be verified against it.
func (s *SyncService) RegisterState(userID uuid.UUID, state string) {
	s.guards.registerState(userID, state)
}

// CompleteConnection is the connect-completion variant of sync: verify
// state, guard against code replay, provision the user if needed,
// exchange the code, persist the connection and run the initial sync.
func (s *SyncService) CompleteConnection(ctx context.Context, identity Identity, code, state string) (*models.BankConnection, *SyncResult, error) {
	if !s.guards.consumeState(identity.UserID, state) {
		return nil, nil, ErrStateMismatch
	}

	// Reject a replayed code before any aggregator call is attempted.
	if !s.guards.markCodeUsed(code) {
		return nil, nil, ErrCodeAlreadyUsed
	}

	if err := s.ensureUser(ctx, identity); err != nil {
		return nil, nil, err
	}

	token, err := s.aggregator.ExchangeCode(ctx, code)
	if err != nil {
		var apiErr *truelayer.APIError
		if errors.As(err, &apiErr) && apiErr.IsInvalidGrant() {
			return nil, nil, fmt.Errorf("%w: %s", ErrCodeExpired, apiErr.Body)
		}
		return nil, nil, fmt.Errorf("token exchange failed: %w", err)
	}

	conn, err := s.connections.Create(ctx, identity.UserID, token, s.scope)
	if err != nil {
		return nil, nil, err
	}

	result, err := s.SyncNow(ctx, conn)
	if err != nil {
		return conn, nil, err
	}

	return conn, result, nil
}

// SyncNow runs a manual/initial sync with the long trailing window.
func (s *SyncService) SyncNow(ctx context.Context, conn *models.BankConnection) (*SyncResult, error) {
	return s.sync(ctx, conn, s.initialWindow)
}

// SyncScheduled runs the background sync with the short trailing window;
// older transactions are assumed stable.
func (s *SyncService) SyncScheduled(ctx context.Context, conn *models.BankConnection) (*SyncResult, error) {
	return s.sync(ctx, conn, s.scheduledWindow)
}

// sync is one full reconciliation pass. Token refresh and account-listing
// failures abort the pass; per-account balance and transaction failures
// are logged and isolated so the remaining accounts still sync.
func (s *SyncService) sync(ctx context.Context, conn *models.BankConnection, window time.Duration) (*SyncResult, error) {
	now := time.Now()

	if conn.Expired(now) {
		token, err := s.aggregator.RefreshToken(ctx, conn.RefreshToken)
		if err != nil {
			return nil, fmt.Errorf("token refresh failed: %w", err)
		}
		if err := s.connections.SaveRefreshedTokens(ctx, conn, token); err != nil {
			return nil, err
		}
	}

	tlAccounts, err := s.aggregator.Accounts(ctx, conn.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("account listing failed: %w", err)
	}

	result := &SyncResult{TotalAccounts: len(tlAccounts)}
	from := now.Add(-window)

	for _, tla := range tlAccounts {
		account, created, err := s.upsertAccount(ctx, conn, tla, now)
		if err != nil {
			s.logger.Error("Failed to upsert account, skipping",
				zap.String("connection_id", conn.ID.String()),
				zap.String("external_id", tla.AccountID),
				zap.Error(err),
			)
			continue
		}
		if created {
			result.AccountsCreated++
		}

		s.syncBalance(ctx, conn, account, now)
		result.TransactionsCreated += s.syncTransactions(ctx, conn, account, from, now)
	}

	if err := s.connections.MarkSynced(ctx, conn.ID, now); err != nil {
		s.logger.Error("Failed to stamp connection last-synced",
			zap.String("connection_id", conn.ID.String()),
			zap.Error(err),
		)
	}

	s.logger.Info("Sync completed",
		zap.String("connection_id", conn.ID.String()),
		zap.Int("total_accounts", result.TotalAccounts),
		zap.Int("accounts_created", result.AccountsCreated),
		zap.Int("transactions_created", result.TransactionsCreated),
	)

	return result, nil
}

func (s *SyncService) upsertAccount(ctx context.Context, conn *models.BankConnection, tla truelayer.Account, now time.Time) (*models.Account, bool, error) {
	account, err := s.accounts.GetByExternalID(ctx, tla.AccountID)
	if err == nil {
		return account, false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, err
	}

	connID := conn.ID
	account = &models.Account{
		ID:            uuid.New(),
		UserID:        conn.UserID,
		ConnectionID:  &connID,
		ExternalID:    tla.AccountID,
		Name:          tla.DisplayName,
		Type:          models.AccountType(strings.ToLower(tla.AccountType)),
		Balance:       0,
		Currency:      tla.Currency,
		Institution:   tla.Provider.DisplayName,
		AccountNumber: maskAccountNumber(tla.AccountNumber.Number),
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, false, err
	}

	return account, true, nil
}

// syncBalance updates the stored balance. A failure here is isolated: it
// must not stop this account's transactions or the sibling accounts.
func (s *SyncService) syncBalance(ctx context.Context, conn *models.BankConnection, account *models.Account, now time.Time) {
	balance, err := s.aggregator.Balance(ctx, conn.AccessToken, account.ExternalID)
	if err != nil {
		s.logger.Warn("Balance fetch failed, keeping previous balance",
			zap.String("connection_id", conn.ID.String()),
			zap.String("external_id", account.ExternalID),
			zap.Error(err),
		)
		return
	}

	if err := s.accounts.UpdateBalance(ctx, account.ID, balance.Current, now); err != nil {
		s.logger.Error("Failed to persist balance",
			zap.String("account_id", account.ID.String()),
			zap.Error(err),
		)
		return
	}
	account.Balance = balance.Current
}

// syncTransactions inserts unseen transactions for one account. A fetch
// failure is treated as zero transactions, not as an abort.
func (s *SyncService) syncTransactions(ctx context.Context, conn *models.BankConnection, account *models.Account, from, to time.Time) int {
	txs, err := s.aggregator.Transactions(ctx, conn.AccessToken, account.ExternalID, from, to)
	if err != nil {
		s.logger.Warn("Transaction fetch failed, treating as empty",
			zap.String("connection_id", conn.ID.String()),
			zap.String("external_id", account.ExternalID),
			zap.Error(err),
		)
		return 0
	}

	created := 0
	for _, tx := range txs {
		if _, err := s.transactions.GetByExternalID(ctx, tx.TransactionID); err == nil {
			// Already stored; sync never mutates an existing transaction.
			continue
		} else if !errors.Is(err, pgx.ErrNoRows) {
			s.logger.Error("Transaction lookup failed",
				zap.String("external_id", tx.TransactionID),
				zap.Error(err),
			)
			continue
		}

		if err := s.transactions.Create(ctx, s.buildTransaction(account, tx)); err != nil {
			s.logger.Error("Failed to insert transaction",
				zap.String("external_id", tx.TransactionID),
				zap.Error(err),
			)
			continue
		}
		created++
	}

	return created
}

func (s *SyncService) buildTransaction(account *models.Account, tx truelayer.Transaction) *models.Transaction {
	// Prefer the aggregator's own category enum when it has a direct
	// mapping; otherwise ask the keyword categorizer, falling back to the
	// client-side scan.
	var category string
	if truelayer.HasProviderMapping(tx.TransactionCategory) {
		category = truelayer.MapCategory(tx.TransactionCategory, tx.Description, tx.MerchantName)
	} else {
		cat, conf := s.categorizer.Categorize(tx.Description, tx.Amount)
		if conf == 0 {
			cat = truelayer.MapCategory(tx.TransactionCategory, tx.Description, tx.MerchantName)
		}
		category = cat
	}

	date, err := time.Parse(time.RFC3339, tx.Timestamp)
	if err != nil {
		date = time.Now()
	}

	return &models.Transaction{
		ID:          uuid.New(),
		AccountID:   account.ID,
		ExternalID:  tx.TransactionID,
		Amount:      tx.Amount,
		Description: tx.Description,
		Date:        date,
		Category:    category,
		// Aggregator-sourced categorization is high- but not
		// full-confidence.
		CategoryConfidence: 0.8,
		Metadata: map[string]string{
			models.MetaMerchantName:     tx.MerchantName,
			models.MetaTransactionType:  tx.TransactionType,
			models.MetaProviderCategory: tx.TransactionCategory,
		},
		CreatedAt: time.Now(),
	}
}

func (s *SyncService) ensureUser(ctx context.Context, identity Identity) error {
	_, err := s.users.GetByID(ctx, identity.UserID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	now := time.Now()
	user := &models.User{
		ID:        identity.UserID,
		Username:  identity.Username,
		Email:     identity.Email,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return fmt.Errorf("failed to provision user: %w", err)
	}

	s.logger.Info("Provisioned user on first connection", zap.String("user_id", identity.UserID.String()))
	return nil
}

func maskAccountNumber(number string) string {
	if len(number) <= 4 {
		return number
	}
	return "****" + number[len(number)-4:]
}
