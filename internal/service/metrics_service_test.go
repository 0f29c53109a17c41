package service

import (
	"context"
	"testing"
	"time"

	"finsight/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newMetricsEnv() (*MetricsService, *fakeAccountStore, *fakeTransactionStore, *fakeSnapshotStore) {
	accounts := newFakeAccountStore()
	transactions := newFakeTransactionStore()
	snapshots := &fakeSnapshotStore{}
	return NewMetricsService(accounts, transactions, snapshots, zap.NewNop()), accounts, transactions, snapshots
}

func seedTx(t *testing.T, store *fakeTransactionStore, accountID uuid.UUID, externalID, category string, amount float64, date time.Time) {
	t.Helper()
	require.NoError(t, store.Create(context.Background(), &models.Transaction{
		ID:         uuid.New(),
		AccountID:  accountID,
		ExternalID: externalID,
		Amount:     amount,
		Category:   category,
		Date:       date,
	}))
}

func TestBudgetSummary(t *testing.T) {
	svc, _, transactions, _ := newMetricsEnv()
	userID := uuid.New()
	accountID := uuid.New()
	now := time.Now()

	budget := &models.Budget{
		ID:        uuid.New(),
		UserID:    userID,
		Category:  models.CategoryDining,
		Amount:    200,
		Period:    models.BudgetPeriodMonthly,
		StartDate: now.AddDate(0, 0, -15),
		EndDate:   now.AddDate(0, 0, 15),
	}

	seedTx(t, transactions, accountID, "tx-1", models.CategoryDining, -50, now.AddDate(0, 0, -2))
	seedTx(t, transactions, accountID, "tx-2", models.CategoryDining, -30, now.AddDate(0, 0, -1))
	// A refund in the category does not reduce spend.
	seedTx(t, transactions, accountID, "tx-3", models.CategoryDining, 10, now.AddDate(0, 0, -1))
	// Other categories and out-of-window spend are excluded.
	seedTx(t, transactions, accountID, "tx-4", models.CategoryGroceries, -40, now.AddDate(0, 0, -3))
	seedTx(t, transactions, accountID, "tx-5", models.CategoryDining, -99, now.AddDate(0, 0, -45))

	summary, err := svc.BudgetSummary(context.Background(), budget)
	require.NoError(t, err)

	assert.Equal(t, 80.0, summary.Spent)
	assert.Equal(t, 120.0, summary.Remaining)
	assert.Equal(t, 40.0, summary.PercentUsed)
}

func TestBudgetSummaryOverspent(t *testing.T) {
	svc, _, transactions, _ := newMetricsEnv()
	now := time.Now()

	budget := &models.Budget{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		Category:  models.CategoryEntertainment,
		Amount:    50,
		StartDate: now.AddDate(0, 0, -10),
		EndDate:   now.AddDate(0, 0, 10),
	}

	seedTx(t, transactions, uuid.New(), "tx-1", models.CategoryEntertainment, -75, now)

	summary, err := svc.BudgetSummary(context.Background(), budget)
	require.NoError(t, err)

	assert.Equal(t, 75.0, summary.Spent)
	assert.Equal(t, -25.0, summary.Remaining)
	assert.Equal(t, 150.0, summary.PercentUsed)
}

func TestSnapshotNetWorthPartitionsLiabilities(t *testing.T) {
	svc, accounts, _, snapshots := newMetricsEnv()
	userID := uuid.New()

	add := func(externalID string, accountType models.AccountType, balance float64, active bool) {
		require.NoError(t, accounts.Create(context.Background(), &models.Account{
			ID:         uuid.New(),
			UserID:     userID,
			ExternalID: externalID,
			Type:       accountType,
			Balance:    balance,
			IsActive:   active,
		}))
	}

	add("checking", models.AccountTypeChecking, 1500, true)
	add("savings", models.AccountTypeSavings, 10000, true)
	// Credit cards are liabilities even with the balance stored negative.
	add("credit", models.AccountTypeCreditCard, -430.20, true)
	// An overdrawn current account counts as a liability too.
	add("overdrawn", models.AccountTypeChecking, -120, true)
	// Inactive accounts are invisible.
	add("closed", models.AccountTypeSavings, 99999, false)

	snapshot, err := svc.SnapshotNetWorth(context.Background(), userID)
	require.NoError(t, err)

	assert.Equal(t, 11500.0, snapshot.TotalAssets)
	assert.Equal(t, 550.20, snapshot.TotalLiabilities)
	assert.Equal(t, 10949.80, snapshot.NetWorth)
	assert.Len(t, snapshots.snapshots, 1)
}

func TestLatestSnapshotCreatesWhenMissing(t *testing.T) {
	svc, accounts, _, snapshots := newMetricsEnv()
	userID := uuid.New()

	require.NoError(t, accounts.Create(context.Background(), &models.Account{
		ID:         uuid.New(),
		UserID:     userID,
		ExternalID: "checking",
		Type:       models.AccountTypeChecking,
		Balance:    500,
		IsActive:   true,
	}))

	snapshot, err := svc.LatestSnapshot(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 500.0, snapshot.NetWorth)
	assert.Len(t, snapshots.snapshots, 1)

	// A second call reads the stored snapshot instead of creating another.
	again, err := svc.LatestSnapshot(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, snapshot.ID, again.ID)
	assert.Len(t, snapshots.snapshots, 1)
}

func TestHistorySeriesWalksBackward(t *testing.T) {
	svc, accounts, transactions, _ := newMetricsEnv()
	userID := uuid.New()
	accountID := uuid.New()

	require.NoError(t, accounts.Create(context.Background(), &models.Account{
		ID:         accountID,
		UserID:     userID,
		ExternalID: "checking",
		Type:       models.AccountTypeChecking,
		Balance:    1000,
		IsActive:   true,
	}))

	today := time.Now().Truncate(24 * time.Hour)
	seedTx(t, transactions, accountID, "tx-1", models.CategoryGroceries, -100, today)
	seedTx(t, transactions, accountID, "tx-2", models.CategoryIncome, 500, today.AddDate(0, 0, -2))

	points, err := svc.HistorySeries(context.Background(), userID, 5)
	require.NoError(t, err)
	require.Len(t, points, 6)

	// Today's point is the live balance.
	last := points[len(points)-1]
	assert.Equal(t, today, last.Date)
	assert.Equal(t, 1000.0, last.NetWorth)

	// Yesterday predates today's spend.
	assert.Equal(t, 1100.0, points[len(points)-2].NetWorth)
	// Three days ago predates the deposit as well.
	assert.Equal(t, 600.0, points[len(points)-4].NetWorth)
	// The oldest point is flat before any recorded flows.
	assert.Equal(t, 600.0, points[0].NetWorth)
}

func TestGoalProgress(t *testing.T) {
	svc, _, _, _ := newMetricsEnv()

	targetDate := time.Now().AddDate(0, 0, 10)
	progress := svc.Progress(&models.Goal{
		TargetAmount:  2000,
		CurrentAmount: 650,
		TargetDate:    &targetDate,
	})

	assert.InDelta(t, 32.5, progress.Percent, 0.001)
	assert.Equal(t, 1350.0, progress.Remaining)
	assert.Contains(t, progress.TimeRemaining, "days")
}

func TestGoalProgressClampsAndBuckets(t *testing.T) {
	svc, _, _, _ := newMetricsEnv()

	overfunded := svc.Progress(&models.Goal{TargetAmount: 100, CurrentAmount: 150})
	assert.Equal(t, 100.0, overfunded.Percent)
	assert.Equal(t, -50.0, overfunded.Remaining)
	assert.Empty(t, overfunded.TimeRemaining)

	past := time.Now().AddDate(0, 0, -1)
	overdue := svc.Progress(&models.Goal{TargetAmount: 100, CurrentAmount: 10, TargetDate: &past})
	assert.Equal(t, "Overdue", overdue.TimeRemaining)

	future := time.Now().AddDate(2, 1, 0)
	longRange := svc.Progress(&models.Goal{TargetAmount: 100, TargetDate: &future})
	assert.Equal(t, "2 years", longRange.TimeRemaining)

	zeroTarget := svc.Progress(&models.Goal{TargetAmount: 0, CurrentAmount: 10})
	assert.Equal(t, 0.0, zeroTarget.Percent)
}
