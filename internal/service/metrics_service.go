package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"finsight/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// MetricsService computes read-time and snapshot financial summaries. It
// carries no state of its own beyond what it reads.
type MetricsService struct {
	accounts     AccountStore
	transactions TransactionStore
	snapshots    SnapshotStore
	logger       *zap.Logger
}

func NewMetricsService(accounts AccountStore, transactions TransactionStore, snapshots SnapshotStore, logger *zap.Logger) *MetricsService {
	return &MetricsService{
		accounts:     accounts,
		transactions: transactions,
		snapshots:    snapshots,
		logger:       logger,
	}
}

type BudgetSummary struct {
	Spent     float64
	Remaining float64
	// PercentUsed is the raw percentage; it exceeds 100 when the budget
	// is blown. Clamping is a display concern.
	PercentUsed float64
}

// BudgetSummary sums the absolute value of the budget category's
// negative-amount transactions inside the budget window.
func (s *MetricsService) BudgetSummary(ctx context.Context, budget *models.Budget) (*BudgetSummary, error) {
	txs, err := s.transactions.ListByUser(ctx, budget.UserID, budget.Category, budget.StartDate, budget.EndDate)
	if err != nil {
		return nil, fmt.Errorf("failed to load budget transactions: %w", err)
	}

	spent := decimal.Zero
	for _, tx := range txs {
		if tx.Amount < 0 {
			spent = spent.Add(decimal.NewFromFloat(tx.Amount).Neg())
		}
	}

	amount := decimal.NewFromFloat(budget.Amount)
	remaining := amount.Sub(spent)

	percent := decimal.Zero
	if !amount.IsZero() {
		percent = spent.Div(amount).Mul(decimal.NewFromInt(100))
	}

	return &BudgetSummary{
		Spent:       spent.InexactFloat64(),
		Remaining:   remaining.InexactFloat64(),
		PercentUsed: percent.InexactFloat64(),
	}, nil
}

// SnapshotNetWorth partitions the user's active accounts into assets and
// liabilities and persists a new immutable snapshot. Callers trigger this
// explicitly, typically after a sync.
func (s *MetricsService) SnapshotNetWorth(ctx context.Context, userID uuid.UUID) (*models.NetWorthSnapshot, error) {
	accounts, err := s.accounts.ListActiveByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load accounts: %w", err)
	}

	assets, liabilities := partitionBalances(accounts)
	now := time.Now()

	snapshot := &models.NetWorthSnapshot{
		ID:               uuid.New(),
		UserID:           userID,
		TotalAssets:      assets.InexactFloat64(),
		TotalLiabilities: liabilities.InexactFloat64(),
		NetWorth:         assets.Sub(liabilities).InexactFloat64(),
		SnapshotDate:     now,
		CreatedAt:        now,
	}

	if err := s.snapshots.Create(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("failed to persist snapshot: %w", err)
	}

	return snapshot, nil
}

// LatestSnapshot returns the newest stored snapshot, or creates one when
// none exists yet.
func (s *MetricsService) LatestSnapshot(ctx context.Context, userID uuid.UUID) (*models.NetWorthSnapshot, error) {
	snapshot, err := s.snapshots.Latest(ctx, userID)
	if err == nil {
		return snapshot, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	return s.SnapshotNetWorth(ctx, userID)
}

// History returns stored snapshots within the window.
func (s *MetricsService) History(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*models.NetWorthSnapshot, error) {
	return s.snapshots.ListByUser(ctx, userID, from, to)
}

type NetWorthPoint struct {
	Date     time.Time
	NetWorth float64
}

// HistorySeries reconstructs an approximate daily net-worth series by
// walking cumulative transaction deltas backward from the current
// balances. It assumes today's balance is fully explained by recorded
// transactions, so treat it as a presentation convenience; stored
// snapshots remain the source of truth.
func (s *MetricsService) HistorySeries(ctx context.Context, userID uuid.UUID, days int) ([]NetWorthPoint, error) {
	if days <= 0 {
		days = 30
	}

	accounts, err := s.accounts.ListActiveByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load accounts: %w", err)
	}
	assets, liabilities := partitionBalances(accounts)
	current := assets.Sub(liabilities)

	today := time.Now().Truncate(24 * time.Hour)
	from := today.AddDate(0, 0, -days)

	txs, err := s.transactions.ListByUser(ctx, userID, "", from, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}

	deltaByDay := make(map[time.Time]decimal.Decimal)
	for _, tx := range txs {
		day := tx.Date.Truncate(24 * time.Hour)
		deltaByDay[day] = deltaByDay[day].Add(decimal.NewFromFloat(tx.Amount))
	}

	points := make([]NetWorthPoint, days+1)
	cumulative := current
	for i := 0; i <= days; i++ {
		day := today.AddDate(0, 0, -i)
		points[days-i] = NetWorthPoint{Date: day, NetWorth: cumulative.InexactFloat64()}
		// Stepping back a day removes that day's recorded flows.
		cumulative = cumulative.Sub(deltaByDay[day])
	}

	return points, nil
}

type GoalProgress struct {
	// Percent is clamped to 100 for display.
	Percent       float64
	Remaining     float64
	TimeRemaining string
}

// Progress derives a goal's progress figures.
func (s *MetricsService) Progress(goal *models.Goal) GoalProgress {
	target := decimal.NewFromFloat(goal.TargetAmount)
	currentAmount := decimal.NewFromFloat(goal.CurrentAmount)

	percent := decimal.Zero
	if !target.IsZero() {
		percent = currentAmount.Div(target).Mul(decimal.NewFromInt(100))
	}
	if percent.GreaterThan(decimal.NewFromInt(100)) {
		percent = decimal.NewFromInt(100)
	}

	return GoalProgress{
		Percent:       percent.InexactFloat64(),
		Remaining:     target.Sub(currentAmount).InexactFloat64(),
		TimeRemaining: timeRemaining(goal.TargetDate, time.Now()),
	}
}

// timeRemaining buckets the distance to the target date into a
// human-readable label.
func timeRemaining(targetDate *time.Time, now time.Time) string {
	if targetDate == nil {
		return ""
	}
	if targetDate.Before(now) {
		return "Overdue"
	}

	days := int(targetDate.Sub(now).Hours() / 24)
	switch {
	case days < 31:
		if days == 1 {
			return "1 day"
		}
		return fmt.Sprintf("%d days", days)
	case days < 365:
		months := days / 30
		if months == 1 {
			return "1 month"
		}
		return fmt.Sprintf("%d months", months)
	default:
		years := days / 365
		if years == 1 {
			return "1 year"
		}
		return fmt.Sprintf("%d years", years)
	}
}

func partitionBalances(accounts []*models.Account) (assets, liabilities decimal.Decimal) {
	for _, account := range accounts {
		balance := decimal.NewFromFloat(account.Balance)
		if account.IsLiability() {
			liabilities = liabilities.Add(balance.Abs())
		} else {
			assets = assets.Add(balance)
		}
	}
	return assets, liabilities
}
