package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"finsight/internal/models"
	"finsight/internal/repository"
	"finsight/internal/service"
	"finsight/pkg/auth"
	"finsight/pkg/config"
	"finsight/pkg/logger"
	"finsight/pkg/postgres"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const (
	demoEmail    = "demo@finsight.local"
	demoUsername = "demo"
	demoPassword = "demo1234"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Logger.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	appLogger := logger.Get()

	ctx := context.Background()
	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	userRepo := repository.NewUserRepository(db, appLogger)
	accountRepo := repository.NewAccountRepository(db, appLogger)
	transactionRepo := repository.NewTransactionRepository(db, appLogger)
	budgetRepo := repository.NewBudgetRepository(db, appLogger)
	goalRepo := repository.NewGoalRepository(db, appLogger)
	netWorthRepo := repository.NewNetWorthRepository(db, appLogger)

	categorizer := service.NewCategorizerService(appLogger)
	metrics := service.NewMetricsService(accountRepo, transactionRepo, netWorthRepo, appLogger)

	appLogger.Info("Starting database seeding")

	user, err := ensureDemoUser(ctx, userRepo)
	if err != nil {
		appLogger.Fatal("Failed to create demo user", zap.Error(err))
	}

	accounts, created, err := seedAccounts(ctx, accountRepo, user.ID)
	if err != nil {
		appLogger.Fatal("Failed to seed accounts", zap.Error(err))
	}
	if !created {
		appLogger.Info("Demo data already present, nothing to do")
		return
	}

	txCount, err := seedTransactions(ctx, transactionRepo, categorizer, accounts)
	if err != nil {
		appLogger.Fatal("Failed to seed transactions", zap.Error(err))
	}

	if err := seedBudgets(ctx, budgetRepo, user.ID); err != nil {
		appLogger.Fatal("Failed to seed budgets", zap.Error(err))
	}

	if err := seedGoals(ctx, goalRepo, user.ID); err != nil {
		appLogger.Fatal("Failed to seed goals", zap.Error(err))
	}

	if _, err := metrics.SnapshotNetWorth(ctx, user.ID); err != nil {
		appLogger.Fatal("Failed to snapshot net worth", zap.Error(err))
	}

	appLogger.Info("Database seeding completed",
		zap.String("email", demoEmail),
		zap.Int("accounts", len(accounts)),
		zap.Int("transactions", txCount),
	)
}

func ensureDemoUser(ctx context.Context, repo *repository.UserRepository) (*models.User, error) {
	user, err := repo.GetByEmail(ctx, demoEmail)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	hashed, err := auth.HashPassword(demoPassword)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user = &models.User{
		ID:        uuid.New(),
		Username:  demoUsername,
		Email:     demoEmail,
		Password:  hashed,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// seedAccounts creates the demo accounts. Returns created=false when the
// accounts already exist, which makes reruns a no-op.
func seedAccounts(ctx context.Context, repo *repository.AccountRepository, userID uuid.UUID) ([]*models.Account, bool, error) {
	if _, err := repo.GetByExternalID(ctx, "seed-current"); err == nil {
		accounts, err := repo.ListActiveByUser(ctx, userID)
		if err != nil {
			return nil, false, err
		}
		return accounts, false, nil
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, err
	}

	now := time.Now()
	accounts := []*models.Account{
		{
			ID:            uuid.New(),
			UserID:        userID,
			ExternalID:    "seed-current",
			Name:          "Current Account",
			Type:          models.AccountTypeChecking,
			Balance:       2840.55,
			Currency:      "GBP",
			Institution:   "Demo Bank",
			AccountNumber: "****1234",
			IsActive:      true,
			CreatedAt:     now,
			UpdatedAt:     now,
		},
		{
			ID:          uuid.New(),
			UserID:      userID,
			ExternalID:  "seed-savings",
			Name:        "Instant Saver",
			Type:        models.AccountTypeSavings,
			Balance:     12500.00,
			Currency:    "GBP",
			Institution: "Demo Bank",
			IsActive:    true,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		{
			ID:          uuid.New(),
			UserID:      userID,
			ExternalID:  "seed-credit",
			Name:        "Rewards Credit Card",
			Type:        models.AccountTypeCreditCard,
			Balance:     -430.20,
			Currency:    "GBP",
			Institution: "Demo Bank",
			IsActive:    true,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
	}

	for _, account := range accounts {
		if err := repo.Create(ctx, account); err != nil {
			return nil, false, err
		}
	}
	return accounts, true, nil
}

func seedTransactions(
	ctx context.Context,
	repo *repository.TransactionRepository,
	categorizer *service.CategorizerService,
	accounts []*models.Account,
) (int, error) {
	var current *models.Account
	for _, account := range accounts {
		if account.Type == models.AccountTypeChecking {
			current = account
			break
		}
	}
	if current == nil {
		return 0, errors.New("no checking account to attach transactions to")
	}

	samples := []struct {
		daysAgo     int
		amount      float64
		description string
	}{
		{1, -34.20, "TESCO EXPRESS LONDON"},
		{2, -12.50, "UBER TRIP HELP.UBER.COM"},
		{3, -8.99, "NETFLIX.COM"},
		{4, -42.00, "SHELL PETROL STATION"},
		{5, 2750.00, "ACME LTD SALARY"},
		{6, -18.75, "NANDOS RESTAURANT"},
		{8, -64.30, "SAINSBURYS SUPERMARKET"},
		{10, -95.00, "BRITISH GAS DIRECT DEBIT"},
		{12, -23.40, "AMAZON.CO.UK"},
		{14, -6.50, "PRET A MANGER"},
		{16, -120.00, "COUNCIL TAX PAYMENT"},
		{18, -15.00, "VUE CINEMA"},
		{21, -55.80, "ASDA SUPERSTORE"},
		{24, -9.99, "SPOTIFY SUBSCRIPTION"},
		{27, -31.25, "TFL TRAVEL CHARGE"},
	}

	now := time.Now()
	created := 0
	for i, sample := range samples {
		category, confidence := categorizer.Categorize(sample.description, sample.amount)
		tx := &models.Transaction{
			ID:                 uuid.New(),
			AccountID:          current.ID,
			ExternalID:         fmt.Sprintf("seed-tx-%03d", i),
			Amount:             sample.amount,
			Description:        sample.description,
			Date:               now.AddDate(0, 0, -sample.daysAgo),
			Category:           category,
			CategoryConfidence: confidence,
			CreatedAt:          now,
		}
		if err := repo.Create(ctx, tx); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

func seedBudgets(ctx context.Context, repo *repository.BudgetRepository, userID uuid.UUID) error {
	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, 0).Add(-time.Second)

	budgets := []*models.Budget{
		{Category: models.CategoryGroceries, Amount: 400},
		{Category: models.CategoryDining, Amount: 150},
		{Category: models.CategoryTransport, Amount: 120},
		{Category: models.CategoryEntertainment, Amount: 80},
	}

	for _, budget := range budgets {
		budget.ID = uuid.New()
		budget.UserID = userID
		budget.Period = models.BudgetPeriodMonthly
		budget.StartDate = monthStart
		budget.EndDate = monthEnd
		budget.IsActive = true
		budget.CreatedAt = now
		budget.UpdatedAt = now
		if err := repo.Create(ctx, budget); err != nil {
			return err
		}
	}
	return nil
}

func seedGoals(ctx context.Context, repo *repository.GoalRepository, userID uuid.UUID) error {
	now := time.Now()
	holidayDate := now.AddDate(0, 6, 0)
	houseDate := now.AddDate(3, 0, 0)

	goals := []*models.Goal{
		{
			Name:          "Holiday Fund",
			TargetAmount:  2000,
			CurrentAmount: 650,
			TargetDate:    &holidayDate,
			Category:      "travel",
		},
		{
			Name:          "House Deposit",
			TargetAmount:  30000,
			CurrentAmount: 12500,
			TargetDate:    &houseDate,
			Category:      "property",
		},
	}

	for _, goal := range goals {
		goal.ID = uuid.New()
		goal.UserID = userID
		goal.IsActive = true
		goal.CreatedAt = now
		goal.UpdatedAt = now
		if err := repo.Create(ctx, goal); err != nil {
			return err
		}
	}
	return nil
}
