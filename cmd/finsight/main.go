package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"finsight/internal/api"
	"finsight/internal/api/handlers"
	"finsight/internal/repository"
	"finsight/internal/scheduler"
	"finsight/internal/service"
	"finsight/internal/truelayer"
	"finsight/pkg/auth"
	"finsight/pkg/config"
	"finsight/pkg/logger"
	"finsight/pkg/postgres"

	"go.uber.org/zap"
)

// @title FinSight API
// @version 1.0
// @description Bank sync and reconciliation service: TrueLayer connections, transaction categorization, budgets, goals and net worth.

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	if err := logger.Init(cfg.Logger.Level); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	appLogger := logger.Get()
	appLogger.Info("Starting FinSight service")

	// Initialize database
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Initialize repositories
	userRepo := repository.NewUserRepository(db, appLogger)
	connectionRepo := repository.NewConnectionRepository(db, appLogger)
	accountRepo := repository.NewAccountRepository(db, appLogger)
	transactionRepo := repository.NewTransactionRepository(db, appLogger)
	budgetRepo := repository.NewBudgetRepository(db, appLogger)
	goalRepo := repository.NewGoalRepository(db, appLogger)
	netWorthRepo := repository.NewNetWorthRepository(db, appLogger)

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(cfg.JWT.SecretKey, cfg.JWT.Expiration, cfg.JWT.RefreshExp)

	// Initialize TrueLayer client
	truelayerClient := truelayer.NewClient(cfg.TrueLayer, appLogger)

	// Initialize services
	authService := service.NewAuthService(userRepo, jwtManager, appLogger)
	categorizerService := service.NewCategorizerService(appLogger)
	connectionService := service.NewConnectionService(connectionRepo, accountRepo, appLogger)
	syncService := service.NewSyncService(
		truelayerClient,
		connectionService,
		accountRepo,
		transactionRepo,
		userRepo,
		categorizerService,
		cfg.Sync,
		cfg.TrueLayer.Scopes,
		appLogger,
	)
	metricsService := service.NewMetricsService(accountRepo, transactionRepo, netWorthRepo, appLogger)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, appLogger)
	bankingHandler := handlers.NewBankingHandler(
		truelayerClient,
		syncService,
		connectionService,
		metricsService,
		accountRepo,
		cfg.Server.AppURL,
		appLogger,
	)
	accountHandler := handlers.NewAccountHandler(accountRepo, appLogger)
	transactionHandler := handlers.NewTransactionHandler(transactionRepo, accountRepo, categorizerService, appLogger)
	budgetHandler := handlers.NewBudgetHandler(budgetRepo, metricsService, appLogger)
	goalHandler := handlers.NewGoalHandler(goalRepo, metricsService, appLogger)
	netWorthHandler := handlers.NewNetWorthHandler(metricsService, appLogger)

	// Setup router
	app := api.SetupRouter(
		authHandler,
		bankingHandler,
		accountHandler,
		transactionHandler,
		budgetHandler,
		goalHandler,
		netWorthHandler,
		jwtManager,
		appLogger,
	)

	// Background sync scheduler
	syncScheduler := scheduler.New(syncService, connectionService, cfg.Sync.Interval, appLogger)
	go syncScheduler.Start(ctx)

	// Start server
	go func() {
		addr := ":" + cfg.Server.Port
		appLogger.Info("Server starting", zap.String("address", addr))
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server")
	cancel()
	if err := app.Shutdown(); err != nil {
		appLogger.Error("Server shutdown error", zap.Error(err))
	}
}
