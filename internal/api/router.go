package api

import (
	"finsight/internal/api/handlers"
	"finsight/pkg/auth"
	"finsight/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

func SetupRouter(
	authHandler *handlers.AuthHandler,
	bankingHandler *handlers.BankingHandler,
	accountHandler *handlers.AccountHandler,
	transactionHandler *handlers.TransactionHandler,
	budgetHandler *handlers.BudgetHandler,
	goalHandler *handlers.GoalHandler,
	netWorthHandler *handlers.NetWorthHandler,
	jwtManager *auth.JWTManager,
	appLogger *zap.Logger,
) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))
	app.Use(logger.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Auth routes (public)
	authGroup := app.Group("/user/auth")
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)
	authGroup.Post("/refresh", authHandler.RefreshToken)

	// TrueLayer redirects here after consent; it carries no bearer token.
	app.Get("/api/v1/banking/callback", bankingHandler.Callback)

	// Protected routes
	protected := app.Group("/api/v1", middleware.AuthMiddleware(jwtManager, appLogger))

	banking := protected.Group("/banking")
	banking.Get("/connect", bankingHandler.Connect)
	banking.Post("/complete-connection", bankingHandler.CompleteConnection)
	banking.Post("/sync", bankingHandler.Sync)
	banking.Get("/status", bankingHandler.Status)
	banking.Delete("/disconnect", bankingHandler.Disconnect)
	banking.Delete("/disconnect/:connectionId", bankingHandler.DisconnectOne)

	accounts := protected.Group("/accounts")
	accounts.Get("", accountHandler.List)
	accounts.Post("", accountHandler.Create)
	accounts.Put("/:id", accountHandler.Update)
	accounts.Delete("/:id", accountHandler.Delete)

	transactions := protected.Group("/transactions")
	transactions.Get("", transactionHandler.List)
	transactions.Put("/:id/category", transactionHandler.Recategorize)

	budgets := protected.Group("/budgets")
	budgets.Get("", budgetHandler.List)
	budgets.Post("", budgetHandler.Create)
	budgets.Put("/:id", budgetHandler.Update)
	budgets.Delete("/:id", budgetHandler.Delete)

	goals := protected.Group("/goals")
	goals.Get("", goalHandler.List)
	goals.Post("", goalHandler.Create)
	goals.Put("/:id", goalHandler.Update)
	goals.Post("/:id/contribute", goalHandler.Contribute)
	goals.Delete("/:id", goalHandler.Delete)

	netWorth := protected.Group("/net-worth")
	netWorth.Get("", netWorthHandler.Current)
	netWorth.Post("/snapshot", netWorthHandler.Snapshot)
	netWorth.Get("/history", netWorthHandler.History)

	return app
}
