package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/arena-pay/arena_pay/internal/config"
	"github.com/arena-pay/arena_pay/internal/funding"
	"github.com/arena-pay/arena_pay/internal/ledger"
	"github.com/arena-pay/arena_pay/internal/middleware"
	"github.com/arena-pay/arena_pay/internal/notification"
	"github.com/arena-pay/arena_pay/internal/payments"
	"github.com/arena-pay/arena_pay/internal/wallet"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// DB and Redis are optional only in development.
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	app.Use(middleware.Audit(d.Logger))
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	// Health
	RegisterHealthRoutes(app, d)

	// Services and handlers
	var store ledger.Store
	if d.DB != nil {
		store = ledger.NewPostgresStore(d.DB)
	} else {
		store = ledger.NewInMemoryStore()
	}

	ledgerSvc := ledger.NewService(store, ledger.Bounds{
		DepositMin:    d.Cfg.DepositMin,
		DepositMax:    d.Cfg.DepositMax,
		WithdrawalMin: d.Cfg.WithdrawalMin,
		WithdrawalMax: d.Cfg.WithdrawalMax,
	})
	statsReader := ledger.NewStatsReader(store)
	walletSvc := wallet.NewService(ledgerSvc, statsReader, d.Cfg.HistoryPageSize)
	notifier := notification.NewLoggerNotifier(d.Logger)
	paymentSvc := payments.NewService(ledgerSvc, notifier)
	fundingSvc := funding.NewService(ledgerSvc)

	walletHandler := wallet.NewHandler(walletSvc)
	fundingHandler := funding.NewHandler(fundingSvc)
	paymentHandler := payments.NewHandler(paymentSvc)

	// API routes
	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	rateLimiter := middleware.MutationRateLimit(d.Cache, d.Cfg.MutationsPerMin)

	RegisterWalletRoutes(api, walletHandler)
	RegisterFundingRoutes(api, fundingHandler, rateLimiter)
	RegisterPaymentRoutes(api, paymentHandler, rateLimiter)
	RegisterAdminRoutes(api, walletHandler)

	return nil
}
