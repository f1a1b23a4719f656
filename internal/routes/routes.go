package routes

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/riverqueue/river"

	"github.com/smartwin-lab/smartwin/internal/account"
	"github.com/smartwin-lab/smartwin/internal/config"
	"github.com/smartwin-lab/smartwin/internal/hall"
	"github.com/smartwin-lab/smartwin/internal/leaderboard"
	"github.com/smartwin-lab/smartwin/internal/membership"
	"github.com/smartwin-lab/smartwin/internal/middleware"
	"github.com/smartwin-lab/smartwin/internal/notification"
	"github.com/smartwin-lab/smartwin/internal/purchase"
	"github.com/smartwin-lab/smartwin/internal/session"
)

// Deps aggregates shared dependencies required to wire routes. DB and Cache
// may be nil in development, where memory stores take their place. River and
// SettleWorker are set when settlement runs on the job queue.
type Deps struct {
	Cfg          config.Config
	DB           *pgxpool.Pool
	Cache        *redis.Client
	Logger       *slog.Logger
	River        *river.Client[pgx.Tx]
	SettleWorker *purchase.SettleWorker
	// HashCost overrides the bcrypt cost, mainly for tests.
	HashCost int
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(d.Cfg.CORSOrigins, ","),
		AllowHeaders: strings.Join([]string{
			fiber.HeaderOrigin, fiber.HeaderContentType, fiber.HeaderAccept,
			middleware.SessionHeader, "Idempotency-Key", "X-Request-ID",
		}, ", "),
	}))
	if d.Cfg.LogFormat == "text" {
		// Plain text access log: [HH:MM:SS] 200 -  145ms METHOD /path
		app.Use(logger.New(logger.Config{
			Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
			TimeFormat: "15:04:05",
			TimeZone:   "Local",
		}))
	}
	app.Use(middleware.Audit(d.Logger))

	RegisterHealthRoutes(app, d)

	engine := membership.NewEngine(nil)
	notifier := notification.NewLoggerNotifier(d.Logger)

	var (
		accountRepo account.Repository
		orderRepo   purchase.OrderRepository
		hallRepo    hall.Repository
		sessions    session.Store
	)
	if d.DB != nil {
		accountRepo = account.NewPostgresRepository(d.DB)
		orderRepo = purchase.NewPostgresRepository(d.DB)
		hallRepo = hall.NewPostgresRepository(d.DB)
	} else {
		d.Logger.Warn("no database configured, using in-memory stores")
		accountRepo = account.NewMemoryRepository()
		orderRepo = purchase.NewMemoryRepository()
		hallRepo = hall.NewMemoryRepository()
	}
	if d.Cache != nil {
		sessions = session.NewRedisStore(d.Cache, d.Cfg.SessionTTL)
	} else {
		d.Logger.Warn("no redis configured, using in-memory sessions without idempotency")
		sessions = session.NewMemoryStore()
	}

	accountSvc := account.NewService(accountRepo, membership.Factory{
		Codes:    &membership.CodeGenerator{},
		HashCost: d.HashCost,
	})

	var confirmer purchase.Confirmer = purchase.TimerConfirmer{Delay: d.Cfg.SettlementDelay, Logger: d.Logger}
	if d.River != nil {
		confirmer = purchase.NewRiverConfirmer(d.River, d.Cfg.SettlementDelay)
	}
	purchaseSvc, err := purchase.NewService(engine, orderRepo, accountSvc, confirmer, notifier, d.Logger)
	if err != nil {
		return err
	}
	if d.SettleWorker != nil {
		d.SettleWorker.Bind(purchaseSvc)
	}
	hallSvc := hall.NewService(engine, hallRepo, notifier, d.Logger)
	board := leaderboard.Static()

	api := app.Group("/api/v1")
	requireSession := middleware.Session(sessions, d.Logger)

	RegisterCatalogRoutes(api, board)
	RegisterAccountRoutes(api, account.NewHandler(accountSvc, sessions, d.Logger), requireSession)
	RegisterPortalRoutes(api, board, requireSession)

	hallGroup := api.Group("/hall", requireSession)
	var idempotency []fiber.Handler
	if d.Cache != nil {
		idempotency = append(idempotency, middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}
	RegisterPurchaseRoutes(hallGroup, purchase.NewHandler(purchaseSvc, accountSvc, sessions, d.Logger), idempotency...)
	RegisterHallRoutes(hallGroup, hall.NewHandler(hallSvc))

	return nil
}
