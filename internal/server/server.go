package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"

	"github.com/smartwin-lab/smartwin/internal/config"
	"github.com/smartwin-lab/smartwin/internal/httperr"
	"github.com/smartwin-lab/smartwin/internal/purchase"
	"github.com/smartwin-lab/smartwin/internal/routes"
)

const settleWorkers = 10

// Server wraps the Fiber application, the optional River client and shared
// dependencies.
type Server struct {
	app    *fiber.App
	cfg    config.Config
	river  *river.Client[pgx.Tx]
	logger *slog.Logger
}

// New instantiates the HTTP server and delegates route wiring to routes.Setup.
// With the river settlement backend a River client is built around the
// settle worker and started by Listen.
func New(cfg config.Config, db *pgxpool.Pool, cache *redis.Client, logger *slog.Logger) (*Server, error) {
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		ErrorHandler: httperr.ErrorHandler(logger),
	})

	deps := routes.Deps{Cfg: cfg, DB: db, Cache: cache, Logger: logger}
	if cfg.SettlementBackend == config.SettlementRiver {
		if db == nil {
			return nil, fmt.Errorf("river settlement requires a database")
		}
		worker := purchase.NewSettleWorker()
		workers := river.NewWorkers()
		river.AddWorker(workers, worker)

		client, err := river.NewClient(riverpgxv5.New(db), &river.Config{
			Queues: map[string]river.QueueConfig{
				river.QueueDefault: {MaxWorkers: settleWorkers},
			},
			Workers: workers,
			Logger:  logger,
		})
		if err != nil {
			return nil, fmt.Errorf("create river client: %w", err)
		}
		deps.River = client
		deps.SettleWorker = worker
	}

	if err := routes.Setup(app, deps); err != nil {
		return nil, err
	}

	return &Server{app: app, cfg: cfg, river: deps.River, logger: logger}, nil
}

// App exposes the Fiber application, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen starts the job queue, if any, and then the HTTP server.
func (s *Server) Listen(ctx context.Context) error {
	if s.river != nil {
		if err := s.river.Start(ctx); err != nil {
			return fmt.Errorf("start river: %w", err)
		}
		s.logger.Info("river settlement worker started")
	}
	return s.app.Listen(s.cfg.Address())
}

// Shutdown gracefully stops the HTTP server, then drains the job queue.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.app.ShutdownWithContext(ctx); err != nil {
		return err
	}
	if s.river != nil {
		if err := s.river.Stop(ctx); err != nil {
			return fmt.Errorf("stop river: %w", err)
		}
	}
	return nil
}
