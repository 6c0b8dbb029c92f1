package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danpasecinic/taskaction/internal/config"
	"github.com/danpasecinic/taskaction/internal/logger"
	"github.com/danpasecinic/taskaction/internal/queue/api"
	"github.com/danpasecinic/taskaction/internal/queue/scheduler"
	"github.com/danpasecinic/taskaction/internal/queue/state"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

var log = logger.NewLogAgent("main")

func main() {
	cfg, err := config.Load(os.Getenv("TASKACTION_CONFIG"))
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.JSON); err != nil {
		_, _ = os.Stderr.WriteString("failed to initialize logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Sync()

	store, closer, err := initStore(cfg.Queue)
	if err != nil {
		log.Error("failed to initialize store", zap.Error(err))
		os.Exit(1)
	}
	if closer != nil {
		defer func() {
			if err := closer(); err != nil {
				log.Warn("error closing store", zap.Error(err))
			}
		}()
	}

	sched := scheduler.NewDependencies(store)
	server := api.NewServer(store, sched, api.NewMetrics(), api.WithPurgeRetention(cfg.Queue.PurgeRetention))

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.GET(
		"/health", func(c echo.Context) error {
			return c.JSON(
				http.StatusOK, map[string]string{
					"status":  "ok",
					"service": "taskaction-queue",
				},
			)
		},
	)

	server.RegisterRoutes(e)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	go server.StartDeadlineChecker(ctx, cfg.Queue.DeadlineInterval)

	go func() {
		if err := e.Start(cfg.Queue.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("shutting down the server", zap.Error(err))
			stop()
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case <-quit:
	case <-ctx.Done():
	}

	log.Info("shutting down server...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", zap.Error(err))
	}

	log.Info("server stopped")
}

// initStore initializes the state store selected by the configuration.
// Returns the store and an optional closer function
func initStore(cfg config.QueueConfig) (state.StateStore, func() error, error) {
	switch cfg.Store {
	case "postgres":
		log.Info("initializing PostgreSQL store")
		pgStore, err := state.NewPostgresStore(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		log.Info("PostgreSQL store initialized successfully")
		return pgStore, pgStore.Close, nil

	default:
		log.Info("using in-memory store (data will not persist)")
		return state.NewInMemoryStore(), nil, nil
	}
}
