package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/meridian-erp/meridian-erp/internal/acquisitions"
	"github.com/meridian-erp/meridian-erp/internal/app"
	"github.com/meridian-erp/meridian-erp/internal/auth"
	"github.com/meridian-erp/meridian-erp/internal/authz"
	"github.com/meridian-erp/meridian-erp/internal/masterdata/clients"
	"github.com/meridian-erp/meridian-erp/internal/masterdata/suppliers"
	"github.com/meridian-erp/meridian-erp/internal/masterdata/transports"
	"github.com/meridian-erp/meridian-erp/internal/materials"
	"github.com/meridian-erp/meridian-erp/internal/observability"
	"github.com/meridian-erp/meridian-erp/internal/orders"
	"github.com/meridian-erp/meridian-erp/internal/platform/cache"
	"github.com/meridian-erp/meridian-erp/internal/platform/db"
	"github.com/meridian-erp/meridian-erp/internal/production"
	"github.com/meridian-erp/meridian-erp/internal/shared"
	"github.com/meridian-erp/meridian-erp/internal/users"
	"github.com/meridian-erp/meridian-erp/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, cfg.SessionCookie, cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	statsCache := cache.NewJSONCache(redisClient, cfg.StatsTTL)
	auditLogger := shared.NewAuditLogger(dbpool)
	metrics := observability.NewMetrics()
	mw := authz.Middleware{Logger: logger}

	usersRepo := users.NewRepository(dbpool)
	usersService := users.NewService(usersRepo)
	usersHandler := users.NewHandler(logger, usersService, mw)

	authService := auth.NewService(usersRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager, csrfManager)

	acquisitionsService := acquisitions.NewService(acquisitions.NewRepository(dbpool), auditLogger, statsCache, metrics)
	acquisitionsHandler := acquisitions.NewHandler(logger, acquisitionsService, mw)

	ordersService := orders.NewService(orders.NewRepository(dbpool), auditLogger, statsCache, metrics)
	ordersHandler := orders.NewHandler(logger, ordersService, mw)

	materialsService := materials.NewService(materials.NewRepository(dbpool), auditLogger, statsCache, metrics)
	materialsHandler := materials.NewHandler(logger, materialsService, mw)

	productionService := production.NewService(production.NewRepository(dbpool), auditLogger, statsCache, metrics)
	productionHandler := production.NewHandler(logger, productionService, mw)

	clientsHandler := clients.NewHandler(logger, clients.NewService(clients.NewRepository(dbpool)), mw)
	suppliersHandler := suppliers.NewHandler(logger, suppliers.NewService(suppliers.NewRepository(dbpool)), mw)
	transportsHandler := transports.NewHandler(logger, transports.NewService(transports.NewRepository(dbpool)), mw)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobsHandler := jobs.NewHandler(inspector, logger)

	jobsClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()
	// Prime the statistics caches right away instead of waiting for the
	// worker's next cron tick.
	if _, err := jobsClient.EnqueueStatsWarmup(ctx, jobs.StatsWarmupPayload{}); err != nil {
		logger.Warn("enqueue stats warmup", slog.Any("error", err))
	}

	router := app.NewRouter(app.RouterParams{
		Logger:              logger,
		Config:              cfg,
		SessionManager:      sessionManager,
		CSRFManager:         csrfManager,
		AuthHandler:         authHandler,
		AcquisitionsHandler: acquisitionsHandler,
		OrdersHandler:       ordersHandler,
		MaterialsHandler:    materialsHandler,
		ProductionHandler:   productionHandler,
		ClientsHandler:      clientsHandler,
		SuppliersHandler:    suppliersHandler,
		TransportsHandler:   transportsHandler,
		UsersHandler:        usersHandler,
		JobsHandler:         jobsHandler,
		Metrics:             metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
