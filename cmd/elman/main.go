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

	"github.com/elman-pos/elman/internal/app"
	"github.com/elman-pos/elman/internal/auth"
	"github.com/elman-pos/elman/internal/catalog"
	"github.com/elman-pos/elman/internal/customers"
	"github.com/elman-pos/elman/internal/expenses"
	"github.com/elman-pos/elman/internal/inventory"
	"github.com/elman-pos/elman/internal/observability"
	"github.com/elman-pos/elman/internal/platform/cache"
	"github.com/elman-pos/elman/internal/platform/db"
	"github.com/elman-pos/elman/internal/reports"
	"github.com/elman-pos/elman/internal/sales"
	"github.com/elman-pos/elman/internal/shared"
	"github.com/elman-pos/elman/jobs"
	"github.com/elman-pos/elman/report"
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

	dbpool, err := db.New(ctx, cfg.PGDSN, db.Options{MaxConns: cfg.PGMaxConns})
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	auditLogger := shared.NewAuditLogger(dbpool)
	auditHandler := shared.NewAuditHandler(logger, auditLogger)
	metrics := observability.NewMetrics()
	reportCache := reports.NewCache(redisClient, cfg.ReportCacheTTL)

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo, cfg.JWTSecret, cfg.JWTTTL)
	authHandler := auth.NewHandler(logger, authService)
	authGuard := auth.Middleware{Service: authService, Logger: logger}

	catalogRepo := catalog.NewRepository(dbpool)
	catalogService := catalog.NewService(catalogRepo, auditLogger, reportCache)
	catalogHandler := catalog.NewHandler(logger, catalogService)

	inventoryRepo := inventory.NewRepository(dbpool)
	inventoryService := inventory.NewService(inventoryRepo, auditLogger, reportCache)
	inventoryHandler := inventory.NewHandler(logger, inventoryService)

	customersRepo := customers.NewRepository(dbpool)
	customersService := customers.NewService(customersRepo, auditLogger)
	customersHandler := customers.NewHandler(logger, customersService)

	var receiptRenderer sales.ReceiptRenderer
	var voucherRenderer expenses.VoucherRenderer
	var summaryRenderer reports.SummaryRenderer
	if cfg.GotenbergURL != "" {
		pdfClient := report.NewClient(cfg.GotenbergURL)
		if err := pdfClient.Ping(ctx); err != nil {
			logger.Warn("gotenberg ping", slog.Any("error", err))
		}
		renderer := report.NewRenderer(pdfClient, cfg.ShopName)
		receiptRenderer, voucherRenderer, summaryRenderer = renderer, renderer, renderer
	}

	salesRepo := sales.NewRepository(dbpool)
	salesService := sales.NewService(salesRepo, customersService, auditLogger, reportCache, metrics)
	salesHandler := sales.NewHandler(logger, salesService, receiptRenderer)

	expensesRepo := expenses.NewRepository(dbpool)
	expensesService := expenses.NewService(expensesRepo, auditLogger, reportCache)
	expensesHandler := expenses.NewHandler(logger, expensesService, voucherRenderer)

	reportsRepo := reports.NewRepository(dbpool)
	reportsService := reports.NewService(reportsRepo, reportCache)
	reportsHandler := reports.NewHandler(logger, reportsService, summaryRenderer)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, jobClient, logger)

	router := app.NewRouter(app.RouterDeps{
		Config:    cfg,
		Metrics:   metrics,
		Pool:      dbpool,
		Auth:      authHandler,
		AuthGuard: authGuard,
		Audit:     auditHandler,
		Catalog:   catalogHandler,
		Inventory: inventoryHandler,
		Customers: customersHandler,
		Sales:     salesHandler,
		Expenses:  expensesHandler,
		Reports:   reportsHandler,
		Jobs:      jobHandler,
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
