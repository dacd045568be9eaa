package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/elman-pos/elman/internal/app"
	"github.com/elman-pos/elman/internal/platform/cache"
	"github.com/elman-pos/elman/internal/platform/db"
	"github.com/elman-pos/elman/internal/reports"
	"github.com/elman-pos/elman/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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

	pool, err := db.New(ctx, cfg.PGDSN, db.Options{MaxConns: cfg.PGMaxConns})
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

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

	reportsRepo := reports.NewRepository(pool)
	reportsCache := reports.NewCache(redisClient, cfg.ReportCacheTTL)
	reportsService := reports.NewService(reportsRepo, reportsCache)

	scanTask, err := jobs.NewLowStockScanTask()
	if err != nil {
		logger.Error("build low stock task", slog.Any("error", err))
		os.Exit(1)
	}
	warmupTask, err := jobs.NewReportsWarmupTask()
	if err != nil {
		logger.Error("build warmup task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskLowStockScan, Handler: jobs.NewLowStockScanHandler(reportsService, logger)},
			{Type: jobs.TaskReportsWarmup, Handler: jobs.NewReportsWarmupHandler(reportsService, logger)},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.LowStockCron, Task: scanTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "45 5 * * *", Task: warmupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("worker started")
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("worker stopped")
}
