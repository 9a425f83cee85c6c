package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/dealsync/dealsync/internal/app"
	"github.com/dealsync/dealsync/jobs"
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
	if cfg.RedisAddr == "" {
		logger.Error("REDIS_ADDR is required for the worker")
		os.Exit(1)
	}

	deps, err := app.NewDeps(ctx, cfg, logger)
	if err != nil {
		logger.Error("init dependencies", slog.Any("error", err))
		os.Exit(1)
	}
	defer deps.Close()

	dealSyncJob := jobs.NewDealSyncJob(deps.Service, logger, deps.JobMetrics)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskDealSync, Handler: dealSyncJob.Handle},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
