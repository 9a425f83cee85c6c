package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/dealsync/dealsync/internal/app"
	"github.com/dealsync/dealsync/internal/dealsync"
	"github.com/dealsync/dealsync/internal/journal"
	"github.com/dealsync/dealsync/jobs"
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

	deps, err := app.NewDeps(ctx, cfg, logger)
	if err != nil {
		logger.Error("init dependencies", slog.Any("error", err))
		os.Exit(1)
	}
	defer deps.Close()

	var (
		enqueuer   dealsync.Enqueuer
		jobHandler *jobs.Handler
	)
	if cfg.RedisAddr != "" {
		redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
		client := jobs.NewClient(redisOpts, deps.JobMetrics)
		defer func() {
			if err := client.Close(); err != nil {
				logger.Warn("queue client close", slog.Any("error", err))
			}
		}()
		inspector := asynq.NewInspector(redisOpts)
		defer func() {
			if err := inspector.Close(); err != nil {
				logger.Warn("inspector close", slog.Any("error", err))
			}
		}()
		enqueuer = client
		jobHandler = jobs.NewHandler(inspector, logger)
	} else {
		jobHandler = jobs.NewHandler(nil, logger)
	}

	var journalHandler *journal.Handler
	if deps.Journal != nil {
		journalHandler = journal.NewHandler(logger, deps.Journal)
	}

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		SyncHandler:    dealsync.NewHandler(logger, deps.Service, enqueuer).WithSyncTimeout(cfg.AppRequestTimeout),
		JournalHandler: journalHandler,
		JobHandler:     jobHandler,
		Metrics:        deps.Metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("http server", slog.Any("error", err))
		os.Exit(1)
	}
}
