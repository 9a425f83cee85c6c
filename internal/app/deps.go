package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/dealsync/dealsync/internal/dealsync"
	jobmetrics "github.com/dealsync/dealsync/internal/jobs"
	"github.com/dealsync/dealsync/internal/journal"
	"github.com/dealsync/dealsync/internal/katana"
	"github.com/dealsync/dealsync/internal/observability"
	"github.com/dealsync/dealsync/internal/pipedrive"
	"github.com/dealsync/dealsync/internal/platform/cache"
	"github.com/dealsync/dealsync/internal/platform/db"
)

// Deps holds the long-lived collaborators shared by the HTTP server and the
// worker. Redis and Postgres are optional.
type Deps struct {
	Logger     *slog.Logger
	Metrics    *observability.Metrics
	JobMetrics *jobmetrics.Metrics
	Redis      *redis.Client
	Pool       *pgxpool.Pool
	Journal    *journal.Repository
	Service    *dealsync.Service
}

// NewDeps connects the optional backends and builds the sync service.
func NewDeps(ctx context.Context, cfg *Config, logger *slog.Logger) (*Deps, error) {
	d := &Deps{Logger: logger, Metrics: observability.NewMetrics()}
	d.JobMetrics = jobmetrics.NewMetrics(d.Metrics.Registerer())

	svcCfg := dealsync.ServiceConfig{
		CRM:       pipedrive.NewClient(cfg.PipedriveConfig()),
		Inventory: katana.NewClient(cfg.KatanaConfig()),
		Settings:  cfg.Settings(),
		Logger:    logger,
		Observer:  d.Metrics,
	}

	if cfg.RedisAddr != "" {
		client, err := cache.New(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, err
		}
		d.Redis = client
		svcCfg.Locker = cache.NewLock(client, cfg.DealLockTTL, logger)
	} else {
		logger.Warn("REDIS_ADDR not set, deal lock and queue disabled")
	}

	if cfg.PGDSN != "" {
		pool, err := db.New(ctx, cfg.PGDSN)
		if err != nil {
			d.Close()
			return nil, err
		}
		d.Pool = pool
		d.Journal = journal.NewRepository(pool)
		if err := d.Journal.EnsureSchema(ctx); err != nil {
			d.Close()
			return nil, fmt.Errorf("journal schema: %w", err)
		}
		svcCfg.Journal = d.Journal
	}

	d.Service = dealsync.NewService(svcCfg)
	return d, nil
}

// Close releases the backend connections.
func (d *Deps) Close() {
	if d == nil {
		return
	}
	if d.Pool != nil {
		d.Pool.Close()
	}
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			d.Logger.Warn("redis close", slog.Any("error", err))
		}
	}
}
