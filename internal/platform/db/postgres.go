package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// journalMaxConns caps the pool; the sync journal writes one row per run.
const journalMaxConns = 4

// New opens the connection pool backing the sync journal and verifies it
// with a ping bounded by five seconds.
func New(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("platform/db: parse PG_DSN: %w", err)
	}
	if config.MaxConns > journalMaxConns {
		config.MaxConns = journalMaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("platform/db: new pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("platform/db: ping journal database: %w", err)
	}

	return pool, nil
}
