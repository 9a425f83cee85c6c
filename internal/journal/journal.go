// Package journal keeps an append-only record of deal sync runs in
// PostgreSQL.
package journal

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Run statuses.
const (
	StatusCreated   = "created"
	StatusDuplicate = "duplicate"
	StatusRejected  = "rejected"
	StatusFailed    = "failed"
)

// DefaultListLimit bounds ListByDeal when no limit is given.
const DefaultListLimit = 50

//go:embed schema.sql
var schema string

// ErrDealRequired is returned when listing without a deal id.
var ErrDealRequired = errors.New("deal_id required")

// Entry is one sync run.
type Entry struct {
	ID          uuid.UUID `db:"id" json:"id"`
	DealID      string    `db:"deal_id" json:"deal_id"`
	Status      string    `db:"status" json:"status"`
	OrderID     int64     `db:"order_id" json:"order_id,omitempty"`
	OrderNo     string    `db:"order_no" json:"order_no,omitempty"`
	CustomItems int       `db:"custom_items" json:"custom_items"`
	Error       string    `db:"error" json:"error,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// DB is the subset of *pgxpool.Pool the repository uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Repository persists entries.
type Repository struct {
	db DB
}

// NewRepository constructs Repository.
func NewRepository(db DB) *Repository {
	return &Repository{db: db}
}

// EnsureSchema creates the runs table when missing.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("journal: ensure schema: %w", err)
	}
	return nil
}

// Record inserts entry. Re-recording the same run id is a no-op.
func (r *Repository) Record(ctx context.Context, entry Entry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.Exec(ctx, `INSERT INTO deal_sync_runs
		(id, deal_id, status, order_id, order_no, custom_items, error, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING`,
		entry.ID, entry.DealID, entry.Status, entry.OrderID, entry.OrderNo, entry.CustomItems, entry.Error, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("journal: record: %w", err)
	}
	return nil
}

// ListByDeal returns the most recent runs of a deal, newest first.
func (r *Repository) ListByDeal(ctx context.Context, dealID string, limit int) ([]Entry, error) {
	if dealID == "" {
		return nil, ErrDealRequired
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	rows, err := r.db.Query(ctx, `SELECT id, deal_id, status, order_id, order_no, custom_items, error, created_at
		FROM deal_sync_runs WHERE deal_id = $1 ORDER BY created_at DESC LIMIT $2`, dealID, limit)
	if err != nil {
		return nil, fmt.Errorf("journal: list: %w", err)
	}
	entries, err := pgx.CollectRows(rows, pgx.RowToStructByName[Entry])
	if err != nil {
		return nil, fmt.Errorf("journal: scan: %w", err)
	}
	return entries, nil
}
