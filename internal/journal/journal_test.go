package journal

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealsync/dealsync/internal/platform/db"
)

type stubLister struct {
	entries []Entry
	err     error
	limit   int
}

func (s *stubLister) ListByDeal(_ context.Context, dealID string, limit int) ([]Entry, error) {
	s.limit = limit
	if s.err != nil {
		return nil, s.err
	}
	var out []Entry
	for _, e := range s.entries {
		if e.DealID == dealID {
			out = append(out, e)
		}
	}
	return out, nil
}

func TestListRunsHandler(t *testing.T) {
	lister := &stubLister{entries: []Entry{{ID: uuid.New(), DealID: "42", Status: StatusCreated, OrderID: 7}}}
	r := chi.NewRouter()
	r.Route("/runs", NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), lister).MountRoutes)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/runs/42?limit=5", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 5, lister.limit)

	var body struct {
		Success bool    `json:"success"`
		Runs    []Entry `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.True(t, body.Success)
	require.Len(t, body.Runs, 1)
	assert.Equal(t, int64(7), body.Runs[0].OrderID)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/runs/99", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"runs":[]`)
}

func TestListRunsHandlerFailure(t *testing.T) {
	lister := &stubLister{err: assert.AnError}
	r := chi.NewRouter()
	r.Route("/runs", NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), lister).MountRoutes)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/runs/42", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

// TestRepositoryRoundTrip needs a disposable database in JOURNAL_TEST_DSN.
func TestRepositoryRoundTrip(t *testing.T) {
	dsn := os.Getenv("JOURNAL_TEST_DSN")
	if dsn == "" {
		t.Skip("JOURNAL_TEST_DSN not set")
	}
	ctx := context.Background()
	pool, err := db.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	repo := NewRepository(pool)
	require.NoError(t, repo.EnsureSchema(ctx))

	dealID := "test-" + uuid.NewString()
	older := Entry{ID: uuid.New(), DealID: dealID, Status: StatusFailed, Error: "boom", CreatedAt: time.Now().Add(-time.Minute).UTC()}
	newer := Entry{ID: uuid.New(), DealID: dealID, Status: StatusCreated, OrderID: 7, OrderNo: dealID, CustomItems: 1}
	require.NoError(t, repo.Record(ctx, older))
	require.NoError(t, repo.Record(ctx, newer))
	require.NoError(t, repo.Record(ctx, newer))

	entries, err := repo.ListByDeal(ctx, dealID, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, newer.ID, entries[0].ID)
	assert.Equal(t, "boom", entries[1].Error)

	_, err = repo.ListByDeal(ctx, "", 0)
	assert.ErrorIs(t, err, ErrDealRequired)
}
