package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealsync/dealsync/internal/dealsync"
	jobmetrics "github.com/dealsync/dealsync/internal/jobs"
)

type stubSyncer struct {
	got dealsync.SyncRequest
	res *dealsync.Result
	err error
}

func (s *stubSyncer) Sync(_ context.Context, req dealsync.SyncRequest) (*dealsync.Result, error) {
	s.got = req
	return s.res, s.err
}

func dealSyncTask(t *testing.T) *asynq.Task {
	t.Helper()
	task, err := NewDealSyncTask(dealsync.SyncRequest{
		DealID:  "42",
		WonTime: "2024-03-01 10:00:00",
		Products: []dealsync.ProductInput{{
			Name:         "Widget",
			Quantity:     decimal.NewNullDecimal(decimal.NewFromInt(2)),
			PricePerUnit: decimal.NewNullDecimal(decimal.RequireFromString("10.5")),
		}},
	})
	require.NoError(t, err)
	return task
}

func TestNewDealSyncTaskPayload(t *testing.T) {
	task := dealSyncTask(t)
	assert.Equal(t, TaskDealSync, task.Type())

	var req dealsync.SyncRequest
	require.NoError(t, json.Unmarshal(task.Payload(), &req))
	assert.Equal(t, dealsync.DealID("42"), req.DealID)
	require.Len(t, req.Products, 1)
	assert.True(t, req.Products[0].PricePerUnit.Decimal.Equal(decimal.RequireFromString("10.5")))
	assert.False(t, req.Products[0].VATRate.Valid)
}

func TestDealSyncJobHandle(t *testing.T) {
	newJob := func(s *stubSyncer) *DealSyncJob {
		return NewDealSyncJob(s, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))
	}

	t.Run("success", func(t *testing.T) {
		s := &stubSyncer{res: &dealsync.Result{OrderID: 7, OrderNo: "42"}}
		require.NoError(t, newJob(s).Handle(context.Background(), dealSyncTask(t)))
		assert.Equal(t, dealsync.DealID("42"), s.got.DealID)
	})

	t.Run("duplicate completes", func(t *testing.T) {
		s := &stubSyncer{err: &dealsync.DuplicateOrderError{OrderID: 1, OrderNo: "42"}}
		assert.NoError(t, newJob(s).Handle(context.Background(), dealSyncTask(t)))
	})

	t.Run("upstream failure skips retry", func(t *testing.T) {
		s := &stubSyncer{err: errors.New("katana down")}
		err := newJob(s).Handle(context.Background(), dealSyncTask(t))
		assert.ErrorIs(t, err, asynq.SkipRetry)
		assert.Contains(t, err.Error(), "katana down")
	})

	t.Run("bad payload", func(t *testing.T) {
		s := &stubSyncer{}
		err := newJob(s).Handle(context.Background(), asynq.NewTask(TaskDealSync, []byte("{")))
		assert.ErrorIs(t, err, asynq.SkipRetry)
	})
}

type stubInspector struct {
	info *asynq.QueueInfo
	err  error
}

func (s stubInspector) GetQueueInfo(string) (*asynq.QueueInfo, error) {
	return s.info, s.err
}

func TestJobsHealth(t *testing.T) {
	serve := func(h *Handler) (*httptest.ResponseRecorder, map[string]any) {
		r := chi.NewRouter()
		r.Route("/jobs", h.MountRoutes)
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))
		var body map[string]any
		_ = json.Unmarshal(rr.Body.Bytes(), &body)
		return rr, body
	}

	rr, body := serve(NewHandler(nil, nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, false, body["enabled"])

	rr, body = serve(NewHandler(stubInspector{info: &asynq.QueueInfo{Queue: "default", Pending: 3}}, nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, true, body["enabled"])
	assert.EqualValues(t, 3, body["pending"])

	rr, _ = serve(NewHandler(stubInspector{err: errors.New("redis down")}, discardLogger()))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewWorkerRegistersHandlers(t *testing.T) {
	job := NewDealSyncJob(&stubSyncer{}, discardLogger(), nil)
	worker, err := NewWorker(WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: "127.0.0.1:0"},
		Logger:    discardLogger(),
		Handlers: []TaskHandler{
			{Type: TaskDealSync, Handler: job.Handle},
			{Type: "", Handler: job.Handle},
		},
	})
	require.NoError(t, err)

	_, pattern := worker.mux.Handler(dealSyncTask(t))
	assert.Equal(t, TaskDealSync, pattern)

	_, pattern = worker.mux.Handler(asynq.NewTask("other:task", nil))
	assert.Empty(t, pattern)
}
