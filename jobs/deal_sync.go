package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hibiken/asynq"

	"github.com/dealsync/dealsync/internal/dealsync"
	jobmetrics "github.com/dealsync/dealsync/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// DealSyncJob runs queued deal syncs.
type DealSyncJob struct {
	Syncer  dealsync.Syncer
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewDealSyncJob wires dependencies for the deal sync handler.
func NewDealSyncJob(syncer dealsync.Syncer, logger *slog.Logger, metrics *jobmetrics.Metrics) *DealSyncJob {
	return &DealSyncJob{Syncer: syncer, Logger: logger, Metrics: metrics}
}

// Handle processes TaskDealSync tasks. Rejections such as an existing order
// complete the task; upstream failures archive it without retry.
func (j *DealSyncJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Syncer == nil {
		return errors.New("deal sync: handler not configured")
	}
	var req dealsync.SyncRequest
	if err := json.Unmarshal(t.Payload(), &req); err != nil {
		return fmt.Errorf("deal sync: decode payload: %w", asynq.SkipRetry)
	}

	tracker := j.metrics().Track(TaskDealSync)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.String("deal_id", string(req.DealID)))
	result, err := j.Syncer.Sync(ctx, req)
	if err != nil {
		if dealsync.StatusFor(err) < http.StatusInternalServerError {
			logger.Info("queued deal sync rejected", slog.String("reason", dealsync.MessageFor(err)))
			return nil
		}
		return fmt.Errorf("deal sync %s: %s: %w", req.DealID, dealsync.MessageFor(err), asynq.SkipRetry)
	}
	logger.Info("queued deal sync completed", slog.Int64("order_id", result.OrderID), slog.Int("custom_items", result.CustomItemsCount))
	return nil
}

func (j *DealSyncJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *DealSyncJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
