package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"

	"github.com/dealsync/dealsync/internal/dealsync"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskDealSync is the task type for an asynchronous deal sync.
	TaskDealSync = "deal:sync"
	// DealSyncTimeout bounds a single queued sync.
	DealSyncTimeout = 5 * time.Minute
)

// NewDealSyncTask constructs an Asynq task for req. Syncs are never
// retried: a failed attempt may already have created Katana records.
func NewDealSyncTask(req dealsync.SyncRequest) (*asynq.Task, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDealSync, data,
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(0),
		asynq.Timeout(DealSyncTimeout),
	), nil
}
