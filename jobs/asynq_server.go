package jobs

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"

	"github.com/dealsync/dealsync/internal/dealsync"
	jobmetrics "github.com/dealsync/dealsync/internal/jobs"
	"github.com/dealsync/dealsync/internal/platform/httpx"
)

// Worker wraps the Asynq server.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	logger *slog.Logger
}

// TaskHandler allows injecting custom Asynq handlers during worker setup.
type TaskHandler struct {
	Type    string
	Handler asynq.HandlerFunc
}

// WorkerConfig collects dependencies required to bootstrap the worker.
type WorkerConfig struct {
	RedisOpts   asynq.RedisClientOpt
	Logger      *slog.Logger
	Concurrency int
	Handlers    []TaskHandler
}

// NewWorker constructs a Worker instance.
func NewWorker(cfg WorkerConfig) (*Worker, error) {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 5
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	srv := asynq.NewServer(cfg.RedisOpts, asynq.Config{
		Concurrency: cfg.Concurrency,
		Queues: map[string]int{
			QueueDefault: 1,
		},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			cfg.Logger.Error("task failed", slog.String("type", task.Type()), slog.Any("error", err))
		}),
	})
	mux := asynq.NewServeMux()
	for _, h := range cfg.Handlers {
		if h.Type == "" || h.Handler == nil {
			continue
		}
		mux.HandleFunc(h.Type, h.Handler)
	}

	return &Worker{server: srv, mux: mux, logger: cfg.Logger}, nil
}

// Run starts processing jobs until context cancellation.
func (w *Worker) Run(ctx context.Context) error {
	if w == nil {
		return errors.New("worker: not configured")
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- w.server.Run(w.mux)
	}()
	select {
	case <-ctx.Done():
		w.server.Shutdown()
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// Client submits jobs to the queue.
type Client struct {
	client  *asynq.Client
	metrics *jobmetrics.Metrics
}

// NewClient constructs an Asynq client.
func NewClient(redisOpts asynq.RedisClientOpt, metrics *jobmetrics.Metrics) *Client {
	return &Client{client: asynq.NewClient(redisOpts), metrics: metrics}
}

// EnqueueDealSync enqueues a deal sync task.
func (c *Client) EnqueueDealSync(ctx context.Context, req dealsync.SyncRequest) (string, string, error) {
	task, err := NewDealSyncTask(req)
	if err != nil {
		return "", "", err
	}
	info, err := c.client.EnqueueContext(ctx, task)
	if err != nil {
		return "", "", err
	}
	c.metrics.Enqueued(TaskDealSync, info.Queue)
	return info.ID, info.Queue, nil
}

// Close releases client resources.
func (c *Client) Close() error {
	return c.client.Close()
}

// QueueInspector reports queue depth.
type QueueInspector interface {
	GetQueueInfo(queue string) (*asynq.QueueInfo, error)
}

// Handler exposes HTTP endpoints for job observability.
type Handler struct {
	inspector QueueInspector
	logger    *slog.Logger
}

// NewHandler constructs an HTTP handler for jobs endpoints. inspector may
// be nil when no queue is configured.
func NewHandler(inspector QueueInspector, logger *slog.Logger) *Handler {
	return &Handler{inspector: inspector, logger: logger}
}

// MountRoutes attaches job routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/health", h.health)
}

type queueHealth struct {
	Queue    string `json:"queue"`
	Enabled  bool   `json:"enabled"`
	Pending  int    `json:"pending"`
	Active   int    `json:"active"`
	Archived int    `json:"archived"`
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if h.inspector == nil {
		httpx.JSON(w, http.StatusOK, queueHealth{Queue: QueueDefault})
		return
	}
	info, err := h.inspector.GetQueueInfo(QueueDefault)
	if err != nil {
		h.logger.Warn("jobs health", slog.Any("error", err))
		httpx.Fail(w, http.StatusServiceUnavailable, "Queue unavailable", nil)
		return
	}
	out := queueHealth{Queue: QueueDefault, Enabled: true}
	if info != nil {
		out.Queue = info.Queue
		out.Pending = info.Pending
		out.Active = info.Active
		out.Archived = info.Archived
	}
	httpx.JSON(w, http.StatusOK, out)
}
