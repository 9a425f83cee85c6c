package dealsync

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/dealsync/dealsync/internal/platform/httpx"
)

// Syncer runs one deal sync.
type Syncer interface {
	Sync(ctx context.Context, req SyncRequest) (*Result, error)
}

// Enqueuer hands a sync request to the background queue.
type Enqueuer interface {
	EnqueueDealSync(ctx context.Context, req SyncRequest) (taskID, queue string, err error)
}

// DefaultSyncTimeout bounds an inline sync when no timeout is configured.
const DefaultSyncTimeout = 2 * time.Minute

// Handler exposes the sync pipeline over HTTP.
type Handler struct {
	logger      *slog.Logger
	syncer      Syncer
	enqueuer    Enqueuer
	validator   *validator.Validate
	syncTimeout time.Duration
}

// NewHandler constructs a Handler. enqueuer may be nil, in which case the
// async endpoint answers 503.
func NewHandler(logger *slog.Logger, syncer Syncer, enqueuer Enqueuer) *Handler {
	return &Handler{
		logger:      logger,
		syncer:      syncer,
		enqueuer:    enqueuer,
		validator:   validator.New(),
		syncTimeout: DefaultSyncTimeout,
	}
}

// WithSyncTimeout sets the deadline of an inline sync.
func (h *Handler) WithSyncTimeout(d time.Duration) *Handler {
	if d > 0 {
		h.syncTimeout = d
	}
	return h
}

// MountRoutes registers the sync endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.MethodNotAllowed(httpx.MethodNotAllowed)
	r.Options("/", h.preflight)
	r.Post("/", h.handleSync)
	r.Options("/async", h.preflight)
	r.Post("/async", h.handleEnqueue)
}

func (h *Handler) preflight(w http.ResponseWriter, _ *http.Request) {
	hdr := w.Header()
	hdr.Set("Access-Control-Allow-Origin", "*")
	hdr.Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	hdr.Set("Access-Control-Allow-Headers", "Content-Type")
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) handleSync(w http.ResponseWriter, r *http.Request) {
	req, err := h.decode(r)
	if err != nil {
		h.fail(w, err)
		return
	}

	// A started sync runs to completion even if the client goes away.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), h.syncTimeout)
	defer cancel()

	result, err := h.syncer.Sync(ctx, req)
	if err != nil {
		h.fail(w, err)
		return
	}

	w.Header().Set("Access-Control-Allow-Origin", "*")
	httpx.OK(w, http.StatusCreated, httpx.Envelope{
		"order_id":           result.OrderID,
		"order_no":           result.OrderNo,
		"custom_items_count": result.CustomItemsCount,
	})
}

func (h *Handler) handleEnqueue(w http.ResponseWriter, r *http.Request) {
	if h.enqueuer == nil {
		h.fail(w, ErrQueueUnavailable)
		return
	}
	req, err := h.decode(r)
	if err != nil {
		h.fail(w, err)
		return
	}
	taskID, queue, err := h.enqueuer.EnqueueDealSync(r.Context(), req)
	if err != nil {
		h.logger.Error("enqueue deal sync", slog.String("deal_id", string(req.DealID)), slog.Any("error", err))
		h.fail(w, err)
		return
	}
	w.Header().Set("Access-Control-Allow-Origin", "*")
	httpx.OK(w, http.StatusAccepted, httpx.Envelope{"task_id": taskID, "queue": queue})
}

// decode reads the request body. An empty body or an empty object is
// "no data"; a missing or zero deal_id is rejected before any remote call.
func (h *Handler) decode(r *http.Request) (SyncRequest, error) {
	var req SyncRequest
	var raw map[string]json.RawMessage
	if err := httpx.DecodeJSON(r, &raw); err != nil {
		if errors.Is(err, httpx.ErrEmptyBody) {
			return req, ErrNoData
		}
		return req, err
	}
	if len(raw) == 0 {
		return req, ErrNoData
	}
	payload, err := json.Marshal(raw)
	if err != nil {
		return req, err
	}
	if err := json.Unmarshal(payload, &req); err != nil {
		return req, errors.Join(httpx.ErrMalformedBody, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return req, ErrDealIDRequired
	}
	return req, nil
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	if errors.Is(err, httpx.ErrMalformedBody) {
		httpx.Fail(w, http.StatusBadRequest, httpx.ErrMalformedBody.Error(), nil)
		return
	}
	var extra httpx.Envelope
	var dup *DuplicateOrderError
	if errors.As(err, &dup) {
		extra = httpx.Envelope{"order_id": dup.OrderID, "order_no": dup.OrderNo}
	}
	httpx.Fail(w, StatusFor(err), MessageFor(err), extra)
}
