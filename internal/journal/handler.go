package journal

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dealsync/dealsync/internal/platform/httpx"
)

// Lister reads recorded runs.
type Lister interface {
	ListByDeal(ctx context.Context, dealID string, limit int) ([]Entry, error)
}

// Handler serves the run history.
type Handler struct {
	logger *slog.Logger
	lister Lister
}

// NewHandler constructs Handler.
func NewHandler(logger *slog.Logger, lister Lister) *Handler {
	return &Handler{logger: logger, lister: lister}
}

// MountRoutes registers GET /{dealID}.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/{dealID}", h.listRuns)
}

func (h *Handler) listRuns(w http.ResponseWriter, r *http.Request) {
	dealID := chi.URLParam(r, "dealID")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	entries, err := h.lister.ListByDeal(r.Context(), dealID, limit)
	if err != nil {
		if errors.Is(err, ErrDealRequired) {
			httpx.Fail(w, http.StatusBadRequest, err.Error(), nil)
			return
		}
		h.logger.Error("list sync runs", slog.String("deal_id", dealID), slog.Any("error", err))
		httpx.Fail(w, http.StatusInternalServerError, "Failed to list sync runs", nil)
		return
	}
	if entries == nil {
		entries = []Entry{}
	}
	httpx.OK(w, http.StatusOK, httpx.Envelope{"runs": entries})
}
