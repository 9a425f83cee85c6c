package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/dealsync/dealsync/internal/dealsync"
	"github.com/dealsync/dealsync/internal/journal"
	"github.com/dealsync/dealsync/internal/observability"
	"github.com/dealsync/dealsync/internal/platform/httpx"
	"github.com/dealsync/dealsync/jobs"
)

// LegacySyncPath is the path the Netlify deployment served the sync on.
const LegacySyncPath = "/.netlify/functions/sync_order"

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SyncHandler    *dealsync.Handler
	JournalHandler *journal.Handler
	JobHandler     *jobs.Handler
	Metrics        *observability.Metrics
}

// NewRouter constructs the chi.Router with service defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}
	r.Use(chimw.Logger)
	r.NotFound(httpx.NotFound)
	r.MethodNotAllowed(httpx.MethodNotAllowed)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{
			"status":  "ok",
			"message": "Pipedrive-Katana sync is running",
		})
	})
	r.Route("/sync", params.SyncHandler.MountRoutes)
	r.Route(LegacySyncPath, params.SyncHandler.MountRoutes)
	if params.JournalHandler != nil {
		r.Route("/runs", params.JournalHandler.MountRoutes)
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}
	return r
}
