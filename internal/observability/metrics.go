// Package observability exposes the Prometheus registry of the service.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects the HTTP and deal sync metrics.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	syncsTotal      *prometheus.CounterVec
	syncDuration    prometheus.Histogram
	customItems     prometheus.Counter
}

// NewMetrics initialises the registry and base collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dealsync_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dealsync_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	syncs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dealsync_syncs_total",
		Help: "Deal syncs by outcome.",
	}, []string{"outcome"})
	syncDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "dealsync_sync_duration_seconds",
		Help:    "Wall time of a deal sync including remote calls.",
		Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
	})
	customItems := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dealsync_custom_items_total",
		Help: "Order rows booked against the custom item variant.",
	})
	registry.MustRegister(requests, duration, syncs, syncDuration, customItems)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		syncsTotal:      syncs,
		syncDuration:    syncDuration,
		customItems:     customItems,
	}
}

// Handler returns the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records every HTTP request.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// ObserveSync records one finished deal sync.
func (m *Metrics) ObserveSync(outcome string, customItems int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.syncsTotal.WithLabelValues(outcome).Inc()
	m.syncDuration.Observe(elapsed.Seconds())
	if customItems > 0 {
		m.customItems.Add(float64(customItems))
	}
}

// Registerer exposes the registry for additional collectors.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
