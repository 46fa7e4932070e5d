package handler

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/abacus-app/abacus/internal/metrics"
)

// MetricsHandler serves the Prometheus scrape endpoint.
type MetricsHandler struct {
	scrape http.Handler
}

// NewMetricsHandler creates a new MetricsHandler over gatherer.
func NewMetricsHandler(gatherer prometheus.Gatherer) *MetricsHandler {
	return &MetricsHandler{scrape: metrics.Handler(gatherer)}
}

// Metrics returns metrics in Prometheus exposition format.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.scrape == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	h.scrape.ServeHTTP(w, r)
}
