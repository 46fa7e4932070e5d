package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder exports metrics through a Prometheus registry.
type PrometheusRecorder struct {
	calculations        *prometheus.CounterVec
	calculationDuration prometheus.Histogram
	historyAppended     prometheus.Counter
	historyDeleted      prometheus.Counter
	signUps             *prometheus.CounterVec
	signIns             *prometheus.CounterVec
	rateLimited         *prometheus.CounterVec
}

// NewPrometheus creates a PrometheusRecorder and registers its collectors on reg.
func NewPrometheus(reg prometheus.Registerer) *PrometheusRecorder {
	p := &PrometheusRecorder{
		calculations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "abacus_calculations_total",
			Help: "Compute requests by operation and outcome.",
		}, []string{"operation", "status"}),
		calculationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "abacus_calculation_duration_seconds",
			Help:    "Time spent validating, computing and formatting a result.",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 8),
		}),
		historyAppended: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "abacus_history_appended_total",
			Help: "History records written.",
		}),
		historyDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "abacus_history_deleted_total",
			Help: "History records deleted.",
		}),
		signUps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "abacus_signups_total",
			Help: "Credential sign-up attempts by outcome.",
		}, []string{"status"}),
		signIns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "abacus_signins_total",
			Help: "Sign-in attempts by method and outcome.",
		}, []string{"method", "status"}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "abacus_rate_limited_total",
			Help: "Requests rejected by a rate limiter.",
		}, []string{"scope"}),
	}

	reg.MustRegister(
		p.calculations,
		p.calculationDuration,
		p.historyAppended,
		p.historyDeleted,
		p.signUps,
		p.signIns,
		p.rateLimited,
	)

	return p
}

func (p *PrometheusRecorder) IncCalculation(operation, status string) {
	p.calculations.WithLabelValues(operation, status).Inc()
}

func (p *PrometheusRecorder) ObserveCalculationDuration(duration time.Duration) {
	p.calculationDuration.Observe(duration.Seconds())
}

func (p *PrometheusRecorder) IncHistoryAppended() {
	p.historyAppended.Inc()
}

func (p *PrometheusRecorder) IncHistoryDeleted() {
	p.historyDeleted.Inc()
}

func (p *PrometheusRecorder) IncSignUp(status string) {
	p.signUps.WithLabelValues(status).Inc()
}

func (p *PrometheusRecorder) IncSignIn(method, status string) {
	p.signIns.WithLabelValues(method, status).Inc()
}

func (p *PrometheusRecorder) IncRateLimited(scope string) {
	p.rateLimited.WithLabelValues(scope).Inc()
}

// Handler returns the scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

var (
	_ Recorder = (*PrometheusRecorder)(nil)
	_ Recorder = (*InMemoryRecorder)(nil)
	_ Recorder = (*NoopRecorder)(nil)
)
