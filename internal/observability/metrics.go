package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "solace"

// Metrics holds every custom collector of the service
type Metrics struct {
	// AuthDecisions counts authentication outcomes.
	// Labels: mode (local, remote), outcome (success or the rejection kind).
	AuthDecisions *prometheus.CounterVec

	// AuthVerification measures credential verification latency by mode.
	AuthVerification *prometheus.HistogramVec

	// RateLimitRejections counts requests refused with 429.
	RateLimitRejections prometheus.Counter

	// RateLimitStoreErrors counts checks that failed open.
	RateLimitStoreErrors prometheus.Counter

	// HTTPRequests counts responses by route pattern and status code.
	HTTPRequests *prometheus.CounterVec

	// HTTPDuration measures handler latency by route pattern.
	HTTPDuration *prometheus.HistogramVec

	// ReportsGenerated counts reports by type and narrative status.
	ReportsGenerated *prometheus.CounterVec
}

// NewMetrics registers the collectors on reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		AuthDecisions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_decisions_total",
			Help:      "Authentication decisions by verification mode and outcome.",
		}, []string{"mode", "outcome"}),
		AuthVerification: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "auth_verification_seconds",
			Help:      "Time spent verifying a credential.",
			Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"mode"}),
		RateLimitRejections: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_rejections_total",
			Help:      "Requests rejected by the rate limiter.",
		}),
		RateLimitStoreErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_store_errors_total",
			Help:      "Rate limit checks that failed and let the request through.",
		}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP responses by method, route and status code.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP handler latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		ReportsGenerated: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_generated_total",
			Help:      "Generated reports by type and narrative status.",
		}, []string{"type", "narrative_status"}),
	}
}

// ObserveAuth records one authentication attempt
func (m *Metrics) ObserveAuth(mode, outcome string, elapsed time.Duration) {
	m.AuthDecisions.WithLabelValues(mode, outcome).Inc()
	m.AuthVerification.WithLabelValues(mode).Observe(elapsed.Seconds())
}

// RateLimited records a 429
func (m *Metrics) RateLimited() {
	m.RateLimitRejections.Inc()
}

// RateLimitFailedOpen records a store error that let a request through
func (m *Metrics) RateLimitFailedOpen() {
	m.RateLimitStoreErrors.Inc()
}

// ObserveHTTP records one served request
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ReportGenerated records one generated report
func (m *Metrics) ReportGenerated(reportType, narrativeStatus string) {
	m.ReportsGenerated.WithLabelValues(reportType, narrativeStatus).Inc()
}
