package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the gateway.
type Metrics struct {
	RequestTotal      *prometheus.CounterVec
	RequestDurationMs *prometheus.HistogramVec
	UpstreamLatencyMs *prometheus.HistogramVec
	FilterActionTotal *prometheus.CounterVec
	RateLimitedTotal  *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		RequestTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "zhenzhen_request_total",
			Help: "Total number of chat requests processed, by outcome kind.",
		}, []string{"kind", "model"}),

		RequestDurationMs: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "zhenzhen_request_duration_ms",
			Help:    "Total request duration in milliseconds (including upstream latency).",
			Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000},
		}, []string{"kind"}),

		UpstreamLatencyMs: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "zhenzhen_upstream_latency_ms",
			Help:    "Upstream completion call latency in milliseconds.",
			Buckets: []float64{100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000},
		}, []string{"model"}),

		FilterActionTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "zhenzhen_filter_action_total",
			Help: "Total answer filter actions taken.",
		}, []string{"filter", "action"}),

		RateLimitedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "zhenzhen_rate_limited_total",
			Help: "Total requests rejected by the rate limiter.",
		}, []string{"user"}),
	}
}

// RecordRequest records a completed chat request.
func (m *Metrics) RecordRequest(kind, model string, durationMs float64) {
	m.RequestTotal.WithLabelValues(kind, model).Inc()
	m.RequestDurationMs.WithLabelValues(kind).Observe(durationMs)
}

// RecordUpstreamLatency records one upstream completion call.
func (m *Metrics) RecordUpstreamLatency(model string, durationMs float64) {
	m.UpstreamLatencyMs.WithLabelValues(model).Observe(durationMs)
}

// RecordFilterAction records an answer filter action.
func (m *Metrics) RecordFilterAction(filter, action string) {
	m.FilterActionTotal.WithLabelValues(filter, action).Inc()
}

// RecordRateLimited records a rate-limited request.
func (m *Metrics) RecordRateLimited(user string) {
	m.RateLimitedTotal.WithLabelValues(user).Inc()
}
