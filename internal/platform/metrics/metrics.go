package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the platform-level Prometheus metrics shared across handlers.
// Feature packages register their own metrics next to their services.
type Metrics struct {
	HTTPRequestDuration *prometheus.HistogramVec
}

// New creates and registers the platform metrics.
func New() *Metrics {
	return &Metrics{
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fiscus_http_request_duration_seconds",
			Help:    "HTTP request latency by method, route pattern, and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

// ObserveHTTPRequest records one request's latency.
func (m *Metrics) ObserveHTTPRequest(method, route string, status int, seconds float64) {
	m.HTTPRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(seconds)
}
