package client

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// clientMetrics holds the per-request collectors registered when
// Config.Metrics is set. A nil *clientMetrics records nothing.
type clientMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newClientMetrics(reg prometheus.Registerer) (*clientMetrics, error) {
	m := &clientMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "moltbridge_client_requests_total",
			Help: "Total API requests by method, path, and response status.",
		}, []string{"method", "path", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "moltbridge_client_request_duration_seconds",
			Help:    "API request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}
	if err := reg.Register(m.requests); err != nil {
		return nil, fmt.Errorf("register request counter: %w", err)
	}
	if err := reg.Register(m.duration); err != nil {
		return nil, fmt.Errorf("register duration histogram: %w", err)
	}
	return m, nil
}

func (m *clientMetrics) observe(method, path, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, path, status).Inc()
	m.duration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}
