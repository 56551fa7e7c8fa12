package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// The metric names and labels match the ones the transformation service has
// always exported, so existing dashboards keep working.
var (
	requestCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "endpoint", "status"})

	requestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "http_request_duration_seconds",
		Help: "HTTP request latency",
	}, []string{"method", "endpoint"})

	transformDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name: "transform_duration_seconds",
		Help: "Transform processing duration",
	})
)

// Metrics serves the Prometheus text exposition.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}
