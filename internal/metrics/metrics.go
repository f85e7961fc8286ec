package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	LifecycleEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "formqueue",
		Subsystem: "lifecycle",
		Name:      "events_total",
		Help:      "Submission lifecycle events persisted, by type.",
	}, []string{"type"})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "formqueue",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route pattern, method and status class.",
	}, []string{"route", "method", "result"})

	HTTPLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "formqueue",
		Subsystem: "http",
		Name:      "latency_seconds",
		Help:      "HTTP request latency by route pattern.",
		Buckets: []float64{
			0.001, 0.005, 0.01, 0.025,
			0.05, 0.1, 0.25, 0.5,
			1, 2.5,
		},
	}, []string{"route"})
)

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// StatusClass maps 404 to "4xx" and so on.
func StatusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
