// Package metrics provides Prometheus instrumentation for the Linguava
// backend: route guard decisions, HTTP request throughput and the tutor
// gateway connection gauge.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// GuardDecisions counts route guard outcomes, labeled by
	// "continue", "redirect" or "fail_open".
	GuardDecisions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "linguava_guard_decisions_total",
		Help: "Route guard decisions by outcome",
	}, []string{"outcome"})

	// HTTPRequests counts handled requests labeled by method and status class.
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "linguava_http_requests_total",
		Help: "HTTP requests by method and status class",
	}, []string{"method", "status"})

	// TutorConnections tracks currently open tutor WebSocket connections.
	TutorConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "linguava_tutor_connections",
		Help: "Currently open tutor WebSocket connections",
	})

	// TutorResponses counts tutor replies labeled by "ok" or "error".
	TutorResponses = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "linguava_tutor_responses_total",
		Help: "Tutor gateway responses by outcome",
	}, []string{"outcome"})
)

func init() {
	prometheus.MustRegister(
		GuardDecisions,
		HTTPRequests,
		TutorConnections,
		TutorResponses,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// StatusClass buckets an HTTP status code into "2xx".."5xx" labels.
func StatusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
