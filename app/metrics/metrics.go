// Package metrics registers the service's Prometheus collectors. Labels are
// kept to registered route paths and coarse outcomes to bound cardinality.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// HTTPRequests counts requests by method, registered route, and status.
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPDuration records request duration in seconds by method and route.
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// GatewayRequests counts calls to the external gateway by operation and
	// outcome (ok or error).
	GatewayRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_requests_total",
			Help: "Total number of external gateway calls.",
		},
		[]string{"op", "outcome"},
	)

	// WebhookDeliveries counts merchant webhook delivery sequences by final
	// outcome (delivered, exhausted, skipped).
	WebhookDeliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_deliveries_total",
			Help: "Total number of merchant webhook delivery sequences.",
		},
		[]string{"outcome"},
	)

	// WebhookAttempts counts individual webhook delivery attempts by result.
	WebhookAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_attempts_total",
			Help: "Total number of individual webhook delivery attempts.",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequests, HTTPDuration, GatewayRequests, WebhookDeliveries, WebhookAttempts)
}
