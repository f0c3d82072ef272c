package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for Gemora
type Metrics struct {
	// Command execution metrics
	CommandExecutions *prometheus.CounterVec
	CommandDuration   *prometheus.HistogramVec

	// Gateway metrics
	GatewayRequests *prometheus.CounterVec
	GatewayLatency  *prometheus.HistogramVec
	GatewayErrors   *prometheus.CounterVec

	// Session metrics
	SessionInvalidations *prometheus.CounterVec
	Logins               *prometheus.CounterVec

	// Development backend metrics
	ServerRequests *prometheus.CounterVec

	// Error metrics (by error code from structured errors)
	Errors *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered
func NewMetrics(registry prometheus.Registerer) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		CommandExecutions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gemora_command_executions_total",
				Help: "Total number of command executions",
			},
			[]string{"command", "success"},
		),
		CommandDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gemora_command_duration_seconds",
				Help:    "Command execution duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"command"},
		),

		GatewayRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gemora_gateway_requests_total",
				Help: "Total number of backend requests by method and status class",
			},
			[]string{"method", "status"},
		),
		GatewayLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gemora_gateway_latency_seconds",
				Help:    "Backend request latency in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 15.0},
			},
			[]string{"method"},
		),
		GatewayErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gemora_gateway_errors_total",
				Help: "Total number of rejected backend requests by failure kind",
			},
			[]string{"kind"},
		),

		SessionInvalidations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gemora_session_invalidations_total",
				Help: "Total number of 401 responses, by whether they cleared the session",
			},
			[]string{"outcome"},
		),
		Logins: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gemora_logins_total",
				Help: "Total number of login and registration attempts",
			},
			[]string{"flow", "success"},
		),

		ServerRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gemora_devserver_requests_total",
				Help: "Total number of requests handled by the development backend",
			},
			[]string{"method", "status"},
		),

		Errors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gemora_errors_total",
				Help: "Total number of errors by error code",
			},
			[]string{"error_code"},
		),
	}
}

// StatusClass buckets an HTTP status into "2xx", "4xx" and so on. Zero means
// no response was received.
func StatusClass(status int) string {
	if status <= 0 {
		return "none"
	}
	return fmt.Sprintf("%dxx", status/100)
}
