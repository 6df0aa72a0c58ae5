package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Routing-API Metrics
var (
	// Request counters
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "leadchat",
			Subsystem: "routing_api",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// Request duration histogram
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "leadchat",
			Subsystem: "routing_api",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"method", "endpoint", "status"},
	)

	// Control transitions
	TransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "leadchat",
			Subsystem: "routing_api",
			Name:      "transitions_total",
			Help:      "Conversation control transitions by target status and outcome",
		},
		[]string{"to_status", "outcome"},
	)

	// Outbound deliveries
	DeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "leadchat",
			Subsystem: "routing_api",
			Name:      "deliveries_total",
			Help:      "Outbound delivery attempts by context and status",
		},
		[]string{"context", "status"},
	)

	// Reconciliation outcomes
	ReconciledRowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "leadchat",
			Subsystem: "routing_api",
			Name:      "reconciled_rows_total",
			Help:      "Channel log rows examined by reconciliation, by outcome",
		},
		[]string{"outcome"},
	)

	// Resend sweeps
	ResendsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "leadchat",
			Subsystem: "routing_api",
			Name:      "resends_total",
			Help:      "Resend attempts by outcome",
		},
		[]string{"status"},
	)

	// Emergency token validations
	TokenValidationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "leadchat",
			Subsystem: "routing_api",
			Name:      "token_validations_total",
			Help:      "Emergency token validation attempts",
		},
		[]string{"valid"},
	)

	// Login rate-limit checks
	LoginChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "leadchat",
			Subsystem: "routing_api",
			Name:      "login_checks_total",
			Help:      "Login rate-limit checks by result",
		},
		[]string{"blocked"},
	)
)

// RecordRequest records an HTTP request with all relevant labels
func RecordRequest(method, endpoint, status string, durationSec float64) {
	RequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	RequestDuration.WithLabelValues(method, endpoint, status).Observe(durationSec)
}

// RecordTransition records one control transition attempt
func RecordTransition(toStatus, outcome string) {
	TransitionsTotal.WithLabelValues(toStatus, outcome).Inc()
}

// RecordDelivery records one outbound delivery attempt
func RecordDelivery(contextType, status string) {
	DeliveriesTotal.WithLabelValues(contextType, status).Inc()
}

// RecordReconcileOutcome records one examined channel log row
func RecordReconcileOutcome(outcome string) {
	ReconciledRowsTotal.WithLabelValues(outcome).Inc()
}

// RecordResend records one resend attempt
func RecordResend(status string) {
	ResendsTotal.WithLabelValues(status).Inc()
}

// RecordTokenValidation records an emergency token validation attempt
func RecordTokenValidation(valid bool) {
	v := "false"
	if valid {
		v = "true"
	}
	TokenValidationsTotal.WithLabelValues(v).Inc()
}

// RecordLoginCheck records a login rate-limit check
func RecordLoginCheck(blocked bool) {
	b := "false"
	if blocked {
		b = "true"
	}
	LoginChecksTotal.WithLabelValues(b).Inc()
}
