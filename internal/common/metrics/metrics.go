// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WizardTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wizard_transitions_total",
			Help: "Total number of wizard step outcomes",
		},
		[]string{"from", "to", "event"},
	)

	WizardStepsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wizard_steps_failed_total",
			Help: "Total number of wizard steps that failed",
		},
		[]string{"event", "error_code"},
	)

	WizardStepsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wizard_steps_in_flight",
			Help: "Number of wizard steps currently waiting on the backend",
		},
	)

	BackendCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backend_calls_total",
			Help: "Total number of calls to the Infinz backend",
		},
		[]string{"endpoint", "outcome"},
	)

	BackendCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "backend_call_duration_seconds",
			Help:    "Duration of backend calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	LeadDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lead_deliveries_total",
			Help: "Total number of lead sink deliveries",
		},
		[]string{"sink", "outcome"},
	)

	ContentCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "content_cache_lookups_total",
			Help: "Content feed cache lookups",
		},
		[]string{"kind", "result"},
	)
)
