package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SubscribersCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "subscribers_created_total",
			Help: "Total number of subscribers created",
		},
	)

	Confirmations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "subscriber_confirmations_total",
			Help: "Total number of subscribers confirmed",
		},
	)

	DispatchEnqueues = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "confirmation_enqueue_total",
			Help: "Confirmation dispatch enqueue attempts",
		},
		[]string{"status"}, // status: ok, error
	)

	DispatchOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "confirmation_dispatch_total",
			Help: "Confirmation dispatch task outcomes",
		},
		[]string{"outcome"}, // outcome: sent, noop, retried, dead
	)

	SendLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "confirmation_send_latency_ms",
			Help:    "Confirmation email send latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(10, 2, 10), // 10ms to ~10s
		},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)
)

func IncrementSubscribersCreated() {
	SubscribersCreated.Inc()
}

func IncrementConfirmations() {
	Confirmations.Inc()
}

func IncrementDispatchEnqueue(status string) {
	DispatchEnqueues.WithLabelValues(status).Inc()
}

func IncrementDispatchOutcome(outcome string) {
	DispatchOutcomes.WithLabelValues(outcome).Inc()
}

func RecordSendLatency(duration time.Duration) {
	SendLatency.Observe(float64(duration.Milliseconds()))
}

func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}
