// Package metrics exposes Prometheus instrumentation for the routing core.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "llmroute"

// LatencyBuckets covers LLM round trips, from sub-second cache hits to
// multi-minute reasoning model completions.
var LatencyBuckets = []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300}

var (
	// RequestsTotal counts chat requests by model, backend and outcome.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Total chat requests by model, backend and status.",
		},
		[]string{"model", "backend", "status"},
	)

	// RequestDuration tracks full request latency in seconds.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Chat request latency by model and backend.",
			Buckets:   LatencyBuckets,
		},
		[]string{"model", "backend"},
	)

	// TimeToFirstToken tracks streaming TTFT in seconds.
	TimeToFirstToken = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "time_to_first_token_seconds",
			Help:      "Time to first streamed token by model and backend.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"model", "backend"},
	)

	// ErrorsTotal counts failures by model and error classification.
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Failed requests by model and error type.",
		},
		[]string{"model", "error_type"},
	)

	// ModelExhaustedTotal counts models marked exhausted after quota errors.
	ModelExhaustedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_exhausted_total",
			Help:      "Times a model was marked exhausted.",
		},
		[]string{"model"},
	)

	// PaidEscalationsTotal counts switches from the free to the paid tier.
	PaidEscalationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "paid_escalations_total",
			Help:      "Times routing escalated to the paid tier.",
		},
	)

	// ContinuationsTotal counts follow-up requests issued after truncation.
	ContinuationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "continuations_total",
			Help:      "Continuation requests issued after length-truncated replies.",
		},
		[]string{"model"},
	)

	// TokensTotal counts token usage by model and direction.
	TokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_total",
			Help:      "Token usage by model and direction (prompt or completion).",
		},
		[]string{"model", "direction"},
	)
)

// RecordRequest records a completed request with its outcome and latency.
func RecordRequest(model, backend, status string, duration time.Duration) {
	RequestsTotal.WithLabelValues(model, backend, status).Inc()
	RequestDuration.WithLabelValues(model, backend).Observe(duration.Seconds())
}

// RecordError records a failed request by error classification.
func RecordError(model, errorType string) {
	ErrorsTotal.WithLabelValues(model, errorType).Inc()
}

// RecordTTFT records the time to first token of a streaming response.
func RecordTTFT(model, backend string, ttft time.Duration) {
	TimeToFirstToken.WithLabelValues(model, backend).Observe(ttft.Seconds())
}

// RecordTokens records prompt and completion token usage.
func RecordTokens(model string, promptTokens, completionTokens int) {
	if promptTokens > 0 {
		TokensTotal.WithLabelValues(model, "prompt").Add(float64(promptTokens))
	}
	if completionTokens > 0 {
		TokensTotal.WithLabelValues(model, "completion").Add(float64(completionTokens))
	}
}
