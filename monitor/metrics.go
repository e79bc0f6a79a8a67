// Package monitor exposes the gateway's Prometheus metrics.
package monitor

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "polyrelay",
		Name:      "requests_total",
		Help:      "Relay requests by provider, model and HTTP status.",
	}, []string{"provider", "model", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "polyrelay",
		Name:      "request_duration_seconds",
		Help:      "End-to-end relay request latency.",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
	}, []string{"provider", "model"})

	streamChunksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "polyrelay",
		Name:      "stream_chunks_total",
		Help:      "Canonical chunks emitted to streaming callers.",
	}, []string{"provider", "model"})

	promptTokensEstimated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "polyrelay",
		Name:      "prompt_tokens_estimated_total",
		Help:      "Locally estimated prompt tokens, for capacity planning.",
	}, []string{"provider", "model"})
)

func RecordRequest(provider, model string, status int, elapsed time.Duration) {
	requestsTotal.WithLabelValues(provider, model, strconv.Itoa(status)).Inc()
	requestDuration.WithLabelValues(provider, model).Observe(elapsed.Seconds())
}

func RecordStreamChunk(provider, model string) {
	streamChunksTotal.WithLabelValues(provider, model).Inc()
}

func RecordPromptTokens(provider, model string, tokens int) {
	if tokens <= 0 {
		return
	}
	promptTokensEstimated.WithLabelValues(provider, model).Add(float64(tokens))
}
