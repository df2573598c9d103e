package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Request metrics, labeled by operation, pipeline, winning model and
// provider, and outcome (ok or the error kind).
var (
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_requests_total",
		Help: "Requests served, by operation, pipeline, model, provider, and outcome.",
	}, []string{"operation", "pipeline", "model_key", "provider_type", "outcome"})

	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gateway_request_duration_seconds",
		Help:    "End-to-end request latency. For streams this covers until the last chunk.",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
	}, []string{"operation", "pipeline", "outcome"})

	StreamChunks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_stream_chunks_total",
		Help: "SSE chunks delivered to clients.",
	}, []string{"pipeline", "model_key"})

	ConfigReloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_config_reloads_total",
		Help: "Configuration reload attempts by result.",
	}, []string{"result"})
)
