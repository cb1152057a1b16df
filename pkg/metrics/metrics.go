package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Extractor call latency (milliseconds), labeled by HTTP status.
	ExtractorCallLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "extractor_call_latency_ms",
			Help:    "Feature extractor call latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(100, 2, 10), // 100ms to ~100s
		},
		[]string{"status"},
	)

	// Profile folds by outcome (success, extraction_failed, conflict, error).
	ProfileFoldCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "style_profile_fold_count",
			Help: "Total number of feature vectors folded into style profiles",
		},
		[]string{"outcome"},
	)

	// Single-retry merges after a transaction conflict.
	MergeRetryCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "style_profile_merge_retry_count",
			Help: "Total number of merge transactions retried after a conflict",
		},
	)

	// Profile reads by source (persisted, fallback, absent).
	ProfileReadCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "style_profile_read_count",
			Help: "Total number of profile reads",
		},
		[]string{"source"},
	)

	// MQ consume latency (milliseconds).
	MQConsumeLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mq_consume_latency_ms",
			Help:    "MQ message consumption latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(10, 2, 10), // 10ms to ~10s
		},
		[]string{"routing_key", "queue"},
	)
)

// ObserveExtractorCall records one extractor round trip.
func ObserveExtractorCall(status string, duration time.Duration) {
	ExtractorCallLatency.WithLabelValues(status).Observe(float64(duration.Milliseconds()))
}

// IncrementProfileFold counts one fold attempt by outcome.
func IncrementProfileFold(outcome string) {
	ProfileFoldCount.WithLabelValues(outcome).Inc()
}

// IncrementMergeRetry counts one conflict-triggered retry.
func IncrementMergeRetry() {
	MergeRetryCount.Inc()
}

// IncrementProfileRead counts one profile read by source.
func IncrementProfileRead(source string) {
	ProfileReadCount.WithLabelValues(source).Inc()
}

// ObserveMQConsume records one consumed message.
func ObserveMQConsume(routingKey, queue string, duration time.Duration) {
	MQConsumeLatency.WithLabelValues(routingKey, queue).Observe(float64(duration.Milliseconds()))
}
