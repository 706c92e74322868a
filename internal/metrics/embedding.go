package metrics

import "github.com/prometheus/client_golang/prometheus"

// Embedding provider metrics. Transport-level series are written by
// transport/openai, budget gauges by usecase/embedding and cache counters by
// repository/embcache.
var (
	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "embedding",
			Name:      "requests_total",
			Help:      "Embedding API calls by outcome",
		},
		[]string{"provider", "model", "status"},
	)

	EmbeddingRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "embedding",
			Name:      "request_duration_seconds",
			Help:      "Embedding API call duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"provider", "model"},
	)

	EmbeddingTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "embedding",
			Name:      "tokens_total",
			Help:      "Embedding tokens consumed",
		},
		[]string{"provider", "model", "type"},
	)

	EmbeddingErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "embedding",
			Name:      "errors_total",
			Help:      "Embedding failures by kind",
		},
		[]string{"provider", "model", "error_type"},
	)

	EmbeddingBudgetTokensRemaining = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "embedding",
			Name:      "budget_tokens_remaining",
			Help:      "Tokens left in the current budget window",
		},
		[]string{"provider", "period"},
	)

	// EmbeddingCacheTotal counts run-scoped cache lookups; result is "hit" or "miss".
	EmbeddingCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "embedding",
			Name:      "cache_total",
			Help:      "Run-scoped embedding cache lookups",
		},
		[]string{"result"},
	)
)

var embeddingGroup = group{collectors: []prometheus.Collector{
	EmbeddingRequestsTotal,
	EmbeddingRequestDuration,
	EmbeddingTokensTotal,
	EmbeddingErrorsTotal,
	EmbeddingBudgetTokensRemaining,
	EmbeddingCacheTotal,
}}

// RegisterEmbeddingMetrics registers the embedding metrics. Safe to call repeatedly.
func RegisterEmbeddingMetrics() { embeddingGroup.register() }
