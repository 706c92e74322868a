package metrics

import "github.com/prometheus/client_golang/prometheus"

// Comparison pipeline Prometheus metrics.
var (
	ComparisonRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "comparison_runs_total",
			Help:      "Comparison runs by outcome",
		},
		[]string{"outcome"}, // see compare.outcome
	)

	ComparisonRunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "comparison_run_duration_seconds",
			Help:      "Comparison run duration in seconds",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
		},
	)

	ScrapedEntriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scraped_entries_total",
			Help:      "Test entries ingested per lab",
		},
		[]string{"lab"},
	)

	MatchedNamesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matched_names_total",
			Help:      "Names aligned between the pivot lab and another lab",
		},
		[]string{"source", "target"},
	)
)

var comparisonGroup = group{collectors: []prometheus.Collector{
	ComparisonRunsTotal,
	ComparisonRunDuration,
	ScrapedEntriesTotal,
	MatchedNamesTotal,
}}

// RegisterComparisonMetrics registers the pipeline metrics. Safe to call repeatedly.
func RegisterComparisonMetrics() { comparisonGroup.register() }
