package metrics

import "github.com/prometheus/client_golang/prometheus"

// Ranking pipeline metrics. Registered explicitly from the composition root
// (no init()) so tests can construct services without touching the default
// registry.
var (
	// SearchesTotal counts searches by terminal degrade-chain state:
	// hybrid, empty_query, throttled, fallback.
	SearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "expertmatch",
			Name:      "searches_total",
			Help:      "Total searches by degrade-chain state",
		},
		[]string{"state"},
	)

	// SearchDuration observes end-to-end ranking latency.
	SearchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "expertmatch",
			Name:      "search_duration_seconds",
			Help:      "Ranking pipeline duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)

	// SemanticRequestsTotal counts semantic backend calls by outcome.
	SemanticRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "expertmatch",
			Name:      "semantic_requests_total",
			Help:      "Total semantic backend requests",
		},
		[]string{"status"},
	)

	// ThrottledTotal counts requests shunted to the throttled fallback.
	ThrottledTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "expertmatch",
			Name:      "throttled_requests_total",
			Help:      "Total requests served by the rate-limit fallback",
		},
	)
)

// RegisterSearchMetrics registers the ranking pipeline metrics.
func RegisterSearchMetrics() {
	prometheus.MustRegister(
		SearchesTotal,
		SearchDuration,
		SemanticRequestsTotal,
		ThrottledTotal,
	)
}
