package metrics

import "github.com/prometheus/client_golang/prometheus"

// Query resolution and composition metrics.
var (
	ResolveTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "facetdash",
			Name:      "resolve_total",
			Help:      "Total number of registry resolution runs",
		},
		[]string{"status"},
	)

	ResolveDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "facetdash",
			Name:      "resolve_duration_seconds",
			Help:      "Registry resolution duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)

	ResolvedQueries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "facetdash",
			Name:      "resolved_queries",
			Help:      "Number of concrete queries produced by the last successful resolution",
		},
	)

	ComposeTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "facetdash",
			Name:      "compose_total",
			Help:      "Total number of composed query/filter trees by placement of registry queries",
		},
		[]string{"placement"}, // "query" / "filter" / "none"
	)

	SessionsLoaded = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "facetdash",
			Name:      "sessions_loaded",
			Help:      "Number of dashboard sessions held in memory",
		},
	)

	DashboardSaves = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "facetdash",
			Name:      "dashboard_saves_total",
			Help:      "Total number of dashboard document writes",
		},
		[]string{"status"}, // "ok" / "error"
	)
)

var queryMetricsRegistered bool

// RegisterQueryMetrics registers resolution, composition and session metrics. Must be called once from main.
func RegisterQueryMetrics() {
	if queryMetricsRegistered {
		return
	}
	prometheus.MustRegister(ResolveTotal)
	prometheus.MustRegister(ResolveDuration)
	prometheus.MustRegister(ResolvedQueries)
	prometheus.MustRegister(ComposeTotal)
	prometheus.MustRegister(SessionsLoaded)
	prometheus.MustRegister(DashboardSaves)
	queryMetricsRegistered = true
}
