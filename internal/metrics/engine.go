package metrics

import "github.com/prometheus/client_golang/prometheus"

// Engine Prometheus metrics.
var (
	QueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "boardex",
			Name:      "queries_total",
			Help:      "Total number of board query passes",
		},
		[]string{"status"}, // "ok" / "error"
	)

	QueryDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "boardex",
			Name:      "query_duration_seconds",
			Help:      "Board query pass duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)

	DocumentsLoadedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "boardex",
			Name:      "documents_loaded_total",
			Help:      "Total documents loaded from the vault",
		},
		[]string{"result"}, // "ok" / "unavailable" / "error"
	)

	DropResolutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "boardex",
			Name:      "drop_resolutions_total",
			Help:      "Total drop resolutions by outcome",
		},
		[]string{"outcome"}, // "committed" / "cancelled" / "failed"
	)

	TransformFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "boardex",
			Name:      "transform_failures_total",
			Help:      "Total transform expression failures",
		},
		[]string{"stage"}, // "compile" / "runtime"
	)

	BagCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "boardex",
			Name:      "bag_cache_total",
			Help:      "Property-bag cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

var engineMetricsRegistered bool

// RegisterEngineMetrics registers Prometheus engine metrics. Must be called once from main.
func RegisterEngineMetrics() {
	if engineMetricsRegistered {
		return
	}
	prometheus.MustRegister(QueriesTotal)
	prometheus.MustRegister(QueryDuration)
	prometheus.MustRegister(DocumentsLoadedTotal)
	prometheus.MustRegister(DropResolutionsTotal)
	prometheus.MustRegister(TransformFailuresTotal)
	prometheus.MustRegister(BagCacheTotal)
	engineMetricsRegistered = true
}
