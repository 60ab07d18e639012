package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	AnalyticsRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "convoinsight_analytics_requests_total",
			Help: "Analytics requests by metric family and outcome",
		},
		[]string{"metric", "status"},
	)

	ComputeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "convoinsight_compute_duration_seconds",
			Help:    "Metric computation duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"metric"},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "convoinsight_result_cache_hits_total",
			Help: "Analytics result cache hits",
		},
		[]string{"metric"},
	)

	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "convoinsight_result_cache_misses_total",
			Help: "Analytics result cache misses",
		},
		[]string{"metric"},
	)

	StoreFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "convoinsight_store_failures_total",
			Help: "Record store reads that failed after retries",
		},
	)

	IngestedRecords = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "convoinsight_ingested_records_total",
			Help: "Records accepted at the ingest boundary",
		},
		[]string{"kind"},
	)
)

func Init() {
	prometheus.MustRegister(AnalyticsRequests)
	prometheus.MustRegister(ComputeDuration)
	prometheus.MustRegister(CacheHits)
	prometheus.MustRegister(CacheMisses)
	prometheus.MustRegister(StoreFailures)
	prometheus.MustRegister(IngestedRecords)
}

func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
