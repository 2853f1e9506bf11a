// Package metrics registers the service-level prometheus collectors and
// exposes the scrape handler mounted by the main entrypoint.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "districtapi_requests_total",
		Help: "Total number of /api/district requests",
	})
	RequestDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "districtapi_request_duration_ms",
		Help:    "Request duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000},
	})
	EmptyResultsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "districtapi_empty_results_total",
		Help: "Total number of responses with no district information",
	})
	MultiDistrictTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "districtapi_multi_district_total",
		Help: "Total lookups that resolved to more than one district",
	})
	CacheHitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "districtapi_cache_hits_total",
		Help: "Engine cache hits by tier",
	}, []string{"tier"})
	DatasetFallbacksTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "districtapi_dataset_fallbacks_total",
		Help: "Lookups answered by the dataset index or missed entirely",
	})
	RedisHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "districtapi_redis_hits_total",
		Help: "Total redis response-cache hits",
	})
	RedisMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "districtapi_redis_misses_total",
		Help: "Total redis response-cache misses",
	})
)

func init() {
	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(RequestDurationMs)
	prometheus.MustRegister(EmptyResultsTotal)
	prometheus.MustRegister(MultiDistrictTotal)
	prometheus.MustRegister(CacheHitsTotal)
	prometheus.MustRegister(DatasetFallbacksTotal)
	prometheus.MustRegister(RedisHitsTotal)
	prometheus.MustRegister(RedisMissesTotal)
}

// Handler returns the scrape endpoint for the registered collectors.
func Handler() http.Handler { return promhttp.Handler() }
