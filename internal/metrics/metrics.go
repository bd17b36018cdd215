package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_code", "service"},
	)

	HttpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "service"},
	)

	// Analysis metrics
	AnalysesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mindtrack_analyses_total",
			Help: "Total number of text analyses",
		},
		[]string{"sentiment", "source"},
	)

	RecommendationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mindtrack_recommendations_total",
			Help: "Total number of recommendation sets by provider",
		},
		[]string{"provider"},
	)

	ExtractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mindtrack_extractions_total",
			Help: "Total number of social media extractions",
		},
		[]string{"platform", "method", "status"},
	)

	ExtractionCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mindtrack_extraction_cache_hits_total",
			Help: "Total number of extractions answered from the cache",
		},
	)

	// Timeline and events
	TimelineOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mindtrack_timeline_operations_total",
			Help: "Total number of timeline repository operations",
		},
		[]string{"operation", "driver", "status"},
	)

	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mindtrack_events_published_total",
			Help: "Total number of analysis events published",
		},
		[]string{"driver", "status"},
	)

	ClassifierHealthy = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mindtrack_classifier_healthy",
			Help: "1 when the remote classifier answered its last health check",
		},
	)

	ApplicationInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "application_info",
			Help: "Application information",
		},
		[]string{"service", "version", "environment"},
	)
)

func Init(serviceName, version, environment string) {
	ApplicationInfo.WithLabelValues(serviceName, version, environment).Set(1)
}
