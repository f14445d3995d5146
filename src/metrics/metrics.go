package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ascension_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ascension_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// Edge routing metrics
	EdgeRouteDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ascension_edge_route_decisions_total",
			Help: "Total number of hostname classification decisions",
		},
		[]string{"class"},
	)

	// Domain verification metrics
	VerificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ascension_domain_verifications_total",
			Help: "Total number of domain verification passes",
		},
		[]string{"result"},
	)

	// Route cache metrics
	RouteCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ascension_route_cache_hits_total",
			Help: "Total number of route cache hits",
		},
	)

	RouteCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ascension_route_cache_misses_total",
			Help: "Total number of route cache misses",
		},
	)
)

// RecordRouteDecision increments the counter for a classification outcome.
func RecordRouteDecision(class string) {
	EdgeRouteDecisions.WithLabelValues(class).Inc()
}

// RecordVerification increments the counter for a verification result.
func RecordVerification(result string) {
	VerificationsTotal.WithLabelValues(result).Inc()
}

// RecordRouteCache increments the hit or miss counter.
func RecordRouteCache(hit bool) {
	if hit {
		RouteCacheHits.Inc()
	} else {
		RouteCacheMisses.Inc()
	}
}
