package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kinocatalog",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests by method, route and status code.",
	}, []string{"method", "route", "status"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "kinocatalog",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds.",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.3, 0.5, 1, 2, 5},
	}, []string{"method", "route"})

	UpstreamRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kinocatalog",
		Name:      "tmdb_requests_total",
		Help:      "Total TMDB requests by endpoint and result status.",
	}, []string{"endpoint", "status"})

	UpstreamRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "kinocatalog",
		Name:      "tmdb_request_duration_seconds",
		Help:      "TMDB request duration in seconds.",
		Buckets:   []float64{0.05, 0.1, 0.3, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	CacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "kinocatalog",
		Name:      "tmdb_cache_hits_total",
		Help:      "Total TMDB responses served from the Redis cache.",
	})

	CacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "kinocatalog",
		Name:      "tmdb_cache_misses_total",
		Help:      "Total TMDB cache misses.",
	})

	StaleResponsesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kinocatalog",
		Name:      "stale_responses_total",
		Help:      "Responses discarded because a newer request superseded them.",
	}, []string{"pipeline"})

	ActiveSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "kinocatalog",
		Name:      "active_sessions",
		Help:      "Client sessions currently held in memory.",
	})

	WebSocketClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "kinocatalog",
		Name:      "websocket_clients",
		Help:      "Connected state-feed WebSocket clients.",
	})
)

func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		UpstreamRequestsTotal,
		UpstreamRequestDuration,
		CacheHitsTotal,
		CacheMissesTotal,
		StaleResponsesTotal,
		ActiveSessions,
		WebSocketClients,
	)
}
