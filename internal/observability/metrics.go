package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Search Metrics
	SearchRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecoreco_search_requests_total",
			Help: "Total number of search requests by ranking method",
		},
		[]string{"method"},
	)

	SearchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ecoreco_search_duration_seconds",
			Help:    "Duration of search ranking in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"mode"},
	)

	SearchCandidates = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ecoreco_search_candidates",
			Help:    "Number of catalog candidates considered per search",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
	)

	// Rating Metrics
	RatingAdjustments = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecoreco_rating_adjustments_total",
			Help: "Total number of review-driven rating updates by outcome",
		},
		[]string{"outcome"}, // "applied", "applied_degraded", "not_found", "upstream_error"
	)

	DegradedSignals = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecoreco_degraded_signals_total",
			Help: "Rating statistics that fell back to their neutral default",
		},
		[]string{"signal"},
	)

	// Sentiment Gateway Metrics
	SentimentCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ecoreco_sentiment_cache_hits_total",
			Help: "Total number of sentiment cache hits",
		},
	)

	SentimentCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ecoreco_sentiment_cache_misses_total",
			Help: "Total number of sentiment cache misses",
		},
	)

	SentimentBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ecoreco_sentiment_breaker_state",
			Help: "Sentiment circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)

	// HTTP Metrics
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecoreco_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "status"},
	)
)
