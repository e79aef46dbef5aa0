// Package observability provides Prometheus metrics and OpenTelemetry tracing.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stocktalk_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stocktalk_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// CacheResults counts cache-aside lookups by result (hit, miss, error).
	CacheResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stocktalk_cache_results_total",
		Help: "Cache-aside lookups by result",
	}, []string{"result"})

	// AuthFailures counts rejected logins and tokens by reason.
	AuthFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stocktalk_auth_failures_total",
		Help: "Authentication failures by reason",
	}, []string{"reason"})

	// PostsCreated counts created posts by stock symbol.
	PostsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stocktalk_posts_created_total",
		Help: "Posts created by stock symbol",
	}, []string{"stock_symbol"})

	// CommentEvents counts comment additions and removals.
	CommentEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stocktalk_comment_events_total",
		Help: "Comment additions and removals",
	}, []string{"action"})

	// LikeEvents counts likes and unlikes.
	LikeEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stocktalk_like_events_total",
		Help: "Likes and unlikes",
	}, []string{"action"})

	// EventsPublished counts domain event publications by driver and result.
	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stocktalk_events_published_total",
		Help: "Domain events published by driver and result",
	}, []string{"driver", "result"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
