// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "clipshare"

var (
	// CacheOperationsTotal tracks response cache operations.
	// Labels:
	//   - operation: get, set, delete, invalidate, flush
	//   - status: hit, miss, success, error
	//   - cache_type: memory
	CacheOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_operations_total",
			Help:      "Total number of cache operations",
		},
		[]string{"operation", "status", "cache_type"},
	)

	// CacheEvictionsTotal tracks entries removed by the cache itself.
	// Labels:
	//   - reason: expired, deleted
	CacheEvictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_evictions_total",
			Help:      "Total number of cache entries evicted",
		},
		[]string{"reason"},
	)

	// CacheEntries is the number of entries held, including expired
	// entries the sweep has not reclaimed yet.
	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cache_entries",
			Help:      "Number of entries in the response cache",
		},
	)

	// InvalidationEventsTotal tracks mutation events by kind and origin.
	// Labels:
	//   - kind: video, like, comment, follow, user
	//   - source: local, bus
	InvalidationEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invalidation_events_total",
			Help:      "Total number of cache invalidation events",
		},
		[]string{"kind", "source"},
	)

	// InvalidatedEntriesTotal counts entries removed by pattern invalidation.
	InvalidatedEntriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invalidated_entries_total",
			Help:      "Total number of cache entries removed by invalidation",
		},
	)

	// RateLimitRejectionsTotal tracks requests rejected by a limiter.
	// Labels:
	//   - limiter: auth, api, upload
	RateLimitRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_rejections_total",
			Help:      "Total number of requests rejected by rate limiting",
		},
		[]string{"limiter"},
	)

	// DBQueriesTotal tracks database queries.
	// Labels:
	//   - query_type: select, insert, update, delete
	//   - table: users, videos, likes, comments, follows
	DBQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "db_queries_total",
			Help:      "Total number of database queries",
		},
		[]string{"query_type", "table"},
	)

	// QueueMessagesTotal tracks how consumed processing tasks were settled.
	// Labels:
	//   - outcome: acked, retried, dead_lettered
	QueueMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queue_messages_total",
			Help:      "Total number of consumed queue messages by outcome",
		},
		[]string{"outcome"},
	)

	// HTTPRequestDuration tracks request latency.
	// Labels:
	//   - method, status
	//   - cache: HIT, MISS or empty for uncached routes
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "status", "cache"},
	)

	// SingleflightRequestsTotal tracks coalescing of concurrent cache misses.
	// Labels:
	//   - result: initiated (new execution), shared (reused result)
	SingleflightRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "singleflight_requests_total",
			Help:      "Total number of singleflight requests",
		},
		[]string{"result"},
	)
)

// Cache operation status constants.
const (
	CacheStatusHit     = "hit"
	CacheStatusMiss    = "miss"
	CacheStatusSuccess = "success"
	CacheStatusError   = "error"
)

// Cache operation type constants.
const (
	CacheOpGet        = "get"
	CacheOpSet        = "set"
	CacheOpDelete     = "delete"
	CacheOpInvalidate = "invalidate"
	CacheOpFlush      = "flush"
)

// Cache type constants.
const (
	CacheTypeMemory = "memory"
)

// Eviction reason constants.
const (
	EvictionExpired = "expired"
	EvictionDeleted = "deleted"
)

// Invalidation source constants.
const (
	InvalidationSourceLocal = "local"
	InvalidationSourceBus   = "bus"
)

// DB query type constants.
const (
	DBQuerySelect = "select"
	DBQueryInsert = "insert"
	DBQueryUpdate = "update"
	DBQueryDelete = "delete"
)

// Table name constants.
const (
	TableUsers    = "users"
	TableVideos   = "videos"
	TableLikes    = "likes"
	TableComments = "comments"
	TableFollows  = "follows"
)

// Singleflight result constants.
const (
	SingleflightInitiated = "initiated"
	SingleflightShared    = "shared"
)

// Queue outcome constants.
const (
	QueueAcked        = "acked"
	QueueRetried      = "retried"
	QueueDeadLettered = "dead_lettered"
)
