package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal tracks API operations by outcome
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hora_requests_total",
		Help: "Total number of API operations processed",
	}, []string{"op", "result"})

	// AuthFailures tracks authentication failures by kind
	AuthFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hora_auth_failures_total",
		Help: "Total number of authentication failures",
	}, []string{"kind"})

	// SessionCheckDuration tracks fast-path session validity lookups
	SessionCheckDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "hora_session_check_duration_seconds",
		Help:    "Histogram of session validity check duration",
		Buckets: prometheus.DefBuckets,
	})

	// SessionsCreated counts successful session creations
	SessionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hora_sessions_created_total",
		Help: "Total number of sessions created",
	})

	// SessionsRevoked counts explicit session revocations
	SessionsRevoked = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hora_sessions_revoked_total",
		Help: "Total number of sessions explicitly revoked",
	})

	// CacheOperations tracks session-cache hits, misses and faults
	CacheOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hora_cache_operations_total",
		Help: "Total number of session cache operations",
	}, []string{"op", "result"})

	// RateLimited counts requests rejected by the per-IP limiter
	RateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hora_rate_limited_total",
		Help: "Total number of requests rejected by the rate limiter",
	})

	// DBConnectionsActive tracks open database connections
	DBConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hora_db_connections_active",
		Help: "Number of active database connections",
	})
)
