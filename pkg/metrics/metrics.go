package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DriveOperations counts drive operations by name and result (success|failure|unsupported).
	DriveOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sftpdrive_operations_total",
			Help: "Total number of drive operations",
		},
		[]string{"operation", "result"},
	)

	// DriveOperationDuration measures drive operation latency including connection checks.
	DriveOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sftpdrive_operation_duration_seconds",
			Help:    "Drive operation latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// DriveConnects records session establishment attempts by result (success|failure).
	DriveConnects = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sftpdrive_connects_total",
			Help: "Total number of SFTP connection attempts",
		},
		[]string{"result"},
	)

	// ActiveSessions tracks open SFTP sessions across all clients.
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sftpdrive_active_sessions",
			Help: "Number of open SFTP sessions",
		},
	)

	// ScopeChecks counts bearer scope checks by scope and result (allowed|denied).
	ScopeChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sftpdrive_scope_checks_total",
			Help: "Total number of token scope checks",
		},
		[]string{"scope", "result"},
	)

	// RateLimited counts requests rejected by the rate limiter.
	RateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sftpdrive_rate_limited_total",
			Help: "Total number of requests rejected by rate limiting",
		},
		[]string{"path"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sftpdrive_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
