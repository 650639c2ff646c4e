package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lume_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "lume_http_request_duration_seconds",
			Help: "HTTP request duration in seconds",
		},
		[]string{"method", "route"},
	)

	ChatTurns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lume_chat_turns_total",
			Help: "Chat turns persisted, by role",
		},
		[]string{"role"},
	)

	AgentLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lume_agent_latency_seconds",
			Help:    "Latency of a full agent invocation in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 64},
		},
	)

	AgentErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lume_agent_errors_total",
			Help: "Agent invocations that ended in error",
		},
	)

	Signups = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lume_signups_total",
			Help: "Accounts created",
		},
	)

	LoginFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lume_login_failures_total",
			Help: "Rejected login attempts",
		},
	)
)
