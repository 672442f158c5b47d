// Package metrics declares the service's Prometheus collectors. Everything
// registers on the default registry and is served by promhttp.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ChatTurns counts completed chat turns by classified intent.
	ChatTurns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "partpilot_chat_turns_total",
		Help: "Completed chat turns by classified intent.",
	}, []string{"intent"})

	// ModelCalls counts chat-model invocations by pipeline operation
	// (classify, rank, reply) and outcome (ok, error).
	ModelCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "partpilot_model_calls_total",
		Help: "Chat model invocations by operation and outcome.",
	}, []string{"op", "outcome"})

	// TurnDuration observes end-to-end chat turn latency.
	TurnDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "partpilot_turn_duration_seconds",
		Help:    "End-to-end chat turn latency in seconds.",
		Buckets: prometheus.DefBuckets,
	})
)

// Outcome labels for ModelCalls.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)
