package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Reconciliation pipeline metrics.
var (
	QueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "queries_total",
			Help:      "Total reconciliation queries per entity type",
		},
		[]string{"entity", "status"},
	)

	QueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "query_duration_seconds",
			Help:      "Reconciliation query duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"entity"},
	)

	CandidatesReturned = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "candidates_returned",
			Help:      "Number of candidates returned per query",
			Buckets:   []float64{0, 1, 2, 3, 5, 10, 25, 50, 100},
		},
		[]string{"entity"},
	)

	MatchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "auto_matches_total",
			Help:      "Queries whose top candidate was auto-accepted",
		},
		[]string{"entity"},
	)

	ChannelRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "channel_requests_total",
			Help:      "Evidence channel calls",
		},
		[]string{"channel", "operation", "status"},
	)

	ChannelRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "channel_request_duration_seconds",
			Help:      "Evidence channel call duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"channel", "operation"},
	)
)

var registerOnce sync.Once

// Register registers the reconciliation and LLM metrics with the default registry.
// Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			QueriesTotal,
			QueryDuration,
			CandidatesReturned,
			MatchesTotal,
			ChannelRequestsTotal,
			ChannelRequestDuration,
			LLMRequestsTotal,
			LLMRequestDuration,
			LLMTokensTotal,
			LLMErrorsTotal,
			LLMBudgetTokensRemaining,
		)
	})
}

// Status returns the status label for an error.
func Status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
