package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SweepRunsTotal counts sweeper runs by outcome (ok, partial, error).
	SweepRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "postcraft_sweep_runs_total",
		Help: "Total number of due-post sweeps by outcome",
	}, []string{"outcome"})

	// SweepEntriesTotal counts processed sweep entries by result.
	SweepEntriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "postcraft_sweep_entries_total",
		Help: "Total number of due schedules handled by the sweeper",
	}, []string{"result"})

	// SweepDuration records how long a sweep run takes.
	SweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "postcraft_sweep_duration_seconds",
		Help:    "Duration of due-post sweeps in seconds",
		Buckets: prometheus.DefBuckets,
	})

	// ReconciliationsTotal counts schedules left published while their post was not.
	ReconciliationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "postcraft_publish_reconciliations_total",
		Help: "Total number of schedules needing manual publish reconciliation",
	})

	// PostsScheduledTotal counts schedule requests by kind (new, reschedule).
	PostsScheduledTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "postcraft_posts_scheduled_total",
		Help: "Total number of successful schedule requests",
	}, []string{"kind"})

	// AIRequestsTotal counts drafting calls by outcome.
	AIRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "postcraft_ai_requests_total",
		Help: "Total number of AI drafting requests by outcome",
	}, []string{"outcome"})
)
