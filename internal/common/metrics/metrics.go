// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	QuotesEvaluated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quotes_evaluated_total",
			Help: "Total number of candidate quotes rated",
		},
		[]string{"mode"},
	)

	EvaluationsForwarded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "evaluations_forwarded_total",
			Help: "Total number of evaluated quote sets forwarded to client selection",
		},
	)

	StageTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workflow_stage_transitions_total",
			Help: "Total number of workflow stage transitions applied",
		},
		[]string{"from_stage", "to_stage"},
	)

	BackfillsApplied = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "quote_backfills_applied_total",
			Help: "Total number of quotes repaired from evaluated quote data",
		},
	)

	NotificationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_failures_total",
			Help: "Total number of failed notification deliveries",
		},
		[]string{"channel"},
	)
)
