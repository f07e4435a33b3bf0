package jobexecutor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for job execution.
var (
	jobsEnqueuedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pagedlist_jobs_enqueued_total",
		Help: "Total page jobs submitted by executor and kind",
	}, []string{"executor", "kind"})

	jobsCompletedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pagedlist_jobs_completed_total",
		Help: "Total page jobs completed by executor, kind and result",
	}, []string{"executor", "kind", "result"})

	jobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pagedlist_job_duration_seconds",
		Help:    "Time from job start to provider completion",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"executor", "kind"})

	queueDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "pagedlist_queue_depth",
		Help: "Number of page jobs waiting to be started",
	}, []string{"executor"})

	failedJobs = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "pagedlist_failed_jobs",
		Help: "Number of failed page jobs waiting for retry",
	}, []string{"executor"})

	retriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pagedlist_retries_total",
		Help: "Total failed page jobs re-submitted by RetryFailedJobs",
	}, []string{"executor"})
)
