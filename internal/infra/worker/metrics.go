package worker

import (
	"github.com/crb2nu/news-analyzer/internal/platformconfig"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// WorkerMetrics provides Prometheus metrics for the scheduler process: the
// embedded ConfigMetrics track cadence-loading fallbacks, and the
// Job* fields track each job run's own outcome.
type WorkerMetrics struct {
	*platformconfig.ConfigMetrics

	JobRunsTotal        *prometheus.CounterVec
	JobDurationSeconds  *prometheus.HistogramVec
	JobLastSuccessEpoch *prometheus.GaugeVec
}

// NewWorkerMetrics creates a WorkerMetrics instance with all series
// initialized and registered against the default Prometheus registry.
func NewWorkerMetrics() *WorkerMetrics {
	return &WorkerMetrics{
		ConfigMetrics: platformconfig.NewConfigMetrics("worker"),

		JobRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_job_runs_total",
			Help: "Total number of orchestrated job runs by job and status (success/failure)",
		}, []string{"job", "status"}),

		JobDurationSeconds: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "worker_job_duration_seconds",
			Help:    "Duration of an orchestrated job run in seconds",
			Buckets: []float64{1, 5, 30, 60, 300, 900, 1800},
		}, []string{"job"}),

		JobLastSuccessEpoch: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "worker_job_last_success_timestamp",
			Help: "Unix timestamp of the last successful run, per job",
		}, []string{"job"}),
	}
}

// RecordJobRun increments the run counter for job with the given status
// ("success" or "failure").
func (m *WorkerMetrics) RecordJobRun(job, status string) {
	m.JobRunsTotal.WithLabelValues(job, status).Inc()
}

// RecordJobDuration observes a job run's duration in seconds.
func (m *WorkerMetrics) RecordJobDuration(job string, seconds float64) {
	m.JobDurationSeconds.WithLabelValues(job).Observe(seconds)
}

// RecordJobSuccess records the current time as job's last successful run.
func (m *WorkerMetrics) RecordJobSuccess(job string) {
	m.JobLastSuccessEpoch.WithLabelValues(job).SetToCurrentTime()
}
