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

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)
)

// Outcome label values for provider attempts.
const (
	OutcomeSuccess     = "success"
	OutcomeUnavailable = "unavailable"
	OutcomeError       = "error"
	OutcomeInvalid     = "invalid"
	OutcomeUnsupported = "unsupported"
)

var (
	ProviderAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analysis_provider_attempts_total",
			Help: "Provider attempts made by the analysis orchestrator",
		},
		[]string{"provider", "outcome"},
	)

	AnalysisFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analysis_fallback_total",
			Help: "Analyses answered by the deterministic fallback composer",
		},
		[]string{"reason"},
	)

	AnalysisDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "analysis_duration_seconds",
			Help:    "End-to-end analysis duration by the provider that produced the result",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"provider"},
	)

	TranscriptionRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transcription_requests_total",
			Help: "Voice transcription requests by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)

	KnowledgeRecordsLoaded = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "knowledge_records_loaded",
			Help: "Number of knowledge base records in the last load",
		},
		[]string{"collection"},
	)
)
