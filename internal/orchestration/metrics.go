package orchestration

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// runsStarted counts evaluation runs started, by model type.
	runsStarted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vleval",
		Subsystem: "runs",
		Name:      "started_total",
		Help:      "Total evaluation runs started",
	}, []string{"model_type"})

	// runsCompleted counts evaluation runs that finished successfully.
	runsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vleval",
		Subsystem: "runs",
		Name:      "completed_total",
		Help:      "Total evaluation runs completed",
	}, []string{"model_type"})

	// runsFailed counts evaluation runs that ended in an error.
	runsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vleval",
		Subsystem: "runs",
		Name:      "failed_total",
		Help:      "Total evaluation runs failed",
	}, []string{"model_type"})

	// runDuration measures wall-clock run duration in seconds.
	runDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "vleval",
		Subsystem: "runs",
		Name:      "duration_seconds",
		Help:      "Evaluation run duration in seconds",
		Buckets:   []float64{1, 5, 15, 60, 300, 900, 1800, 3600, 7200},
	}, []string{"model_type"})
)
