// Package metrics exposes the Prometheus instrumentation shared by the
// pipeline stages and the server.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BackendAttemptsTotal counts individual backend invocations.
	// Labels: stage (lid/asr/mt/tts), backend, status (success/failed).
	BackendAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vasha_backend_attempts_total",
			Help: "Total number of backend invocations by stage, backend and status",
		},
		[]string{"stage", "backend", "status"},
	)

	// ChunksTotal counts processed windows/chunks.
	// Labels: stage, status (success/exhausted).
	ChunksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vasha_chunks_total",
			Help: "Total number of processed chunks by stage and outcome",
		},
		[]string{"stage", "status"},
	)

	// StageDuration observes wall-clock duration of one stage run.
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vasha_stage_duration_seconds",
			Help:    "Pipeline stage duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
		[]string{"stage"},
	)

	// SessionsTotal counts end-to-end pipeline runs by terminal state.
	SessionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vasha_sessions_total",
			Help: "Total number of pipeline sessions by terminal state",
		},
		[]string{"state"},
	)
)

// RecordAttempt records one backend invocation outcome.
func RecordAttempt(stage, backend string, err error) {
	status := "success"
	if err != nil {
		status = "failed"
	}
	BackendAttemptsTotal.WithLabelValues(stage, backend, status).Inc()
}

// RecordChunk records one chunk outcome for a stage.
func RecordChunk(stage string, exhausted bool) {
	status := "success"
	if exhausted {
		status = "exhausted"
	}
	ChunksTotal.WithLabelValues(stage, status).Inc()
}

// RecordSession records the terminal state of one pipeline session.
func RecordSession(state string) {
	SessionsTotal.WithLabelValues(state).Inc()
}

// ObserveStage records the duration of a stage run started at start.
func ObserveStage(stage string, start time.Time) {
	StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}
