package runner

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SyncsCurrentlyRunning tracks in-flight sync invocations
	SyncsCurrentlyRunning = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "reporting_sync_invocations_running",
		Help: "The number of sync invocations currently executing",
	})

	// WindowsCommittedTotal counts committed windows per dataset
	WindowsCommittedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reporting_sync_windows_committed_total",
		Help: "Total number of windows committed, by dataset",
	}, []string{"dataset"})

	// RowsEmittedTotal counts rows upserted into the sink per dataset
	RowsEmittedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reporting_sync_rows_emitted_total",
		Help: "Total number of rows emitted to the sink, by dataset",
	}, []string{"dataset"})

	// SyncFailuresTotal counts failed invocations by error kind
	SyncFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reporting_sync_failures_total",
		Help: "Total number of failed sync invocations, by dataset and error kind",
	}, []string{"dataset", "kind"})

	// SyncDuration observes wall-clock time per invocation
	SyncDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "reporting_sync_duration_seconds",
		Help:    "Duration of sync invocations in seconds",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	}, []string{"dataset"})
)
