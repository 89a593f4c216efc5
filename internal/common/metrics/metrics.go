// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PageFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "approval_page_fetches_total",
			Help: "Total number of application page fetches",
		},
		[]string{"kind", "result"},
	)

	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "approval_fetch_duration_seconds",
			Help: "Duration of application page fetches in seconds",
		},
		[]string{"kind"},
	)

	Transitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "approval_transitions_total",
			Help: "Total number of status transitions attempted",
		},
		[]string{"kind", "action", "result"},
	)

	BulkRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "approval_bulk_runs_total",
			Help: "Total number of bulk action runs",
		},
		[]string{"action", "result"},
	)

	BulkTargets = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "approval_bulk_targets",
			Help:    "Number of targets per bulk action run",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100},
		},
		[]string{"action"},
	)

	DecisionNotifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "approval_decision_notifications_total",
			Help: "Total number of applicant decision notifications sent",
		},
		[]string{"channel", "result"},
	)
)
