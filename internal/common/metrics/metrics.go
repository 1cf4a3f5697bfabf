// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DailyPassRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "daily_pass_runs_total",
			Help: "Total number of daily scheduler passes",
		},
		[]string{"status"},
	)

	DailyPassDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "daily_pass_duration_seconds",
			Help: "Duration of the daily scheduler pass in seconds",
		},
	)

	NotificationsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_created_total",
			Help: "Total number of notifications created by the scheduler",
		},
		[]string{"type"},
	)

	NotificationsExpired = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notifications_expired_total",
			Help: "Total number of notifications transitioned to EXPIRED",
		},
	)

	NotificationsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_dispatched_total",
			Help: "Total number of notifications delivered by channel",
		},
		[]string{"channel", "status"},
	)

	DoseValidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dose_validations_total",
			Help: "Total number of eligibility validations by outcome",
		},
		[]string{"outcome", "reason"},
	)
)
