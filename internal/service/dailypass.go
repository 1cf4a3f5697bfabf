// internal/service/dailypass.go

package service

import (
	"context"
	"time"

	"immunization-engine/internal/common/errors"
	"immunization-engine/internal/common/logger"
	"immunization-engine/internal/common/metrics"
	"immunization-engine/internal/common/observability"
	"immunization-engine/internal/engine/notify"
	"immunization-engine/internal/models"
	"immunization-engine/internal/storage"
)

// DailyPassService runs the notification pass for every active child: it
// loads each child's history and existing notifications, asks the scheduler
// for a plan, and persists the plan. Running the pass twice with the same
// reference date creates nothing new.
type DailyPassService struct {
	children      storage.ChildRepository
	records       storage.RecordRepository
	notifications storage.NotificationRepository
	scheduler     *notify.Scheduler
	obs           *observability.Observability
	logger        logger.Logger
}

func NewDailyPassService(
	children storage.ChildRepository,
	records storage.RecordRepository,
	notifications storage.NotificationRepository,
	scheduler *notify.Scheduler,
	obs *observability.Observability,
	log logger.Logger,
) *DailyPassService {
	return &DailyPassService{
		children:      children,
		records:       records,
		notifications: notifications,
		scheduler:     scheduler,
		obs:           obs,
		logger:        log.WithFields(map[string]interface{}{"component": "daily-pass"}),
	}
}

// Run executes one pass for the given reference date and returns what it did.
func (s *DailyPassService) Run(ctx context.Context, referenceDate time.Time) (notify.PassSummary, error) {
	start := time.Now()
	summary, err := s.run(ctx, referenceDate)
	elapsed := time.Since(start)

	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.DailyPassRuns.WithLabelValues(status).Inc()
	metrics.DailyPassDuration.Observe(elapsed.Seconds())
	if s.obs != nil {
		s.obs.RecordPass(ctx, status)
		s.obs.RecordPassDuration(ctx, elapsed, status)
	}

	if err != nil {
		s.logger.Error("daily pass failed", map[string]interface{}{
			"reference_date": referenceDate.Format("2006-01-02"),
			"duration_ms":    elapsed.Milliseconds(),
			"error":          err,
		})
		return summary, err
	}

	s.logger.Info("daily pass complete", map[string]interface{}{
		"reference_date": referenceDate.Format("2006-01-02"),
		"duration_ms":    elapsed.Milliseconds(),
		"reminders":      summary.RemindersCreated,
		"overdue":        summary.OverdueCreated,
		"birthdays":      summary.BirthdaysCreated,
		"completions":    summary.CompletionsCreated,
		"expired":        summary.Expired,
	})
	return summary, nil
}

func (s *DailyPassService) run(ctx context.Context, referenceDate time.Time) (notify.PassSummary, error) {
	var summary notify.PassSummary

	children, err := s.children.ListActive(ctx)
	if err != nil {
		return summary, err
	}

	inputs := make([]notify.ChildInput, 0, len(children))
	for _, child := range children {
		history, err := s.records.ListByChild(ctx, child.ID)
		if err != nil {
			return summary, err
		}
		existing, err := s.notifications.ListByChild(ctx, child.ID)
		if err != nil {
			return summary, err
		}
		inputs = append(inputs, notify.ChildInput{
			History:       models.ChildWithHistory{Child: child, Records: history},
			Notifications: existing,
		})
	}

	plan, err := s.scheduler.PlanDailyPass(inputs, referenceDate)
	if err != nil {
		return summary, err
	}

	summary = plan.Summary
	for _, n := range plan.Creations {
		if err := s.notifications.Create(ctx, n); err != nil {
			// A concurrent pass got there first; the unique index makes the
			// insert the dedup point, so losing the race is not a failure.
			if errors.CodeOf(err) == errors.ErrCodeDuplicateNotification {
				subtractFromSummary(&summary, n.Type)
				continue
			}
			return summary, err
		}
		metrics.NotificationsCreated.WithLabelValues(string(n.Type)).Inc()
		if s.obs != nil {
			s.obs.RecordNotificationsCreated(ctx, string(n.Type), 1)
		}
	}

	expired := 0
	for _, id := range plan.Expirations {
		if err := s.notifications.UpdateState(ctx, id, models.StateExpired); err != nil {
			if errors.CodeOf(err) == errors.ErrCodeInvalidStateTransition {
				continue
			}
			return summary, err
		}
		expired++
	}
	summary.Expired = expired
	metrics.NotificationsExpired.Add(float64(expired))

	return summary, nil
}

func subtractFromSummary(summary *notify.PassSummary, t models.NotificationType) {
	switch t {
	case models.TypeDoseReminder:
		summary.RemindersCreated--
	case models.TypeDoseOverdue:
		summary.OverdueCreated--
	case models.TypeBirthday:
		summary.BirthdaysCreated--
	case models.TypeScheduleComplete:
		summary.CompletionsCreated--
	}
}
