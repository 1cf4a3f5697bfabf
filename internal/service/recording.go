// internal/service/recording.go

package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"immunization-engine/internal/common/errors"
	"immunization-engine/internal/common/logger"
	"immunization-engine/internal/common/metrics"
	"immunization-engine/internal/engine/eligibility"
	"immunization-engine/internal/engine/notify"
	"immunization-engine/internal/models"
	"immunization-engine/internal/storage"
)

// RecordingService handles the dose recording workflow: validate the dose
// against the schedule, persist the record when the decision allows it, and
// retire the reminder the record fulfills.
type RecordingService struct {
	children      storage.ChildRepository
	vaccines      storage.VaccineRepository
	records       storage.RecordRepository
	notifications storage.NotificationRepository
	validator     *eligibility.Validator
	scheduler     *notify.Scheduler
	logger        logger.Logger
}

func NewRecordingService(
	children storage.ChildRepository,
	vaccines storage.VaccineRepository,
	records storage.RecordRepository,
	notifications storage.NotificationRepository,
	validator *eligibility.Validator,
	scheduler *notify.Scheduler,
	log logger.Logger,
) *RecordingService {
	return &RecordingService{
		children:      children,
		vaccines:      vaccines,
		records:       records,
		notifications: notifications,
		validator:     validator,
		scheduler:     scheduler,
		logger:        log.WithFields(map[string]interface{}{"component": "recording-service"}),
	}
}

// RecordDoseRequest carries one dose application to validate and persist.
type RecordDoseRequest struct {
	ChildID         string    `json:"childId"`
	VaccineID       string    `json:"vaccineId"`
	DoseNumber      int       `json:"doseNumber"`
	ApplicationDate time.Time `json:"applicationDate"`
	Site            string    `json:"site"`
	LotNumber       string    `json:"lotNumber"`
	// OverrideWarning persists the record even when validation returns a
	// warning. Blocking rejections can never be overridden.
	OverrideWarning bool `json:"overrideWarning"`
}

// RecordDoseResult reports the validation decision and, when the dose was
// persisted, the stored record.
type RecordDoseResult struct {
	Decision          eligibility.Decision      `json:"decision"`
	Record            *models.VaccinationRecord `json:"record,omitempty"`
	RemindersConsumed int                       `json:"remindersConsumed"`
}

// RecordDose validates the request against the child's history and persists
// the record when allowed. The decision is always returned, persisted or not,
// so callers can surface the reason to the operator.
func (s *RecordingService) RecordDose(ctx context.Context, req RecordDoseRequest, referenceDate time.Time) (*RecordDoseResult, error) {
	child, err := s.children.GetByID(ctx, req.ChildID)
	if err != nil {
		return nil, err
	}
	vaccine, err := s.vaccines.GetByID(ctx, req.VaccineID)
	if err != nil {
		return nil, err
	}
	history, err := s.records.ListByChild(ctx, req.ChildID)
	if err != nil {
		return nil, err
	}

	cw := models.ChildWithHistory{Child: child, Records: history}
	decision, err := s.validator.ValidateDose(cw, vaccine, req.DoseNumber, req.ApplicationDate, referenceDate)
	if err != nil {
		return nil, err
	}
	metrics.DoseValidations.WithLabelValues(strings.ToLower(string(decision.Outcome)), string(decision.Reason)).Inc()

	result := &RecordDoseResult{Decision: decision}
	if decision.Blocking() || (!decision.IsAllowed() && !req.OverrideWarning) {
		s.logger.Info("dose not recorded", map[string]interface{}{
			"child_id":   req.ChildID,
			"vaccine_id": req.VaccineID,
			"dose":       req.DoseNumber,
			"outcome":    decision.Outcome,
			"reason":     decision.Reason,
		})
		return result, nil
	}

	record := models.VaccinationRecord{
		ID:               uuid.New().String(),
		ChildID:          req.ChildID,
		VaccineID:        req.VaccineID,
		DoseNumber:       req.DoseNumber,
		ApplicationDate:  models.DateOnly(req.ApplicationDate),
		Site:             req.Site,
		LotNumber:        req.LotNumber,
		ReactionSeverity: models.SeverityNone,
		CreatedAt:        time.Now().UTC(),
	}
	if err := s.records.Create(ctx, record); err != nil {
		return nil, err
	}
	result.Record = &record

	consumed, err := s.consumeReminders(ctx, req.ChildID, req.VaccineID, req.DoseNumber)
	if err != nil {
		// The record is already committed; a reminder left pending expires on
		// the next daily pass anyway.
		s.logger.Warn("reminder consumption failed", map[string]interface{}{
			"child_id":   req.ChildID,
			"vaccine_id": req.VaccineID,
			"error":      err,
		})
	} else {
		result.RemindersConsumed = consumed
	}

	s.logger.Info("dose recorded", map[string]interface{}{
		"record_id":  record.ID,
		"child_id":   req.ChildID,
		"vaccine_id": req.VaccineID,
		"dose":       req.DoseNumber,
		"outcome":    decision.Outcome,
	})
	return result, nil
}

// consumeReminders expires the PENDING reminders the recorded dose fulfills.
func (s *RecordingService) consumeReminders(ctx context.Context, childID, vaccineID string, doseNumber int) (int, error) {
	existing, err := s.notifications.ListByChild(ctx, childID)
	if err != nil {
		return 0, err
	}
	ids := notify.RemindersToConsume(existing, vaccineID, doseNumber)
	for _, id := range ids {
		if err := s.notifications.UpdateState(ctx, id, models.StateExpired); err != nil {
			return 0, err
		}
	}
	return len(ids), nil
}

// ReportReaction attaches an adverse reaction to an existing record and, when
// the severity crosses the alert threshold, creates the caregiver alert.
func (s *RecordingService) ReportReaction(ctx context.Context, recordID string, severity models.ReactionSeverity, referenceDate time.Time) (*models.Notification, error) {
	if !severity.Valid() {
		return nil, errors.NewInvalidSeverityError(string(severity))
	}

	record, err := s.records.AttachReaction(ctx, recordID, severity)
	if err != nil {
		return nil, err
	}

	child, err := s.children.GetByID(ctx, record.ChildID)
	if err != nil {
		return nil, err
	}
	vaccine, err := s.vaccines.GetByID(ctx, record.VaccineID)
	if err != nil {
		return nil, err
	}

	alert := s.scheduler.PlanReactionAlert(child, vaccine, record, referenceDate)
	if alert == nil {
		return nil, nil
	}
	if err := s.notifications.Create(ctx, *alert); err != nil {
		return nil, err
	}
	metrics.NotificationsCreated.WithLabelValues(string(alert.Type)).Inc()
	s.logger.Warn("adverse reaction alert created", map[string]interface{}{
		"record_id":  recordID,
		"child_id":   record.ChildID,
		"vaccine_id": record.VaccineID,
		"severity":   severity,
	})
	return alert, nil
}
