// internal/engine/notify/scheduler.go

// Package notify turns projector output and life events into notification
// records. The scheduler only plans: it returns the notifications to create
// and the ids to expire, and the caller persists both. Creation is idempotent
// by natural key (child, vaccine, type, dose) against the notification
// history supplied with each child, so the daily pass can be replayed without
// producing duplicates.
package notify

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"immunization-engine/internal/common/errors"
	"immunization-engine/internal/engine/projection"
	"immunization-engine/internal/models"
)

// Config holds the notification scheduler tunables.
type Config struct {
	ReminderLeadDays          int
	BirthdayLeadDays          int
	OverdueRealertDays        int
	CompleteRealertDays       int
	ToleranceDays             int
	CompleteThresholdPercent  float64
	ReactionSeverityThreshold models.ReactionSeverity
}

// DefaultConfig returns the standard notification policy constants.
func DefaultConfig() Config {
	return Config{
		ReminderLeadDays:          14,
		BirthdayLeadDays:          3,
		OverdueRealertDays:        7,
		CompleteRealertDays:       30,
		ToleranceDays:             30,
		CompleteThresholdPercent:  95,
		ReactionSeverityThreshold: models.SeveritySevere,
	}
}

// ChildInput is everything the planner needs for one child: the loaded
// history plus the child's existing notifications for dedup.
type ChildInput struct {
	History       models.ChildWithHistory
	Notifications []models.Notification
}

// PassSummary counts what a daily pass produced.
type PassSummary struct {
	RemindersCreated   int `json:"remindersCreated"`
	OverdueCreated     int `json:"overdueCreated"`
	BirthdaysCreated   int `json:"birthdaysCreated"`
	CompletionsCreated int `json:"completionsCreated"`
	Expired            int `json:"expired"`
}

// PassPlan is the outcome of a pass: notifications to insert and PENDING
// notification ids to transition to EXPIRED.
type PassPlan struct {
	Creations   []models.Notification `json:"creations"`
	Expirations []string              `json:"expirations"`
	Summary     PassSummary           `json:"summary"`
}

// Scheduler plans notifications from projections and life events.
type Scheduler struct {
	projector *projection.Projector
	cfg       Config
}

// NewScheduler builds a scheduler over the given projector.
func NewScheduler(proj *projection.Projector, cfg Config) *Scheduler {
	return &Scheduler{projector: proj, cfg: cfg}
}

// PlanDailyPass applies the notification rules to every child and collects
// the combined plan. Children whose data is malformed abort the pass; a pass
// that half-ran is harder to reason about than one that failed.
func (s *Scheduler) PlanDailyPass(children []ChildInput, referenceDate time.Time) (*PassPlan, error) {
	if referenceDate.IsZero() {
		return nil, errors.NewInvalidReferenceDateError("PlanDailyPass")
	}

	plan := &PassPlan{}
	for _, in := range children {
		if !in.History.Child.Active {
			continue
		}
		creations, expirations, err := s.PlanChild(in, referenceDate)
		if err != nil {
			return nil, err
		}
		plan.Creations = append(plan.Creations, creations...)
		plan.Expirations = append(plan.Expirations, expirations...)
	}

	for _, n := range plan.Creations {
		switch n.Type {
		case models.TypeDoseReminder:
			plan.Summary.RemindersCreated++
		case models.TypeDoseOverdue:
			plan.Summary.OverdueCreated++
		case models.TypeBirthday:
			plan.Summary.BirthdaysCreated++
		case models.TypeScheduleComplete:
			plan.Summary.CompletionsCreated++
		}
	}
	plan.Summary.Expired = len(plan.Expirations)

	return plan, nil
}

// PlanChild runs all per-child rules for one reference date.
func (s *Scheduler) PlanChild(in ChildInput, referenceDate time.Time) ([]models.Notification, []string, error) {
	var creations []models.Notification

	reminders, err := s.planReminders(in, referenceDate)
	if err != nil {
		return nil, nil, err
	}
	creations = append(creations, reminders...)

	overdue, err := s.planOverdue(in, referenceDate)
	if err != nil {
		return nil, nil, err
	}
	creations = append(creations, overdue...)

	if b := s.planBirthday(in, referenceDate); b != nil {
		creations = append(creations, *b)
	}

	complete, err := s.planCompletion(in, referenceDate)
	if err != nil {
		return nil, nil, err
	}
	if complete != nil {
		creations = append(creations, *complete)
	}

	var expirations []string
	for _, n := range in.Notifications {
		if n.State == models.StatePending && n.ExpirationDate != nil && n.ExpirationDate.Before(models.DateOnly(referenceDate)) {
			expirations = append(expirations, n.ID)
		}
	}

	return creations, expirations, nil
}

// planReminders creates DOSE_REMINDER entries for doses recommended within
// the lead window. Skips doses that already have a PENDING reminder.
func (s *Scheduler) planReminders(in ChildInput, referenceDate time.Time) ([]models.Notification, error) {
	upcoming, err := s.projector.UpcomingDoses(in.History, referenceDate, s.cfg.ReminderLeadDays)
	if err != nil {
		return nil, err
	}

	var out []models.Notification
	for _, up := range upcoming {
		if hasPendingReminder(in.Notifications, up.Vaccine.ID, up.DoseNumber) {
			continue
		}
		expiration := up.RecommendedDate.AddDate(0, 0, up.Entry.ToleranceDays(s.cfg.ToleranceDays))
		n := s.newNotification(in.History.Child.ID, models.TypeDoseReminder, referenceDate)
		n.VaccineID = up.Vaccine.ID
		n.DoseNumber = up.DoseNumber
		n.Priority = priorityForUrgency(up.Urgency)
		n.ScheduledDate = up.RecommendedDate.AddDate(0, 0, -s.cfg.ReminderLeadDays)
		n.ExpirationDate = &expiration
		n.Title = fmt.Sprintf("Proxima vacuna: %s", up.Vaccine.Name)
		n.Message = fmt.Sprintf("%s dosis %d recomendada para el %s", up.Vaccine.Name, up.DoseNumber, up.RecommendedDate.Format("2006-01-02"))
		out = append(out, n)
	}
	return out, nil
}

// planOverdue creates a weekly URGENT alert per overdue dose. The dedup
// window re-alerts once the previous alert is older than OverdueRealertDays.
func (s *Scheduler) planOverdue(in ChildInput, referenceDate time.Time) ([]models.Notification, error) {
	pending, err := s.projector.PendingDoses(in.History, referenceDate)
	if err != nil {
		return nil, err
	}

	var out []models.Notification
	for _, pd := range pending {
		if !pd.IsOverdue {
			continue
		}
		if hasRecentOfType(in.Notifications, models.TypeDoseOverdue, pd.Vaccine.ID, referenceDate, s.cfg.OverdueRealertDays) {
			continue
		}
		n := s.newNotification(in.History.Child.ID, models.TypeDoseOverdue, referenceDate)
		n.VaccineID = pd.Vaccine.ID
		n.DoseNumber = pd.DoseNumber
		n.Priority = models.PriorityUrgent
		n.ScheduledDate = models.DateOnly(referenceDate)
		n.Title = fmt.Sprintf("Vacuna atrasada: %s", pd.Vaccine.Name)
		n.Message = fmt.Sprintf("%s dosis %d esta atrasada %d dias", pd.Vaccine.Name, pd.DoseNumber, pd.DaysOverdue)
		out = append(out, n)
	}
	return out, nil
}

// planBirthday creates at most one birthday notice per child per calendar year.
func (s *Scheduler) planBirthday(in ChildInput, referenceDate time.Time) *models.Notification {
	next := in.History.Child.NextBirthday(referenceDate)
	daysUntil := models.DaysBetween(referenceDate, next)
	if daysUntil > s.cfg.BirthdayLeadDays {
		return nil
	}
	for _, n := range in.Notifications {
		if n.Type == models.TypeBirthday && n.ScheduledDate.Year() == next.Year() {
			return nil
		}
	}

	expiration := next.AddDate(0, 0, 1)
	n := s.newNotification(in.History.Child.ID, models.TypeBirthday, referenceDate)
	n.Priority = models.PriorityNormal
	n.ScheduledDate = next
	n.ExpirationDate = &expiration
	n.Title = "Feliz cumpleanos"
	n.Message = fmt.Sprintf("%s cumple anos el %s", in.History.Child.Name, next.Format("2006-01-02"))
	return &n
}

// planCompletion creates a SCHEDULE_COMPLETE notice when completion crosses
// the threshold, at most once per realert window.
func (s *Scheduler) planCompletion(in ChildInput, referenceDate time.Time) (*models.Notification, error) {
	completion, err := s.projector.Completion(in.History, referenceDate)
	if err != nil {
		return nil, err
	}
	if completion < s.cfg.CompleteThresholdPercent {
		return nil, nil
	}
	if hasRecentOfType(in.Notifications, models.TypeScheduleComplete, "", referenceDate, s.cfg.CompleteRealertDays) {
		return nil, nil
	}

	n := s.newNotification(in.History.Child.ID, models.TypeScheduleComplete, referenceDate)
	n.Priority = models.PriorityNormal
	n.ScheduledDate = models.DateOnly(referenceDate)
	n.Title = "Esquema al dia"
	n.Message = fmt.Sprintf("El esquema de vacunacion esta al %.0f%%", completion)
	return &n, nil
}

// PlanReactionAlert creates an ADVERSE_REACTION alert for a record whose
// severity is at or above the configured threshold. Reaction alerts are never
// deduped: every report produces its own alert.
func (s *Scheduler) PlanReactionAlert(child models.Child, vaccine models.Vaccine, record models.VaccinationRecord, referenceDate time.Time) *models.Notification {
	if !record.ReactionSeverity.AtLeast(s.cfg.ReactionSeverityThreshold) {
		return nil
	}

	n := s.newNotification(child.ID, models.TypeAdverseReaction, referenceDate)
	n.VaccineID = vaccine.ID
	n.DoseNumber = record.DoseNumber
	n.Priority = models.PriorityUrgent
	n.ScheduledDate = models.DateOnly(referenceDate)
	n.Title = fmt.Sprintf("Reaccion adversa: %s", vaccine.Name)
	n.Message = fmt.Sprintf("Reaccion %s reportada para %s dosis %d", record.ReactionSeverity, vaccine.Name, record.DoseNumber)
	return &n
}

// RemindersToConsume returns the PENDING reminder ids matching a freshly
// recorded dose. The recording workflow expires them so a reminder does not
// outlive the dose it announced.
func RemindersToConsume(notifications []models.Notification, vaccineID string, doseNumber int) []string {
	var ids []string
	for _, n := range notifications {
		if n.Type == models.TypeDoseReminder && n.State == models.StatePending &&
			n.VaccineID == vaccineID && n.DoseNumber == doseNumber {
			ids = append(ids, n.ID)
		}
	}
	return ids
}

func (s *Scheduler) newNotification(childID string, t models.NotificationType, referenceDate time.Time) models.Notification {
	return models.Notification{
		ID:        uuid.New().String(),
		ChildID:   childID,
		Type:      t,
		State:     models.StatePending,
		CreatedAt: models.DateOnly(referenceDate),
	}
}

func priorityForUrgency(u projection.Urgency) models.Priority {
	switch u {
	case projection.UrgencyOverdue, projection.UrgencyUrgent:
		return models.PriorityUrgent
	case projection.UrgencyHigh:
		return models.PriorityHigh
	case projection.UrgencyNormal:
		return models.PriorityNormal
	default:
		return models.PriorityLow
	}
}

func hasPendingReminder(notifications []models.Notification, vaccineID string, doseNumber int) bool {
	for _, n := range notifications {
		if n.Type == models.TypeDoseReminder && n.State == models.StatePending &&
			n.VaccineID == vaccineID && n.DoseNumber == doseNumber {
			return true
		}
	}
	return false
}

// hasRecentOfType checks the dedup window: any notification of the given type
// (and vaccine, when set) created within the last windowDays.
func hasRecentOfType(notifications []models.Notification, t models.NotificationType, vaccineID string, referenceDate time.Time, windowDays int) bool {
	for _, n := range notifications {
		if n.Type != t {
			continue
		}
		if vaccineID != "" && n.VaccineID != vaccineID {
			continue
		}
		age := models.DaysBetween(n.CreatedAt, referenceDate)
		if age >= 0 && age < windowDays {
			return true
		}
	}
	return false
}

// SortForDisplay orders a notification list for the user-facing view:
// priority rank first, then scheduled date ascending.
func SortForDisplay(notifications []models.Notification) {
	sort.SliceStable(notifications, func(i, j int) bool {
		a, b := notifications[i], notifications[j]
		if a.Priority.Rank() != b.Priority.Rank() {
			return a.Priority.Rank() < b.Priority.Rank()
		}
		return a.ScheduledDate.Before(b.ScheduledDate)
	})
}
