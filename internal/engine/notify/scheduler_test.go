// internal/engine/notify/scheduler_test.go
package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"immunization-engine/internal/engine/catalog"
	"immunization-engine/internal/engine/projection"
	"immunization-engine/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

var testBirth = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func testScheduler(t *testing.T) *Scheduler {
	t.Helper()
	vaccines := []models.Vaccine{
		{ID: "bcg", Code: "BCG", Name: "BCG", TotalDoses: 1, Active: true},
		{ID: "penta", Code: "PENTA", Name: "Pentavalente", TotalDoses: 3, Active: true},
	}
	entries := []models.ScheduleEntry{
		{ID: "bcg-1", VaccineID: "bcg", DoseNumber: 1, TargetAgeDays: 0, IsMandatory: true, Active: true},
		{ID: "penta-1", VaccineID: "penta", DoseNumber: 1, TargetAgeDays: 60, IsMandatory: true, Active: true},
		{ID: "penta-2", VaccineID: "penta", DoseNumber: 2, TargetAgeDays: 120, IsMandatory: true, Active: true},
		{ID: "penta-3", VaccineID: "penta", DoseNumber: 3, TargetAgeDays: 180, IsMandatory: true, Active: true},
	}
	cat, err := catalog.New(vaccines, entries)
	require.NoError(t, err)
	return NewScheduler(projection.NewProjector(cat, projection.DefaultConfig()), DefaultConfig())
}

func testInput(records []models.VaccinationRecord, notifications []models.Notification) ChildInput {
	return ChildInput{
		History: models.ChildWithHistory{
			Child: models.Child{
				ID:        "child-001",
				Name:      "Lucia",
				BirthDate: testBirth,
				Active:    true,
			},
			Records: records,
		},
		Notifications: notifications,
	}
}

func applied(vaccineID string, dose int, date time.Time) models.VaccinationRecord {
	return models.VaccinationRecord{
		ID:              "rec-" + vaccineID,
		ChildID:         "child-001",
		VaccineID:       vaccineID,
		DoseNumber:      dose,
		ApplicationDate: date,
	}
}

func ofType(creations []models.Notification, t models.NotificationType) []models.Notification {
	var out []models.Notification
	for _, n := range creations {
		if n.Type == t {
			out = append(out, n)
		}
	}
	return out
}

// ==========================
// Reminder Tests
// ==========================

func TestPlanChild_CreatesReminder(t *testing.T) {
	s := testScheduler(t)

	// Day 50: Pentavalente dose 1 recommended in ten days, inside the lead
	// window. BCG already applied so nothing is overdue.
	referenceDate := testBirth.AddDate(0, 0, 50)
	in := testInput([]models.VaccinationRecord{applied("bcg", 1, testBirth.AddDate(0, 0, 2))}, nil)

	creations, _, err := s.PlanChild(in, referenceDate)
	require.NoError(t, err)

	reminders := ofType(creations, models.TypeDoseReminder)
	require.Len(t, reminders, 1)

	r := reminders[0]
	recommended := testBirth.AddDate(0, 0, 60)
	assert.Equal(t, "penta", r.VaccineID)
	assert.Equal(t, 1, r.DoseNumber)
	assert.Equal(t, models.PriorityHigh, r.Priority)
	assert.Equal(t, models.StatePending, r.State)
	assert.Equal(t, recommended.AddDate(0, 0, -14), r.ScheduledDate)
	require.NotNil(t, r.ExpirationDate)
	assert.Equal(t, recommended.AddDate(0, 0, 30), *r.ExpirationDate)
	assert.Empty(t, ofType(creations, models.TypeDoseOverdue))
}

func TestPlanChild_ReminderDedupByPendingState(t *testing.T) {
	s := testScheduler(t)
	referenceDate := testBirth.AddDate(0, 0, 50)
	records := []models.VaccinationRecord{applied("bcg", 1, testBirth.AddDate(0, 0, 2))}

	existing := models.Notification{
		ID:            "n-1",
		ChildID:       "child-001",
		VaccineID:     "penta",
		DoseNumber:    1,
		Type:          models.TypeDoseReminder,
		State:         models.StatePending,
		ScheduledDate: testBirth.AddDate(0, 0, 46),
		CreatedAt:     testBirth.AddDate(0, 0, 46),
	}

	creations, _, err := s.PlanChild(testInput(records, []models.Notification{existing}), referenceDate)
	require.NoError(t, err)
	assert.Empty(t, ofType(creations, models.TypeDoseReminder))

	// An EXPIRED reminder no longer blocks a fresh one.
	existing.State = models.StateExpired
	creations, _, err = s.PlanChild(testInput(records, []models.Notification{existing}), referenceDate)
	require.NoError(t, err)
	assert.Len(t, ofType(creations, models.TypeDoseReminder), 1)
}

// ==========================
// Overdue Tests
// ==========================

func TestPlanChild_OverdueAlert(t *testing.T) {
	s := testScheduler(t)

	// Day 61 with no history: BCG is past tolerance.
	referenceDate := testBirth.AddDate(0, 0, 61)
	creations, _, err := s.PlanChild(testInput(nil, nil), referenceDate)
	require.NoError(t, err)

	overdue := ofType(creations, models.TypeDoseOverdue)
	require.Len(t, overdue, 1)
	assert.Equal(t, "bcg", overdue[0].VaccineID)
	assert.Equal(t, models.PriorityUrgent, overdue[0].Priority)
	assert.Equal(t, models.DateOnly(referenceDate), overdue[0].ScheduledDate)
}

func TestPlanChild_OverdueRealertWindow(t *testing.T) {
	s := testScheduler(t)
	firstRun := testBirth.AddDate(0, 0, 61)

	first, _, err := s.PlanChild(testInput(nil, nil), firstRun)
	require.NoError(t, err)
	require.Len(t, ofType(first, models.TypeDoseOverdue), 1)

	tests := []struct {
		name        string
		daysLater   int
		wantOverdue int
	}{
		{"same day", 0, 0},
		{"within the week", 5, 0},
		{"after the window", 8, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rerun := firstRun.AddDate(0, 0, tt.daysLater)
			creations, _, err := s.PlanChild(testInput(nil, first), rerun)
			require.NoError(t, err)
			assert.Len(t, ofType(creations, models.TypeDoseOverdue), tt.wantOverdue)
		})
	}
}

// ==========================
// Birthday Tests
// ==========================

func TestPlanChild_Birthday(t *testing.T) {
	s := testScheduler(t)

	fullHistory := []models.VaccinationRecord{
		applied("bcg", 1, testBirth.AddDate(0, 0, 2)),
		applied("penta", 1, testBirth.AddDate(0, 0, 60)),
		applied("penta", 2, testBirth.AddDate(0, 0, 120)),
		applied("penta", 3, testBirth.AddDate(0, 0, 180)),
	}

	// Two days before the first birthday.
	referenceDate := time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC)
	creations, _, err := s.PlanChild(testInput(fullHistory, nil), referenceDate)
	require.NoError(t, err)

	birthdays := ofType(creations, models.TypeBirthday)
	require.Len(t, birthdays, 1)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), birthdays[0].ScheduledDate)
	assert.Equal(t, models.PriorityNormal, birthdays[0].Priority)

	// One per calendar year: a second run the next day creates nothing.
	creations, _, err = s.PlanChild(testInput(fullHistory, birthdays), referenceDate.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Empty(t, ofType(creations, models.TypeBirthday))
}

func TestPlanChild_BirthdayOutsideLeadWindow(t *testing.T) {
	s := testScheduler(t)
	referenceDate := time.Date(2024, 12, 20, 0, 0, 0, 0, time.UTC)

	fullHistory := []models.VaccinationRecord{
		applied("bcg", 1, testBirth.AddDate(0, 0, 2)),
		applied("penta", 1, testBirth.AddDate(0, 0, 60)),
		applied("penta", 2, testBirth.AddDate(0, 0, 120)),
		applied("penta", 3, testBirth.AddDate(0, 0, 180)),
	}
	creations, _, err := s.PlanChild(testInput(fullHistory, nil), referenceDate)
	require.NoError(t, err)
	assert.Empty(t, ofType(creations, models.TypeBirthday))
}

// ==========================
// Completion Tests
// ==========================

func TestPlanChild_ScheduleComplete(t *testing.T) {
	s := testScheduler(t)

	fullHistory := []models.VaccinationRecord{
		applied("bcg", 1, testBirth.AddDate(0, 0, 2)),
		applied("penta", 1, testBirth.AddDate(0, 0, 60)),
	}
	referenceDate := testBirth.AddDate(0, 0, 65)

	creations, _, err := s.PlanChild(testInput(fullHistory, nil), referenceDate)
	require.NoError(t, err)

	complete := ofType(creations, models.TypeScheduleComplete)
	require.Len(t, complete, 1)
	assert.Equal(t, models.PriorityNormal, complete[0].Priority)

	// Within the realert window nothing new appears.
	creations, _, err = s.PlanChild(testInput(fullHistory, complete), referenceDate.AddDate(0, 0, 10))
	require.NoError(t, err)
	assert.Empty(t, ofType(creations, models.TypeScheduleComplete))

	// Past the window it re-alerts.
	creations, _, err = s.PlanChild(testInput(fullHistory, complete), referenceDate.AddDate(0, 0, 31))
	require.NoError(t, err)
	assert.Len(t, ofType(creations, models.TypeScheduleComplete), 1)
}

// ==========================
// Reaction Alert Tests
// ==========================

func TestPlanReactionAlert(t *testing.T) {
	s := testScheduler(t)
	child := models.Child{ID: "child-001", Name: "Lucia", BirthDate: testBirth, Active: true}
	vaccine := models.Vaccine{ID: "penta", Code: "PENTA", Name: "Pentavalente", TotalDoses: 3, Active: true}
	referenceDate := testBirth.AddDate(0, 0, 62)

	tests := []struct {
		name      string
		severity  models.ReactionSeverity
		wantAlert bool
	}{
		{"mild reaction below threshold", models.SeverityMild, false},
		{"moderate reaction below threshold", models.SeverityModerate, false},
		{"severe reaction alerts", models.SeveritySevere, true},
		{"critical reaction alerts", models.SeverityCritical, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := applied("penta", 1, testBirth.AddDate(0, 0, 60))
			rec.ReactionSeverity = tt.severity

			alert := s.PlanReactionAlert(child, vaccine, rec, referenceDate)
			if !tt.wantAlert {
				assert.Nil(t, alert)
				return
			}
			require.NotNil(t, alert)
			assert.Equal(t, models.TypeAdverseReaction, alert.Type)
			assert.Equal(t, models.PriorityUrgent, alert.Priority)
			assert.Equal(t, "penta", alert.VaccineID)
		})
	}
}

// ==========================
// Daily Pass Tests
// ==========================

func TestPlanDailyPass_IdempotentForSameReferenceDate(t *testing.T) {
	s := testScheduler(t)
	referenceDate := testBirth.AddDate(0, 0, 61)

	first, err := s.PlanDailyPass([]ChildInput{testInput(nil, nil)}, referenceDate)
	require.NoError(t, err)
	require.NotEmpty(t, first.Creations)

	// Feed the created notifications back as history and replay the same day.
	second, err := s.PlanDailyPass([]ChildInput{testInput(nil, first.Creations)}, referenceDate)
	require.NoError(t, err)
	assert.Empty(t, second.Creations)
}

func TestPlanDailyPass_SkipsInactiveChildren(t *testing.T) {
	s := testScheduler(t)
	in := testInput(nil, nil)
	in.History.Child.Active = false

	plan, err := s.PlanDailyPass([]ChildInput{in}, testBirth.AddDate(0, 0, 61))
	require.NoError(t, err)
	assert.Empty(t, plan.Creations)
	assert.Empty(t, plan.Expirations)
}

func TestPlanDailyPass_SummaryCounts(t *testing.T) {
	s := testScheduler(t)
	referenceDate := testBirth.AddDate(0, 0, 61)

	plan, err := s.PlanDailyPass([]ChildInput{testInput(nil, nil)}, referenceDate)
	require.NoError(t, err)
	assert.Equal(t, 1, plan.Summary.OverdueCreated)
	assert.Equal(t, 0, plan.Summary.RemindersCreated)
	assert.Equal(t, 0, plan.Summary.BirthdaysCreated)
	assert.Equal(t, 0, plan.Summary.CompletionsCreated)
}

func TestPlanChild_ExpiresStalePendingNotifications(t *testing.T) {
	s := testScheduler(t)
	referenceDate := testBirth.AddDate(0, 0, 61)

	past := testBirth.AddDate(0, 0, 40)
	stale := models.Notification{
		ID:             "n-stale",
		ChildID:        "child-001",
		VaccineID:      "bcg",
		DoseNumber:     1,
		Type:           models.TypeDoseReminder,
		State:          models.StatePending,
		ScheduledDate:  testBirth,
		ExpirationDate: &past,
		CreatedAt:      testBirth,
	}
	sent := stale
	sent.ID = "n-sent"
	sent.State = models.StateSent

	_, expirations, err := s.PlanChild(testInput(nil, []models.Notification{stale, sent}), referenceDate)
	require.NoError(t, err)
	assert.Equal(t, []string{"n-stale"}, expirations)
}

// ==========================
// Helper Tests
// ==========================

func TestRemindersToConsume(t *testing.T) {
	notifications := []models.Notification{
		{ID: "n-1", Type: models.TypeDoseReminder, State: models.StatePending, VaccineID: "penta", DoseNumber: 1},
		{ID: "n-2", Type: models.TypeDoseReminder, State: models.StateSent, VaccineID: "penta", DoseNumber: 1},
		{ID: "n-3", Type: models.TypeDoseReminder, State: models.StatePending, VaccineID: "penta", DoseNumber: 2},
		{ID: "n-4", Type: models.TypeDoseOverdue, State: models.StatePending, VaccineID: "penta", DoseNumber: 1},
	}

	// Only the PENDING reminder for the exact dose is consumed. SENT ones
	// already reached the guardian and stay for the audit trail.
	assert.Equal(t, []string{"n-1"}, RemindersToConsume(notifications, "penta", 1))
	assert.Equal(t, []string{"n-3"}, RemindersToConsume(notifications, "penta", 2))
	assert.Empty(t, RemindersToConsume(notifications, "bcg", 1))
}

func TestSortForDisplay(t *testing.T) {
	day := func(n int) time.Time { return testBirth.AddDate(0, 0, n) }
	notifications := []models.Notification{
		{ID: "low", Priority: models.PriorityLow, ScheduledDate: day(1)},
		{ID: "urgent-late", Priority: models.PriorityUrgent, ScheduledDate: day(5)},
		{ID: "normal", Priority: models.PriorityNormal, ScheduledDate: day(2)},
		{ID: "urgent-early", Priority: models.PriorityUrgent, ScheduledDate: day(1)},
	}

	SortForDisplay(notifications)

	var ids []string
	for _, n := range notifications {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []string{"urgent-early", "urgent-late", "normal", "low"}, ids)
}
