// internal/storage/notifications_test.go
package storage

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"immunization-engine/internal/common/errors"
	"immunization-engine/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

var notifColumns = []string{
	"id", "child_id", "vaccine_id", "dose_number", "type", "priority", "state",
	"title", "message", "scheduled_date", "expiration_date", "created_at",
}

func testNotification() models.Notification {
	exp := time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC)
	return models.Notification{
		ID:             "notif-001",
		ChildID:        "child-001",
		VaccineID:      "penta",
		DoseNumber:     1,
		Type:           models.TypeDoseReminder,
		Priority:       models.PriorityHigh,
		State:          models.StatePending,
		Title:          "Proxima vacuna: Pentavalente",
		Message:        "A child-001 le corresponde la dosis 1 de Pentavalente",
		ScheduledDate:  time.Date(2025, 3, 18, 0, 0, 0, 0, time.UTC),
		ExpirationDate: &exp,
		CreatedAt:      time.Date(2025, 3, 10, 6, 0, 0, 0, time.UTC),
	}
}

func notifRow(n models.Notification) *sqlmock.Rows {
	return sqlmock.NewRows(notifColumns).AddRow(
		n.ID, n.ChildID, n.VaccineID, n.DoseNumber,
		string(n.Type), string(n.Priority), string(n.State),
		n.Title, n.Message, n.ScheduledDate, n.ExpirationDate, n.CreatedAt,
	)
}

// ==========================
// Create Tests
// ==========================

func TestPostgresNotifications_Create_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	n := testNotification()
	mock.ExpectExec(`INSERT INTO notifications`).
		WithArgs(n.ID, n.ChildID, n.VaccineID, n.DoseNumber,
			"DOSE_REMINDER", "HIGH", "PENDING",
			n.Title, n.Message, n.ScheduledDate, n.ExpirationDate, n.CreatedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))

	repo := NewPostgresNotifications(db)
	err = repo.Create(context.Background(), n)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresNotifications_Create_UniqueViolationMapsToDuplicate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO notifications`).
		WillReturnError(&pq.Error{Code: pq.ErrorCode(uniqueViolation)})

	repo := NewPostgresNotifications(db)
	err = repo.Create(context.Background(), testNotification())

	assert.Equal(t, errors.ErrCodeDuplicateNotification, errors.CodeOf(err))
}

// ==========================
// Query Tests
// ==========================

func TestPostgresNotifications_ListByChild(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	n := testNotification()
	mock.ExpectQuery(`FROM notifications WHERE child_id`).
		WithArgs("child-001").
		WillReturnRows(notifRow(n))

	repo := NewPostgresNotifications(db)
	got, err := repo.ListByChild(context.Background(), "child-001")

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, n.ID, got[0].ID)
	assert.Equal(t, models.TypeDoseReminder, got[0].Type)
	require.NotNil(t, got[0].ExpirationDate)
	assert.Equal(t, *n.ExpirationDate, *got[0].ExpirationDate)
}

func TestPostgresNotifications_ListByChild_NullExpiration(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	n := testNotification()
	n.Type = models.TypeBirthday
	n.ExpirationDate = nil
	mock.ExpectQuery(`FROM notifications WHERE child_id`).
		WithArgs("child-001").
		WillReturnRows(notifRow(n))

	repo := NewPostgresNotifications(db)
	got, err := repo.ListByChild(context.Background(), "child-001")

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Nil(t, got[0].ExpirationDate)
}

func TestPostgresNotifications_ListPendingDue(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	by := time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC)
	urgent := testNotification()
	urgent.ID = "notif-002"
	urgent.Priority = models.PriorityUrgent
	rows := notifRow(urgent)
	n := testNotification()
	rows.AddRow(n.ID, n.ChildID, n.VaccineID, n.DoseNumber,
		string(n.Type), string(n.Priority), string(n.State),
		n.Title, n.Message, n.ScheduledDate, n.ExpirationDate, n.CreatedAt)

	mock.ExpectQuery(`WHERE state = 'PENDING' AND scheduled_date`).
		WithArgs(by, 50).
		WillReturnRows(rows)

	repo := NewPostgresNotifications(db)
	got, err := repo.ListPendingDue(context.Background(), by, 50)

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "notif-002", got[0].ID)
	assert.Equal(t, models.PriorityUrgent, got[0].Priority)
}

// ==========================
// State Transition Tests
// ==========================

func TestPostgresNotifications_UpdateState_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT state FROM notifications WHERE id`).
		WithArgs("notif-001").
		WillReturnRows(sqlmock.NewRows([]string{"state"}).AddRow("PENDING"))
	mock.ExpectExec(`UPDATE notifications SET state`).
		WithArgs("notif-001", "SENT", "PENDING").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewPostgresNotifications(db)
	err = repo.UpdateState(context.Background(), "notif-001", models.StateSent)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresNotifications_UpdateState_InvalidTransition(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT state FROM notifications WHERE id`).
		WithArgs("notif-001").
		WillReturnRows(sqlmock.NewRows([]string{"state"}).AddRow("EXPIRED"))

	repo := NewPostgresNotifications(db)
	err = repo.UpdateState(context.Background(), "notif-001", models.StateSent)

	assert.Equal(t, errors.ErrCodeInvalidStateTransition, errors.CodeOf(err))
}

func TestPostgresNotifications_UpdateState_LostRace(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	// Another process transitions the row between the read and the update.
	mock.ExpectQuery(`SELECT state FROM notifications WHERE id`).
		WithArgs("notif-001").
		WillReturnRows(sqlmock.NewRows([]string{"state"}).AddRow("PENDING"))
	mock.ExpectExec(`UPDATE notifications SET state`).
		WithArgs("notif-001", "EXPIRED", "PENDING").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewPostgresNotifications(db)
	err = repo.UpdateState(context.Background(), "notif-001", models.StateExpired)

	assert.Equal(t, errors.ErrCodeInvalidStateTransition, errors.CodeOf(err))
}

func TestPostgresNotifications_UpdateState_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT state FROM notifications WHERE id`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"state"}))

	repo := NewPostgresNotifications(db)
	err = repo.UpdateState(context.Background(), "missing", models.StateSent)

	assert.True(t, errors.IsNotFound(err))
}
