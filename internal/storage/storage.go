// internal/storage/storage.go

// Package storage persists the engine's entities in PostgreSQL. The engine
// itself never touches these repositories: services load snapshots here, hand
// them to the pure engine, and persist what comes back. Unique constraints on
// (child_id, vaccine_id, dose_number) for records and on the pending
// notification natural key close the check-then-create races the engine
// cannot see.
package storage

import (
	"context"
	"time"

	"immunization-engine/internal/models"
)

// ChildRepository stores children.
type ChildRepository interface {
	Create(ctx context.Context, child models.Child) error
	GetByID(ctx context.Context, id string) (models.Child, error)
	ListActive(ctx context.Context) ([]models.Child, error)
	SetActive(ctx context.Context, id string, active bool) error
}

// VaccineRepository stores vaccine definitions.
type VaccineRepository interface {
	Create(ctx context.Context, vaccine models.Vaccine) error
	GetByID(ctx context.Context, id string) (models.Vaccine, error)
	List(ctx context.Context, activeOnly bool) ([]models.Vaccine, error)
}

// RecordRepository stores vaccination records.
type RecordRepository interface {
	Create(ctx context.Context, record models.VaccinationRecord) error
	ListByChild(ctx context.Context, childID string) ([]models.VaccinationRecord, error)
	GetByID(ctx context.Context, id string) (models.VaccinationRecord, error)
	// AttachReaction is the only permitted mutation of an existing record.
	AttachReaction(ctx context.Context, recordID string, severity models.ReactionSeverity) (models.VaccinationRecord, error)
}

// ScheduleRepository stores the schedule catalog rows.
type ScheduleRepository interface {
	// Seed inserts the catalog once. When entries already exist it is a
	// no-op and returns false; concurrent initializers all succeed.
	Seed(ctx context.Context, vaccines []models.Vaccine, entries []models.ScheduleEntry) (bool, error)
	LoadVaccines(ctx context.Context) ([]models.Vaccine, error)
	LoadEntries(ctx context.Context) ([]models.ScheduleEntry, error)
}

// NotificationRepository stores notifications. Rows are only ever inserted
// and state-transitioned, never deleted.
type NotificationRepository interface {
	Create(ctx context.Context, n models.Notification) error
	ListByChild(ctx context.Context, childID string) ([]models.Notification, error)
	UpdateState(ctx context.Context, id string, state models.NotificationState) error
	// ListPendingDue returns PENDING notifications whose scheduled date is at
	// or before the given date, ordered for dispatch.
	ListPendingDue(ctx context.Context, by time.Time, limit int) ([]models.Notification, error)
}
