// internal/service/fakes_test.go
package service

import (
	"context"
	"time"

	"immunization-engine/internal/common/errors"
	"immunization-engine/internal/models"
)

// ==========================
// In-Memory Repositories
// ==========================

type memChildren struct {
	children map[string]models.Child
}

func newMemChildren(children ...models.Child) *memChildren {
	m := &memChildren{children: map[string]models.Child{}}
	for _, c := range children {
		m.children[c.ID] = c
	}
	return m
}

func (m *memChildren) Create(_ context.Context, child models.Child) error {
	m.children[child.ID] = child
	return nil
}

func (m *memChildren) GetByID(_ context.Context, id string) (models.Child, error) {
	c, ok := m.children[id]
	if !ok {
		return models.Child{}, errors.NewChildNotFoundError(id)
	}
	return c, nil
}

func (m *memChildren) ListActive(_ context.Context) ([]models.Child, error) {
	var out []models.Child
	for _, c := range m.children {
		if c.Active {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memChildren) SetActive(_ context.Context, id string, active bool) error {
	c, ok := m.children[id]
	if !ok {
		return errors.NewChildNotFoundError(id)
	}
	c.Active = active
	m.children[id] = c
	return nil
}

type memVaccines struct {
	vaccines map[string]models.Vaccine
}

func newMemVaccines(vaccines ...models.Vaccine) *memVaccines {
	m := &memVaccines{vaccines: map[string]models.Vaccine{}}
	for _, v := range vaccines {
		m.vaccines[v.ID] = v
	}
	return m
}

func (m *memVaccines) Create(_ context.Context, vaccine models.Vaccine) error {
	m.vaccines[vaccine.ID] = vaccine
	return nil
}

func (m *memVaccines) GetByID(_ context.Context, id string) (models.Vaccine, error) {
	v, ok := m.vaccines[id]
	if !ok {
		return models.Vaccine{}, errors.NewVaccineNotFoundError(id)
	}
	return v, nil
}

func (m *memVaccines) List(_ context.Context, activeOnly bool) ([]models.Vaccine, error) {
	var out []models.Vaccine
	for _, v := range m.vaccines {
		if !activeOnly || v.Active {
			out = append(out, v)
		}
	}
	return out, nil
}

type memRecords struct {
	records   []models.VaccinationRecord
	createErr error
}

func (m *memRecords) Create(_ context.Context, record models.VaccinationRecord) error {
	if m.createErr != nil {
		return m.createErr
	}
	for _, r := range m.records {
		if r.ChildID == record.ChildID && r.VaccineID == record.VaccineID && r.DoseNumber == record.DoseNumber {
			return errors.NewDuplicateRecordError(record.ChildID, record.VaccineID, record.DoseNumber)
		}
	}
	m.records = append(m.records, record)
	return nil
}

func (m *memRecords) ListByChild(_ context.Context, childID string) ([]models.VaccinationRecord, error) {
	var out []models.VaccinationRecord
	for _, r := range m.records {
		if r.ChildID == childID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memRecords) GetByID(_ context.Context, id string) (models.VaccinationRecord, error) {
	for _, r := range m.records {
		if r.ID == id {
			return r, nil
		}
	}
	return models.VaccinationRecord{}, errors.NewRecordNotFoundError("recordId: " + id)
}

func (m *memRecords) AttachReaction(_ context.Context, recordID string, severity models.ReactionSeverity) (models.VaccinationRecord, error) {
	for i, r := range m.records {
		if r.ID == recordID {
			m.records[i].ReactionSeverity = severity
			return m.records[i], nil
		}
	}
	return models.VaccinationRecord{}, errors.NewRecordNotFoundError("recordId: " + recordID)
}

type memNotifications struct {
	notifications []models.Notification
	updateErr     error
}

func (m *memNotifications) Create(_ context.Context, n models.Notification) error {
	for _, existing := range m.notifications {
		if existing.State == models.StatePending && existing.DedupKey() == n.DedupKey() {
			return errors.NewDuplicateNotificationError(n.DedupKey())
		}
	}
	m.notifications = append(m.notifications, n)
	return nil
}

func (m *memNotifications) ListByChild(_ context.Context, childID string) ([]models.Notification, error) {
	var out []models.Notification
	for _, n := range m.notifications {
		if n.ChildID == childID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *memNotifications) UpdateState(_ context.Context, id string, state models.NotificationState) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	for i, n := range m.notifications {
		if n.ID == id {
			if !n.State.CanTransitionTo(state) {
				return errors.NewInvalidStateTransitionError(string(n.State), string(state))
			}
			m.notifications[i].State = state
			return nil
		}
	}
	return errors.NewRecordNotFoundError("notificationId: " + id)
}

func (m *memNotifications) ListPendingDue(_ context.Context, by time.Time, limit int) ([]models.Notification, error) {
	var out []models.Notification
	for _, n := range m.notifications {
		if n.State == models.StatePending && !n.ScheduledDate.After(by) {
			out = append(out, n)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *memNotifications) byType(t models.NotificationType) []models.Notification {
	var out []models.Notification
	for _, n := range m.notifications {
		if n.Type == t {
			out = append(out, n)
		}
	}
	return out
}
