// internal/models/notification.go
package models

import (
	"fmt"
	"time"
)

// NotificationType is the closed set of alerts the scheduler materializes.
type NotificationType string

const (
	TypeDoseReminder     NotificationType = "DOSE_REMINDER"
	TypeDoseOverdue      NotificationType = "DOSE_OVERDUE"
	TypeBirthday         NotificationType = "BIRTHDAY"
	TypeAdverseReaction  NotificationType = "ADVERSE_REACTION"
	TypeScheduleComplete NotificationType = "SCHEDULE_COMPLETE"
)

// Valid reports whether t is one of the closed type values.
func (t NotificationType) Valid() bool {
	switch t {
	case TypeDoseReminder, TypeDoseOverdue, TypeBirthday, TypeAdverseReaction, TypeScheduleComplete:
		return true
	}
	return false
}

// Priority orders notifications for the user-facing list and gates SMS dispatch.
type Priority string

const (
	PriorityUrgent Priority = "URGENT"
	PriorityHigh   Priority = "HIGH"
	PriorityNormal Priority = "NORMAL"
	PriorityLow    Priority = "LOW"
)

// Rank orders priorities URGENT (0) first through LOW (3).
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 0
	case PriorityHigh:
		return 1
	case PriorityNormal:
		return 2
	default:
		return 3
	}
}

// Valid reports whether p is one of the closed priority values.
func (p Priority) Valid() bool {
	switch p {
	case PriorityUrgent, PriorityHigh, PriorityNormal, PriorityLow:
		return true
	}
	return false
}

// NotificationState is the delivery lifecycle. PENDING→SENT→READ is driven by
// delivery and acknowledgement; PENDING→EXPIRED by the daily pass. Rows are
// never deleted, only transitioned, to keep the audit trail.
type NotificationState string

const (
	StatePending NotificationState = "PENDING"
	StateSent    NotificationState = "SENT"
	StateRead    NotificationState = "READ"
	StateExpired NotificationState = "EXPIRED"
)

// Valid reports whether s is one of the closed state values.
func (s NotificationState) Valid() bool {
	switch s {
	case StatePending, StateSent, StateRead, StateExpired:
		return true
	}
	return false
}

// CanTransitionTo reports whether the state machine allows moving to next.
func (s NotificationState) CanTransitionTo(next NotificationState) bool {
	switch s {
	case StatePending:
		return next == StateSent || next == StateExpired
	case StateSent:
		return next == StateRead
	default:
		return false
	}
}

// Notification is one alert for a guardian. VaccineID is empty and DoseNumber
// zero for types that are not tied to a dose (birthday, schedule complete).
type Notification struct {
	ID             string            `json:"id"`
	ChildID        string            `json:"childId"`
	VaccineID      string            `json:"vaccineId,omitempty"`
	DoseNumber     int               `json:"doseNumber,omitempty"`
	Type           NotificationType  `json:"type"`
	Priority       Priority          `json:"priority"`
	State          NotificationState `json:"state"`
	Title          string            `json:"title"`
	Message        string            `json:"message"`
	ScheduledDate  time.Time         `json:"scheduledDate"`
	ExpirationDate *time.Time        `json:"expirationDate,omitempty"`
	CreatedAt      time.Time         `json:"createdAt"`
}

// DedupKey is the natural key used to suppress duplicate creation across
// repeated scheduler runs.
func (n Notification) DedupKey() string {
	return fmt.Sprintf("%s|%s|%s|%d", n.ChildID, n.VaccineID, n.Type, n.DoseNumber)
}
