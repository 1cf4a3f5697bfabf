// internal/models/record.go
package models

import "time"

// ReactionSeverity grades an adverse reaction attached to a vaccination record.
type ReactionSeverity string

const (
	SeverityNone     ReactionSeverity = "NONE"
	SeverityMild     ReactionSeverity = "MILD"
	SeverityModerate ReactionSeverity = "MODERATE"
	SeveritySevere   ReactionSeverity = "SEVERE"
	SeverityCritical ReactionSeverity = "CRITICAL"
)

// Rank orders severities from NONE (0) to CRITICAL (4).
func (s ReactionSeverity) Rank() int {
	switch s {
	case SeverityMild:
		return 1
	case SeverityModerate:
		return 2
	case SeveritySevere:
		return 3
	case SeverityCritical:
		return 4
	default:
		return 0
	}
}

// AtLeast reports whether s is equal to or more severe than threshold.
func (s ReactionSeverity) AtLeast(threshold ReactionSeverity) bool {
	return s.Rank() >= threshold.Rank()
}

// Valid reports whether s is one of the closed severity values.
func (s ReactionSeverity) Valid() bool {
	switch s {
	case SeverityNone, SeverityMild, SeverityModerate, SeveritySevere, SeverityCritical:
		return true
	}
	return false
}

// VaccinationRecord is one applied dose. At most one record exists per
// (child, vaccine, dose number); the validator enforces that before creation
// and storage backs it with a unique constraint. Records are never mutated
// except to attach a later-reported reaction.
type VaccinationRecord struct {
	ID               string           `json:"id"`
	ChildID          string           `json:"childId"`
	VaccineID        string           `json:"vaccineId"`
	DoseNumber       int              `json:"doseNumber"`
	ApplicationDate  time.Time        `json:"applicationDate"`
	Site             string           `json:"site,omitempty"`
	LotNumber        string           `json:"lotNumber,omitempty"`
	ReactionSeverity ReactionSeverity `json:"reactionSeverity"`
	CreatedAt        time.Time        `json:"createdAt"`
}
