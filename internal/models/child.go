// internal/models/child.go
package models

import "time"

// Child is immutable after creation except for the Active flag. Age is always
// derived from BirthDate against an explicit reference date, never stored.
type Child struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	BirthDate  time.Time `json:"birthDate"`
	GuardianID string    `json:"guardianId"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"createdAt"`
}

// AgeInDays returns the child's age in full calendar days at the reference date.
func (c Child) AgeInDays(reference time.Time) int {
	return DaysBetween(c.BirthDate, reference)
}

// NextBirthday advances the birth date to the current year, rolling to the
// next year when it already passed.
func (c Child) NextBirthday(reference time.Time) time.Time {
	ref := DateOnly(reference)
	birth := DateOnly(c.BirthDate)
	next := time.Date(ref.Year(), birth.Month(), birth.Day(), 0, 0, 0, 0, time.UTC)
	if next.Before(ref) {
		next = next.AddDate(1, 0, 0)
	}
	return next
}

// ChildWithHistory is the composite the engine operates on: a child plus the
// vaccination records loaded for it. Query layers return this instead of
// attaching records onto the child.
type ChildWithHistory struct {
	Child   Child               `json:"child"`
	Records []VaccinationRecord `json:"records"`
}

// HasDose reports whether a record exists for the given vaccine and dose number.
func (cw ChildWithHistory) HasDose(vaccineID string, doseNumber int) bool {
	for _, r := range cw.Records {
		if r.VaccineID == vaccineID && r.DoseNumber == doseNumber {
			return true
		}
	}
	return false
}

// DosesApplied counts recorded doses for one vaccine.
func (cw ChildWithHistory) DosesApplied(vaccineID string) int {
	n := 0
	for _, r := range cw.Records {
		if r.VaccineID == vaccineID {
			n++
		}
	}
	return n
}

// LastDose returns the record with the highest dose number for the vaccine,
// or nil when none exist.
func (cw ChildWithHistory) LastDose(vaccineID string) *VaccinationRecord {
	var last *VaccinationRecord
	for i := range cw.Records {
		r := &cw.Records[i]
		if r.VaccineID != vaccineID {
			continue
		}
		if last == nil || r.DoseNumber > last.DoseNumber {
			last = r
		}
	}
	return last
}
