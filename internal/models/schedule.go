// internal/models/schedule.go
package models

// ScheduleEntry is one row of the national immunization schedule: which dose
// of which vaccine is expected at which age. Dose numbers are 1-based and
// contiguous per vaccine; target age is non-decreasing with dose number.
type ScheduleEntry struct {
	ID              string `json:"id"`
	VaccineID       string `json:"vaccineId"`
	DoseNumber      int    `json:"doseNumber"`
	TargetAgeDays   int    `json:"targetAgeDays"`
	MinAgeDays      *int   `json:"minAgeDays,omitempty"`
	MaxAgeDays      *int   `json:"maxAgeDays,omitempty"`
	MinIntervalDays *int   `json:"minIntervalDays,omitempty"`
	IsBooster       bool   `json:"isBooster"`
	IsMandatory     bool   `json:"isMandatory"`
	Active          bool   `json:"active"`
}

// Window returns the age range (inclusive, in days from birth) during which
// this dose is considered on-time. Explicit min/max bounds win; otherwise the
// configured anticipation/tolerance defaults apply around the target age.
func (e ScheduleEntry) Window(anticipationDays, toleranceDays int) (min, max int) {
	min = e.TargetAgeDays - anticipationDays
	if e.MinAgeDays != nil {
		min = *e.MinAgeDays
	}
	if min < 0 {
		min = 0
	}
	max = e.TargetAgeDays + toleranceDays
	if e.MaxAgeDays != nil {
		max = *e.MaxAgeDays
	}
	return min, max
}

// ToleranceDays returns the number of days past the target age before the
// dose counts as overdue, derived from the explicit max bound when present.
func (e ScheduleEntry) ToleranceDays(defaultToleranceDays int) int {
	if e.MaxAgeDays != nil {
		t := *e.MaxAgeDays - e.TargetAgeDays
		if t >= 0 {
			return t
		}
	}
	return defaultToleranceDays
}
