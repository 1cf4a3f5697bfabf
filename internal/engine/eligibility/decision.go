// internal/engine/eligibility/decision.go
package eligibility

// Outcome is the closed set of validation verdicts.
type Outcome string

const (
	OutcomeAllowed  Outcome = "ALLOWED"
	OutcomeWarning  Outcome = "WARNING"
	OutcomeRejected Outcome = "REJECTED"
)

// ReasonCode is a machine-distinguishable reason attached to warnings and
// rejections, so callers can render the right message without string matching.
type ReasonCode string

const (
	ReasonNone                ReasonCode = ""
	ReasonVaccineInactive     ReasonCode = "VACCINE_INACTIVE"
	ReasonDateInFuture        ReasonCode = "DATE_IN_FUTURE"
	ReasonDateBeforeBirth     ReasonCode = "DATE_BEFORE_BIRTH"
	ReasonDateTooOld          ReasonCode = "DATE_TOO_OLD"
	ReasonInvalidDoseNumber   ReasonCode = "INVALID_DOSE_NUMBER"
	ReasonDoseExceedsSeries   ReasonCode = "DOSE_EXCEEDS_SERIES"
	ReasonPreviousDoseMissing ReasonCode = "PREVIOUS_DOSE_MISSING"
	ReasonAgeInappropriate    ReasonCode = "AGE_INAPPROPRIATE"
	ReasonNoScheduleDefined   ReasonCode = "NO_SCHEDULE_DEFINED"
	ReasonDuplicateDose       ReasonCode = "DUPLICATE_DOSE"
	ReasonSeriesComplete      ReasonCode = "SERIES_COMPLETE"
	ReasonIntervalNotMet      ReasonCode = "INTERVAL_NOT_MET"
)

// Decision is the validator verdict. Rejections are expected and frequent, so
// they travel as values, never as errors.
type Decision struct {
	Outcome Outcome    `json:"outcome"`
	Reason  ReasonCode `json:"reason,omitempty"`
	Message string     `json:"message,omitempty"`
	// WaitDays is set only for INTERVAL_NOT_MET: the remaining days before
	// the dose becomes applicable.
	WaitDays int `json:"waitDays,omitempty"`
}

// Allowed returns the passing decision.
func Allowed() Decision {
	return Decision{Outcome: OutcomeAllowed}
}

// Warning returns a non-blocking decision the caller may override explicitly.
func Warning(reason ReasonCode, message string) Decision {
	return Decision{Outcome: OutcomeWarning, Reason: reason, Message: message}
}

// Rejected returns a blocking decision.
func Rejected(reason ReasonCode, message string) Decision {
	return Decision{Outcome: OutcomeRejected, Reason: reason, Message: message}
}

// IsAllowed reports whether the dose may be recorded without an override.
func (d Decision) IsAllowed() bool { return d.Outcome == OutcomeAllowed }

// Blocking reports whether the caller must not persist the record.
func (d Decision) Blocking() bool { return d.Outcome == OutcomeRejected }
