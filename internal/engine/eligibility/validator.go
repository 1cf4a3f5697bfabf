// internal/engine/eligibility/validator.go

// Package eligibility decides whether a vaccine dose may be recorded for a
// child. The validator is a pure function over the catalog and the history
// snapshot it is given: it performs no I/O and keeps no state, so one
// instance is shared safely across concurrent callers. The caller persists
// the record only after an Allowed decision (or a Warning it chooses to
// override), and must back the duplicate check with a storage-level unique
// constraint since the snapshot may be stale.
package eligibility

import (
	"fmt"
	"time"

	"immunization-engine/internal/common/errors"
	"immunization-engine/internal/engine/catalog"
	"immunization-engine/internal/models"
)

// Config holds the validator tunables.
type Config struct {
	AnticipationDays    int
	ToleranceDays       int
	MaxRetroactiveYears int
}

// DefaultConfig returns the standard clinical-policy constants.
func DefaultConfig() Config {
	return Config{
		AnticipationDays:    14,
		ToleranceDays:       30,
		MaxRetroactiveYears: 20,
	}
}

// Validator applies the dose-eligibility rules against the schedule catalog.
type Validator struct {
	catalog *catalog.Catalog
	cfg     Config
}

// NewValidator builds a validator over the given catalog.
func NewValidator(cat *catalog.Catalog, cfg Config) *Validator {
	return &Validator{catalog: cat, cfg: cfg}
}

// ValidateDose runs the eligibility checks in order, short-circuiting on the
// first failure. The returned error is reserved for malformed input (missing
// dates); every business verdict is a Decision.
func (v *Validator) ValidateDose(cw models.ChildWithHistory, vaccine models.Vaccine, doseNumber int, applicationDate, referenceDate time.Time) (Decision, error) {
	if cw.Child.BirthDate.IsZero() {
		return Decision{}, errors.NewMissingBirthDateError(cw.Child.ID)
	}
	if applicationDate.IsZero() {
		return Decision{}, errors.NewMissingDateError("applicationDate")
	}
	if referenceDate.IsZero() {
		return Decision{}, errors.NewInvalidReferenceDateError("ValidateDose")
	}

	appDate := models.DateOnly(applicationDate)
	refDate := models.DateOnly(referenceDate)
	birth := models.DateOnly(cw.Child.BirthDate)

	// 1. Vaccine must be active.
	if !vaccine.Active {
		return Rejected(ReasonVaccineInactive, fmt.Sprintf("la vacuna %s esta inactiva", vaccine.Name)), nil
	}

	// 2. Application date sanity.
	if appDate.After(refDate) {
		return Rejected(ReasonDateInFuture, "la fecha de aplicacion no puede ser futura"), nil
	}
	if appDate.Before(birth) {
		return Rejected(ReasonDateBeforeBirth, "la fecha de aplicacion es anterior al nacimiento"), nil
	}
	if appDate.Before(refDate.AddDate(-v.cfg.MaxRetroactiveYears, 0, 0)) {
		return Rejected(ReasonDateTooOld, fmt.Sprintf("la fecha de aplicacion excede el limite de %d anos", v.cfg.MaxRetroactiveYears)), nil
	}

	// 3. Dose number within the declared series.
	if doseNumber < 1 {
		return Rejected(ReasonInvalidDoseNumber, "el numero de dosis debe ser positivo"), nil
	}
	if doseNumber > vaccine.TotalDoses {
		return Rejected(ReasonDoseExceedsSeries, fmt.Sprintf("la vacuna %s tiene solo %d dosis", vaccine.Name, vaccine.TotalDoses)), nil
	}

	// 4. The immediately preceding dose must exist.
	if doseNumber > 1 && !cw.HasDose(vaccine.ID, doseNumber-1) {
		return Rejected(ReasonPreviousDoseMissing, fmt.Sprintf("falta la dosis %d previa", doseNumber-1)), nil
	}

	// 5. Age window. A vaccine with no schedule at all is a warning, not a
	// rejection: it may be legitimately off-schedule (travel vaccines).
	entries := v.catalog.EntriesForVaccine(vaccine.ID)
	if len(entries) == 0 {
		return Warning(ReasonNoScheduleDefined, fmt.Sprintf("la vacuna %s no tiene esquema definido", vaccine.Name)), nil
	}
	ageAtApplication := models.DaysBetween(birth, appDate)
	inWindow := false
	for _, e := range entries {
		min, max := e.Window(v.cfg.AnticipationDays, v.cfg.ToleranceDays)
		if ageAtApplication >= min && ageAtApplication <= max {
			inWindow = true
			break
		}
	}
	if !inWindow {
		return Rejected(ReasonAgeInappropriate, fmt.Sprintf("edad de %d dias fuera de ventana para %s", ageAtApplication, vaccine.Name)), nil
	}

	// 6. Duplicate dose / completed series.
	if cw.HasDose(vaccine.ID, doseNumber) {
		return Rejected(ReasonDuplicateDose, fmt.Sprintf("la dosis %d ya fue aplicada", doseNumber)), nil
	}
	if cw.DosesApplied(vaccine.ID) >= vaccine.TotalDoses {
		return Rejected(ReasonSeriesComplete, fmt.Sprintf("el esquema de %s ya esta completo", vaccine.Name)), nil
	}

	// 7. Minimum interval since the previous dose, when the target entry
	// declares one.
	if last := cw.LastDose(vaccine.ID); last != nil {
		if entry := entryForDose(entries, doseNumber); entry != nil && entry.MinIntervalDays != nil {
			elapsed := models.DaysBetween(last.ApplicationDate, appDate)
			if elapsed < *entry.MinIntervalDays {
				remaining := *entry.MinIntervalDays - elapsed
				d := Rejected(ReasonIntervalNotMet, fmt.Sprintf("debe esperar %d dias mas", remaining))
				d.WaitDays = remaining
				return d, nil
			}
		}
	}

	return Allowed(), nil
}

func entryForDose(entries []models.ScheduleEntry, doseNumber int) *models.ScheduleEntry {
	for i := range entries {
		if entries[i].DoseNumber == doseNumber {
			return &entries[i]
		}
	}
	return nil
}
