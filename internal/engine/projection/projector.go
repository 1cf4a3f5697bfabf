// internal/engine/projection/projector.go

// Package projection computes the pending/upcoming dose views and the
// completion metrics dashboards are built on. All operations are pure over
// the catalog and the history passed in; the reference date is always an
// explicit parameter so results are reproducible.
package projection

import (
	"math"
	"sort"
	"time"

	"immunization-engine/internal/common/errors"
	"immunization-engine/internal/engine/catalog"
	"immunization-engine/internal/models"
)

// Urgency ranks an upcoming dose by how soon it is due.
type Urgency string

const (
	UrgencyOverdue Urgency = "OVERDUE"
	UrgencyUrgent  Urgency = "URGENT"
	UrgencyHigh    Urgency = "HIGH"
	UrgencyNormal  Urgency = "NORMAL"
	UrgencyLow     Urgency = "LOW"
)

// Rank orders urgencies OVERDUE (0) first through LOW (4).
func (u Urgency) Rank() int {
	switch u {
	case UrgencyOverdue:
		return 0
	case UrgencyUrgent:
		return 1
	case UrgencyHigh:
		return 2
	case UrgencyNormal:
		return 3
	default:
		return 4
	}
}

// ScheduleStatus is the overall esquema label derived from completion and
// overdue count.
type ScheduleStatus string

const (
	StatusAtrasado   ScheduleStatus = "ATRASADO"
	StatusCompleto   ScheduleStatus = "COMPLETO"
	StatusEnProgreso ScheduleStatus = "EN_PROGRESO"
	StatusIncompleto ScheduleStatus = "INCOMPLETO"
)

// PendingDose is a catalog entry already due for a child and not yet applied.
type PendingDose struct {
	Vaccine     models.Vaccine       `json:"vaccine"`
	Entry       models.ScheduleEntry `json:"entry"`
	DoseNumber  int                  `json:"doseNumber"`
	TargetDate  time.Time            `json:"targetDate"`
	DaysOverdue int                  `json:"daysOverdue"`
	IsOverdue   bool                 `json:"isOverdue"`
}

// UpcomingDose is a catalog entry due within the lookahead window.
type UpcomingDose struct {
	Vaccine         models.Vaccine       `json:"vaccine"`
	Entry           models.ScheduleEntry `json:"entry"`
	DoseNumber      int                  `json:"doseNumber"`
	RecommendedDate time.Time            `json:"recommendedDate"`
	DaysUntil       int                  `json:"daysUntil"`
	Urgency         Urgency              `json:"urgency"`
	WindowStart     time.Time            `json:"windowStart"`
	WindowEnd       time.Time            `json:"windowEnd"`
}

// Config holds the projector tunables.
type Config struct {
	AnticipationDays         int
	ToleranceDays            int
	CompleteThresholdPercent float64
	ProgressThresholdPercent float64
}

// DefaultConfig returns the standard clinical-policy constants.
func DefaultConfig() Config {
	return Config{
		AnticipationDays:         14,
		ToleranceDays:            30,
		CompleteThresholdPercent: 95,
		ProgressThresholdPercent: 80,
	}
}

// Projector computes schedule projections against the catalog.
type Projector struct {
	catalog *catalog.Catalog
	cfg     Config
}

// NewProjector builds a projector over the given catalog.
func NewProjector(cat *catalog.Catalog, cfg Config) *Projector {
	return &Projector{catalog: cat, cfg: cfg}
}

func (p *Projector) checkInputs(cw models.ChildWithHistory, referenceDate time.Time, operation string) error {
	if cw.Child.BirthDate.IsZero() {
		return errors.NewMissingBirthDateError(cw.Child.ID)
	}
	if referenceDate.IsZero() {
		return errors.NewInvalidReferenceDateError(operation)
	}
	return nil
}

// PendingDoses returns every due-and-unapplied dose, overdue ones flagged.
// Ordered by target date ascending, ties broken by vaccine display name, so
// dashboards and tests see the same sequence every time.
func (p *Projector) PendingDoses(cw models.ChildWithHistory, referenceDate time.Time) ([]PendingDose, error) {
	if err := p.checkInputs(cw, referenceDate, "PendingDoses"); err != nil {
		return nil, err
	}

	birth := models.DateOnly(cw.Child.BirthDate)
	ageDays := cw.Child.AgeInDays(referenceDate)

	var out []PendingDose
	for _, e := range p.catalog.EntriesForAge(ageDays) {
		if cw.HasDose(e.VaccineID, e.DoseNumber) {
			continue
		}
		vaccine, ok := p.catalog.Vaccine(e.VaccineID)
		if !ok || !vaccine.Active {
			continue
		}
		targetDate := birth.AddDate(0, 0, e.TargetAgeDays)
		tolerance := e.ToleranceDays(p.cfg.ToleranceDays)
		overdueBy := models.DaysBetween(targetDate, referenceDate) - tolerance
		if overdueBy < 0 {
			overdueBy = 0
		}
		out = append(out, PendingDose{
			Vaccine:     vaccine,
			Entry:       e,
			DoseNumber:  e.DoseNumber,
			TargetDate:  targetDate,
			DaysOverdue: overdueBy,
			IsOverdue:   overdueBy > 0,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].TargetDate.Equal(out[j].TargetDate) {
			return out[i].TargetDate.Before(out[j].TargetDate)
		}
		if out[i].Vaccine.Name != out[j].Vaccine.Name {
			return out[i].Vaccine.Name < out[j].Vaccine.Name
		}
		return out[i].DoseNumber < out[j].DoseNumber
	})

	return out, nil
}

// UpcomingDoses returns the unapplied doses whose target age falls within the
// lookahead window, ranked by urgency then recommended date.
func (p *Projector) UpcomingDoses(cw models.ChildWithHistory, referenceDate time.Time, lookaheadDays int) ([]UpcomingDose, error) {
	if err := p.checkInputs(cw, referenceDate, "UpcomingDoses"); err != nil {
		return nil, err
	}

	birth := models.DateOnly(cw.Child.BirthDate)
	ageDays := cw.Child.AgeInDays(referenceDate)

	var out []UpcomingDose
	for _, e := range p.catalog.EntriesInAgeRange(ageDays, ageDays+lookaheadDays) {
		if cw.HasDose(e.VaccineID, e.DoseNumber) {
			continue
		}
		vaccine, ok := p.catalog.Vaccine(e.VaccineID)
		if !ok || !vaccine.Active {
			continue
		}
		recommended := birth.AddDate(0, 0, e.TargetAgeDays)
		daysUntil := models.DaysBetween(referenceDate, recommended)
		minAge, maxAge := e.Window(p.cfg.AnticipationDays, p.cfg.ToleranceDays)
		out = append(out, UpcomingDose{
			Vaccine:         vaccine,
			Entry:           e,
			DoseNumber:      e.DoseNumber,
			RecommendedDate: recommended,
			DaysUntil:       daysUntil,
			Urgency:         ClassifyUrgency(daysUntil, e.IsMandatory),
			WindowStart:     birth.AddDate(0, 0, minAge),
			WindowEnd:       birth.AddDate(0, 0, maxAge),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Urgency.Rank() != out[j].Urgency.Rank() {
			return out[i].Urgency.Rank() < out[j].Urgency.Rank()
		}
		if !out[i].RecommendedDate.Equal(out[j].RecommendedDate) {
			return out[i].RecommendedDate.Before(out[j].RecommendedDate)
		}
		if out[i].Vaccine.Name != out[j].Vaccine.Name {
			return out[i].Vaccine.Name < out[j].Vaccine.Name
		}
		return out[i].DoseNumber < out[j].DoseNumber
	})

	return out, nil
}

// ClassifyUrgency maps days-until-due and the mandatory flag to an urgency
// band. Urgency dominates date when sorting upcoming doses.
func ClassifyUrgency(daysUntil int, mandatory bool) Urgency {
	switch {
	case daysUntil < 0:
		return UrgencyOverdue
	case daysUntil <= 7 && mandatory:
		return UrgencyUrgent
	case daysUntil <= 7:
		return UrgencyHigh
	case daysUntil <= 30:
		return UrgencyHigh
	case daysUntil <= 60:
		return UrgencyNormal
	default:
		return UrgencyLow
	}
}

// Completion returns the percentage of mandatory doses applied out of those
// expected by the child's current age, in [0,100]. With no mandatory doses
// expected yet the schedule is vacuously complete.
func (p *Projector) Completion(cw models.ChildWithHistory, referenceDate time.Time) (float64, error) {
	if err := p.checkInputs(cw, referenceDate, "Completion"); err != nil {
		return 0, err
	}

	ageDays := cw.Child.AgeInDays(referenceDate)
	expected := 0
	applied := 0
	for _, e := range p.catalog.EntriesForAge(ageDays) {
		if !e.IsMandatory {
			continue
		}
		expected++
		if cw.HasDose(e.VaccineID, e.DoseNumber) {
			applied++
		}
	}
	if expected == 0 {
		return 100, nil
	}
	return math.Min(100, 100*float64(applied)/float64(expected)), nil
}

// Status derives the overall esquema label: ATRASADO when any mandatory dose
// is overdue, else banded by completion percentage.
func (p *Projector) Status(cw models.ChildWithHistory, referenceDate time.Time) (ScheduleStatus, error) {
	pending, err := p.PendingDoses(cw, referenceDate)
	if err != nil {
		return "", err
	}
	for _, pd := range pending {
		if pd.IsOverdue && pd.Entry.IsMandatory {
			return StatusAtrasado, nil
		}
	}

	completion, err := p.Completion(cw, referenceDate)
	if err != nil {
		return "", err
	}
	switch {
	case completion >= p.cfg.CompleteThresholdPercent:
		return StatusCompleto, nil
	case completion >= p.cfg.ProgressThresholdPercent:
		return StatusEnProgreso, nil
	default:
		return StatusIncompleto, nil
	}
}
