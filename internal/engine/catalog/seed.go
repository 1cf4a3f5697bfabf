// internal/engine/catalog/seed.go
package catalog

import "immunization-engine/internal/models"

// Seed data for the national immunization schedule. Ages are days from birth;
// explicit min/max bounds appear only where the clinical norm fixes a window
// narrower than the default anticipation/tolerance.

func days(n int) *int { return &n }

// DefaultVaccines returns the seeded vaccine definitions.
func DefaultVaccines() []models.Vaccine {
	return []models.Vaccine{
		{ID: "bcg", Code: "BCG", Name: "BCG", TotalDoses: 1, Active: true},
		{ID: "hvb", Code: "HVB", Name: "Hepatitis B", TotalDoses: 1, Active: true},
		{ID: "penta", Code: "PENTA", Name: "Pentavalente", TotalDoses: 3, Active: true},
		{ID: "polio", Code: "POLIO", Name: "Antipolio", TotalDoses: 3, Active: true},
		{ID: "rota", Code: "ROTA", Name: "Rotavirus", TotalDoses: 2, Active: true},
		{ID: "neumo", Code: "NEUMO", Name: "Neumococo", TotalDoses: 3, Active: true},
		{ID: "flu", Code: "FLU", Name: "Influenza", TotalDoses: 2, Active: true},
		{ID: "spr", Code: "SPR", Name: "Sarampion Paperas Rubeola", TotalDoses: 2, Active: true},
		{ID: "varicela", Code: "VAR", Name: "Varicela", TotalDoses: 1, Active: true},
		{ID: "dpt", Code: "DPT", Name: "DPT Refuerzo", TotalDoses: 2, Active: true},
	}
}

// DefaultEntries returns the seeded schedule rows.
func DefaultEntries() []models.ScheduleEntry {
	return []models.ScheduleEntry{
		// Birth
		{ID: "bcg-1", VaccineID: "bcg", DoseNumber: 1, TargetAgeDays: 0, MinAgeDays: days(0), MaxAgeDays: days(28), IsMandatory: true, Active: true},
		{ID: "hvb-1", VaccineID: "hvb", DoseNumber: 1, TargetAgeDays: 0, MinAgeDays: days(0), MaxAgeDays: days(1), IsMandatory: true, Active: true},

		// 2 months
		{ID: "penta-1", VaccineID: "penta", DoseNumber: 1, TargetAgeDays: 60, IsMandatory: true, Active: true},
		{ID: "polio-1", VaccineID: "polio", DoseNumber: 1, TargetAgeDays: 60, IsMandatory: true, Active: true},
		{ID: "rota-1", VaccineID: "rota", DoseNumber: 1, TargetAgeDays: 60, MaxAgeDays: days(105), IsMandatory: true, Active: true},
		{ID: "neumo-1", VaccineID: "neumo", DoseNumber: 1, TargetAgeDays: 60, IsMandatory: true, Active: true},

		// 4 months
		{ID: "penta-2", VaccineID: "penta", DoseNumber: 2, TargetAgeDays: 120, MinIntervalDays: days(28), IsMandatory: true, Active: true},
		{ID: "polio-2", VaccineID: "polio", DoseNumber: 2, TargetAgeDays: 120, MinIntervalDays: days(28), IsMandatory: true, Active: true},
		{ID: "rota-2", VaccineID: "rota", DoseNumber: 2, TargetAgeDays: 120, MaxAgeDays: days(210), MinIntervalDays: days(28), IsMandatory: true, Active: true},
		{ID: "neumo-2", VaccineID: "neumo", DoseNumber: 2, TargetAgeDays: 120, MinIntervalDays: days(28), IsMandatory: true, Active: true},

		// 6 months
		{ID: "penta-3", VaccineID: "penta", DoseNumber: 3, TargetAgeDays: 180, MinIntervalDays: days(28), IsMandatory: true, Active: true},
		{ID: "polio-3", VaccineID: "polio", DoseNumber: 3, TargetAgeDays: 180, MinIntervalDays: days(28), IsMandatory: true, Active: true},
		{ID: "flu-1", VaccineID: "flu", DoseNumber: 1, TargetAgeDays: 180, IsMandatory: false, Active: true},

		// 7 months
		{ID: "flu-2", VaccineID: "flu", DoseNumber: 2, TargetAgeDays: 210, MinIntervalDays: days(28), IsMandatory: false, Active: true},

		// 12 months
		{ID: "neumo-3", VaccineID: "neumo", DoseNumber: 3, TargetAgeDays: 365, MinIntervalDays: days(60), IsMandatory: true, Active: true},
		{ID: "spr-1", VaccineID: "spr", DoseNumber: 1, TargetAgeDays: 365, IsMandatory: true, Active: true},
		{ID: "varicela-1", VaccineID: "varicela", DoseNumber: 1, TargetAgeDays: 365, IsMandatory: false, Active: true},

		// 18 months
		{ID: "spr-2", VaccineID: "spr", DoseNumber: 2, TargetAgeDays: 540, MinIntervalDays: days(90), IsMandatory: true, Active: true},
		{ID: "dpt-1", VaccineID: "dpt", DoseNumber: 1, TargetAgeDays: 540, IsBooster: true, IsMandatory: true, Active: true},

		// 4 years
		{ID: "dpt-2", VaccineID: "dpt", DoseNumber: 2, TargetAgeDays: 1460, MinIntervalDays: days(180), IsBooster: true, IsMandatory: true, Active: true},
	}
}

// Default builds a catalog from the seed data. The seed is known-good, so a
// validation failure here is a programming error.
func Default() *Catalog {
	c, err := New(DefaultVaccines(), DefaultEntries())
	if err != nil {
		panic(err)
	}
	return c
}
