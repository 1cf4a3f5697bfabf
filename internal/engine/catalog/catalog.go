// internal/engine/catalog/catalog.go
package catalog

import (
	"fmt"
	"sort"

	"immunization-engine/internal/common/errors"
	"immunization-engine/internal/models"
)

// Catalog is the in-memory view of the national immunization schedule. It is
// built once from loaded data, validated, and never mutated afterwards, so it
// is safe to share across goroutines.
type Catalog struct {
	vaccines map[string]models.Vaccine
	byVacc   map[string][]models.ScheduleEntry
	entries  []models.ScheduleEntry
}

// New builds a catalog from loaded vaccines and schedule entries. Malformed
// catalog data (unknown vaccine references, non-contiguous dose numbers,
// decreasing target ages) is a configuration error and fails hard here rather
// than surfacing later as wrong projections.
func New(vaccines []models.Vaccine, entries []models.ScheduleEntry) (*Catalog, error) {
	c := &Catalog{
		vaccines: make(map[string]models.Vaccine, len(vaccines)),
		byVacc:   make(map[string][]models.ScheduleEntry),
	}

	for _, v := range vaccines {
		if v.TotalDoses < 1 {
			return nil, errors.NewCatalogInvalidError(fmt.Sprintf("vaccine %s declares %d doses", v.Code, v.TotalDoses))
		}
		c.vaccines[v.ID] = v
	}

	for _, e := range entries {
		if _, ok := c.vaccines[e.VaccineID]; !ok {
			return nil, errors.NewCatalogInvalidError(fmt.Sprintf("entry %s references unknown vaccine %s", e.ID, e.VaccineID))
		}
		c.byVacc[e.VaccineID] = append(c.byVacc[e.VaccineID], e)
	}

	for vaccineID, list := range c.byVacc {
		sort.Slice(list, func(i, j int) bool { return list[i].DoseNumber < list[j].DoseNumber })
		if err := validateSeries(c.vaccines[vaccineID], list); err != nil {
			return nil, err
		}
		c.byVacc[vaccineID] = list
		c.entries = append(c.entries, list...)
	}

	// Deterministic iteration order for the age queries.
	sort.Slice(c.entries, func(i, j int) bool {
		a, b := c.entries[i], c.entries[j]
		if a.TargetAgeDays != b.TargetAgeDays {
			return a.TargetAgeDays < b.TargetAgeDays
		}
		if a.VaccineID != b.VaccineID {
			return a.VaccineID < b.VaccineID
		}
		return a.DoseNumber < b.DoseNumber
	})

	return c, nil
}

// validateSeries checks the per-vaccine invariants: dose numbers form a
// contiguous 1..TotalDoses prefix and target age never decreases.
func validateSeries(v models.Vaccine, entries []models.ScheduleEntry) error {
	prevTarget := -1
	for i, e := range entries {
		if e.DoseNumber != i+1 {
			return errors.NewCatalogInvalidError(fmt.Sprintf("vaccine %s: dose numbers not contiguous (got %d at position %d)", v.Code, e.DoseNumber, i+1))
		}
		if e.DoseNumber > v.TotalDoses {
			return errors.NewCatalogInvalidError(fmt.Sprintf("vaccine %s: entry dose %d exceeds declared total %d", v.Code, e.DoseNumber, v.TotalDoses))
		}
		if e.TargetAgeDays < prevTarget {
			return errors.NewCatalogInvalidError(fmt.Sprintf("vaccine %s: target age decreases at dose %d", v.Code, e.DoseNumber))
		}
		prevTarget = e.TargetAgeDays
	}
	return nil
}

// Vaccine looks up a vaccine definition by id.
func (c *Catalog) Vaccine(id string) (models.Vaccine, bool) {
	v, ok := c.vaccines[id]
	return v, ok
}

// VaccineName returns the display name for a vaccine id, or the id itself
// when unknown.
func (c *Catalog) VaccineName(id string) string {
	if v, ok := c.vaccines[id]; ok {
		return v.Name
	}
	return id
}

// Vaccines returns all vaccine definitions, active or not.
func (c *Catalog) Vaccines() []models.Vaccine {
	out := make([]models.Vaccine, 0, len(c.vaccines))
	for _, v := range c.vaccines {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// EntriesForVaccine returns the active entries for one vaccine ordered by
// dose number.
func (c *Catalog) EntriesForVaccine(vaccineID string) []models.ScheduleEntry {
	var out []models.ScheduleEntry
	for _, e := range c.byVacc[vaccineID] {
		if e.Active {
			out = append(out, e)
		}
	}
	return out
}

// AllEntriesForVaccine returns every entry for one vaccine, inactive included.
func (c *Catalog) AllEntriesForVaccine(vaccineID string) []models.ScheduleEntry {
	return append([]models.ScheduleEntry(nil), c.byVacc[vaccineID]...)
}

// EntriesForAge returns active entries whose target age is at or below ageDays.
func (c *Catalog) EntriesForAge(ageDays int) []models.ScheduleEntry {
	var out []models.ScheduleEntry
	for _, e := range c.entries {
		if e.Active && e.TargetAgeDays <= ageDays {
			out = append(out, e)
		}
	}
	return out
}

// EntriesInAgeRange returns active entries whose target age falls in
// [minDays, maxDays], both inclusive.
func (c *Catalog) EntriesInAgeRange(minDays, maxDays int) []models.ScheduleEntry {
	var out []models.ScheduleEntry
	for _, e := range c.entries {
		if e.Active && e.TargetAgeDays >= minDays && e.TargetAgeDays <= maxDays {
			out = append(out, e)
		}
	}
	return out
}

// EntriesAtExactAge returns active entries targeted at exactly ageDays.
func (c *Catalog) EntriesAtExactAge(ageDays int) []models.ScheduleEntry {
	return c.EntriesInAgeRange(ageDays, ageDays)
}

// Len returns the total number of entries, inactive included.
func (c *Catalog) Len() int {
	return len(c.entries)
}
