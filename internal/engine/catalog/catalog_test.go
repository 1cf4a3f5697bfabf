// internal/engine/catalog/catalog_test.go
package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"immunization-engine/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

func testVaccines() []models.Vaccine {
	return []models.Vaccine{
		{ID: "v1", Code: "V1", Name: "Vacuna Uno", TotalDoses: 2, Active: true},
		{ID: "v2", Code: "V2", Name: "Vacuna Dos", TotalDoses: 1, Active: true},
	}
}

func testEntries() []models.ScheduleEntry {
	return []models.ScheduleEntry{
		{ID: "v1-1", VaccineID: "v1", DoseNumber: 1, TargetAgeDays: 60, IsMandatory: true, Active: true},
		{ID: "v1-2", VaccineID: "v1", DoseNumber: 2, TargetAgeDays: 120, IsMandatory: true, Active: true},
		{ID: "v2-1", VaccineID: "v2", DoseNumber: 1, TargetAgeDays: 0, IsMandatory: true, Active: true},
	}
}

// ==========================
// Construction Tests
// ==========================

func TestNew_ValidCatalog(t *testing.T) {
	cat, err := New(testVaccines(), testEntries())
	require.NoError(t, err)
	assert.Equal(t, 3, cat.Len())

	v, ok := cat.Vaccine("v1")
	assert.True(t, ok)
	assert.Equal(t, "Vacuna Uno", v.Name)
}

func TestNew_InvalidCatalogs(t *testing.T) {
	tests := []struct {
		name     string
		vaccines []models.Vaccine
		entries  []models.ScheduleEntry
	}{
		{
			name:     "vaccine with zero doses",
			vaccines: []models.Vaccine{{ID: "v1", Code: "V1", Name: "Uno", TotalDoses: 0, Active: true}},
			entries:  nil,
		},
		{
			name:     "entry references unknown vaccine",
			vaccines: testVaccines(),
			entries: []models.ScheduleEntry{
				{ID: "x-1", VaccineID: "ghost", DoseNumber: 1, TargetAgeDays: 0, Active: true},
			},
		},
		{
			name:     "dose numbers not contiguous",
			vaccines: testVaccines(),
			entries: []models.ScheduleEntry{
				{ID: "v1-1", VaccineID: "v1", DoseNumber: 1, TargetAgeDays: 60, Active: true},
				{ID: "v1-3", VaccineID: "v1", DoseNumber: 3, TargetAgeDays: 120, Active: true},
			},
		},
		{
			name:     "series does not start at dose one",
			vaccines: testVaccines(),
			entries: []models.ScheduleEntry{
				{ID: "v1-2", VaccineID: "v1", DoseNumber: 2, TargetAgeDays: 120, Active: true},
			},
		},
		{
			name:     "entry dose exceeds declared total",
			vaccines: []models.Vaccine{{ID: "v2", Code: "V2", Name: "Dos", TotalDoses: 1, Active: true}},
			entries: []models.ScheduleEntry{
				{ID: "v2-1", VaccineID: "v2", DoseNumber: 1, TargetAgeDays: 0, Active: true},
				{ID: "v2-2", VaccineID: "v2", DoseNumber: 2, TargetAgeDays: 60, Active: true},
			},
		},
		{
			name:     "target age decreases",
			vaccines: testVaccines(),
			entries: []models.ScheduleEntry{
				{ID: "v1-1", VaccineID: "v1", DoseNumber: 1, TargetAgeDays: 120, Active: true},
				{ID: "v1-2", VaccineID: "v1", DoseNumber: 2, TargetAgeDays: 60, Active: true},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.vaccines, tt.entries)
			assert.Error(t, err)
		})
	}
}

// ==========================
// Query Tests
// ==========================

func TestCatalog_EntriesForVaccine_SkipsInactive(t *testing.T) {
	entries := testEntries()
	entries[1].Active = false

	cat, err := New(testVaccines(), entries)
	require.NoError(t, err)

	active := cat.EntriesForVaccine("v1")
	require.Len(t, active, 1)
	assert.Equal(t, 1, active[0].DoseNumber)

	all := cat.AllEntriesForVaccine("v1")
	assert.Len(t, all, 2)
}

func TestCatalog_AgeQueries(t *testing.T) {
	cat, err := New(testVaccines(), testEntries())
	require.NoError(t, err)

	tests := []struct {
		name    string
		query   func() []models.ScheduleEntry
		wantIDs []string
	}{
		{
			name:    "entries for age includes everything at or below",
			query:   func() []models.ScheduleEntry { return cat.EntriesForAge(90) },
			wantIDs: []string{"v2-1", "v1-1"},
		},
		{
			name:    "entries for age zero",
			query:   func() []models.ScheduleEntry { return cat.EntriesForAge(0) },
			wantIDs: []string{"v2-1"},
		},
		{
			name:    "range is inclusive on both ends",
			query:   func() []models.ScheduleEntry { return cat.EntriesInAgeRange(60, 120) },
			wantIDs: []string{"v1-1", "v1-2"},
		},
		{
			name:    "exact age",
			query:   func() []models.ScheduleEntry { return cat.EntriesAtExactAge(120) },
			wantIDs: []string{"v1-2"},
		},
		{
			name:    "empty range",
			query:   func() []models.ScheduleEntry { return cat.EntriesInAgeRange(200, 300) },
			wantIDs: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.query()
			var ids []string
			for _, e := range got {
				ids = append(ids, e.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestCatalog_VaccineName(t *testing.T) {
	cat, err := New(testVaccines(), testEntries())
	require.NoError(t, err)

	assert.Equal(t, "Vacuna Dos", cat.VaccineName("v2"))
	assert.Equal(t, "unknown-id", cat.VaccineName("unknown-id"))
}

// ==========================
// Seed Tests
// ==========================

func TestDefault_SeedIsValid(t *testing.T) {
	cat := Default()
	assert.Equal(t, len(DefaultEntries()), cat.Len())
	assert.Len(t, cat.Vaccines(), len(DefaultVaccines()))

	// Birth doses are targeted at day zero.
	birth := cat.EntriesAtExactAge(0)
	require.Len(t, birth, 2)
	for _, e := range birth {
		assert.True(t, e.IsMandatory)
	}
}
