// pkg/catalogformat/schema_test.go
package catalogformat

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"immunization-engine/internal/engine/catalog"
)

// ==========================
// Test Helper Functions
// ==========================

const validDocument = `{
  "version": "2025.1",
  "lastUpdated": "2025-08-01",
  "vaccines": [
    {"id": "bcg", "code": "BCG", "name": "BCG", "totalDoses": 1},
    {"id": "penta", "code": "PENTA", "name": "Pentavalente", "totalDoses": 2, "active": false}
  ],
  "entries": [
    {"vaccineId": "bcg", "doseNumber": 1, "targetAgeDays": 0, "maxAgeDays": 28, "isMandatory": true},
    {"vaccineId": "penta", "doseNumber": 1, "targetAgeDays": 60, "isMandatory": true},
    {"vaccineId": "penta", "doseNumber": 2, "targetAgeDays": 120, "minIntervalDays": 28, "isMandatory": true}
  ]
}`

// ==========================
// Schema Validation Tests
// ==========================

func TestValidateBytes_ValidDocument(t *testing.T) {
	assert.NoError(t, ValidateBytes([]byte(validDocument)))
}

func TestValidateBytes_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		document string
	}{
		{"not json", `{{`},
		{"missing version", `{"vaccines": [{"id": "bcg", "code": "BCG", "name": "BCG", "totalDoses": 1}], "entries": [{"vaccineId": "bcg", "doseNumber": 1, "targetAgeDays": 0}]}`},
		{"empty vaccines", `{"version": "1", "vaccines": [], "entries": [{"vaccineId": "bcg", "doseNumber": 1, "targetAgeDays": 0}]}`},
		{"zero total doses", `{"version": "1", "vaccines": [{"id": "bcg", "code": "BCG", "name": "BCG", "totalDoses": 0}], "entries": [{"vaccineId": "bcg", "doseNumber": 1, "targetAgeDays": 0}]}`},
		{"dose number zero", `{"version": "1", "vaccines": [{"id": "bcg", "code": "BCG", "name": "BCG", "totalDoses": 1}], "entries": [{"vaccineId": "bcg", "doseNumber": 0, "targetAgeDays": 0}]}`},
		{"negative target age", `{"version": "1", "vaccines": [{"id": "bcg", "code": "BCG", "name": "BCG", "totalDoses": 1}], "entries": [{"vaccineId": "bcg", "doseNumber": 1, "targetAgeDays": -1}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, ValidateBytes([]byte(tt.document)))
		})
	}
}

// ==========================
// Model Conversion Tests
// ==========================

func TestFile_Models(t *testing.T) {
	var f File
	require.NoError(t, json.Unmarshal([]byte(validDocument), &f))

	vaccines, entries := f.Models()

	require.Len(t, vaccines, 2)
	assert.True(t, vaccines[0].Active, "absent active field defaults to in-service")
	assert.False(t, vaccines[1].Active)

	require.Len(t, entries, 3)
	assert.Equal(t, "bcg-1", entries[0].ID)
	assert.Equal(t, "penta-2", entries[2].ID)
	require.NotNil(t, entries[0].MaxAgeDays)
	assert.Equal(t, 28, *entries[0].MaxAgeDays)
	assert.Nil(t, entries[1].MinIntervalDays)
	require.NotNil(t, entries[2].MinIntervalDays)
	assert.Equal(t, 28, *entries[2].MinIntervalDays)
	for _, e := range entries {
		assert.True(t, e.Active)
	}
}

func TestFile_ModelsBuildValidCatalog(t *testing.T) {
	var f File
	require.NoError(t, json.Unmarshal([]byte(validDocument), &f))

	vaccines, entries := f.Models()
	cat, err := catalog.New(vaccines, entries)

	require.NoError(t, err)
	assert.Equal(t, 3, cat.Len())
}

// ==========================
// File Loading Tests
// ==========================

func TestLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(validDocument), 0o644))

	f, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "2025.1", f.Version)
	assert.Len(t, f.Vaccines, 2)
	assert.Len(t, f.Entries, 3)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestLoad_InvalidDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version": "1"}`), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
