// pkg/catalogformat/schema.go

// Package catalogformat defines the JSON file format for importing a
// vaccination schedule catalog, plus its JSON-schema validation.
package catalogformat

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	"immunization-engine/internal/models"
)

// File is the top-level import document.
type File struct {
	Version     string       `json:"version"`
	LastUpdated string       `json:"lastUpdated"`
	Vaccines    []VaccineDef `json:"vaccines"`
	Entries     []EntryDef   `json:"entries"`
}

// VaccineDef declares one vaccine and its series length. Active is a
// pointer so an absent field defaults to in-service rather than retired.
type VaccineDef struct {
	ID         string `json:"id"`
	Code       string `json:"code"`
	Name       string `json:"name"`
	TotalDoses int    `json:"totalDoses"`
	Active     *bool  `json:"active,omitempty"`
}

// EntryDef declares one dose of a vaccine series. Optional window and
// interval fields stay nil when absent so the engine can apply its defaults.
type EntryDef struct {
	VaccineID       string `json:"vaccineId"`
	DoseNumber      int    `json:"doseNumber"`
	TargetAgeDays   int    `json:"targetAgeDays"`
	MinAgeDays      *int   `json:"minAgeDays,omitempty"`
	MaxAgeDays      *int   `json:"maxAgeDays,omitempty"`
	MinIntervalDays *int   `json:"minIntervalDays,omitempty"`
	IsBooster       bool   `json:"isBooster"`
	IsMandatory     bool   `json:"isMandatory"`
}

const schemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["version", "vaccines", "entries"],
  "properties": {
    "version": {"type": "string", "minLength": 1},
    "lastUpdated": {"type": "string"},
    "vaccines": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["id", "code", "name", "totalDoses"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "code": {"type": "string", "minLength": 1},
          "name": {"type": "string", "minLength": 1},
          "totalDoses": {"type": "integer", "minimum": 1},
          "active": {"type": "boolean"}
        }
      }
    },
    "entries": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["vaccineId", "doseNumber", "targetAgeDays"],
        "properties": {
          "vaccineId": {"type": "string", "minLength": 1},
          "doseNumber": {"type": "integer", "minimum": 1},
          "targetAgeDays": {"type": "integer", "minimum": 0},
          "minAgeDays": {"type": "integer", "minimum": 0},
          "maxAgeDays": {"type": "integer", "minimum": 0},
          "minIntervalDays": {"type": "integer", "minimum": 1},
          "isBooster": {"type": "boolean"},
          "isMandatory": {"type": "boolean"}
        }
      }
    }
  }
}`

// ValidateBytes checks a raw document against the catalog schema before any
// unmarshalling happens. Structural errors come back joined, one per finding.
func ValidateBytes(data []byte) error {
	schemaLoader := gojsonschema.NewStringLoader(schemaJSON)
	documentLoader := gojsonschema.NewBytesLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("catalog validation failed: %v", errs)
	}
	return nil
}

// Models converts the file into engine model slices. Active defaults to true
// when the field is absent from the document: an imported vaccine that says
// nothing is in service.
func (f *File) Models() ([]models.Vaccine, []models.ScheduleEntry) {
	vaccines := make([]models.Vaccine, 0, len(f.Vaccines))
	for _, v := range f.Vaccines {
		active := true
		if v.Active != nil {
			active = *v.Active
		}
		vaccines = append(vaccines, models.Vaccine{
			ID:         v.ID,
			Code:       v.Code,
			Name:       v.Name,
			TotalDoses: v.TotalDoses,
			Active:     active,
		})
	}

	entries := make([]models.ScheduleEntry, 0, len(f.Entries))
	for _, e := range f.Entries {
		entries = append(entries, models.ScheduleEntry{
			ID:              fmt.Sprintf("%s-%d", e.VaccineID, e.DoseNumber),
			VaccineID:       e.VaccineID,
			DoseNumber:      e.DoseNumber,
			TargetAgeDays:   e.TargetAgeDays,
			MinAgeDays:      e.MinAgeDays,
			MaxAgeDays:      e.MaxAgeDays,
			MinIntervalDays: e.MinIntervalDays,
			IsBooster:       e.IsBooster,
			IsMandatory:     e.IsMandatory,
			Active:          true,
		})
	}
	return vaccines, entries
}
