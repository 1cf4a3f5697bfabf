// internal/models/vaccine.go
package models

// Vaccine is a catalog-level vaccine definition. TotalDoses >= 1 always.
type Vaccine struct {
	ID         string `json:"id"`
	Code       string `json:"code"`
	Name       string `json:"name"`
	TotalDoses int    `json:"totalDoses"`
	Active     bool   `json:"active"`
}
