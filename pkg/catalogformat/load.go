// pkg/catalogformat/load.go
package catalogformat

import (
	"encoding/json"
	"os"
)

// Load reads and schema-validates a catalog file. Semantic checks (series
// contiguity, age ordering) belong to the catalog builder, not this package.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := ValidateBytes(data); err != nil {
		return nil, err
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return &f, nil
}
