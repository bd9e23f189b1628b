package aggregation

import (
	"attendsum/internal/errors"
)

// ValidateHeader checks an uploaded table's header against the required column
// set for the source. It returns a SchemaError naming every missing column and
// the full expected set; it must run before any aggregation is attempted.
func ValidateHeader(source Source, header []string) error {
	present := make(map[string]bool, len(header))
	for _, col := range header {
		present[col] = true
	}

	expected := source.RequiredColumns()
	var missing []string
	for _, col := range expected {
		if !present[col] {
			missing = append(missing, col)
		}
	}

	if len(missing) > 0 {
		return errors.NewSchemaError(source.DisplayName(), missing, expected)
	}
	return nil
}
