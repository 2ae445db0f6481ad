package ingest

import (
	"regexp"
	"strings"

	"github.com/jinzhu/inflection"

	"github.com/ekaya-inc/ekaya-sheets/pkg/apperrors"
)

const (
	// FallbackTableName is used when a sheet name has no usable ASCII words.
	FallbackTableName = "sheet_imports"

	maxTableNameLen = 63
)

var (
	nonIdentChars  = regexp.MustCompile(`[^a-z0-9]+`)
	validTableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)
)

// DefaultTableName derives a plural snake_case table name from a sheet name,
// e.g. "Sales Deal" becomes "sales_deals".
func DefaultTableName(sheetName string) string {
	name := nonIdentChars.ReplaceAllString(strings.ToLower(sheetName), "_")
	name = strings.Trim(name, "_")
	if name == "" || name[0] >= '0' && name[0] <= '9' {
		return FallbackTableName
	}

	words := strings.Split(name, "_")
	words[len(words)-1] = inflection.Plural(words[len(words)-1])
	name = strings.Join(words, "_")
	if len(name) > maxTableNameLen {
		name = strings.TrimRight(name[:maxTableNameLen], "_")
	}
	return name
}

// ValidateTableName rejects names that are not plain SQL identifiers.
func ValidateTableName(name string) error {
	if !validTableName.MatchString(name) {
		return apperrors.NewValidationError("table", "invalid table name %q (letters, digits and underscores, up to 63 characters)", name)
	}
	return nil
}
