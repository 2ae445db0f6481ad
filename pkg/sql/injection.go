// Package sql screens spreadsheet cell values for SQL injection patterns
// before they are inlined into statements.
package sql

import (
	"sort"

	libinjection "github.com/corazawaf/libinjection-go"
)

// InjectionCheckResult contains the result of an injection check on a cell value.
type InjectionCheckResult struct {
	IsSQLi      bool   // True if SQL injection pattern detected
	Fingerprint string // libinjection fingerprint of the detected pattern
	Column      string // Header of the cell that failed the check
	Value       string // The value that was checked
}

// CheckCellForInjection uses libinjection to detect SQL injection patterns
// in a cell value.
//
// Returns nil if no injection is detected.
//
// Example:
//
//	result := CheckCellForInjection("Client", "'; DROP TABLE users--")
//	// result.IsSQLi == true
//	// result.Fingerprint == "s&1c" (or similar)
func CheckCellForInjection(column, value string) *InjectionCheckResult {
	isSQLi, fingerprint := libinjection.IsSQLi(value)
	if !isSQLi {
		return nil
	}
	return &InjectionCheckResult{
		IsSQLi:      true,
		Fingerprint: string(fingerprint),
		Column:      column,
		Value:       value,
	}
}

// CheckRow checks every cell of a row payload. Results are ordered by column.
func CheckRow(data map[string]string) []*InjectionCheckResult {
	columns := make([]string, 0, len(data))
	for c := range data {
		columns = append(columns, c)
	}
	sort.Strings(columns)

	var results []*InjectionCheckResult
	for _, c := range columns {
		if result := CheckCellForInjection(c, data[c]); result != nil {
			results = append(results, result)
		}
	}
	return results
}
