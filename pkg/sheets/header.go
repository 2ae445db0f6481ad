package sheets

import (
	"fmt"
	"strings"

	"github.com/ekaya-inc/ekaya-sheets/pkg/apperrors"
)

const (
	// HeaderSearchRows is how many leading rows are searched for the header.
	HeaderSearchRows = 20

	// minHeaderCells is the non-empty cell count a header row must exceed.
	minHeaderCells = 3
)

// Table is a sheet split into a header and its data rows.
type Table struct {
	SheetName string
	// HeaderRow is the 1-based sheet row of the header.
	HeaderRow int
	Headers   []string
	Rows      [][]string
	// RowNumbers holds the 1-based sheet row of each data row.
	RowNumbers []int
}

// PlaceholderName is the synthesized name of a blank header cell.
func PlaceholderName(position int) string {
	return fmt.Sprintf("Column %d", position)
}

// DetectHeader uses the first row within HeaderSearchRows that has more than
// three non-empty cells as the header. Earlier rows are titles and are dropped,
// as are blank data rows. Every data row is padded to the header width.
func DetectHeader(sheet *Sheet) (*Table, error) {
	headerIdx := -1
	for i, row := range sheet.Rows {
		if i >= HeaderSearchRows {
			break
		}
		if nonEmptyCells(row) > minHeaderCells {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return nil, apperrors.NewValidationError("sheet",
			"no header row found in the first %d rows of %q (a header needs more than %d filled cells)",
			HeaderSearchRows, sheet.Name, minHeaderCells)
	}

	table := NewTable(sheet.Name, sheet.Rows[headerIdx], sheet.Rows[headerIdx+1:], headerIdx+2)
	table.HeaderRow = headerIdx + 1
	return table, nil
}

// NewTable builds a Table from an explicit header row and the rows below it.
// firstRowNumber is the 1-based sheet row of rows[0].
func NewTable(sheetName string, header []string, rows [][]string, firstRowNumber int) *Table {
	width := len(header)
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}

	table := &Table{
		SheetName: sheetName,
		HeaderRow: firstRowNumber - 1,
		Headers:   headerNames(header, width),
	}
	for i, row := range rows {
		if isBlankRow(row) {
			continue
		}
		padded := make([]string, width)
		copy(padded, row)
		table.Rows = append(table.Rows, padded)
		table.RowNumbers = append(table.RowNumbers, firstRowNumber+i)
	}
	return table
}

// headerNames trims header cells, names blank ones by position and makes
// duplicates unique with a numeric suffix.
func headerNames(row []string, width int) []string {
	names := make([]string, width)
	seen := make(map[string]int, width)
	for i := 0; i < width; i++ {
		name := ""
		if i < len(row) {
			name = strings.Join(strings.Fields(row[i]), " ")
		}
		if name == "" {
			name = PlaceholderName(i + 1)
		}
		seen[name]++
		if n := seen[name]; n > 1 {
			name = fmt.Sprintf("%s (%d)", name, n)
		}
		names[i] = name
	}
	return names
}

func nonEmptyCells(row []string) int {
	n := 0
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			n++
		}
	}
	return n
}
