// Package ingest turns spreadsheet tables into records and loads them into
// tenant datastores in sequential sub-batches.
package ingest

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ekaya-inc/ekaya-sheets/pkg/adapters/datastore"
)

// Target table columns.
const (
	ColumnProjectID   = "project_id"
	ColumnBatchID     = "batch_id"
	ColumnRowNumber   = "row_number"
	ColumnData        = "data"
	ColumnPeriodMonth = "period_month"
	ColumnPeriodYear  = "period_year"
	ColumnImportedAt  = "imported_at"

	ColumnTotalExpectedAccumulation = "total_expected_accumulation"
	ColumnProductType               = "product_type"
	ColumnProducer                  = "producer"
	ColumnDocumentsTransferDate     = "documents_transfer_date"
)

var baseColumns = []datastore.Column{
	{Name: ColumnProjectID, Kind: datastore.KindUUID},
	{Name: ColumnBatchID, Kind: datastore.KindUUID},
	{Name: ColumnRowNumber, Kind: datastore.KindInteger},
	{Name: ColumnData, Kind: datastore.KindJSON},
	{Name: ColumnPeriodMonth, Kind: datastore.KindInteger},
	{Name: ColumnPeriodYear, Kind: datastore.KindInteger},
	{Name: ColumnImportedAt, Kind: datastore.KindTimestamp},
}

var layoutColumns = []datastore.Column{
	{Name: ColumnTotalExpectedAccumulation, Kind: datastore.KindDecimal, Nullable: true},
	{Name: ColumnProductType, Kind: datastore.KindText, Nullable: true},
	{Name: ColumnProducer, Kind: datastore.KindText, Nullable: true},
	{Name: ColumnDocumentsTransferDate, Kind: datastore.KindDate, Nullable: true},
}

// Record is one transformed spreadsheet row.
type Record struct {
	ProjectID uuid.UUID
	BatchID   uuid.UUID
	// RowNumber is the 1-based sheet row the record came from.
	RowNumber int
	// Data maps header names to non-blank cell values.
	Data map[string]string
	// Derived holds layout fields; nil without a layout.
	Derived    map[string]any
	Month      int
	Year       int
	ImportedAt time.Time
}

// Columns returns the target table columns, including layout columns when
// layout is not nil.
func Columns(layout *Layout) []datastore.Column {
	cols := make([]datastore.Column, 0, len(baseColumns)+len(layoutColumns))
	cols = append(cols, baseColumns...)
	if layout != nil {
		cols = append(cols, layoutColumns...)
	}
	return cols
}

// ColumnNames returns the names of Columns(layout).
func ColumnNames(layout *Layout) []string {
	cols := Columns(layout)
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names
}

// SchemaScript renders the provisioning script for a target table.
func SchemaScript(d datastore.Dialect, table string, layout *Layout) string {
	return datastore.CreateTableScript(d, table, Columns(layout))
}

// Values returns the record's values in the order of columns.
func (r Record) Values(columns []string) ([]any, error) {
	data, err := json.Marshal(r.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode row %d: %w", r.RowNumber, err)
	}

	values := make([]any, len(columns))
	for i, col := range columns {
		switch col {
		case ColumnProjectID:
			values[i] = r.ProjectID.String()
		case ColumnBatchID:
			values[i] = r.BatchID.String()
		case ColumnRowNumber:
			values[i] = r.RowNumber
		case ColumnData:
			values[i] = datastore.JSON(data)
		case ColumnPeriodMonth:
			values[i] = r.Month
		case ColumnPeriodYear:
			values[i] = r.Year
		case ColumnImportedAt:
			values[i] = r.ImportedAt.UTC()
		default:
			v, ok := r.Derived[col]
			if !ok {
				return nil, fmt.Errorf("row %d has no value for column %s", r.RowNumber, col)
			}
			values[i] = v
		}
	}
	return values, nil
}
