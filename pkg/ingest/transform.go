package ingest

import (
	"time"

	"github.com/google/uuid"

	"github.com/ekaya-inc/ekaya-sheets/pkg/profiling"
	"github.com/ekaya-inc/ekaya-sheets/pkg/sheets"
)

// Meta carries the batch-level values stamped on every record.
type Meta struct {
	ProjectID  uuid.UUID
	BatchID    uuid.UUID
	Month      int
	Year       int
	ImportedAt time.Time
}

// Transformer converts sheet tables into records.
type Transformer struct {
	layouts *LayoutRegistry
}

// NewTransformer creates a transformer. A nil registry disables layouts.
func NewTransformer(layouts *LayoutRegistry) *Transformer {
	return &Transformer{layouts: layouts}
}

// Layout returns the layout bound to the target table, or nil.
func (t *Transformer) Layout(targetTable string) *Layout {
	return t.layouts.ForTable(targetTable)
}

// Transform builds one record per row with at least one non-blank cell.
// When targetTable has a layout, the header is validated against it first
// and each record gets the layout's derived fields.
func (t *Transformer) Transform(table *sheets.Table, targetTable string, meta Meta) ([]Record, error) {
	layout := t.Layout(targetTable)
	if layout != nil {
		if err := layout.Validate(table.Headers); err != nil {
			return nil, err
		}
	}

	records := make([]Record, 0, len(table.Rows))
	for i, row := range table.Rows {
		data := make(map[string]string, len(table.Headers))
		for c, header := range table.Headers {
			if c >= len(row) || profiling.IsBlank(row[c]) {
				continue
			}
			data[header] = row[c]
		}
		if len(data) == 0 {
			continue
		}

		rec := Record{
			ProjectID:  meta.ProjectID,
			BatchID:    meta.BatchID,
			RowNumber:  table.RowNumbers[i],
			Data:       data,
			Month:      meta.Month,
			Year:       meta.Year,
			ImportedAt: meta.ImportedAt,
		}
		if layout != nil {
			rec.Derived = layout.Derive(row)
		}
		records = append(records, rec)
	}
	return records, nil
}
