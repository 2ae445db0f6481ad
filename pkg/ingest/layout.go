package ingest

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/ekaya-inc/ekaya-sheets/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-sheets/pkg/profiling"
)

//go:embed layouts.yaml
var defaultLayoutsYAML []byte

// Layout fields. Keys match the financial_template labels of the dictionary.
const (
	FieldExpectedAccumulation = "expected_accumulation"
	FieldOneTimeDeposit       = "one_time_deposit"
	FieldProductType          = "product_type"
	FieldManufacturer         = "manufacturer"
	FieldTransferDate         = "transfer_date"
)

var layoutFields = []string{
	FieldExpectedAccumulation,
	FieldOneTimeDeposit,
	FieldProductType,
	FieldManufacturer,
	FieldTransferDate,
}

// Accepted calendar years for layout dates.
const (
	MinDateYear = 1900
	MaxDateYear = 2100
)

// Position binds a layout field to a column and the header labels it accepts.
type Position struct {
	Field  string
	Index  int
	Labels []string
}

// Layout is a versioned fixed-position column map for one target table.
type Layout struct {
	ID        string
	Version   int
	Table     string
	Positions []Position
}

type layoutFile struct {
	Layouts []struct {
		ID        string         `yaml:"id"`
		Version   int            `yaml:"version"`
		Table     string         `yaml:"table"`
		Positions map[string]int `yaml:"positions"`
	} `yaml:"layouts"`
}

// LayoutRegistry resolves layouts by target table name.
// It is immutable after loading and safe for concurrent use.
type LayoutRegistry struct {
	byTable map[string]*Layout
}

// DefaultLayouts returns the built-in layouts labelled from dict.
func DefaultLayouts(dict *profiling.Dictionary) *LayoutRegistry {
	r, err := ParseLayouts(defaultLayoutsYAML, dict)
	if err != nil {
		panic(fmt.Sprintf("built-in layouts are invalid: %v", err))
	}
	return r
}

// LoadLayouts reads a layout override from path. An empty path returns the
// built-in layouts.
func LoadLayouts(path string, dict *profiling.Dictionary) (*LayoutRegistry, error) {
	if path == "" {
		return DefaultLayouts(dict), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read layouts: %w", err)
	}
	return ParseLayouts(data, dict)
}

// ParseLayouts parses layouts and attaches header labels from dict.
func ParseLayouts(data []byte, dict *profiling.Dictionary) (*LayoutRegistry, error) {
	if dict == nil {
		dict = profiling.DefaultDictionary()
	}

	var f layoutFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse layouts: %w", err)
	}

	r := &LayoutRegistry{byTable: make(map[string]*Layout, len(f.Layouts))}
	for _, l := range f.Layouts {
		if l.ID == "" || l.Table == "" {
			return nil, fmt.Errorf("layout needs an id and a table")
		}
		if _, dup := r.byTable[l.Table]; dup {
			return nil, fmt.Errorf("layout %s: table %s already has a layout", l.ID, l.Table)
		}

		layout := &Layout{ID: l.ID, Version: l.Version, Table: l.Table}
		for _, field := range layoutFields {
			idx, ok := l.Positions[field]
			if !ok {
				return nil, fmt.Errorf("layout %s: missing position for %s", l.ID, field)
			}
			if idx < 0 {
				return nil, fmt.Errorf("layout %s: negative position for %s", l.ID, field)
			}
			labels := dict.Financial.Variants(field)
			if len(labels) == 0 {
				return nil, fmt.Errorf("layout %s: no header labels for %s", l.ID, field)
			}
			layout.Positions = append(layout.Positions, Position{Field: field, Index: idx, Labels: labels})
		}
		sort.Slice(layout.Positions, func(i, j int) bool { return layout.Positions[i].Index < layout.Positions[j].Index })
		r.byTable[l.Table] = layout
	}
	return r, nil
}

// ForTable returns the layout bound to table, or nil.
func (r *LayoutRegistry) ForTable(table string) *Layout {
	if r == nil {
		return nil
	}
	return r.byTable[table]
}

// Validate checks that every position holds a header with an accepted label.
func (l *Layout) Validate(headers []string) error {
	var problems []string
	for _, p := range l.Positions {
		if p.Index >= len(headers) {
			problems = append(problems, fmt.Sprintf("column %d (%s) is missing", p.Index+1, p.Field))
			continue
		}
		if !matchesLabel(headers[p.Index], p.Labels) {
			problems = append(problems, fmt.Sprintf("column %d (%s) is %q, expected one of %q",
				p.Index+1, p.Field, headers[p.Index], p.Labels))
		}
	}
	if len(problems) > 0 {
		return apperrors.NewValidationError("header",
			"sheet does not match layout %s v%d: %s", l.ID, l.Version, strings.Join(problems, "; "))
	}
	return nil
}

func matchesLabel(header string, labels []string) bool {
	h := profiling.NormalizeName(header)
	for _, label := range labels {
		if strings.Contains(h, profiling.NormalizeName(label)) {
			return true
		}
	}
	return false
}

// Derive computes the layout's derived fields from one padded row.
func (l *Layout) Derive(row []string) map[string]any {
	cells := make(map[string]string, len(l.Positions))
	for _, p := range l.Positions {
		if p.Index < len(row) {
			cells[p.Field] = strings.TrimSpace(row[p.Index])
		}
	}

	return map[string]any{
		ColumnTotalExpectedAccumulation: sumAmounts(cells[FieldExpectedAccumulation], cells[FieldOneTimeDeposit]),
		ColumnProductType:               nonEmpty(cells[FieldProductType]),
		ColumnProducer:                  nonEmpty(cells[FieldManufacturer]),
		ColumnDocumentsTransferDate:     ExtractDate(cells[FieldTransferDate]),
	}
}

// sumAmounts returns the sum of the parseable amounts, or nil when the sum
// is not positive.
func sumAmounts(values ...string) any {
	total := decimal.Zero
	for _, v := range values {
		if f, ok := profiling.ParseNumber(v); ok {
			total = total.Add(decimal.NewFromFloat(f))
		}
	}
	if total.Sign() <= 0 {
		return nil
	}
	return total.Round(2)
}

func nonEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// MinDateSerial is the smallest spreadsheet serial read as a date (1910-01-01).
// Smaller numbers are years, counts or amounts rather than dates.
const MinDateSerial = 3654

// ExtractDate reads a date cell written as text or as a spreadsheet serial
// and returns it as YYYY-MM-DD. Unparseable values, serials below
// MinDateSerial and years outside [MinDateYear, MaxDateYear] yield nil.
func ExtractDate(cell string) any {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return nil
	}

	t, ok := profiling.ParseDate(cell)
	if !ok {
		if serial, err := strconv.ParseFloat(cell, 64); err != nil || serial < MinDateSerial {
			return nil
		}
		t, ok = profiling.ParseExcelSerial(cell)
	}
	if !ok || t.Year() < MinDateYear || t.Year() > MaxDateYear {
		return nil
	}
	return t.Format(time.DateOnly)
}
