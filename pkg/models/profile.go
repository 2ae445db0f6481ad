package models

// DataType is the inferred storage type of a spreadsheet column.
type DataType string

const (
	DataTypeText    DataType = "text"
	DataTypeNumber  DataType = "number"
	DataTypeDate    DataType = "date"
	DataTypeBoolean DataType = "boolean"
	DataTypeEnum    DataType = "enum"
	DataTypeID      DataType = "id"
	DataTypeUnknown DataType = "unknown"
)

// Category is the semantic grouping of a column, derived from its name.
type Category string

const (
	CategoryFinancial   Category = "financial"
	CategoryDates       Category = "dates"
	CategoryPeople      Category = "people"
	CategoryStatus      Category = "status"
	CategoryCompanies   Category = "companies"
	CategoryContact     Category = "contact"
	CategoryIdentifiers Category = "identifiers"
	CategorySystem      Category = "system"
	CategoryOther       Category = "other"
)

// AllCategories lists categories in dictionary evaluation order, with other last.
var AllCategories = []Category{
	CategoryFinancial,
	CategoryDates,
	CategoryPeople,
	CategoryStatus,
	CategoryCompanies,
	CategoryContact,
	CategoryIdentifiers,
	CategorySystem,
	CategoryOther,
}

// IsValidCategory checks if the given category is known.
func IsValidCategory(c Category) bool {
	for _, known := range AllCategories {
		if known == c {
			return true
		}
	}
	return false
}

// ColumnStats holds per-column statistics computed over every row of a sheet.
// Numeric aggregates are nil unless the column is numeric and at least one value parsed.
type ColumnStats struct {
	Count          int            `json:"count"`
	NullCount      int            `json:"null_count"`
	NullPercentage int            `json:"null_percentage"`
	UniqueCount    int            `json:"unique_count"`
	Sum            *float64       `json:"sum,omitempty"`
	Avg            *float64       `json:"avg,omitempty"`
	Min            *float64       `json:"min,omitempty"`
	Max            *float64       `json:"max,omitempty"`
	Frequencies    map[string]int `json:"frequencies,omitempty"`
}

// NonNullCount returns the number of non-empty values.
func (s ColumnStats) NonNullCount() int {
	return s.Count - s.NullCount
}

// ColumnProfile describes one source column of an analyzed sheet.
type ColumnProfile struct {
	Name                string      `json:"name"`
	DisplayName         string      `json:"display_name"`
	Index               int         `json:"index"`
	DataType            DataType    `json:"data_type"`
	Category            Category    `json:"category"`
	Stats               ColumnStats `json:"stats"`
	SampleValues        []string    `json:"sample_values"`
	RecommendationScore float64     `json:"recommendation_score"`
	IsRecommended       bool        `json:"is_recommended"`
}

// TableProfile aggregates the column profiles of one sheet.
type TableProfile struct {
	SheetName         string                `json:"sheet_name"`
	HeaderRow         int                   `json:"header_row"`
	TotalRows         int                   `json:"total_rows"`
	TotalColumns      int                   `json:"total_columns"`
	Columns           []ColumnProfile       `json:"columns"`
	CategoryBuckets   map[Category][]string `json:"category_buckets"`
	RecommendedFields []string              `json:"recommended_fields"`
	Templates         []TemplateSuggestion  `json:"templates"`
}
