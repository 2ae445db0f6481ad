package models

// CalculatedFieldOperation is the arithmetic applied to a calculated field's sources.
type CalculatedFieldOperation string

const (
	OperationSum      CalculatedFieldOperation = "sum"
	OperationSubtract CalculatedFieldOperation = "subtract"
	OperationMultiply CalculatedFieldOperation = "multiply"
	OperationDivide   CalculatedFieldOperation = "divide"
	OperationConcat   CalculatedFieldOperation = "concat"
)

// Chart type constants used by template suggestions.
const (
	ChartTypeBar = "bar"
	ChartTypePie = "pie"
)

// CalculatedField is a derived column defined over existing source columns.
type CalculatedField struct {
	Name          string                   `json:"name"`
	Formula       string                   `json:"formula"`
	SourceColumns []string                 `json:"source_columns"`
	Operation     CalculatedFieldOperation `json:"operation"`
}

// ChartConfig describes a chart a consumer may render for a template.
type ChartConfig struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	ValueColumn string `json:"value_column"`
	GroupBy     string `json:"group_by"`
}

// TemplateSuggestion is a synthesized report definition.
// Suggestions are analysis output and are not persisted by this service.
type TemplateSuggestion struct {
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	Icon             string            `json:"icon"`
	Description      string            `json:"description"`
	Columns          []string          `json:"columns"`
	CardColumns      []string          `json:"card_columns"`
	FilterColumns    []string          `json:"filter_columns"`
	CalculatedFields []CalculatedField `json:"calculated_fields,omitempty"`
	Charts           []ChartConfig     `json:"charts,omitempty"`
}
