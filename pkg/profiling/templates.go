package profiling

import (
	"fmt"
	"strings"

	"github.com/ekaya-inc/ekaya-sheets/pkg/models"
)

const (
	// SummaryFieldLimit is the number of recommended fields in the general summary.
	SummaryFieldLimit = 15

	TemplateIDFinancial = "financial_deposits"
	TemplateIDSummary   = "general_summary"
	TemplateIDCustom    = "custom"

	// TotalAccumulationField names the calculated sum of the two core amount columns.
	TotalAccumulationField = "total_expected_accumulation"
)

// slice takes up to Take columns from one category bucket.
type slice struct {
	Category models.Category
	Take     int
}

// cooccurrencePattern emits a template when every required category has
// at least the given number of columns.
type cooccurrencePattern struct {
	ID          string
	Name        string
	Icon        string
	Description string
	Requires    map[models.Category]int
	Slices      []slice
}

var cooccurrencePatterns = []cooccurrencePattern{
	{
		ID:          "commission_report",
		Name:        "Commission report",
		Icon:        "percent",
		Description: "Amounts and commissions by status over time",
		Requires: map[models.Category]int{
			models.CategoryFinancial: 2,
			models.CategoryStatus:    1,
			models.CategoryDates:     1,
		},
		Slices: []slice{
			{models.CategoryFinancial, 3},
			{models.CategoryStatus, 1},
			{models.CategoryDates, 1},
		},
	},
	{
		ID:          "process_report",
		Name:        "Process report",
		Icon:        "workflow",
		Description: "Track records through their processing stages",
		Requires: map[models.Category]int{
			models.CategoryIdentifiers: 1,
			models.CategoryStatus:      1,
		},
		Slices: []slice{
			{models.CategoryIdentifiers, 2},
			{models.CategoryStatus, 2},
		},
	},
	{
		ID:          "contacts_report",
		Name:        "Contacts report",
		Icon:        "users",
		Description: "People and how to reach them",
		Requires: map[models.Category]int{
			models.CategoryPeople:  1,
			models.CategoryContact: 1,
		},
		Slices: []slice{
			{models.CategoryPeople, 2},
			{models.CategoryContact, 3},
		},
	},
}

// Synthesizer builds template suggestions from analyzed columns.
type Synthesizer struct {
	dict *Dictionary
}

// NewSynthesizer creates a Synthesizer using the dictionary's financial labels.
func NewSynthesizer(dict *Dictionary) *Synthesizer {
	return &Synthesizer{dict: dict}
}

// Synthesize returns, in order: the financial template (when one of its core
// amount columns is present), every matching co-occurrence template, the
// general summary and the custom template.
func (s *Synthesizer) Synthesize(buckets map[models.Category][]string, recommended []string, columns []models.ColumnProfile) []models.TemplateSuggestion {
	var out []models.TemplateSuggestion

	if t, ok := s.financialTemplate(columns); ok {
		out = append(out, t)
	}

	categoryOf := make(map[string]models.Category, len(columns))
	for _, c := range columns {
		categoryOf[c.Name] = c.Category
	}

	for _, p := range cooccurrencePatterns {
		if t, ok := p.build(buckets, categoryOf); ok {
			out = append(out, t)
		}
	}

	out = append(out, summaryTemplate(recommended, categoryOf), customTemplate())
	return out
}

func (s *Synthesizer) financialTemplate(columns []models.ColumnProfile) (models.TemplateSuggestion, bool) {
	labels := s.dict.Financial
	accumulation := findColumn(columns, labels.ExpectedAccumulation)
	deposit := findColumn(columns, labels.OneTimeDeposit)
	if accumulation == "" && deposit == "" {
		return models.TemplateSuggestion{}, false
	}
	productType := findColumn(columns, labels.ProductType)
	manufacturer := findColumn(columns, labels.Manufacturer)
	transferDate := findColumn(columns, labels.TransferDate)

	t := models.TemplateSuggestion{
		ID:          TemplateIDFinancial,
		Name:        "Deposits and accumulations",
		Icon:        "wallet",
		Description: "Expected accumulations and one-time deposits by product and manufacturer",
	}
	for _, c := range []string{accumulation, deposit} {
		if c != "" {
			t.Columns = append(t.Columns, c)
			t.CardColumns = append(t.CardColumns, c)
		}
	}
	for _, c := range []string{productType, manufacturer, transferDate} {
		if c != "" {
			t.Columns = append(t.Columns, c)
			t.FilterColumns = append(t.FilterColumns, c)
		}
	}

	valueColumn := accumulation
	if valueColumn == "" {
		valueColumn = deposit
	}
	if accumulation != "" && deposit != "" {
		t.CalculatedFields = []models.CalculatedField{{
			Name:          TotalAccumulationField,
			Formula:       fmt.Sprintf("[%s] + [%s]", accumulation, deposit),
			SourceColumns: []string{accumulation, deposit},
			Operation:     models.OperationSum,
		}}
		t.CardColumns = append(t.CardColumns, TotalAccumulationField)
		valueColumn = TotalAccumulationField
	}

	if manufacturer != "" {
		t.Charts = append(t.Charts, models.ChartConfig{
			Type:        models.ChartTypeBar,
			Title:       "By manufacturer",
			ValueColumn: valueColumn,
			GroupBy:     manufacturer,
		})
	}
	if productType != "" {
		t.Charts = append(t.Charts, models.ChartConfig{
			Type:        models.ChartTypePie,
			Title:       "By product type",
			ValueColumn: valueColumn,
			GroupBy:     productType,
		})
	}
	return t, true
}

// findColumn returns the first column whose normalized name equals one of the
// variants, falling back to the first substring match.
func findColumn(columns []models.ColumnProfile, variants []string) string {
	normalized := make([]string, len(variants))
	for i, v := range variants {
		normalized[i] = NormalizeName(v)
	}
	for _, c := range columns {
		name := NormalizeName(c.Name)
		for _, v := range normalized {
			if name == v {
				return c.Name
			}
		}
	}
	for _, c := range columns {
		name := NormalizeName(c.Name)
		for _, v := range normalized {
			if v != "" && strings.Contains(name, v) {
				return c.Name
			}
		}
	}
	return ""
}

func (p cooccurrencePattern) build(buckets map[models.Category][]string, categoryOf map[string]models.Category) (models.TemplateSuggestion, bool) {
	for cat, n := range p.Requires {
		if len(buckets[cat]) < n {
			return models.TemplateSuggestion{}, false
		}
	}

	var columns []string
	seen := make(map[string]bool)
	for _, sl := range p.Slices {
		bucket := buckets[sl.Category]
		if len(bucket) > sl.Take {
			bucket = bucket[:sl.Take]
		}
		for _, c := range bucket {
			if !seen[c] {
				seen[c] = true
				columns = append(columns, c)
			}
		}
	}

	t := models.TemplateSuggestion{
		ID:          p.ID,
		Name:        p.Name,
		Icon:        p.Icon,
		Description: p.Description,
		Columns:     columns,
	}
	assignRoles(&t, categoryOf)
	return t, true
}

func summaryTemplate(recommended []string, categoryOf map[string]models.Category) models.TemplateSuggestion {
	fields := recommended
	if len(fields) > SummaryFieldLimit {
		fields = fields[:SummaryFieldLimit]
	}
	t := models.TemplateSuggestion{
		ID:          TemplateIDSummary,
		Name:        "General summary",
		Icon:        "table",
		Description: "The most relevant fields of this sheet",
		Columns:     append([]string{}, fields...),
	}
	assignRoles(&t, categoryOf)
	return t
}

func customTemplate() models.TemplateSuggestion {
	return models.TemplateSuggestion{
		ID:            TemplateIDCustom,
		Name:          "Custom report",
		Icon:          "plus",
		Description:   "Start from an empty report and pick fields yourself",
		Columns:       []string{},
		CardColumns:   []string{},
		FilterColumns: []string{},
	}
}

// assignRoles makes financial columns summary cards and status, date, people
// and company columns filters.
func assignRoles(t *models.TemplateSuggestion, categoryOf map[string]models.Category) {
	t.CardColumns = []string{}
	t.FilterColumns = []string{}
	for _, c := range t.Columns {
		switch categoryOf[c] {
		case models.CategoryFinancial:
			t.CardColumns = append(t.CardColumns, c)
		case models.CategoryStatus, models.CategoryDates, models.CategoryPeople, models.CategoryCompanies:
			t.FilterColumns = append(t.FilterColumns, c)
		}
	}
}
