package profiling

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/ekaya-inc/ekaya-sheets/pkg/models"
)

//go:embed dictionary.yaml
var defaultDictionaryYAML []byte

// CategoryRule maps one category to the name patterns that select it.
type CategoryRule struct {
	Category models.Category `yaml:"category"`
	Patterns []string        `yaml:"patterns"`

	matchers []*regexp.Regexp
}

// FinancialLabels lists label variants for the columns of the financial template.
type FinancialLabels struct {
	ExpectedAccumulation []string `yaml:"expected_accumulation"`
	OneTimeDeposit       []string `yaml:"one_time_deposit"`
	ProductType          []string `yaml:"product_type"`
	Manufacturer         []string `yaml:"manufacturer"`
	TransferDate         []string `yaml:"transfer_date"`
}

// Dictionary is the ordered, data-driven table of category name patterns.
// A Dictionary is immutable after loading and safe for concurrent use.
type Dictionary struct {
	Categories []CategoryRule  `yaml:"categories"`
	Financial  FinancialLabels `yaml:"financial_template"`
}

// DefaultDictionary returns the built-in dictionary.
func DefaultDictionary() *Dictionary {
	d, err := ParseDictionary(defaultDictionaryYAML)
	if err != nil {
		panic(fmt.Sprintf("built-in category dictionary is invalid: %v", err))
	}
	return d
}

// LoadDictionary reads a dictionary override from path.
// An empty path returns the built-in dictionary.
func LoadDictionary(path string) (*Dictionary, error) {
	if path == "" {
		return DefaultDictionary(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read category dictionary: %w", err)
	}
	return ParseDictionary(data)
}

// ParseDictionary parses and compiles a YAML dictionary.
func ParseDictionary(data []byte) (*Dictionary, error) {
	var d Dictionary
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to parse category dictionary: %w", err)
	}
	if len(d.Categories) == 0 {
		return nil, fmt.Errorf("category dictionary has no categories")
	}

	for i := range d.Categories {
		rule := &d.Categories[i]
		if !models.IsValidCategory(rule.Category) || rule.Category == models.CategoryOther {
			return nil, fmt.Errorf("category dictionary entry %d: invalid category %q", i, rule.Category)
		}
		for _, p := range rule.Patterns {
			re, err := regexp.Compile("(?i)" + p)
			if err != nil {
				return nil, fmt.Errorf("category %s: invalid pattern %q: %w", rule.Category, p, err)
			}
			rule.matchers = append(rule.matchers, re)
		}
	}
	return &d, nil
}

// Categorize returns the first category whose patterns match the column name,
// or other when none match.
func (d *Dictionary) Categorize(columnName string) models.Category {
	name := NormalizeName(columnName)
	if name == "" {
		return models.CategoryOther
	}
	for _, rule := range d.Categories {
		for _, re := range rule.matchers {
			if re.MatchString(name) {
				return rule.Category
			}
		}
	}
	return models.CategoryOther
}

// NormalizeName puts a column name in NFC form, lower-cased with collapsed whitespace.
// Spreadsheets exported on macOS often carry decomposed Cyrillic (й as и + breve).
func NormalizeName(name string) string {
	name = norm.NFC.String(name)
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// Variants returns the label variants for a financial template field by its
// YAML key, or nil for an unknown field.
func (f FinancialLabels) Variants(field string) []string {
	switch field {
	case "expected_accumulation":
		return f.ExpectedAccumulation
	case "one_time_deposit":
		return f.OneTimeDeposit
	case "product_type":
		return f.ProductType
	case "manufacturer":
		return f.Manufacturer
	case "transfer_date":
		return f.TransferDate
	default:
		return nil
	}
}
