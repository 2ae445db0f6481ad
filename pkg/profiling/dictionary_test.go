package profiling

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/ekaya-sheets/pkg/models"
)

func TestDictionary_Categorize(t *testing.T) {
	dict := DefaultDictionary()

	tests := []struct {
		name string
		want models.Category
	}{
		{"Amount", models.CategoryFinancial},
		{"Сумма взноса", models.CategoryFinancial},
		{"Expected accumulation", models.CategoryFinancial},
		{"Дата заключения", models.CategoryDates},
		{"Documents transfer date", models.CategoryDates},
		{"ФИО клиента", models.CategoryPeople},
		{"Status", models.CategoryStatus},
		{"Статус сделки", models.CategoryStatus},
		{"New manufacturer", models.CategoryCompanies},
		{"Email", models.CategoryContact},
		{"Тел. мобильный", models.CategoryContact},
		{"Номер договора", models.CategoryIdentifiers},
		{"ID", models.CategoryIdentifiers},
		{"customer_id", models.CategoryPeople},
		{"created_at", models.CategorySystem},
		{"Comments", models.CategoryOther},
		{"", models.CategoryOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, dict.Categorize(tt.name))
		})
	}
}

func TestNormalizeName(t *testing.T) {
	decomposed := "Новы\u0438\u0306  Тип"
	assert.Equal(t, "новый тип", NormalizeName(decomposed))
}

func TestParseDictionary_Override(t *testing.T) {
	dict, err := ParseDictionary([]byte(`
categories:
  - category: financial
    patterns: ['margin']
  - category: status
    patterns: ['margin call']
`))
	require.NoError(t, err)

	assert.Equal(t, models.CategoryFinancial, dict.Categorize("Margin call"), "first category wins")
	assert.Equal(t, models.CategoryOther, dict.Categorize("Amount"))
}

func TestParseDictionary_Errors(t *testing.T) {
	_, err := ParseDictionary([]byte(`categories: []`))
	assert.Error(t, err)

	_, err = ParseDictionary([]byte(`
categories:
  - category: money
    patterns: ['x']
`))
	assert.ErrorContains(t, err, "invalid category")

	_, err = ParseDictionary([]byte(`
categories:
  - category: other
    patterns: ['x']
`))
	assert.ErrorContains(t, err, "invalid category")

	_, err = ParseDictionary([]byte(`
categories:
  - category: financial
    patterns: ['(unclosed']
`))
	assert.ErrorContains(t, err, "invalid pattern")
}

func TestLoadDictionary(t *testing.T) {
	dict, err := LoadDictionary("")
	require.NoError(t, err)
	assert.NotEmpty(t, dict.Categories)

	path := filepath.Join(t.TempDir(), "dictionary.yaml")
	require.NoError(t, os.WriteFile(path, []byte("categories:\n  - category: people\n    patterns: ['owner']\n"), 0o600))
	dict, err = LoadDictionary(path)
	require.NoError(t, err)
	assert.Equal(t, models.CategoryPeople, dict.Categorize("Owner"))

	_, err = LoadDictionary(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
