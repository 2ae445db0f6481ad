package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultTableName(t *testing.T) {
	tests := []struct {
		sheet string
		want  string
	}{
		{"Sales Deal", "sales_deals"},
		{"Company", "companies"},
		{"  Monthly-Report ", "monthly_reports"},
		{"март 2024", FallbackTableName},
		{"Лист1", FallbackTableName},
		{"", FallbackTableName},
	}

	for _, tt := range tests {
		t.Run(tt.sheet, func(t *testing.T) {
			assert.Equal(t, tt.want, DefaultTableName(tt.sheet))
		})
	}
}

func TestDefaultTableName_Truncates(t *testing.T) {
	name := DefaultTableName(strings.Repeat("word ", 30))
	assert.LessOrEqual(t, len(name), 63)
	assert.NoError(t, ValidateTableName(name))
}

func TestValidateTableName(t *testing.T) {
	for _, ok := range []string{"sales", "_staging", "Deals_2024", strings.Repeat("a", 63)} {
		assert.NoError(t, ValidateTableName(ok), ok)
	}
	for _, bad := range []string{"", "2024_sales", "sales-deals", "sales; DROP TABLE x", "public.sales", strings.Repeat("a", 64)} {
		assert.Error(t, ValidateTableName(bad), bad)
	}
}
