package profiling

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ekaya-inc/ekaya-sheets/pkg/models"
)

func column(name string, cat models.Category, dt models.DataType, nullPct, unique int) models.ColumnProfile {
	return models.ColumnProfile{
		Name:     name,
		Category: cat,
		DataType: dt,
		Stats:    models.ColumnStats{NullPercentage: nullPct, UniqueCount: unique},
	}
}

func TestScore(t *testing.T) {
	tests := []struct {
		name string
		col  models.ColumnProfile
		want float64
	}{
		{"complete financial number", column("amount", models.CategoryFinancial, models.DataTypeNumber, 0, 10), 90},
		{"status enum half empty", column("status", models.CategoryStatus, models.DataTypeEnum, 50, 3), 65},
		{"other text", column("notes", models.CategoryOther, models.DataTypeText, 10, 100), 52},
		{"high cardinality identifier", column("id", models.CategoryIdentifiers, models.DataTypeText, 0, 5000), 50},
		{"empty system column", column("created_at", models.CategorySystem, models.DataTypeText, 100, 0), 0},
		{"system clamps at zero", column("_hash", models.CategorySystem, models.DataTypeText, 100, 2000), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(tt.col)
			assert.InDelta(t, tt.want, got, 0.01)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 100.0)
		})
	}
}

func TestScore_SystemColumnWithNoValuesScoresLow(t *testing.T) {
	for _, dt := range []models.DataType{models.DataTypeText, models.DataTypeNumber, models.DataTypeEnum, models.DataTypeUnknown} {
		assert.LessOrEqual(t, Score(column("updated_at", models.CategorySystem, dt, 100, 0)), 30.0)
	}
}

func TestRank_StableForTies(t *testing.T) {
	cols := []models.ColumnProfile{
		{Name: "a", RecommendationScore: 40},
		{Name: "b", RecommendationScore: 70},
		{Name: "c", RecommendationScore: 40},
		{Name: "d", RecommendationScore: 70},
	}

	ranked := Rank(cols)

	names := make([]string, len(ranked))
	for i, c := range ranked {
		names[i] = c.Name
	}
	assert.Equal(t, []string{"b", "d", "a", "c"}, names)
	assert.Equal(t, "a", cols[0].Name, "input is not reordered")
}
