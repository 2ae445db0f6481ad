package profiling

import (
	"sort"

	"github.com/montanaflynn/stats"

	"github.com/ekaya-inc/ekaya-sheets/pkg/models"
)

// RecommendationThreshold is the minimum score for a recommended column.
const RecommendationThreshold = 50

const (
	completenessWeight  = 0.3
	enumBonus           = 10
	numberBonus         = 15
	highCardinality     = 1000
	highCardinalityCost = 10
	nonSystemBonus      = 20
	minScore, maxScore  = 0.0, 100.0
)

var categoryWeights = map[models.Category]float64{
	models.CategoryFinancial:   25,
	models.CategoryStatus:      20,
	models.CategoryPeople:      18,
	models.CategoryDates:       15,
	models.CategoryCompanies:   15,
	models.CategoryContact:     12,
	models.CategoryIdentifiers: 10,
	models.CategoryOther:       5,
	models.CategorySystem:      0,
}

// Score rates how useful a column is for reporting, in [0, 100].
func Score(col models.ColumnProfile) float64 {
	score := categoryWeights[col.Category]
	score += (100 - float64(col.Stats.NullPercentage)) * completenessWeight

	switch col.DataType {
	case models.DataTypeEnum:
		score += enumBonus
	case models.DataTypeNumber:
		score += numberBonus
	}

	if col.Stats.UniqueCount > highCardinality {
		score -= highCardinalityCost
	}
	if col.Category != models.CategorySystem {
		score += nonSystemBonus
	}

	if score < minScore {
		score = minScore
	}
	if score > maxScore {
		score = maxScore
	}
	rounded, _ := stats.Round(score, 1)
	return rounded
}

// Rank returns a copy of columns ordered by descending score.
// Equal scores keep their original column order.
func Rank(columns []models.ColumnProfile) []models.ColumnProfile {
	ranked := make([]models.ColumnProfile, len(columns))
	copy(ranked, columns)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].RecommendationScore > ranked[j].RecommendationScore
	})
	return ranked
}
