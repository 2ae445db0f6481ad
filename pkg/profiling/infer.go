package profiling

import (
	"strings"

	"github.com/ekaya-inc/ekaya-sheets/pkg/models"
)

const (
	// MaxSampleRows bounds the values examined by type inference.
	MaxSampleRows = 1000

	majorityThreshold = 0.8
	maxEnumUnique     = 20
	maxEnumRatio      = 0.3
)

// Sample returns at most MaxSampleRows leading values.
func Sample(values []string) []string {
	if len(values) > MaxSampleRows {
		return values[:MaxSampleRows]
	}
	return values
}

// InferType classifies sampled values. Rules are evaluated in order and the
// first match wins: boolean, date, number, enum, text. An empty sample is unknown.
func InferType(values []string) models.DataType {
	nonEmpty := nonEmptyValues(Sample(values))
	if len(nonEmpty) == 0 {
		return models.DataTypeUnknown
	}

	if allBoolean(nonEmpty) {
		return models.DataTypeBoolean
	}
	if ratio(nonEmpty, LooksLikeDate) >= majorityThreshold {
		return models.DataTypeDate
	}
	if ratio(nonEmpty, isNumber) >= majorityThreshold {
		return models.DataTypeNumber
	}

	unique := countUnique(nonEmpty)
	if unique <= maxEnumUnique && float64(unique) < float64(len(nonEmpty))*maxEnumRatio {
		return models.DataTypeEnum
	}
	return models.DataTypeText
}

func nonEmptyValues(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func allBoolean(values []string) bool {
	for _, v := range values {
		if !IsBooleanLiteral(v) {
			return false
		}
	}
	return true
}

func isNumber(s string) bool {
	_, ok := ParseNumber(s)
	return ok
}

func ratio(values []string, match func(string) bool) float64 {
	if len(values) == 0 {
		return 0
	}
	n := 0
	for _, v := range values {
		if match(v) {
			n++
		}
	}
	return float64(n) / float64(len(values))
}

func countUnique(values []string) int {
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		seen[strings.TrimSpace(v)] = struct{}{}
	}
	return len(seen)
}
