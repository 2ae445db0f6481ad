package profiling

import (
	"strings"

	"github.com/montanaflynn/stats"

	"github.com/ekaya-inc/ekaya-sheets/pkg/models"
)

const (
	// MaxFrequencyEntries caps the value frequency map.
	MaxFrequencyEntries = 50
)

// ComputeStats computes statistics over every value of a column.
// Numeric aggregates are only filled for number columns and skip values that
// fail to parse; those values still count as non-null.
func ComputeStats(values []string, dataType models.DataType) models.ColumnStats {
	st := models.ColumnStats{Count: len(values)}

	counts := make(map[string]int)
	var order []string
	var numbers stats.Float64Data

	for _, raw := range values {
		v := strings.TrimSpace(raw)
		if v == "" {
			st.NullCount++
			continue
		}
		if _, seen := counts[v]; !seen {
			order = append(order, v)
		}
		counts[v]++

		if dataType == models.DataTypeNumber {
			if n, ok := ParseNumber(v); ok {
				numbers = append(numbers, n)
			}
		}
	}

	st.UniqueCount = len(counts)
	if st.Count > 0 {
		pct, _ := stats.Round(float64(st.NullCount)*100/float64(st.Count), 0)
		st.NullPercentage = int(pct)
	}

	if len(numbers) > 0 {
		st.Sum = aggregate(numbers.Sum)
		st.Avg = aggregate(numbers.Mean)
		st.Min = aggregate(numbers.Min)
		st.Max = aggregate(numbers.Max)
	}

	if wantsFrequencies(dataType, st.UniqueCount) {
		st.Frequencies = make(map[string]int, len(order))
		for _, v := range order {
			if len(st.Frequencies) >= MaxFrequencyEntries {
				break
			}
			st.Frequencies[v] = counts[v]
		}
	}

	return st
}

func wantsFrequencies(dataType models.DataType, unique int) bool {
	switch dataType {
	case models.DataTypeEnum:
		return true
	case models.DataTypeText, models.DataTypeBoolean:
		return unique > 0 && unique <= MaxFrequencyEntries
	default:
		return false
	}
}

func aggregate(fn func() (float64, error)) *float64 {
	v, err := fn()
	if err != nil {
		return nil
	}
	return &v
}
