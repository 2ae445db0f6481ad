package profiling

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-sheets/pkg/models"
)

func sampleSheet() ([]string, [][]string) {
	headers := []string{"Policy number", "Client", "Status", "Expected accumulation", "One-time deposit", "created_at"}
	statuses := []string{"new", "signed", "closed"}
	rows := make([][]string, 0, 30)
	for i := 0; i < 30; i++ {
		rows = append(rows, []string{
			fmt.Sprintf("P-%04d", i),
			fmt.Sprintf("Client %d", i),
			statuses[i%len(statuses)],
			fmt.Sprintf("%d 000", 100+i),
			fmt.Sprintf("%d,50", i),
		})
	}
	return headers, rows
}

func TestAnalyzer_AnalyzeColumn(t *testing.T) {
	a := NewAnalyzer(nil, zap.NewNop())

	col := a.AnalyzeColumn("expected_accumulation", 3, []string{"100", "200", "", "300"})

	assert.Equal(t, "Expected Accumulation", col.DisplayName)
	assert.Equal(t, models.DataTypeNumber, col.DataType)
	assert.Equal(t, models.CategoryFinancial, col.Category)
	assert.Equal(t, 1, col.Stats.NullCount)
	assert.Equal(t, []string{"100", "200", "300"}, col.SampleValues)
	assert.True(t, col.IsRecommended)
}

func TestAnalyzer_AnalyzeColumnDefaultsToTextOther(t *testing.T) {
	a := NewAnalyzer(nil, zap.NewNop())

	col := a.AnalyzeColumn("Remarks", 0, []string{"first remark", "second remark", "third remark"})

	assert.Equal(t, models.DataTypeText, col.DataType)
	assert.Equal(t, models.CategoryOther, col.Category)
}

func TestAnalyzer_AnalyzeTable(t *testing.T) {
	a := NewAnalyzer(nil, zap.NewNop())
	headers, rows := sampleSheet()

	profile, err := a.AnalyzeTable(context.Background(), "Deals", headers, rows)
	require.NoError(t, err)

	assert.Equal(t, 30, profile.TotalRows)
	assert.Equal(t, 6, profile.TotalColumns)
	assert.Equal(t, []string{"Expected accumulation", "One-time deposit"}, profile.CategoryBuckets[models.CategoryFinancial])
	assert.Equal(t, models.DataTypeEnum, profile.Columns[2].DataType)
	assert.Equal(t, models.DataTypeUnknown, profile.Columns[5].DataType, "short rows are padded with blanks")
	assert.Equal(t, 100, profile.Columns[5].Stats.NullPercentage)
	assert.NotContains(t, profile.RecommendedFields, "created_at")
	assert.Equal(t, "Expected accumulation", profile.RecommendedFields[0])

	ids := templateIDs(profile.Templates)
	assert.Equal(t, TemplateIDFinancial, ids[0])
	assert.Contains(t, ids, "process_report")
	assert.Equal(t, []string{TemplateIDSummary, TemplateIDCustom}, ids[len(ids)-2:])
}

func TestAnalyzer_AnalyzeTableIsDeterministic(t *testing.T) {
	a := NewAnalyzer(nil, zap.NewNop())
	headers, rows := sampleSheet()

	first, err := a.AnalyzeTable(context.Background(), "Deals", headers, rows)
	require.NoError(t, err)
	second, err := a.AnalyzeTable(context.Background(), "Deals", headers, rows)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, a.AnalyzeColumn("Status", 2, columnValues(rows, 2)), first.Columns[2])
}

func TestAnalyzer_AnalyzeTableHonorsCancellation(t *testing.T) {
	a := NewAnalyzer(nil, zap.NewNop())
	headers, rows := sampleSheet()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.AnalyzeTable(ctx, "Deals", headers, rows)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestHumanize(t *testing.T) {
	assert.Equal(t, "Expected Accumulation", Humanize("expected_accumulation"))
	assert.Equal(t, "Expected Accumulation", Humanize("expectedAccumulation"))
	assert.Equal(t, "Сумма взноса", Humanize("сумма взноса"))
	assert.Equal(t, "ID", Humanize("ID"))
	assert.Equal(t, "", Humanize("  "))
}
