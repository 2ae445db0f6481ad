package sheets

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ekaya-inc/ekaya-sheets/pkg/apperrors"
)

func workbook(t *testing.T, sheets map[string][][]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	first := true
	for name, rows := range sheets {
		if first {
			require.NoError(t, f.SetSheetName("Sheet1", name))
			first = false
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for i, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(name, cell, &row))
		}
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestReadSheet_Workbook(t *testing.T) {
	buf := workbook(t, map[string][][]any{
		"Deals": {
			{"Monthly report"},
			{"Client", "Amount", "Status", "Date"},
			{"Dan", 100, "new", "2024-03-01"},
		},
	})

	sheet, err := ReadSheet(buf, "deals.xlsx", "")
	require.NoError(t, err)

	assert.Equal(t, "Deals", sheet.Name)
	require.Len(t, sheet.Rows, 3)
	assert.Equal(t, []string{"Dan", "100", "new", "2024-03-01"}, sheet.Rows[2])
}

func TestReadSheet_SelectsSheetByName(t *testing.T) {
	buf := workbook(t, map[string][][]any{
		"March": {{"a", "b", "c", "d"}},
	})

	sheet, err := ReadSheet(bytes.NewReader(buf.Bytes()), "deals.xlsx", "march")
	require.NoError(t, err)
	assert.Equal(t, "March", sheet.Name)

	_, err = ReadSheet(bytes.NewReader(buf.Bytes()), "deals.xlsx", "April")
	var vErr *apperrors.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Contains(t, vErr.Message, "available: March")
}

func TestReadSheet_EmptySheet(t *testing.T) {
	buf := workbook(t, map[string][][]any{"Empty": {}})

	_, err := ReadSheet(buf, "empty.xlsx", "")

	var vErr *apperrors.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Contains(t, vErr.Message, "is empty")
}

func TestReadSheet_CSV(t *testing.T) {
	data := "\xEF\xBB\xBFКлиент;Сумма;Статус;Дата\nДан;1 500,50;новый;01.03.2024\n"

	sheet, err := ReadSheet(strings.NewReader(data), "март 2024.csv", "")
	require.NoError(t, err)

	assert.Equal(t, "март 2024", sheet.Name)
	assert.Equal(t, []string{"Клиент", "Сумма", "Статус", "Дата"}, sheet.Rows[0])
	assert.Equal(t, []string{"Дан", "1 500,50", "новый", "01.03.2024"}, sheet.Rows[1])
}

func TestReadSheet_UnsupportedType(t *testing.T) {
	_, err := ReadSheet(strings.NewReader("x"), "report.pdf", "")

	var vErr *apperrors.ValidationError
	assert.True(t, errors.As(err, &vErr))
}

func TestReadSheet_CorruptWorkbook(t *testing.T) {
	_, err := ReadSheet(strings.NewReader("not a zip"), "broken.xlsx", "")

	var vErr *apperrors.ValidationError
	assert.True(t, errors.As(err, &vErr))
}
