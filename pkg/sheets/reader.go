// Package sheets reads uploaded spreadsheets into rows of cell strings.
package sheets

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ekaya-inc/ekaya-sheets/pkg/apperrors"
)

// Sheet is one worksheet as formatted cell strings, one slice per row.
type Sheet struct {
	Name string
	Rows [][]string
}

// Format identifies the upload format.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// DetectFormat picks the reader from the file extension.
func DetectFormat(fileName string) (Format, error) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".xlsx", ".xlsm", ".xltx":
		return FormatXLSX, nil
	case ".csv", ".txt":
		return FormatCSV, nil
	default:
		return "", apperrors.NewValidationError("file", "unsupported file type %q (expected .xlsx or .csv)", filepath.Ext(fileName))
	}
}

// ReadSheet reads one worksheet from an uploaded file. An empty sheetName
// selects the first sheet. CSV files have a single sheet named after the file.
func ReadSheet(r io.Reader, fileName, sheetName string) (*Sheet, error) {
	format, err := DetectFormat(fileName)
	if err != nil {
		return nil, err
	}

	var sheet *Sheet
	switch format {
	case FormatCSV:
		sheet, err = readCSV(r, fileName)
	default:
		sheet, err = readWorkbook(r, sheetName)
	}
	if err != nil {
		return nil, err
	}

	if isEmpty(sheet.Rows) {
		return nil, apperrors.NewValidationError("sheet", "sheet %q is empty", sheet.Name)
	}
	return sheet, nil
}

func readWorkbook(r io.Reader, sheetName string) (*Sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apperrors.NewValidationError("file", "failed to open workbook: %v", err)
	}
	defer f.Close()

	names := f.GetSheetList()
	if len(names) == 0 {
		return nil, apperrors.NewValidationError("file", "workbook has no sheets")
	}

	name := names[0]
	if sheetName != "" {
		name = ""
		for _, n := range names {
			if strings.EqualFold(strings.TrimSpace(n), strings.TrimSpace(sheetName)) {
				name = n
				break
			}
		}
		if name == "" {
			return nil, apperrors.NewValidationError("sheet", "sheet %q not found (available: %s)", sheetName, strings.Join(names, ", "))
		}
	}

	rows, err := f.GetRows(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", name, err)
	}
	return &Sheet{Name: name, Rows: rows}, nil
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func readCSV(r io.Reader, fileName string) (*Sheet, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	firstLine, err := br.Peek(4096)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}

	cr := csv.NewReader(br)
	cr.Comma = detectDelimiter(firstLine)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, apperrors.NewValidationError("file", "malformed csv: %v", err)
	}

	name := strings.TrimSuffix(filepath.Base(fileName), filepath.Ext(fileName))
	return &Sheet{Name: name, Rows: rows}, nil
}

// detectDelimiter picks ';' over ',' when the first line has more of them,
// as spreadsheet exports in comma-decimal locales do.
func detectDelimiter(sample []byte) rune {
	if i := bytes.IndexByte(sample, '\n'); i >= 0 {
		sample = sample[:i]
	}
	if bytes.Count(sample, []byte{';'}) > bytes.Count(sample, []byte{','}) {
		return ';'
	}
	if bytes.Count(sample, []byte{'\t'}) > bytes.Count(sample, []byte{','}) {
		return '\t'
	}
	return ','
}

func isEmpty(rows [][]string) bool {
	for _, row := range rows {
		if !isBlankRow(row) {
			return false
		}
	}
	return true
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
