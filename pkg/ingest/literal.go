package ingest

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ekaya-inc/ekaya-sheets/pkg/adapters/datastore"
)

// timestampLayout is accepted by every supported dialect.
const timestampLayout = "2006-01-02 15:04:05.999999-07:00"

// Literal renders v as an escaped SQL literal for d. Blank strings and nil
// become NULL; maps, slices and structs are serialized to JSON text.
func Literal(d datastore.Dialect, v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "NULL", nil
	case string:
		if strings.TrimSpace(x) == "" {
			return "NULL", nil
		}
		return d.QuoteString(x), nil
	case bool:
		return d.BoolLiteral(x), nil
	case int:
		return strconv.Itoa(x), nil
	case int32:
		return strconv.FormatInt(int64(x), 10), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case float32:
		return floatLiteral(float64(x)), nil
	case float64:
		return floatLiteral(x), nil
	case decimal.Decimal:
		return x.String(), nil
	case uuid.UUID:
		return d.QuoteString(x.String()), nil
	case time.Time:
		return d.QuoteString(x.UTC().Format(timestampLayout)), nil
	case datastore.JSON:
		if x == "" {
			return "NULL", nil
		}
		return d.QuoteString(string(x)), nil
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return "", fmt.Errorf("cannot render %T as a literal: %w", v, err)
		}
		return d.QuoteString(string(b)), nil
	}
}

func floatLiteral(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "NULL"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// InsertLiteralStatement renders a multi-row INSERT with every value inlined
// as an escaped literal.
func InsertLiteralStatement(d datastore.Dialect, table string, columns []string, rows [][]any) (string, error) {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = d.QuoteIdentifier(c)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES ", d.QuoteIdentifier(table), strings.Join(quoted, ", "))
	for r, row := range rows {
		if len(row) != len(columns) {
			return "", fmt.Errorf("row %d has %d values, expected %d", r, len(row), len(columns))
		}
		if r > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(")
		for c, v := range row {
			lit, err := Literal(d, v)
			if err != nil {
				return "", err
			}
			if c > 0 {
				b.WriteString(", ")
			}
			b.WriteString(lit)
		}
		b.WriteString(")")
	}
	return b.String(), nil
}
