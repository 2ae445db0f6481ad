package ingest

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/ekaya-sheets/pkg/adapters/datastore"
)

func TestLiteral(t *testing.T) {
	pg := datastore.PostgresDialect{}
	id := uuid.MustParse("33333333-3333-3333-3333-333333333333")
	at := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.FixedZone("MSK", 3*3600))

	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"nil", nil, "NULL"},
		{"blank string", "   ", "NULL"},
		{"string", "Dan", "'Dan'"},
		{"quote", "O'Brien", "'O''Brien'"},
		{"injection stays a literal", "'; DROP TABLE users--", "'''; DROP TABLE users--'"},
		{"bool", true, "TRUE"},
		{"int", 42, "42"},
		{"int64", int64(-7), "-7"},
		{"float", 12.5, "12.5"},
		{"nan", math.NaN(), "NULL"},
		{"decimal", decimal.RequireFromString("1200.50"), "1200.5"},
		{"uuid", id, "'33333333-3333-3333-3333-333333333333'"},
		{"time in UTC", at, "'2024-03-01 09:00:00+00:00'"},
		{"json", datastore.JSON(`{"a":"b"}`), `'{"a":"b"}'`},
		{"empty json", datastore.JSON(""), "NULL"},
		{"map", map[string]int{"n": 1}, `'{"n":1}'`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Literal(pg, tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLiteral_DialectEscaping(t *testing.T) {
	got, err := Literal(datastore.SQLServerDialect{}, "Иван")
	require.NoError(t, err)
	assert.Equal(t, "N'Иван'", got)

	got, err = Literal(datastore.MySQLDialect{}, `a\'b`)
	require.NoError(t, err)
	assert.Equal(t, `'a\\\'b'`, got)

	_, err = Literal(datastore.PostgresDialect{}, make(chan int))
	assert.Error(t, err)
}

func TestInsertLiteralStatement(t *testing.T) {
	stmt, err := InsertLiteralStatement(datastore.PostgresDialect{}, "sales",
		[]string{"name", "amount"},
		[][]any{{"Dan", 100}, {"O'Brien", nil}})
	require.NoError(t, err)
	assert.Equal(t, `INSERT INTO "sales" ("name", "amount") VALUES ('Dan', 100), ('O''Brien', NULL)`, stmt)

	_, err = InsertLiteralStatement(datastore.PostgresDialect{}, "sales", []string{"name"}, [][]any{{"a", "b"}})
	assert.ErrorContains(t, err, "row 0 has 2 values, expected 1")
}
