package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONBMap_Value(t *testing.T) {
	v, err := JSONBMap(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("{}"), v)

	v, err = JSONBMap{"file_name": "sales.csv"}.Value()
	require.NoError(t, err)
	assert.JSONEq(t, `{"file_name":"sales.csv"}`, string(v.([]byte)))
}

func TestJSONBMap_Scan(t *testing.T) {
	var m JSONBMap
	require.NoError(t, m.Scan(nil))
	assert.Equal(t, JSONBMap{}, m)

	require.NoError(t, m.Scan([]byte(`{"total_rows":5}`)))
	assert.Equal(t, float64(5), m["total_rows"])

	require.NoError(t, m.Scan(`{"status":"partial"}`))
	assert.Equal(t, "partial", m["status"])

	assert.Error(t, m.Scan(42))
}
