package datastore

import (
	"database/sql/driver"
	"encoding/json"
)

// JSON is serialized JSON text. SQL drivers receive it as a string and the
// REST adapter embeds it as a JSON value rather than a string.
type JSON string

// Value implements driver.Valuer.
func (j JSON) Value() (driver.Value, error) {
	return string(j), nil
}

// MarshalJSON implements json.Marshaler.
func (j JSON) MarshalJSON() ([]byte, error) {
	if j == "" {
		return []byte("null"), nil
	}
	if !json.Valid([]byte(j)) {
		return json.Marshal(string(j))
	}
	return []byte(j), nil
}
