package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONBMap is a JSON object stored in a PostgreSQL JSONB column.
// A nil map is stored as {}.
type JSONBMap map[string]any

// Value implements driver.Valuer.
func (j JSONBMap) Value() (driver.Value, error) {
	if j == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(j)
}

// Scan implements sql.Scanner. NULL scans to an empty map.
func (j *JSONBMap) Scan(value any) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		*j = JSONBMap{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into JSONBMap", value)
	}
	return json.Unmarshal(data, j)
}
