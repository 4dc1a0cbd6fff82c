package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// jsonValue serializes a nested block for storage in a jsonb column.
func jsonValue(v interface{}) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// jsonScan deserializes a jsonb column into a nested block. A NULL column
// leaves dest at its zero value.
func jsonScan(dest interface{}, value interface{}) error {
	if value == nil {
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, dest)
	case string:
		return json.Unmarshal([]byte(v), dest)
	default:
		return fmt.Errorf("unsupported jsonb source type %T", value)
	}
}

// StringList is a jsonb-backed string slice
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	return jsonValue(l)
}

func (l *StringList) Scan(value interface{}) error {
	return jsonScan(l, value)
}
