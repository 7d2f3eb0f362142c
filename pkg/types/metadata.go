package types

import (
	"database/sql/driver"
	"encoding/json"
)

// Metadata is a free-form JSON object attached to carts.
type Metadata map[string]any

// Value serializes the map, storing an empty object for nil.
func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

// Scan decodes a JSON object.
func (m *Metadata) Scan(value interface{}) error {
	if value == nil {
		*m = Metadata{}
		return nil
	}
	raw, err := asJSON(value)
	if err != nil {
		return err
	}
	decoded := Metadata{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return err
	}
	*m = decoded
	return nil
}

// StringMap is a JSON object of string values (variant attributes).
type StringMap map[string]string

// Value serializes the map, storing an empty object for nil.
func (m StringMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

// Scan decodes a JSON object.
func (m *StringMap) Scan(value interface{}) error {
	if value == nil {
		*m = StringMap{}
		return nil
	}
	raw, err := asJSON(value)
	if err != nil {
		return err
	}
	decoded := StringMap{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return err
	}
	*m = decoded
	return nil
}
