// Package source maps raw table entities onto report records.
package source

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Field names read from every table entity.
const (
	FieldArchived = "IsArchived"
	FieldRowKey   = "RowKey"
	FieldURL      = "Url"
	FieldClicks   = "Clicks"
	FieldTitle    = "Title"
)

// Entity exposes typed, optional field access over one table row.
// The second return value reports whether the field was present with a usable type.
type Entity interface {
	Bool(name string) (bool, bool)
	String(name string) (string, bool)
	Int(name string) (int, bool)
}

// MapEntity adapts a property map, as decoded by table SDKs and SQL scans, to Entity.
type MapEntity map[string]any

// Bool returns the named boolean property.
func (m MapEntity) Bool(name string) (bool, bool) {
	switch v := m[name].(type) {
	case bool:
		return v, true
	case *bool:
		if v == nil {
			return false, false
		}
		return *v, true
	default:
		return false, false
	}
}

// String returns the named string property.
func (m MapEntity) String(name string) (string, bool) {
	switch v := m[name].(type) {
	case string:
		return v, true
	case *string:
		if v == nil {
			return "", false
		}
		return *v, true
	case fmt.Stringer:
		return v.String(), true
	default:
		return "", false
	}
}

// Int returns the named integer property. Int64 values may arrive as strings
// (the Edm.Int64 wire form) and JSON numbers as float64 or json.Number.
func (m MapEntity) Int(name string) (int, bool) {
	switch v := m[name].(type) {
	case int:
		return v, true
	case int32:
		return int(v), true
	case *int32:
		if v == nil {
			return 0, false
		}
		return int(*v), true
	case int64:
		return int(v), true
	case *int64:
		if v == nil {
			return 0, false
		}
		return int(*v), true
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return int(v), true
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return int(n), true
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}
