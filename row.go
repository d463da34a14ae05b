package treeboard

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultKeyField is the column the backend uses to identify rows
const DefaultKeyField = "key"

// Row is one dataset entry: an open column -> scalar mapping plus its identity
type Row struct {
	Key    string                 // identity used for delete addressing
	Values map[string]interface{} // column name -> value
}

// NewRow builds a Row from a decoded column map, taking the key from keyField
func NewRow(values map[string]interface{}, keyField string) Row {
	row := Row{Values: make(map[string]interface{}, len(values))}
	for k, v := range values {
		row.Values[k] = v
	}
	if v, ok := values[keyField]; ok && v != nil {
		row.Key = fmt.Sprintf("%v", v)
	}
	return row
}

// Has reports whether the row carries a value for col
func (r Row) Has(col string) bool {
	_, ok := r.Values[col]
	return ok
}

// Copy returns a row whose value map can be mutated independently
func (r Row) Copy() Row {
	c := Row{Key: r.Key, Values: make(map[string]interface{}, len(r.Values))}
	for k, v := range r.Values {
		c.Values[k] = v
	}
	return c
}

// GetAsString returns the value as string or defaultValue if not found
func (r Row) GetAsString(col string, defaultValue string) string {
	v, ok := r.Values[col]
	if !ok || v == nil {
		return defaultValue
	}

	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int, int64:
		return fmt.Sprintf("%d", val)
	case bool:
		if val {
			return "true"
		}
		return "false"
	case []string:
		return strings.Join(val, ",")
	default:
		return fmt.Sprintf("%v", val)
	}
}

// GetAsFloat64 returns the value as float64 or defaultValue if it is not numeric
func (r Row) GetAsFloat64(col string, defaultValue float64) float64 {
	v, ok := r.Values[col]
	if !ok {
		return defaultValue
	}

	switch val := v.(type) {
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return f
		}
		return defaultValue
	default:
		if isNumeric(val) {
			return toFloat64(val)
		}
	}
	return defaultValue
}

// Strings renders the row in column order; missing columns render as ""
func (r Row) Strings(columns ColumnSet) []string {
	out := make([]string, len(columns))
	for i, col := range columns {
		out[i] = r.GetAsString(col, "")
	}
	return out
}

func copyRows(rows []Row) []Row {
	out := make([]Row, len(rows))
	for i, r := range rows {
		out[i] = r.Copy()
	}
	return out
}
