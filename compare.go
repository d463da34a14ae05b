package treeboard

import (
	"fmt"
	"strconv"
	"strings"
)

// compareEqual compares two values for equality
func compareEqual(a, b interface{}) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}

	// Numbers compare by value regardless of their Go type
	if af, ok := numericValue(a); ok {
		if bf, ok := numericValue(b); ok {
			return af == bf
		}
	}

	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

// compareValues orders two cell values: numerically when both are numbers
// (or numeric strings), otherwise case-insensitively as text.
func compareValues(a, b interface{}) int {
	if af, ok := numericValue(a); ok {
		if bf, ok := numericValue(b); ok {
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			}
			return 0
		}
	}
	return strings.Compare(strings.ToLower(fmt.Sprintf("%v", a)), strings.ToLower(fmt.Sprintf("%v", b)))
}

// compareRows orders rows by column; rows without the column sort last
// in either direction.
func compareRows(a, b Row, column string, dir Direction) int {
	av, aok := a.Values[column]
	bv, bok := b.Values[column]
	aok = aok && av != nil
	bok = bok && bv != nil
	switch {
	case !aok && !bok:
		return 0
	case !aok:
		return 1
	case !bok:
		return -1
	}

	c := compareValues(av, bv)
	if dir == Descending {
		return -c
	}
	return c
}

// containsFold reports whether the rendered value contains query, ignoring case
func containsFold(v interface{}, lowerQuery string) bool {
	if v == nil {
		return false
	}
	return strings.Contains(strings.ToLower(fmt.Sprintf("%v", v)), lowerQuery)
}

// numericValue returns v as float64 when it is a number or a numeric string
func numericValue(v interface{}) (float64, bool) {
	if isNumeric(v) {
		return toFloat64(v), true
	}
	if s, ok := v.(string); ok {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

// isNumeric checks if a value is numeric
func isNumeric(v interface{}) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	default:
		return false
	}
}

// toFloat64 converts a numeric value to float64
func toFloat64(v interface{}) float64 {
	switch val := v.(type) {
	case int:
		return float64(val)
	case int8:
		return float64(val)
	case int16:
		return float64(val)
	case int32:
		return float64(val)
	case int64:
		return float64(val)
	case uint:
		return float64(val)
	case uint8:
		return float64(val)
	case uint16:
		return float64(val)
	case uint32:
		return float64(val)
	case uint64:
		return float64(val)
	case float32:
		return float64(val)
	case float64:
		return val
	default:
		return 0
	}
}
