package hotspot

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Clean drops every record whose latitude or longitude does not parse as a
// finite number and converts the rest, preserving order.
func Clean(raw []RawRecord) []Hotspot {
	out := make([]Hotspot, 0, len(raw))
	for _, r := range raw {
		if h, ok := New(r); ok {
			out = append(out, h)
		}
	}
	return out
}

// ParseCoordinate coerces a raw coordinate value to float64. Strings are
// trimmed before parsing and JSON numbers are accepted as-is. NaN,
// infinities and hexadecimal strings are rejected.
func ParseCoordinate(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case string:
		s := strings.TrimSpace(x)
		if s == "" || isHexFloat(s) {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case json.Number:
		if isHexFloat(string(x)) {
			return 0, false
		}
		parsed, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// isHexFloat reports whether s uses the 0x form strconv accepts but decimal
// data never contains.
func isHexFloat(s string) bool {
	s = strings.TrimLeft(s, "+-")
	return len(s) > 1 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}
