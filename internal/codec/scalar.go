package codec

import (
	"math"
	"strconv"
	"strings"
)

// String renders a loosely typed JSON/YAML scalar as text. Absent values and
// containers yield "".
func String(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case bool:
		return strconv.FormatBool(x)
	default:
		return ""
	}
}

// Int reads a port-like value: a number or a string with a leading decimal
// integer ("443", "443abc"). Anything else, or a value outside int32, is 0.
func Int(v any) int {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) || x < math.MinInt32 || x > math.MaxInt32 {
			return 0
		}
		return int(x)
	case int:
		if x < math.MinInt32 || x > math.MaxInt32 {
			return 0
		}
		return x
	case int64:
		if x < math.MinInt32 || x > math.MaxInt32 {
			return 0
		}
		return int(x)
	case uint64:
		if x > math.MaxInt32 {
			return 0
		}
		return int(x)
	case string:
		return leadingInt(strings.TrimSpace(x))
	default:
		return 0
	}
}

func leadingInt(s string) int {
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0
	}
	n, err := strconv.ParseInt(s[:end], 10, 32)
	if err != nil {
		return 0
	}
	return int(n)
}
