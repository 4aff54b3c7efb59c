package props

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// fractionDigits bounds decimal formatting so float accumulation artifacts
// (0.1 + 0.2) do not leak into bucket labels.
const fractionDigits = 9

// Normalize converts a freshly decoded YAML/JSON value into its canonical
// in-memory form: all numbers become float64, timestamps become RFC 3339
// strings, mapping keys become strings. Bags built from normalized values
// survive a JSON cache round-trip unchanged.
func Normalize(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case bool, string:
		return t
	case int:
		return float64(t)
	case int8:
		return float64(t)
	case int16:
		return float64(t)
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	case uint:
		return float64(t)
	case uint8:
		return float64(t)
	case uint16:
		return float64(t)
	case uint32:
		return float64(t)
	case uint64:
		return float64(t)
	case float32:
		return float64(t)
	case float64:
		return t
	case time.Time:
		return t.UTC().Format(time.RFC3339)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = Normalize(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = Normalize(e)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[String(k)] = Normalize(e)
		}
		return out
	default:
		return fmt.Sprintf("%v", t)
	}
}

// String returns the canonical string form of a value. Label identity,
// filter comparison and reverse-map dedup all go through this function, so
// a float and the string it prints as are the same bucket.
func String(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return FormatNumber(t)
	case float32:
		return FormatNumber(float64(t))
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case uint64:
		return strconv.FormatUint(t, 10)
	case time.Time:
		return t.UTC().Format(time.RFC3339)
	case []any:
		parts := make([]string, len(t))
		for i, e := range t {
			parts[i] = String(e)
		}
		return strings.Join(parts, ",")
	case map[string]any:
		return stringifyMap(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// FormatNumber renders a float with minimal digits after rounding to nine
// fraction digits, so 0.30000000000000004 prints as "0.3" and 5.0 as "5".
func FormatNumber(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	r := math.Round(f*1e9) / 1e9
	return strconv.FormatFloat(r, 'f', -1, 64)
}

// Number reports the numeric interpretation of a value, if it has one.
func Number(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint64:
		return float64(t), true
	case bool:
		if t {
			return 1, true
		}
		return 0, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Compare orders two property values: absent (nil) sorts first, numbers
// compare numerically when both sides parse, everything else compares as
// canonical strings. Returns -1, 0 or 1.
func Compare(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}

	if na, ok := Number(a); ok {
		if nb, ok := Number(b); ok {
			switch {
			case na < nb:
				return -1
			case na > nb:
				return 1
			default:
				return 0
			}
		}
	}

	return strings.Compare(String(a), String(b))
}

// stringifyMap renders a map deterministically (sorted keys, JSON values).
func stringifyMap(m map[string]any) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(k)
		sb.WriteByte(':')
		if data, err := json.Marshal(m[k]); err == nil {
			sb.Write(data)
		} else {
			sb.WriteString(String(m[k]))
		}
	}
	sb.WriteByte('}')
	return sb.String()
}
