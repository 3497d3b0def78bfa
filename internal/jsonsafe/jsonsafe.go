// Package jsonsafe coerces query-result values into the canonical JSON
// value set: numbers, strings, booleans, null, sequences, and string-keyed
// mappings. The same representation feeds both the final oracle prompt and
// the HTTP response.
package jsonsafe

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// floater matches driver decimal types without naming any driver.
type floater interface {
	Float64() float64
}

// Sanitize recursively converts v. It is idempotent: sanitizing a sanitized
// value returns it unchanged.
func Sanitize(v any) any {
	switch typed := v.(type) {
	case nil:
		return nil
	case bool, string:
		return typed
	case int:
		return typed
	case int8:
		return int(typed)
	case int16:
		return int(typed)
	case int32:
		return int64(typed)
	case int64:
		return typed
	case uint:
		return uint64(typed)
	case uint8:
		return int(typed)
	case uint16:
		return int(typed)
	case uint32:
		return int64(typed)
	case uint64:
		return typed
	case float32:
		return sanitizeFloat(float64(typed))
	case float64:
		return sanitizeFloat(typed)
	case json.Number:
		if f, err := typed.Float64(); err == nil {
			return sanitizeFloat(f)
		}
		return typed.String()
	case []byte:
		return string(typed)
	case time.Time:
		return typed.UTC().Format(time.RFC3339)
	case floater:
		return sanitizeFloat(typed.Float64())
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = Sanitize(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, item := range typed {
			out[key] = Sanitize(item)
		}
		return out
	default:
		return fmt.Sprintf("%v", typed)
	}
}

// Rows converts a columnar result into JSON-safe row objects.
func Rows(columns []string, rows [][]any) []map[string]any {
	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		record := make(map[string]any, len(columns))
		for i, column := range columns {
			if i < len(row) {
				record[column] = Sanitize(row[i])
			} else {
				record[column] = nil
			}
		}
		out = append(out, record)
	}
	return out
}

// NaN and infinities have no JSON encoding, so they degrade to null.
func sanitizeFloat(f float64) any {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return f
}
