// Package inference decides the storage type of a column from its cleaned
// values.
package inference

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ColumnType is the canonical storage type of one column.
type ColumnType int

const (
	TypeText ColumnType = iota
	TypeInteger
	TypeFloat
	TypeBoolean
	TypeTimestamp
)

// MinTextLength is the floor for inferred text column widths.
const MinTextLength = 255

func (t ColumnType) String() string {
	switch t {
	case TypeInteger:
		return "BIGINT"
	case TypeFloat:
		return "DOUBLE PRECISION"
	case TypeBoolean:
		return "BOOLEAN"
	case TypeTimestamp:
		return "TIMESTAMP"
	default:
		return "VARCHAR"
	}
}

// Column is an inferred column definition.
type Column struct {
	Name string
	Type ColumnType

	// MaxLength is set for TypeText only.
	MaxLength int
}

// SQLType renders the column type for a CREATE TABLE statement.
func (c Column) SQLType() string {
	if c.Type == TypeText {
		length := c.MaxLength
		if length < MinTextLength {
			length = MinTextLength
		}
		return fmt.Sprintf("VARCHAR(%d)", length)
	}
	return c.Type.String()
}

// timestampLayouts are the formats accepted during timestamp coercion.
// Coercion is all-or-nothing per column.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"01/02/2006 15:04:05",
}

// Infer classifies a column from its full set of cleaned values. Missing
// values are nil. An entirely missing column defaults to Text(255).
func Infer(name string, values []any) Column {
	nonMissing := make([]any, 0, len(values))
	for _, v := range values {
		if v != nil {
			nonMissing = append(nonMissing, v)
		}
	}
	if len(nonMissing) == 0 {
		return Column{Name: name, Type: TypeText, MaxLength: MinTextLength}
	}

	if t, ok := nativeType(nonMissing); ok {
		return Column{Name: name, Type: t}
	}
	if t, ok := numericType(nonMissing); ok {
		return Column{Name: name, Type: t}
	}
	if allTimestamps(nonMissing) {
		return Column{Name: name, Type: TypeTimestamp}
	}

	maxLen := MinTextLength
	for _, v := range nonMissing {
		if l := len(fmt.Sprintf("%v", v)); l > maxLen {
			maxLen = l
		}
	}
	return Column{Name: name, Type: TypeText, MaxLength: maxLen}
}

// nativeType detects columns whose values already carry a uniform Go type.
func nativeType(values []any) (ColumnType, bool) {
	allInt, allFloat, allBool, allTime := true, true, true, true
	floatsIntegral := true
	for _, v := range values {
		switch typed := v.(type) {
		case int, int32, int64:
			allBool, allTime = false, false
		case float32:
			allInt, allBool, allTime = false, false, false
			if typed != float32(math.Trunc(float64(typed))) {
				floatsIntegral = false
			}
		case float64:
			allInt, allBool, allTime = false, false, false
			if typed != math.Trunc(typed) {
				floatsIntegral = false
			}
		case bool:
			allInt, allFloat, allTime = false, false, false
		case time.Time:
			allInt, allFloat, allBool = false, false, false
		default:
			return TypeText, false
		}
	}
	switch {
	case allInt:
		return TypeInteger, true
	case allBool:
		return TypeBoolean, true
	case allTime:
		return TypeTimestamp, true
	case allFloat:
		if floatsIntegral {
			return TypeInteger, true
		}
		return TypeFloat, true
	}
	return TypeText, false
}

// numericType coerces string values numerically; partial failure falls
// through to the next candidate rather than producing a mixed column.
func numericType(values []any) (ColumnType, bool) {
	integral := true
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			return TypeText, false
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
			return TypeText, false
		}
		if f != math.Trunc(f) {
			integral = false
		}
	}
	if integral {
		return TypeInteger, true
	}
	return TypeFloat, true
}

func allTimestamps(values []any) bool {
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			return false
		}
		if _, ok := ParseTimestamp(s); !ok {
			return false
		}
	}
	return true
}

// ParseTimestamp attempts to parse s with the accepted layouts.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// ParseBool reports whether s is a spreadsheet-style boolean literal.
func ParseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}
