// Package identifier normalizes arbitrary labels from uploaded workbooks
// into safe relational identifiers.
package identifier

import (
	"fmt"
	"strings"

	"github.com/gosimple/slug"
)

const (
	// Fallback returned when a label normalizes to nothing at all.
	Fallback = "unnamed"

	digitPrefix = "col_"
)

// Sanitize rewrites label into a lowercase identifier made of alphanumerics
// and single underscores, never empty and never starting with a digit.
// Sanitizing an already sanitized label returns it unchanged.
func Sanitize(label string) string {
	normalized := slug.Make(strings.TrimSpace(label))
	normalized = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, normalized)

	parts := strings.FieldsFunc(normalized, func(r rune) bool { return r == '_' })
	normalized = strings.Join(parts, "_")
	if normalized == "" {
		return Fallback
	}
	if normalized[0] >= '0' && normalized[0] <= '9' {
		normalized = digitPrefix + normalized
	}
	return normalized
}

// SanitizeColumns sanitizes a full header row. Blank labels become
// "column_<n>" by position, and duplicates get a stable numeric suffix so
// that no two columns share a name. A suffixed candidate is re-checked
// against every name already assigned, so a label that literally reads
// like a suffixed name ("a_2") can never be collided with.
func SanitizeColumns(labels []string) []string {
	names := make([]string, len(labels))
	used := make(map[string]bool, len(labels))
	lastSuffix := make(map[string]int, len(labels))

	for i, label := range labels {
		var base string
		if strings.TrimSpace(label) == "" {
			base = fmt.Sprintf("column_%d", i+1)
		} else {
			base = Sanitize(label)
		}

		name := base
		suffix := lastSuffix[base]
		for used[name] {
			suffix++
			if suffix < 2 {
				suffix = 2
			}
			name = fmt.Sprintf("%s_%d", base, suffix)
		}
		if suffix == 0 {
			suffix = 1
		}
		lastSuffix[base] = suffix
		used[name] = true
		names[i] = name
	}
	return names
}

// TableName derives the table identifier for a sheet within an uploaded
// file. The name is a pure function of the two labels, so re-uploading the
// same file replaces the same tables.
func TableName(filename, sheetName string) string {
	stem := filename
	if idx := strings.LastIndex(stem, "."); idx > 0 {
		stem = stem[:idx]
	}
	return Sanitize(stem) + "__" + Sanitize(sheetName)
}
