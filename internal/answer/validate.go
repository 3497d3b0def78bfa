package answer

import (
	"fmt"
	"strings"
)

// FallbackQuery stands in for rejected statements under the permissive
// policy. It is reported in the envelope but never executed; a rejected
// question yields an empty result set.
const FallbackQuery = "SELECT 1;"

// forbiddenKeywords reject a statement wherever they appear in its text, not
// just in statement position.
var forbiddenKeywords = []string{"delete", "update", "insert", "drop", "alter", "truncate"}

// Validate is the deterministic safety gate between SQL generation and
// execution: only a single read-only SELECT may pass.
func Validate(sqlText string) error {
	normalized := strings.ToLower(strings.TrimSpace(sqlText))
	if normalized == "" {
		return fmt.Errorf("statement is empty")
	}
	if !strings.HasPrefix(normalized, "select") {
		return fmt.Errorf("statement does not start with SELECT")
	}
	for _, keyword := range forbiddenKeywords {
		if strings.Contains(normalized, keyword) {
			return fmt.Errorf("statement contains forbidden keyword %q", keyword)
		}
	}
	return nil
}

// ApplyRowCap bounds result cardinality. A statement that already carries a
// limit clause is left alone; anything else gets the configured cap appended.
func ApplyRowCap(sqlText string, cap int) string {
	if cap <= 0 {
		return sqlText
	}
	if strings.Contains(strings.ToLower(sqlText), "limit") {
		return sqlText
	}
	trimmed := strings.TrimSpace(sqlText)
	trimmed = strings.TrimRight(trimmed, ";")
	return fmt.Sprintf("%s LIMIT %d;", trimmed, cap)
}
