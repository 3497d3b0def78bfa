// Package oracle wraps the external text-completion service. The pipeline
// treats it as an opaque function from prompt text to response text with no
// guaranteed structure in its output.
package oracle

import (
	"context"
	"strings"
)

// Completer is the single operation the rest of the service depends on.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// StripFences removes a surrounding markdown code fence (```sql, ```json or
// bare ```) from a completion. Models add them despite instructions.
func StripFences(value string) string {
	trimmed := strings.TrimSpace(value)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```sql")
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	return strings.TrimSpace(trimmed)
}
