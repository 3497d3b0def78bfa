package storage

import (
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"
)

var unsafePathChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// BuildUploadPath derives the archive key for a raw upload. Keys are
// timestamped so repeated uploads of the same file never overwrite each
// other.
func BuildUploadPath(filename string, uploadedAt time.Time) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	base = unsafePathChars.ReplaceAllString(base, "_")
	base = strings.Trim(base, "._-")
	if base == "" {
		base = "upload"
	}
	ts := uploadedAt.UTC().Format("20060102T150405")
	return path.Join("uploads", fmt.Sprintf("%s_%s", ts, base))
}
