package cache

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ParseResultPrefix namespaces cached parse results so they can be cleared together.
const ParseResultPrefix = "dsx:result:"

// ParseResultKey identifies a parsed document by name and modification time.
// A re-upload with a newer timestamp misses the cache.
func ParseResultKey(documentName string, modTime time.Time) string {
	return fmt.Sprintf("%s%s:%d", ParseResultPrefix, documentName, modTime.UnixNano())
}

func JobStatusKey(jobID uuid.UUID) string {
	return fmt.Sprintf("job:%s", jobID)
}

func RateLimitKey(keyPrefix string) string {
	return fmt.Sprintf("ratelimit:%s", keyPrefix)
}
