// Package cache holds the key/value layer shared by the parse-result cache,
// batch status lookups and API rate limiting.
package cache

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Cache is implemented by RedisCache for the server and by MemoryCache for
// single-process CLI runs. Implementations must be safe for concurrent use.
type Cache interface {
	Ping(ctx context.Context) error

	// Get reports found=false with a nil error when key is absent or expired.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// DeletePrefix removes every key starting with prefix and returns how many were removed.
	DeletePrefix(ctx context.Context, prefix string) (int, error)

	// SetJobStatus mirrors a batch status so polling avoids the database.
	SetJobStatus(ctx context.Context, jobID uuid.UUID, status string, ttl time.Duration) error
	GetJobStatus(ctx context.Context, jobID uuid.UUID) (string, bool, error)

	// IncrWithExpiry increments a counter and refreshes its expiry in one step.
	IncrWithExpiry(ctx context.Context, key string, expiry time.Duration) (int64, error)
}
