package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/kiranshivaraju/dsxmeta/internal/cache"
	"github.com/kiranshivaraju/dsxmeta/pkg/models"
	"golang.org/x/sync/singleflight"
)

// ResultCache memoizes parsed documents keyed by (name, modification time).
// Only successful parses are stored. Concurrent misses on the same key share
// one parse.
type ResultCache struct {
	backend cache.Cache
	ttl     time.Duration
	group   singleflight.Group
}

// NewResultCache wraps a byte-level cache backend. A zero ttl keeps entries
// until they are cleared.
func NewResultCache(backend cache.Cache, ttl time.Duration) *ResultCache {
	return &ResultCache{backend: backend, ttl: ttl}
}

// Get returns the cached parse for the document identity, if any. Backend
// errors and undecodable entries are treated as misses.
func (c *ResultCache) Get(ctx context.Context, name string, modTime time.Time) (*models.ParsedDocument, bool) {
	key := cache.ParseResultKey(name, modTime)
	raw, found, err := c.backend.Get(ctx, key)
	if err != nil {
		slog.Warn("result cache read failed", "cache_key", key, "error", err)
		return nil, false
	}
	if !found {
		return nil, false
	}
	var parsed models.ParsedDocument
	if err := json.Unmarshal(raw, &parsed); err != nil {
		slog.Warn("discarding undecodable cache entry", "cache_key", key, "error", err)
		_ = c.backend.Delete(ctx, key)
		return nil, false
	}
	return &parsed, true
}

// Put stores a successful parse.
func (c *ResultCache) Put(ctx context.Context, name string, modTime time.Time, parsed *models.ParsedDocument) error {
	raw, err := json.Marshal(parsed)
	if err != nil {
		return fmt.Errorf("encode parse result: %w", err)
	}
	return c.backend.Set(ctx, cache.ParseResultKey(name, modTime), raw, c.ttl)
}

// Clear evicts every cached parse and returns how many entries were removed.
func (c *ResultCache) Clear(ctx context.Context) (int, error) {
	return c.backend.DeletePrefix(ctx, cache.ParseResultPrefix)
}

// GetOrParse returns the cached result or runs parse, storing a success. The
// boolean reports a cache hit. Concurrent callers for the same key wait for a
// single parse and all receive its outcome.
func (c *ResultCache) GetOrParse(ctx context.Context, name string, modTime time.Time,
	parse func() (*models.ParsedDocument, error)) (*models.ParsedDocument, bool, error) {
	if parsed, ok := c.Get(ctx, name, modTime); ok {
		return parsed, true, nil
	}

	key := cache.ParseResultKey(name, modTime)
	v, err, _ := c.group.Do(key, func() (any, error) {
		parsed, err := parse()
		if err != nil {
			return nil, err
		}
		if err := c.Put(ctx, name, modTime, parsed); err != nil {
			slog.Warn("result cache write failed", "cache_key", key, "error", err)
		}
		return parsed, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v.(*models.ParsedDocument), false, nil
}
