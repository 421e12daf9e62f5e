package batch_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kiranshivaraju/dsxmeta/internal/batch"
	"github.com/kiranshivaraju/dsxmeta/internal/cache"
	"github.com/kiranshivaraju/dsxmeta/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleParsed(name string) *models.ParsedDocument {
	return &models.ParsedDocument{
		DocumentName: name,
		Model: &models.JobMetadata{
			Name:     "JOB_A",
			Type:     models.JobTypeParallel,
			Metadata: models.ExtractionMetadata{ExtractedAt: modTime, SchemaVersion: models.SchemaVersion},
		},
		Validation: models.Validation{Valid: true, Issues: []string{}},
	}
}

func TestResultCache_PutGetClear(t *testing.T) {
	ctx := context.Background()
	rc := batch.NewResultCache(cache.NewMemoryCache(), time.Hour)

	_, ok := rc.Get(ctx, "a.dsx", modTime)
	assert.False(t, ok)

	require.NoError(t, rc.Put(ctx, "a.dsx", modTime, sampleParsed("a.dsx")))
	require.NoError(t, rc.Put(ctx, "b.dsx", modTime, sampleParsed("b.dsx")))

	got, ok := rc.Get(ctx, "a.dsx", modTime)
	require.True(t, ok)
	assert.Equal(t, "JOB_A", got.Model.Name)
	assert.Equal(t, models.SchemaVersion, got.Model.Metadata.SchemaVersion)

	removed, err := rc.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	_, ok = rc.Get(ctx, "a.dsx", modTime)
	assert.False(t, ok)
}

func TestResultCache_UndecodableEntryIsAMiss(t *testing.T) {
	ctx := context.Background()
	backend := cache.NewMemoryCache()
	require.NoError(t, backend.Set(ctx, cache.ParseResultKey("a.dsx", modTime), []byte("{not json"), 0))

	rc := batch.NewResultCache(backend, 0)
	_, ok := rc.Get(ctx, "a.dsx", modTime)
	assert.False(t, ok)

	_, found, err := backend.Get(ctx, cache.ParseResultKey("a.dsx", modTime))
	require.NoError(t, err)
	assert.False(t, found, "bad entry is evicted")
}

func TestResultCache_GetOrParseDoesNotCacheErrors(t *testing.T) {
	ctx := context.Background()
	rc := batch.NewResultCache(cache.NewMemoryCache(), 0)
	boom := errors.New("boom")

	var calls int32
	parse := func() (*models.ParsedDocument, error) {
		atomic.AddInt32(&calls, 1)
		return nil, boom
	}

	_, _, err := rc.GetOrParse(ctx, "a.dsx", modTime, parse)
	require.ErrorIs(t, err, boom)
	_, _, err = rc.GetOrParse(ctx, "a.dsx", modTime, parse)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestResultCache_ConcurrentMissesShareOneParse(t *testing.T) {
	ctx := context.Background()
	rc := batch.NewResultCache(cache.NewMemoryCache(), 0)

	var calls int32
	release := make(chan struct{})
	parse := func() (*models.ParsedDocument, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return sampleParsed("a.dsx"), nil
	}

	const callers = 8
	var wg sync.WaitGroup
	results := make([]*models.ParsedDocument, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			parsed, _, err := rc.GetOrParse(ctx, "a.dsx", modTime, parse)
			assert.NoError(t, err)
			results[i] = parsed
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	for _, r := range results {
		require.NotNil(t, r)
		assert.Equal(t, "JOB_A", r.Model.Name)
	}
}
