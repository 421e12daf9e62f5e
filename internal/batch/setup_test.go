package batch_test

import (
	"context"
	"testing"
	"time"

	"github.com/kiranshivaraju/dsxmeta/internal/batch"
	"github.com/kiranshivaraju/dsxmeta/internal/cache"
	"github.com/kiranshivaraju/dsxmeta/internal/config"
	"github.com/kiranshivaraju/dsxmeta/internal/dsx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParserOptions_Defaults(t *testing.T) {
	opts := batch.ParserOptions(config.ParserConfig{})
	def := dsx.DefaultOptions()

	assert.Equal(t, def.DatasetBackwardWindow, opts.DatasetBackwardWindow)
	assert.Equal(t, def.DatasetModeWindow, opts.DatasetModeWindow)
	assert.Equal(t, def.Rules, opts.Rules)
}

func TestParserOptions_Overrides(t *testing.T) {
	opts := batch.ParserOptions(config.ParserConfig{
		DatasetBackwardWindow: 50,
		DatasetModeWindow:     20,
		TransformExclude:      []string{"DEBUG"},
	})

	assert.Equal(t, 50, opts.DatasetBackwardWindow)
	assert.Equal(t, 20, opts.DatasetModeWindow)
	assert.Equal(t, []string{"DEBUG"}, opts.Rules.ExcludeContains)
	assert.Equal(t, dsx.DefaultRuleFilter().ExcludePrefixes, opts.Rules.ExcludePrefixes)
}

func TestNewFromConfig_CachesThroughBackend(t *testing.T) {
	backend := cache.NewMemoryCache()
	o, rc := batch.NewFromConfig(config.ParserConfig{CacheTTL: time.Hour, ArchiveEstimate: 2}, backend, nil)

	docs := []batch.Document{batch.BytesDocument("a.dsx", modTime, jobDSX("A"))}
	_, err := o.RunSequential(context.Background(), docs, nil)
	require.NoError(t, err)

	_, ok := rc.Get(context.Background(), "a.dsx", modTime)
	assert.True(t, ok)

	removed, err := rc.Clear(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
}
