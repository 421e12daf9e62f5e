package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kiranshivaraju/dsxmeta/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeParserFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "parser.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadParser_FromYAMLFile(t *testing.T) {
	t.Setenv("DSX_PARSER_CONFIG", writeParserFile(t, `
concurrency: 6
cache_ttl: 2h
dataset_mode_window: 50
transform_exclude:
  - RowRejected
  - DEBUG
`))

	cfg, err := config.LoadParser()
	require.NoError(t, err)

	assert.Equal(t, 6, cfg.Parser.Concurrency)
	assert.Equal(t, 2*time.Hour, cfg.Parser.CacheTTL)
	assert.Equal(t, 50, cfg.Parser.DatasetModeWindow)
	assert.Equal(t, []string{"RowRejected", "DEBUG"}, cfg.Parser.TransformExclude)
	// Keys absent from the file keep their defaults.
	assert.Equal(t, 5, cfg.Parser.ArchiveEstimate)
	assert.Equal(t, 500, cfg.Parser.DatasetBackwardWindow)
}

func TestLoadParser_EnvOverridesFile(t *testing.T) {
	t.Setenv("DSX_PARSER_CONFIG", writeParserFile(t, "concurrency: 6\ntransform_exclude_prefixes: [\"//\"]\n"))
	t.Setenv("DSX_CONCURRENCY", "9")
	t.Setenv("DSX_TRANSFORM_EXCLUDE_PREFIXES", "--,#")

	cfg, err := config.LoadParser()
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.Parser.Concurrency)
	assert.Equal(t, []string{"--", "#"}, cfg.Parser.TransformExcludePrefixes)
}

func TestLoadParser_EmptyFile(t *testing.T) {
	t.Setenv("DSX_PARSER_CONFIG", writeParserFile(t, ""))

	cfg, err := config.LoadParser()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Parser.Concurrency)
}

func TestLoadParser_FileErrors(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
		want string
	}{
		{"missing", func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.yaml") }, "DSX_PARSER_CONFIG"},
		{"unknown key", func(t *testing.T) string { return writeParserFile(t, "concurency: 4\n") }, "concurency"},
		{"bad duration", func(t *testing.T) string { return writeParserFile(t, "cache_ttl: soon\n") }, "DSX_PARSER_CONFIG"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DSX_PARSER_CONFIG", tt.path(t))
			_, err := config.LoadParser()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadParser_ReportsEveryInvalidSetting(t *testing.T) {
	t.Setenv("DSX_CONCURRENCY", "0")
	t.Setenv("DSX_ARCHIVE_ESTIMATE", "0")

	_, err := config.LoadParser()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DSX_CONCURRENCY")
	assert.Contains(t, err.Error(), "DSX_ARCHIVE_ESTIMATE")
}
