package batch

import (
	"log/slog"

	"github.com/kiranshivaraju/dsxmeta/internal/cache"
	"github.com/kiranshivaraju/dsxmeta/internal/config"
	"github.com/kiranshivaraju/dsxmeta/internal/dsx"
)

// ParserOptions maps parser settings onto extraction options. Configured
// exclusion lists replace the built-in ones.
func ParserOptions(cfg config.ParserConfig) dsx.Options {
	opts := dsx.DefaultOptions()
	if cfg.DatasetBackwardWindow > 0 {
		opts.DatasetBackwardWindow = cfg.DatasetBackwardWindow
	}
	if cfg.DatasetModeWindow > 0 {
		opts.DatasetModeWindow = cfg.DatasetModeWindow
	}
	if cfg.TransformExclude != nil {
		opts.Rules.ExcludeContains = cfg.TransformExclude
	}
	if cfg.TransformExcludePrefixes != nil {
		opts.Rules.ExcludePrefixes = cfg.TransformExcludePrefixes
	}
	return opts
}

// NewFromConfig builds the orchestrator and its result cache over backend.
func NewFromConfig(cfg config.ParserConfig, backend cache.Cache, logger *slog.Logger) (*Orchestrator, *ResultCache) {
	rc := NewResultCache(backend, cfg.CacheTTL)
	parser := dsx.NewParser(ParserOptions(cfg))
	return NewOrchestrator(parser, rc, cfg.ArchiveEstimate, logger), rc
}
