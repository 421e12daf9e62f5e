// Package main provides a command-line interface for extracting job metadata
// from DataStage DSX exports without running the API server.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/kiranshivaraju/dsxmeta/internal/batch"
	"github.com/kiranshivaraju/dsxmeta/internal/cache"
	"github.com/kiranshivaraju/dsxmeta/internal/config"
	"github.com/spf13/cobra"
)

// app holds what subcommands share once the root pre-run has loaded config.
type app struct {
	cfg          *config.Config
	backend      cache.Cache
	orchestrator *batch.Orchestrator
	results      *batch.ResultCache
	closeBackend func() error
	verbose      bool
}

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:          "dsxmeta",
		Short:        "DataStage job metadata extractor",
		Long:         "Extracts structured job metadata from DataStage DSX exports and zip bundles of them.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Log per-document progress to stderr")

	rootCmd.AddCommand(newParseCmd(a))
	rootCmd.AddCommand(newExportCmd(a))

	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the parse result cache",
	}
	cacheCmd.AddCommand(newCacheClearCmd(a))
	rootCmd.AddCommand(cacheCmd)

	keysCmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage API keys for the server",
	}
	keysCmd.AddCommand(newKeysCreateCmd(), newKeysListCmd(), newKeysRevokeCmd())
	rootCmd.AddCommand(keysCmd)

	return rootCmd
}

// setup loads parser config and opens the cache backend. Redis is used when
// REDIS_URL is set, otherwise results are cached for the life of the process.
func (a *app) setup(cmd *cobra.Command) error {
	level := slog.LevelWarn
	if a.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := config.LoadParser()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a.cfg = cfg

	if cfg.Redis.URL != "" {
		rc, err := cache.NewRedisCache(cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("create redis cache: %w", err)
		}
		if err := rc.Ping(cmd.Context()); err != nil {
			rc.Close()
			return fmt.Errorf("ping redis: %w", err)
		}
		a.backend = rc
		a.closeBackend = rc.Close
	} else {
		a.backend = cache.NewMemoryCache()
	}

	a.orchestrator, a.results = batch.NewFromConfig(cfg.Parser, a.backend, logger)
	return nil
}

func (a *app) close() error {
	if a.closeBackend == nil {
		return nil
	}
	return a.closeBackend()
}
