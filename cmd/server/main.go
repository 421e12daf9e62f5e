// Package main runs the dsxmeta HTTP API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kiranshivaraju/dsxmeta/internal/ai"
	"github.com/kiranshivaraju/dsxmeta/internal/api"
	"github.com/kiranshivaraju/dsxmeta/internal/api/handler"
	mw "github.com/kiranshivaraju/dsxmeta/internal/api/middleware"
	"github.com/kiranshivaraju/dsxmeta/internal/api/response"
	"github.com/kiranshivaraju/dsxmeta/internal/batch"
	"github.com/kiranshivaraju/dsxmeta/internal/cache"
	"github.com/kiranshivaraju/dsxmeta/internal/config"
	"github.com/kiranshivaraju/dsxmeta/internal/store"
	"github.com/kiranshivaraju/dsxmeta/pkg/models"
)

const shutdownTimeout = 30 * time.Second

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

// run wires the service from the environment and serves until ctx is done.
func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.Info("config loaded", "ai_provider", cfg.AI.Provider, "env", cfg.Server.Env)

	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	if err := store.RunMigrations(cfg.Database.URL, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("database ready")

	redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
	if err != nil {
		return err
	}
	defer redisCache.Close()
	if err := redisCache.Ping(ctx); err != nil {
		return err
	}
	slog.Info("redis ready")

	provider, err := ai.NewProvider(cfg.AI)
	if err != nil {
		return fmt.Errorf("create AI provider: %w", err)
	}

	pgStore := store.NewPostgresStore(pool)
	router := api.NewRouter(dependencies(cfg, pgStore, redisCache, provider))
	return serve(ctx, newHTTPServer(cfg, router))
}

// dependencies assembles services and handlers around the shared store and cache.
func dependencies(cfg *config.Config, st *store.PostgresStore, c *cache.RedisCache, provider models.AIProvider) api.Dependencies {
	orchestrator, results := batch.NewFromConfig(cfg.Parser, c, slog.Default())
	batches := ai.NewBatchService(orchestrator, st, c)
	docs := ai.NewDocService(provider, st, cfg.AI.InferenceTimeout)

	return api.Dependencies{
		Auth:          mw.NewAuth(st),
		RateLimit:     mw.NewRateLimit(c, cfg.Server.RateLimitPerMinute),
		HealthHandler: healthHandler(st, c),

		CreateBatchHandler: handler.NewCreateBatchHandler(batches, handler.UploadLimits{
			MaxBytes:           cfg.Server.MaxUploadBytes,
			DefaultConcurrency: cfg.Parser.Concurrency,
		}),
		GetBatchHandler:     handler.NewGetBatchHandler(batches),
		ExportBatchHandler:  handler.NewExportBatchHandler(batches),
		GenerateDocsHandler: handler.NewGenerateDocsHandler(docs),
		ClearCacheHandler:   handler.NewClearCacheHandler(results),
	}
}

func newHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:     h,
		ReadTimeout: 2 * time.Minute,
		// Documentation requests may take up to the inference timeout.
		WriteTimeout: cfg.AI.InferenceTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// serve runs srv until it fails or ctx is cancelled, then drains connections.
func serve(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	slog.Info("server stopped")
	return nil
}

// pinger is the slice of store.Store and cache.Cache the health check needs.
type pinger interface {
	Ping(ctx context.Context) error
}

func healthHandler(db, c pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		services := map[string]string{}
		for name, p := range map[string]pinger{"database": db, "cache": c} {
			services[name] = "ok"
			if err := p.Ping(r.Context()); err != nil {
				slog.WarnContext(r.Context(), "health check failed", "service", name, "error", err)
				services[name] = "degraded"
			}
		}

		if services["database"] != "ok" || services["cache"] != "ok" {
			response.Error(w, http.StatusServiceUnavailable, "DEGRADED",
				"One or more services degraded", services)
			return
		}
		response.JSON(w, map[string]any{"status": "ok", "services": services})
	}
}
