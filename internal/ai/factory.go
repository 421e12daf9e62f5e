package ai

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kiranshivaraju/dsxmeta/internal/ai/anthropic"
	"github.com/kiranshivaraju/dsxmeta/internal/ai/ollama"
	"github.com/kiranshivaraju/dsxmeta/internal/ai/openai"
	"github.com/kiranshivaraju/dsxmeta/internal/ai/vllm"
	"github.com/kiranshivaraju/dsxmeta/internal/config"
	"github.com/kiranshivaraju/dsxmeta/pkg/models"
)

// NewProvider constructs the documentation provider named by cfg.Provider,
// wrapped so every call is logged with its latency and outcome.
func NewProvider(cfg config.AIConfig) (models.AIProvider, error) {
	var p models.AIProvider
	switch cfg.Provider {
	case "ollama":
		p = ollama.NewProvider(cfg.Ollama)
	case "vllm":
		p = vllm.NewProvider(cfg.VLLM)
	case "openai":
		p = openai.NewProvider(cfg.OpenAI)
	case "anthropic":
		p = anthropic.NewProvider(cfg.Anthropic)
	default:
		return nil, fmt.Errorf("unknown AI provider %q: must be one of ollama, vllm, openai, anthropic", cfg.Provider)
	}
	return WithLogging(p), nil
}

// WithLogging wraps p so each documentation call emits one log line.
func WithLogging(p models.AIProvider) models.AIProvider {
	return &loggedProvider{next: p}
}

type loggedProvider struct {
	next models.AIProvider
}

func (l *loggedProvider) Name() string { return l.next.Name() }

func (l *loggedProvider) GenerateDocs(ctx context.Context, req models.DocsRequest) (models.DocsResult, error) {
	start := time.Now()
	out, err := l.next.GenerateDocs(ctx, req)

	attrs := []any{
		"provider", l.next.Name(),
		"job", req.JobName,
		"metadata_bytes", len(req.Metadata),
		"duration_ms", time.Since(start).Milliseconds(),
	}
	if err != nil {
		slog.WarnContext(ctx, "documentation generation failed", append(attrs, "error", err)...)
		return out, err
	}
	slog.InfoContext(ctx, "documentation generated", append(attrs, "model", out.Model, "markdown_bytes", len(out.Markdown))...)
	return out, nil
}
