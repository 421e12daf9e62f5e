package openai

import (
	"context"

	"github.com/kiranshivaraju/dsxmeta/internal/ai/llmhttp"
	"github.com/kiranshivaraju/dsxmeta/internal/config"
	"github.com/kiranshivaraju/dsxmeta/pkg/models"
)

// Provider implements models.AIProvider using OpenAI chat completions.
type Provider struct {
	cfg    config.OpenAIConfig
	client *llmhttp.Client
}

func NewProvider(cfg config.OpenAIConfig) *Provider {
	return &Provider{cfg: cfg, client: llmhttp.New(nil)}
}

func (p *Provider) Name() string { return "openai" }

func (p *Provider) GenerateDocs(ctx context.Context, req models.DocsRequest) (models.DocsResult, error) {
	text, model, err := p.client.ChatCompletion(ctx, p.cfg.BaseURL, p.cfg.APIKey, p.cfg.Model,
		llmhttp.SystemPrompt, llmhttp.UserPrompt(req.JobName, req.Metadata))
	if err != nil {
		return models.DocsResult{}, err
	}
	return models.DocsResult{Markdown: text, Model: model}, nil
}

var _ models.AIProvider = (*Provider)(nil)
