package vllm

import (
	"context"

	"github.com/kiranshivaraju/dsxmeta/internal/ai/llmhttp"
	"github.com/kiranshivaraju/dsxmeta/internal/config"
	"github.com/kiranshivaraju/dsxmeta/pkg/models"
)

// Provider implements models.AIProvider against a vLLM server's
// OpenAI-compatible API.
type Provider struct {
	cfg    config.VLLMConfig
	client *llmhttp.Client
}

func NewProvider(cfg config.VLLMConfig) *Provider {
	return &Provider{cfg: cfg, client: llmhttp.New(nil)}
}

func (p *Provider) Name() string { return "vllm" }

func (p *Provider) GenerateDocs(ctx context.Context, req models.DocsRequest) (models.DocsResult, error) {
	text, model, err := p.client.ChatCompletion(ctx, p.cfg.BaseURL, "", p.cfg.Model,
		llmhttp.SystemPrompt, llmhttp.UserPrompt(req.JobName, req.Metadata))
	if err != nil {
		return models.DocsResult{}, err
	}
	return models.DocsResult{Markdown: text, Model: model}, nil
}

var _ models.AIProvider = (*Provider)(nil)
