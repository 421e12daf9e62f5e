package ollama

import (
	"context"
	"strings"

	"github.com/kiranshivaraju/dsxmeta/internal/ai/llmhttp"
	"github.com/kiranshivaraju/dsxmeta/internal/config"
	"github.com/kiranshivaraju/dsxmeta/pkg/models"
)

// Provider implements models.AIProvider using Ollama's /api/chat endpoint.
type Provider struct {
	cfg    config.OllamaConfig
	client *llmhttp.Client
}

func NewProvider(cfg config.OllamaConfig) *Provider {
	return &Provider{cfg: cfg, client: llmhttp.New(nil)}
}

func (p *Provider) Name() string { return "ollama" }

type chatRequest struct {
	Model    string            `json:"model"`
	Messages []llmhttp.Message `json:"messages"`
	Stream   bool              `json:"stream"`
	Options  chatOptions       `json:"options"`
}

type chatOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

type chatResponse struct {
	Model   string          `json:"model"`
	Message llmhttp.Message `json:"message"`
}

func (p *Provider) GenerateDocs(ctx context.Context, req models.DocsRequest) (models.DocsResult, error) {
	var resp chatResponse
	err := p.client.PostJSON(ctx, strings.TrimRight(p.cfg.BaseURL, "/")+"/api/chat", nil, chatRequest{
		Model: p.cfg.Model,
		Messages: []llmhttp.Message{
			{Role: "system", Content: llmhttp.SystemPrompt},
			{Role: "user", Content: llmhttp.UserPrompt(req.JobName, req.Metadata)},
		},
		Options: chatOptions{Temperature: llmhttp.Temperature, NumPredict: llmhttp.MaxTokens},
	}, &resp)
	if err != nil {
		return models.DocsResult{}, err
	}

	if strings.TrimSpace(resp.Message.Content) == "" {
		return models.DocsResult{}, llmhttp.ErrInvalidResponse
	}
	model := resp.Model
	if model == "" {
		model = p.cfg.Model
	}
	return models.DocsResult{Markdown: resp.Message.Content, Model: model}, nil
}

var _ models.AIProvider = (*Provider)(nil)
