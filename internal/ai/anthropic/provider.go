package anthropic

import (
	"context"
	"strings"

	"github.com/kiranshivaraju/dsxmeta/internal/ai/llmhttp"
	"github.com/kiranshivaraju/dsxmeta/internal/config"
	"github.com/kiranshivaraju/dsxmeta/pkg/models"
)

const apiVersion = "2023-06-01"

// Provider implements models.AIProvider using the Anthropic Messages API.
type Provider struct {
	cfg    config.AnthropicConfig
	client *llmhttp.Client
}

func NewProvider(cfg config.AnthropicConfig) *Provider {
	return &Provider{cfg: cfg, client: llmhttp.New(nil)}
}

func (p *Provider) Name() string { return "anthropic" }

type messagesRequest struct {
	Model       string            `json:"model"`
	MaxTokens   int               `json:"max_tokens"`
	Temperature float64           `json:"temperature"`
	System      string            `json:"system"`
	Messages    []llmhttp.Message `json:"messages"`
}

type messagesResponse struct {
	Model   string `json:"model"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func (p *Provider) GenerateDocs(ctx context.Context, req models.DocsRequest) (models.DocsResult, error) {
	headers := map[string]string{
		"x-api-key":         p.cfg.APIKey,
		"anthropic-version": apiVersion,
	}

	var resp messagesResponse
	err := p.client.PostJSON(ctx, strings.TrimRight(p.cfg.BaseURL, "/")+"/v1/messages", headers, messagesRequest{
		Model:       p.cfg.Model,
		MaxTokens:   llmhttp.MaxTokens,
		Temperature: llmhttp.Temperature,
		System:      llmhttp.SystemPrompt,
		Messages: []llmhttp.Message{
			{Role: "user", Content: llmhttp.UserPrompt(req.JobName, req.Metadata)},
		},
	}, &resp)
	if err != nil {
		return models.DocsResult{}, err
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if strings.TrimSpace(sb.String()) == "" {
		return models.DocsResult{}, llmhttp.ErrInvalidResponse
	}

	model := resp.Model
	if model == "" {
		model = p.cfg.Model
	}
	return models.DocsResult{Markdown: sb.String(), Model: model}, nil
}

var _ models.AIProvider = (*Provider)(nil)
