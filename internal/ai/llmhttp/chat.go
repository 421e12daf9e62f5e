package llmhttp

import (
	"context"
	"strings"
)

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

// ChatCompletion calls an OpenAI-compatible /v1/chat/completions endpoint and
// returns the first choice and the model that served it. apiKey may be empty.
func (c *Client) ChatCompletion(ctx context.Context, baseURL, apiKey, model, system, user string) (string, string, error) {
	headers := map[string]string{}
	if apiKey != "" {
		headers["Authorization"] = "Bearer " + apiKey
	}

	var resp chatResponse
	err := c.PostJSON(ctx, strings.TrimRight(baseURL, "/")+"/v1/chat/completions", headers, chatRequest{
		Model: model,
		Messages: []Message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: Temperature,
		MaxTokens:   MaxTokens,
	}, &resp)
	if err != nil {
		return "", "", err
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", "", ErrInvalidResponse
	}
	if resp.Model == "" {
		resp.Model = model
	}
	return resp.Choices[0].Message.Content, resp.Model, nil
}
