package llm

import (
	"fmt"

	"github.com/connormilton/forest/internal/config"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Usage reports the token counts of a completed call, used for cost accounting.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatClient is the completion interface consumed by the executor agent.
type ChatClient interface {
	ChatJSON(system, prompt string) (string, Usage, error)
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []message      `json:"messages"`
	Temperature    float64        `json:"temperature"`
	ResponseFormat responseFormat `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage Usage `json:"usage"`
}

// Client calls an OpenAI-compatible chat completions endpoint.
type Client struct {
	client      *resty.Client
	apiKey      string
	model       string
	temperature float64
	logger      *zap.Logger
}

var _ ChatClient = (*Client)(nil)

// NewClient creates a new chat completions client.
func NewClient(cfg *config.LLM, logger *zap.Logger) *Client {
	client := resty.New().SetBaseURL(cfg.BaseURL)

	return &Client{
		client:      client,
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		logger:      logger,
	}
}

// ChatJSON submits a system+user message pair and requests a JSON object
// response. It returns the raw response text and the reported token usage.
func (c *Client) ChatJSON(system, prompt string) (string, Usage, error) {
	body := chatRequest{
		Model: c.model,
		Messages: []message{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
		Temperature:    c.temperature,
		ResponseFormat: responseFormat{Type: "json_object"},
	}

	req := c.client.R().
		SetHeader("Authorization", "Bearer "+c.apiKey).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		SetResult(&chatResponse{})

	c.logger.Debug("Calling LLM", zap.String("model", c.model))
	resp, err := req.Post("/chat/completions")
	if err != nil {
		return "", Usage{}, fmt.Errorf("LLM request failed: %w", err)
	}
	if resp.IsError() {
		return "", Usage{}, fmt.Errorf("LLM request failed with status %s: %s", resp.Status(), resp.String())
	}

	result := resp.Result().(*chatResponse)
	if len(result.Choices) == 0 {
		return "", Usage{}, fmt.Errorf("LLM response contained no choices")
	}

	return result.Choices[0].Message.Content, result.Usage, nil
}
