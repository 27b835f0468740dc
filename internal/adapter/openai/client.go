// Package openai answers disaster-safety questions through an
// OpenAI-compatible chat completion API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/couchcryptid/disaster-watch-service/internal/config"
	"github.com/couchcryptid/disaster-watch-service/internal/domain"
	"github.com/couchcryptid/disaster-watch-service/internal/observability"
	goopenai "github.com/sashabaranov/go-openai"
)

const maxTokens = 800

// Client implements domain.ChatResponder.
type Client struct {
	api     *goopenai.Client
	model   string
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewClient creates a chat client. OPENAI_BASE_URL points it at any
// compatible gateway.
func NewClient(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *Client {
	c := goopenai.DefaultConfig(cfg.OpenAIAPIKey)
	if cfg.OpenAIBaseURL != "" {
		c.BaseURL = cfg.OpenAIBaseURL
	}
	c.HTTPClient = &http.Client{Timeout: cfg.OpenAITimeout}
	return &Client{
		api:     goopenai.NewClientWithConfig(c),
		model:   cfg.OpenAIModel,
		logger:  logger,
		metrics: metrics,
	}
}

// Reply sends the system prompt, the conversation history, and the new
// message in one request. No retry is attempted; any failure is returned
// wrapped in domain.ErrUpstream.
func (c *Client) Reply(ctx context.Context, req domain.ChatRequest) (string, error) {
	msgs := make([]goopenai.ChatCompletionMessage, 0, len(req.History)+2)
	msgs = append(msgs, goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleSystem, Content: req.SystemPrompt})
	for _, m := range req.History {
		msgs = append(msgs, goopenai.ChatCompletionMessage{Role: string(m.Role), Content: m.Content})
	}
	msgs = append(msgs, goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleUser, Content: req.Message})

	start := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:     c.model,
		Messages:  msgs,
		MaxTokens: maxTokens,
	})
	c.metrics.ChatDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		var apiErr *goopenai.APIError
		if errors.As(err, &apiErr) {
			c.logger.Warn("chat completion rejected", "status", apiErr.HTTPStatusCode, "error", apiErr.Message)
		}
		return "", fmt.Errorf("%w: chat completion: %v", domain.ErrUpstream, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: chat completion returned no choices", domain.ErrUpstream)
	}

	answer := strings.TrimSpace(resp.Choices[0].Message.Content)
	if answer == "" {
		return "", fmt.Errorf("%w: chat completion returned empty content", domain.ErrUpstream)
	}
	c.logger.Debug("chat completion", "model", resp.Model, "total_tokens", resp.Usage.TotalTokens)
	return answer, nil
}
