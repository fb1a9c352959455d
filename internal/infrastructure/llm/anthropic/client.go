package anthropic

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/complyon/aiact-engine/internal/infrastructure/resilience"
)

const (
	apiVersion       = "2023-06-01"
	defaultMaxTokens = 2048
)

// Client implements the reasoning service port against the Anthropic
// messages API. Requests are paced by a client-side rate limiter and
// wrapped in the shared retry/breaker executor; a sustained outage
// trips the breaker instead of queueing work against a dead service.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	maxTokens  int
	httpClient *http.Client
	limiter    *rate.Limiter
	executor   *resilience.Executor
}

type Option func(*Client)

func WithMaxTokens(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxTokens = n
		}
	}
}

// WithRequestsPerMinute caps outbound request rate. Zero disables
// pacing.
func WithRequestsPerMinute(rpm int) Option {
	return func(c *Client) {
		if rpm > 0 {
			c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1)
		} else {
			c.limiter = nil
		}
	}
}

func New(baseURL, apiKey, model string, executor *resilience.Executor, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		maxTokens:  defaultMaxTokens,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		limiter:    rate.NewLimiter(rate.Every(time.Second), 2),
		executor:   executor,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Complete sends one prompt and returns the raw text of the first
// text block. The schema hint rides along as the system prompt; output
// validation stays with the caller.
func (c *Client) Complete(ctx context.Context, prompt, schemaHint string) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limit wait: %w", err)
		}
	}

	request := map[string]any{
		"model":      c.model,
		"max_tokens": c.maxTokens,
		"messages": []map[string]any{
			{"role": "user", "content": prompt},
		},
	}
	if strings.TrimSpace(schemaHint) != "" {
		request["system"] = "Respond with a single JSON object matching this schema:\n" + schemaHint
	}

	var response struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}

	call := func(ctx context.Context) error {
		return c.postJSON(ctx, "/v1/messages", request, &response, "complete")
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "anthropic_complete", call, classifyAnthropicError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return "", wrapTemporaryIfNeeded("anthropic complete", err)
	}

	for _, block := range response.Content {
		if block.Type == "text" {
			return strings.TrimSpace(block.Text), nil
		}
	}
	return "", fmt.Errorf("anthropic complete: no text content in response")
}
