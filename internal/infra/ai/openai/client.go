package openai

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/bryanwahyu/repo-analyzer/internal/domain/ai"
)

type Client struct {
	*openai.Client
	opts ai.Options
}

// NewClient talks to any OpenAI-compatible chat-completion gateway
// (OpenRouter by default, via opts.BaseURL).
func NewClient(opts ai.Options) (*Client, error) {
	if opts.APIKey == "" {
		return nil, ai.ErrNotConfigured
	}
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	}
	timeout := time.Duration(opts.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	cfg.HTTPClient = &http.Client{
		Timeout:   timeout,
		Transport: refererTransport{referer: opts.Referer, next: http.DefaultTransport},
	}
	return &Client{Client: openai.NewClientWithConfig(cfg), opts: opts}, nil
}

func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.opts.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		Temperature: c.opts.Temperature,
		MaxTokens:   c.opts.MaxTokens,
	}
	// the request field is omitempty; a tiny non-zero value keeps "0" on the wire
	if req.Temperature == 0 {
		req.Temperature = math.SmallestNonzeroFloat32
	}

	resp, err := c.CreateChatCompletion(ctx, req)
	if err != nil {
		if isQuotaError(err) {
			return "", fmt.Errorf("%w: %v", ai.ErrQuotaExceeded, err)
		}
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}
	return resp.Choices[0].Message.Content, nil
}

// ErrNoChoices is returned when the gateway answers without any completion.
var ErrNoChoices = errors.New("gateway returned no choices")

func isQuotaError(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusTooManyRequests
	}
	return false
}

// refererTransport sets the attribution header OpenRouter asks for.
type refererTransport struct {
	referer string
	next    http.RoundTripper
}

func (t refererTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	if t.referer == "" {
		return t.next.RoundTrip(r)
	}
	r = r.Clone(r.Context())
	r.Header.Set("HTTP-Referer", t.referer)
	return t.next.RoundTrip(r)
}
