package ai

import "context"

// Client sends one chat-completion exchange and returns the message text.
type Client interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Options is the gateway configuration passed explicitly to clients.
type Options struct {
	APIKey         string
	Model          string
	TimeoutSeconds int
	BaseURL        string
	Referer        string
	Temperature    float32
	MaxTokens      int
}
