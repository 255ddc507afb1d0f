package ai

import (
	"context"
	"fmt"

	"github.com/bryanwahyu/repo-analyzer/internal/domain/ai"
	"github.com/bryanwahyu/repo-analyzer/internal/domain/repos"
	"github.com/bryanwahyu/repo-analyzer/internal/infra/ai/prompt"
)

// Service asks the model gateway for a review and parses the answer.
type Service struct {
	client ai.Client
	parser ai.Parser
}

// NewService accepts a nil client; Analyze then reports ErrNotConfigured.
func NewService(client ai.Client) *Service {
	return &Service{client: client, parser: ai.Parser{MaxInputBytes: ai.DefaultMaxInputBytes}}
}

func (s *Service) Enabled() bool { return s != nil && s.client != nil }

// Analyze never returns a half-parsed result: a transport error yields a zero
// ParsedAnalysis, a parse failure yields ParseError set on the result.
func (s *Service) Analyze(ctx context.Context, md *repos.Metadata) (ai.ParsedAnalysis, error) {
	if !s.Enabled() {
		return ai.ParsedAnalysis{}, ai.ErrNotConfigured
	}
	raw, err := s.client.Complete(ctx, prompt.GetSystemPrompt(), prompt.GetUserPrompt(md))
	if err != nil {
		return ai.ParsedAnalysis{}, fmt.Errorf("ai gateway: %w", err)
	}
	return s.parser.Parse(raw), nil
}
