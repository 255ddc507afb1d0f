package ai

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/repo-analyzer/internal/domain/ai"
	"github.com/bryanwahyu/repo-analyzer/internal/domain/repos"
)

type fakeClient struct {
	reply  string
	err    error
	system string
	user   string
}

func (f *fakeClient) Complete(_ context.Context, systemPrompt, userPrompt string) (string, error) {
	f.system, f.user = systemPrompt, userPrompt
	return f.reply, f.err
}

func TestAnalyzeNotConfigured(t *testing.T) {
	svc := NewService(nil)
	assert.False(t, svc.Enabled())
	_, err := svc.Analyze(context.Background(), &repos.Metadata{})
	assert.ErrorIs(t, err, ai.ErrNotConfigured)
}

func TestAnalyzeParsesReply(t *testing.T) {
	fc := &fakeClient{reply: "Score: 82\n\n1. Add tests\n2. Add docs\n\nSecurity is fine overall."}
	svc := NewService(fc)

	got, err := svc.Analyze(context.Background(), &repos.Metadata{FullName: "octo/cat"})
	require.NoError(t, err)
	assert.Equal(t, 82, got.OverallScore)
	assert.Equal(t, []string{"Add tests", "Add docs"}, got.Recommendations)
	assert.Contains(t, got.SecurityNotes, "Security is fine overall.")
	assert.Equal(t, fc.reply, got.RawText)
	assert.True(t, strings.Contains(fc.user, "octo/cat"))
	assert.NotEmpty(t, fc.system)
}

func TestAnalyzeGatewayError(t *testing.T) {
	svc := NewService(&fakeClient{err: ai.ErrQuotaExceeded})
	_, err := svc.Analyze(context.Background(), &repos.Metadata{})
	assert.True(t, errors.Is(err, ai.ErrQuotaExceeded))
}
