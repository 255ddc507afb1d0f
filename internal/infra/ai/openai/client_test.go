package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/repo-analyzer/internal/domain/ai"
)

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient(ai.Options{})
	assert.ErrorIs(t, err, ai.ErrNotConfigured)
}

func TestComplete(t *testing.T) {
	var gotReferer, gotModel string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotReferer = r.Header.Get("HTTP-Referer")
		var body struct {
			Model string `json:"model"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotModel = body.Model

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"Score: 80"}}]}`))
	}))
	defer srv.Close()

	c, err := NewClient(ai.Options{APIKey: "k", Model: "m", BaseURL: srv.URL, Referer: "https://example.com", TimeoutSeconds: 5})
	require.NoError(t, err)

	out, err := c.Complete(context.Background(), "sys", "user")
	require.NoError(t, err)
	assert.Equal(t, "Score: 80", out)
	assert.Equal(t, "m", gotModel)
	assert.Equal(t, "https://example.com", gotReferer)
}

func TestCompleteQuota(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited","type":"rate_limit"}}`))
	}))
	defer srv.Close()

	c, err := NewClient(ai.Options{APIKey: "k", Model: "m", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), "sys", "user")
	assert.ErrorIs(t, err, ai.ErrQuotaExceeded)
}

func TestCompleteNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[]}`))
	}))
	defer srv.Close()

	c, err := NewClient(ai.Options{APIKey: "k", Model: "m", BaseURL: srv.URL})
	require.NoError(t, err)

	out, err := c.Complete(context.Background(), "sys", "user")
	assert.ErrorIs(t, err, ErrNoChoices)
	assert.Empty(t, out)
}

func TestCompleteSendsZeroTemperature(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"index":0,"message":{"role":"assistant","content":"ok"}}]}`))
	}))
	defer srv.Close()

	c, err := NewClient(ai.Options{APIKey: "k", Model: "m", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), "sys", "user")
	require.NoError(t, err)
	require.Contains(t, body, "temperature")
	assert.InDelta(t, 0, body["temperature"], 1e-6)
}
