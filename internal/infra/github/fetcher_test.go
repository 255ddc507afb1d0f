package github

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bryanwahyu/repo-analyzer/internal/domain/repos"
)

func fileJSON(name, content string) string {
	return fmt.Sprintf(`{"type":"file","name":%q,"path":%q,"encoding":"base64","content":%q}`,
		name, name, base64.StdEncoding.EncodeToString([]byte(content)))
}

func newTestServer(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/repos/octo/cat":
			atomic.AddInt32(hits, 1)
			fmt.Fprint(w, `{"full_name":"octo/cat","description":"a cat","language":"Go","stargazers_count":5,"forks_count":2,"open_issues_count":1}`)
		case "/repos/octo/cat/readme":
			fmt.Fprint(w, fileJSON("README.md", strings.Repeat("r", 6000)))
		case "/repos/octo/cat/contents/":
			fmt.Fprint(w, `[{"type":"file","name":"Dockerfile","path":"Dockerfile"},{"type":"dir","name":"cmd","path":"cmd"},{"type":"file","name":"main.go","path":"main.go"}]`)
		case "/repos/octo/cat/contents/Dockerfile":
			fmt.Fprint(w, fileJSON("Dockerfile", "FROM golang"))
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestFetch(t *testing.T) {
	var hits int32
	srv := newTestServer(t, &hits)
	defer srv.Close()

	f, err := NewFetcher(Options{BaseURL: srv.URL, CacheDir: t.TempDir(), CacheTTL: time.Hour}, zap.NewNop())
	require.NoError(t, err)

	md, err := f.Fetch(context.Background(), "octo", "cat")
	require.NoError(t, err)

	assert.Equal(t, "octo/cat", md.FullName)
	assert.Equal(t, "Go", md.Language)
	assert.Equal(t, 5, md.StargazersCount)
	assert.Len(t, md.ReadmeContent, 5000)
	require.Len(t, md.FileStructure, 3)
	assert.Equal(t, "dir", md.FileStructure[1].Type)
	assert.Equal(t, map[string]string{"Dockerfile": "FROM golang"}, md.KeyFilesContent)

	// second call is served from the disk cache
	_, err = f.Fetch(context.Background(), "octo", "cat")
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestFetchMissingRepo(t *testing.T) {
	var hits int32
	srv := newTestServer(t, &hits)
	defer srv.Close()

	f, err := NewFetcher(Options{BaseURL: srv.URL, CacheDir: t.TempDir()}, nil)
	require.NoError(t, err)

	_, err = f.Fetch(context.Background(), "octo", "missing")
	assert.Error(t, err)
}

func TestFetchRejectsUnsafeNames(t *testing.T) {
	var hits int32
	srv := newTestServer(t, &hits)
	defer srv.Close()

	f, err := NewFetcher(Options{BaseURL: srv.URL, CacheDir: t.TempDir()}, nil)
	require.NoError(t, err)

	for _, pair := range [][2]string{{"..", "cat"}, {"octo", "../../etc"}, {"octo", `a\b`}} {
		_, err = f.Fetch(context.Background(), pair[0], pair[1])
		assert.ErrorIs(t, err, repos.ErrInvalidURL, pair[1])
	}
	assert.Equal(t, int32(0), atomic.LoadInt32(&hits))
}
