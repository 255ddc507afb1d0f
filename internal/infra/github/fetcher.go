package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v61/github"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/bryanwahyu/repo-analyzer/internal/domain/repos"
)

// Options configures the GitHub fetcher.
type Options struct {
	Token    string
	CacheDir string        // empty uses the user cache dir
	CacheTTL time.Duration // <= 0 disables cache hits
	BaseURL  string        // API root, for GitHub Enterprise and tests
}

type Fetcher struct {
	client *github.Client
	cache  *diskCache
	logger *zap.Logger
}

func NewFetcher(opts Options, logger *zap.Logger) (*Fetcher, error) {
	var httpClient *http.Client
	if opts.Token != "" {
		src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token})
		httpClient = oauth2.NewClient(context.Background(), src)
	}
	client := github.NewClient(httpClient)
	if opts.BaseURL != "" {
		u, err := url.Parse(strings.TrimRight(opts.BaseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("github base url: %w", err)
		}
		client.BaseURL = u
	}

	cache, err := newDiskCache(opts.CacheDir, opts.CacheTTL)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{client: client, cache: cache, logger: logger}, nil
}

// Fetch returns repository metadata, README, the top-level listing and the
// contents of known key files. Only the repository lookup itself is fatal.
func (f *Fetcher) Fetch(ctx context.Context, owner, name string) (*repos.Metadata, error) {
	if !repos.ValidName(owner) || !repos.ValidName(name) {
		return nil, fmt.Errorf("%w: %q/%q", repos.ErrInvalidURL, owner, name)
	}
	cachePath := f.cache.path(owner, name+".json")
	var cached repos.Metadata
	hit, err := f.cache.read(cachePath, &cached)
	if err != nil {
		f.logger.Warn("github cache read failed", zap.String("path", cachePath), zap.Error(err))
	}
	if hit {
		return &cached, nil
	}

	repo, _, err := f.client.Repositories.Get(ctx, owner, name)
	if err != nil {
		return nil, fmt.Errorf("error fetching GitHub repository data: %w", err)
	}

	md := &repos.Metadata{
		FullName:        repo.GetFullName(),
		Description:     repo.GetDescription(),
		Language:        repo.GetLanguage(),
		StargazersCount: repo.GetStargazersCount(),
		ForksCount:      repo.GetForksCount(),
		OpenIssuesCount: repo.GetOpenIssuesCount(),
		FileStructure:   []repos.FileEntry{},
		KeyFilesContent: map[string]string{},
	}

	if readme, err := f.readme(ctx, owner, name); err != nil {
		f.logger.Warn("error fetching README", zap.String("repo", owner+"/"+name), zap.Error(err))
	} else {
		md.ReadmeContent = repos.Truncate(readme, repos.MaxReadmeChars)
	}

	if err := f.structure(ctx, owner, name, md); err != nil {
		f.logger.Warn("error fetching repository structure", zap.String("repo", owner+"/"+name), zap.Error(err))
	}

	if err := f.cache.write(cachePath, md); err != nil {
		f.logger.Warn("github cache write failed", zap.String("path", cachePath), zap.Error(err))
	}
	return md, nil
}

func (f *Fetcher) readme(ctx context.Context, owner, name string) (string, error) {
	rc, _, err := f.client.Repositories.GetReadme(ctx, owner, name, nil)
	if err != nil {
		return "", err
	}
	return rc.GetContent()
}

func (f *Fetcher) structure(ctx context.Context, owner, name string, md *repos.Metadata) error {
	_, dir, _, err := f.client.Repositories.GetContents(ctx, owner, name, "", nil)
	if err != nil {
		return err
	}

	files := make(map[string]string, len(dir))
	for _, item := range dir {
		typ := "file"
		if item.GetType() == "dir" {
			typ = "dir"
		}
		md.FileStructure = append(md.FileStructure, repos.FileEntry{
			Name: item.GetName(),
			Type: typ,
			Path: item.GetPath(),
		})
		if typ == "file" {
			files[item.GetName()] = item.GetPath()
		}
	}

	for _, key := range repos.KeyFiles {
		path, ok := files[key]
		if !ok {
			continue
		}
		fc, _, _, err := f.client.Repositories.GetContents(ctx, owner, name, path, nil)
		if err != nil || fc == nil {
			f.logger.Warn("error fetching key file", zap.String("file", key), zap.Error(err))
			continue
		}
		content, err := fc.GetContent()
		if err != nil {
			f.logger.Warn("error decoding key file", zap.String("file", key), zap.Error(err))
			continue
		}
		md.KeyFilesContent[key] = repos.Truncate(content, repos.MaxKeyFileChars)
	}
	return nil
}
