package analysis

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	aisvc "github.com/bryanwahyu/repo-analyzer/internal/application/ai"
	"github.com/bryanwahyu/repo-analyzer/internal/domain/failures"
	"github.com/bryanwahyu/repo-analyzer/internal/domain/reports"
	"github.com/bryanwahyu/repo-analyzer/internal/domain/repos"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type fakeCloner struct {
	t   *testing.T
	err error
	dir string
}

func (f *fakeCloner) Clone(_ context.Context, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.dir = f.t.TempDir()
	require.NoError(f.t, os.WriteFile(filepath.Join(f.dir, "main.py"), []byte("print(1)\n"), 0o644))
	return f.dir, nil
}

type fakeFetcher struct{ err error }

func (f fakeFetcher) Fetch(_ context.Context, owner, name string) (*repos.Metadata, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &repos.Metadata{FullName: owner + "/" + name, Language: "Python"}, nil
}

type fakeModel struct {
	reply string
	err   error
}

func (f fakeModel) Complete(context.Context, string, string) (string, error) { return f.reply, f.err }

type memRepos struct {
	mu    sync.Mutex
	items []*repos.Repository
}

func (m *memRepos) FindByURL(_ context.Context, userID, url string) (*repos.Repository, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.items {
		if r.UserID == userID && r.URL == url {
			return r, nil
		}
	}
	return nil, nil
}

func (m *memRepos) Create(_ context.Context, r *repos.Repository) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, r)
	return nil
}

type memReports struct {
	mu      sync.Mutex
	items   []*reports.Analysis
	saveErr error
}

func (m *memReports) Save(_ context.Context, a *reports.Analysis) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, a)
	return nil
}

func (m *memReports) Get(_ context.Context, id reports.AnalysisID) (*reports.Analysis, error) {
	for _, a := range m.items {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, reports.ErrNotFound
}

func (m *memReports) Paginate(_ context.Context, userID string, page, pageSize int) ([]*reports.Analysis, error) {
	var out []*reports.Analysis
	for _, a := range m.items {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	start := (page - 1) * pageSize
	if start >= len(out) {
		return nil, nil
	}
	return out[start:min(len(out), start+pageSize)], nil
}

func (m *memReports) Count(_ context.Context, userID string) (int64, error) {
	var n int64
	for _, a := range m.items {
		if a.UserID == userID {
			n++
		}
	}
	return n, nil
}

type memFailures struct {
	mu    sync.Mutex
	items []*failures.Failure
}

func (m *memFailures) Save(_ context.Context, f *failures.Failure) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, f)
	return nil
}

func (m *memFailures) ListByAnalysis(_ context.Context, id string, _ int) ([]*failures.Failure, error) {
	var out []*failures.Failure
	for _, f := range m.items {
		if f.AnalysisID == id {
			out = append(out, f)
		}
	}
	return out, nil
}

type memArtifacts struct{ keys []string }

func (m *memArtifacts) UploadJSON(_ context.Context, key string, _ []byte) (string, error) {
	m.keys = append(m.keys, key)
	return "http://minio/reports/" + key, nil
}

const repoURL = "https://github.com/octo/cat"

func newService(t *testing.T, model *fakeModel) (*Service, *fakeCloner, *memReports, *memFailures) {
	cl := &fakeCloner{t: t}
	rep := &memReports{}
	fails := &memFailures{}
	var svc *aisvc.Service
	if model != nil {
		svc = aisvc.NewService(*model)
	} else {
		svc = aisvc.NewService(nil)
	}
	return &Service{
		Cloner:    cl,
		Fetcher:   fakeFetcher{},
		AI:        svc,
		Repos:     &memRepos{},
		Reports:   rep,
		Failures:  fails,
		Artifacts: &memArtifacts{},
		Clock:     fixedClock{t: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)},
	}, cl, rep, fails
}

func TestAnalyzeBasicOnly(t *testing.T) {
	s, cl, rep, _ := newService(t, nil)

	a, err := s.Analyze(context.Background(), AnalyzeCommand{RepositoryURL: repoURL, UserID: "u1"})
	require.NoError(t, err)

	assert.Contains(t, string(a.ID), "analysis_")
	assert.Equal(t, PickRecommendations(repoURL), a.Recommendations)
	assert.Equal(t, GenericDetails.Security, a.Details.Security)
	assert.Nil(t, a.AIAnalysis)
	assert.Equal(t, "http://minio/reports/u1/"+string(a.ID)+".json", a.ReportURL)
	require.Len(t, rep.items, 1)

	_, statErr := os.Stat(cl.dir)
	assert.True(t, os.IsNotExist(statErr), "checkout must be removed")
}

func TestAnalyzeBlendsModelScore(t *testing.T) {
	reply := "Overall score: 90 out of 100.\n\n1. Add tests\n2. Split modules\n\nThe architecture is layered."
	s, _, _, _ := newService(t, &fakeModel{reply: reply})

	basic, err := AnalyzeTree(writeTree(t), repoURL)
	require.NoError(t, err)

	a, err := s.Analyze(context.Background(), AnalyzeCommand{RepositoryURL: repoURL, UserID: "u1"})
	require.NoError(t, err)

	require.NotNil(t, a.AIAnalysis)
	assert.Equal(t, []string{"Add tests", "Split modules"}, a.Recommendations)
	assert.Equal(t, int(0.7*90+0.3*float64(basic.CodeQuality)), a.CodeQuality)
	assert.Contains(t, a.Details.CodeStructure, "The architecture is layered.")
	assert.Equal(t, noData, a.Details.Performance)
}

func writeTree(t *testing.T) string {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.py"), []byte("print(1)\n"), 0o644))
	return dir
}

func TestAnalyzeModelWithoutRecommendations(t *testing.T) {
	s, _, _, _ := newService(t, &fakeModel{reply: "Rating: 40 overall; the design is fine."})

	a, err := s.Analyze(context.Background(), AnalyzeCommand{RepositoryURL: repoURL, UserID: "u1"})
	require.NoError(t, err)

	assert.Equal(t, PickRecommendations(repoURL), a.Recommendations)
	basic, _ := AnalyzeTree(writeTree(t), repoURL)
	assert.Equal(t, basic.CodeQuality, a.CodeQuality)
	assert.Equal(t, "Rating: 40 overall; the design is fine.", a.Details.CodeStructure)
}

func TestAnalyzeModelErrorFallsBack(t *testing.T) {
	s, _, _, fails := newService(t, &fakeModel{err: errors.New("boom")})

	a, err := s.Analyze(context.Background(), AnalyzeCommand{RepositoryURL: repoURL, UserID: "u1"})
	require.NoError(t, err)

	assert.Nil(t, a.AIAnalysis)
	assert.Contains(t, a.AIError, "boom")
	assert.Equal(t, GenericDetails.CodeStructure, a.Details.CodeStructure)
	require.Len(t, fails.items, 1)
	assert.Equal(t, failures.PhaseAI, fails.items[0].Phase)
}

func TestAnalyzeInvalidURL(t *testing.T) {
	s, _, _, _ := newService(t, nil)
	_, err := s.Analyze(context.Background(), AnalyzeCommand{RepositoryURL: "https://gitlab.com/a/b"})
	assert.ErrorIs(t, err, repos.ErrInvalidURL)
	assert.True(t, IsClientError(err))
}

func TestAnalyzeCloneFailure(t *testing.T) {
	s, cl, _, fails := newService(t, nil)
	cl.err = errors.New("exit status 128")

	_, err := s.Analyze(context.Background(), AnalyzeCommand{RepositoryURL: repoURL, UserID: "u1"})
	assert.ErrorIs(t, err, repos.ErrCloneFailed)
	require.Len(t, fails.items, 1)
	assert.Equal(t, failures.PhaseClone, fails.items[0].Phase)
}

func TestAnalyzeFetchFailureStillReports(t *testing.T) {
	s, _, _, fails := newService(t, nil)
	s.Fetcher = fakeFetcher{err: errors.New("rate limited")}

	a, err := s.Analyze(context.Background(), AnalyzeCommand{RepositoryURL: repoURL, UserID: "u1"})
	require.NoError(t, err)
	assert.NotEmpty(t, a.Recommendations)
	require.Len(t, fails.items, 1)
	assert.Equal(t, failures.PhaseFetch, fails.items[0].Phase)
}

func TestAnalyzePersistFailureSwallowed(t *testing.T) {
	s, _, rep, fails := newService(t, nil)
	rep.saveErr = errors.New("db down")

	a, err := s.Analyze(context.Background(), AnalyzeCommand{RepositoryURL: repoURL, UserID: "u1"})
	require.NoError(t, err)
	assert.NotNil(t, a)
	require.Len(t, fails.items, 1)
	assert.Equal(t, failures.PhasePersist, fails.items[0].Phase)
}

func TestAnalyzeRegistersRepositoryOnce(t *testing.T) {
	s, _, _, _ := newService(t, nil)
	mr := s.Repos.(*memRepos)

	for i := 0; i < 2; i++ {
		_, err := s.Analyze(context.Background(), AnalyzeCommand{RepositoryURL: repoURL, UserID: "u1"})
		require.NoError(t, err)
	}
	require.Len(t, mr.items, 1)
	assert.Equal(t, "octo", mr.items[0].Owner)
	assert.Equal(t, "cat", mr.items[0].Name)
}

func TestListAndGet(t *testing.T) {
	s, _, _, _ := newService(t, nil)
	var ids []reports.AnalysisID
	for i := 0; i < 3; i++ {
		a, err := s.Analyze(context.Background(), AnalyzeCommand{RepositoryURL: repoURL, UserID: "u1"})
		require.NoError(t, err)
		ids = append(ids, a.ID)
	}

	page, err := s.List(context.Background(), "u1", 1, 2)
	require.NoError(t, err)
	assert.Len(t, page.Data, 2)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, 2, page.TotalPages)

	got, err := s.Get(context.Background(), string(ids[1]))
	require.NoError(t, err)
	assert.Equal(t, ids[1], got.ID)

	_, err = s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, reports.ErrNotFound)
}

func TestListWithoutStore(t *testing.T) {
	s := &Service{}
	page, err := s.List(context.Background(), "u1", 0, 500)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, maxPage, page.PageSize)
	assert.Empty(t, page.Data)
}

func TestAnalyzeDegradedModelOutputFallsBack(t *testing.T) {
	s, _, _, _ := newService(t, &fakeModel{reply: "score: 90\n1. x \xff"})

	basic, err := AnalyzeTree(writeTree(t), repoURL)
	require.NoError(t, err)

	a, err := s.Analyze(context.Background(), AnalyzeCommand{RepositoryURL: repoURL, UserID: "u1"})
	require.NoError(t, err)

	require.NotNil(t, a.AIAnalysis)
	assert.True(t, a.AIAnalysis.Degraded())
	assert.Equal(t, "error parsing AI response: input is not valid UTF-8", a.AIError)
	assert.Equal(t, basic.CodeQuality, a.CodeQuality)
	assert.Equal(t, PickRecommendations(repoURL), a.Recommendations)
	assert.Equal(t, GenericDetails.CodeStructure, a.Details.CodeStructure)
	assert.Equal(t, GenericDetails.Performance, a.Details.Performance)
	assert.Equal(t, GenericDetails.Security, a.Details.Security)
	assert.Equal(t, GenericDetails.BestPractices, a.Details.BestPractices)
}
