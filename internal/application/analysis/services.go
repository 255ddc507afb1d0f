package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bryanwahyu/repo-analyzer/internal/application"
	aisvc "github.com/bryanwahyu/repo-analyzer/internal/application/ai"
	"github.com/bryanwahyu/repo-analyzer/internal/domain/ai"
	"github.com/bryanwahyu/repo-analyzer/internal/domain/failures"
	"github.com/bryanwahyu/repo-analyzer/internal/domain/reports"
	"github.com/bryanwahyu/repo-analyzer/internal/domain/repos"
)

const (
	noData    = "No data available"
	aiWeight  = 0.7
	maxPage   = 100
	defPageSz = 20
)

// Service implements the analysis use-cases. Repos, Reports, Failures and
// Artifacts are optional; a nil port disables that side effect.
type Service struct {
	Cloner    repos.Cloner
	Fetcher   repos.Fetcher
	AI        *aisvc.Service
	Repos     repos.Store
	Reports   reports.Repository
	Failures  failures.Repository
	Artifacts reports.ArtifactStore
	Clock     application.Clock
	Logger    *zap.Logger
}

// AnalyzeCommand is the input of Analyze
type AnalyzeCommand struct {
	RepositoryURL string
	UserID        string
}

// Analyze runs clone → fetch → basic analysis → model review → persist.
func (s *Service) Analyze(ctx context.Context, cmd AnalyzeCommand) (*reports.Analysis, error) {
	log := s.logger().With(zap.String("repository_url", cmd.RepositoryURL), zap.String("user_id", cmd.UserID))
	id := reports.AnalysisID("analysis_" + uuid.NewString())

	owner, name, err := repos.ParseURL(cmd.RepositoryURL)
	if err != nil {
		return nil, err
	}

	dir, err := s.Cloner.Clone(ctx, cmd.RepositoryURL)
	if err != nil {
		s.recordFailure(ctx, cmd, id, failures.PhaseClone, err)
		return nil, fmt.Errorf("%w: %v", repos.ErrCloneFailed, err)
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			log.Warn("remove checkout", zap.String("dir", dir), zap.Error(err))
		}
	}()

	md, err := s.Fetcher.Fetch(ctx, owner, name)
	if err != nil {
		log.Warn("fetch repository metadata", zap.Error(err))
		s.recordFailure(ctx, cmd, id, failures.PhaseFetch, err)
		md = &repos.Metadata{FullName: owner + "/" + name}
	}

	basic, err := AnalyzeTree(dir, cmd.RepositoryURL)
	if err != nil {
		return nil, fmt.Errorf("analyze checkout: %w", err)
	}

	now := s.clock().Now()
	a := &reports.Analysis{
		ID:              id,
		UserID:          cmd.UserID,
		RepositoryURL:   cmd.RepositoryURL,
		CodeQuality:     basic.CodeQuality,
		BugsFound:       basic.BugsFound,
		Recommendations: PickRecommendations(cmd.RepositoryURL),
		Details: reports.Details{
			CodeStructure: GenericDetails.CodeStructure,
			Performance:   GenericDetails.Performance,
			Security:      GenericDetails.Security,
			BestPractices: GenericDetails.BestPractices,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if s.AI.Enabled() {
		parsed, err := s.AI.Analyze(ctx, md)
		if err != nil {
			log.Warn("ai review failed, using basic analysis", zap.Error(err))
			s.recordFailure(ctx, cmd, id, failures.PhaseAI, err)
			a.AIError = err.Error()
		} else {
			a.AIAnalysis = &parsed
			applyReview(a, parsed, basic.CodeQuality)
		}
	} else {
		log.Info("ai gateway not configured, using basic analysis only")
	}

	s.persist(ctx, log, cmd, owner, name, a)
	return a, nil
}

// applyReview overlays a parsed model review onto the basic report.
func applyReview(a *reports.Analysis, p ai.ParsedAnalysis, basicScore int) {
	if p.Degraded() {
		a.AIError = p.ParseError
		return
	}
	if len(p.Recommendations) > 0 {
		a.Recommendations = p.Recommendations
		if p.OverallScore > 0 {
			a.CodeQuality = int(aiWeight*float64(p.OverallScore) + (1-aiWeight)*float64(basicScore))
		}
	}
	a.Details = reports.Details{
		CodeStructure: orNoData(p.ArchitectureNotes),
		Performance:   orNoData(p.PerformanceNotes),
		Security:      orNoData(p.SecurityNotes),
		BestPractices: orNoData(p.BestPracticesNotes),
	}
}

func orNoData(s string) string {
	if s == "" {
		return noData
	}
	return s
}

// persist stores the repository, the report and its artifact. Every failure
// here is logged and swallowed; the caller still gets the report.
func (s *Service) persist(ctx context.Context, log *zap.Logger, cmd AnalyzeCommand, owner, name string, a *reports.Analysis) {
	if s.Repos != nil {
		if err := s.ensureRepository(ctx, cmd, owner, name); err != nil {
			log.Warn("save repository", zap.Error(err))
			s.recordFailure(ctx, cmd, a.ID, failures.PhasePersist, err)
		}
	}

	if s.Artifacts != nil {
		body, err := json.Marshal(a)
		if err == nil {
			key := fmt.Sprintf("%s/%s.json", keyPart(cmd.UserID), a.ID)
			var url string
			if url, err = s.Artifacts.UploadJSON(ctx, key, body); err == nil {
				a.ReportURL = url
			}
		}
		if err != nil {
			log.Warn("upload report", zap.Error(err))
			s.recordFailure(ctx, cmd, a.ID, failures.PhaseUpload, err)
		}
	}

	if s.Reports != nil {
		if err := s.Reports.Save(ctx, a); err != nil {
			log.Warn("save analysis", zap.Error(err))
			s.recordFailure(ctx, cmd, a.ID, failures.PhasePersist, err)
		}
	}
}

func (s *Service) ensureRepository(ctx context.Context, cmd AnalyzeCommand, owner, name string) error {
	existing, err := s.Repos.FindByURL(ctx, cmd.UserID, cmd.RepositoryURL)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	now := s.clock().Now()
	return s.Repos.Create(ctx, &repos.Repository{
		ID:        repos.RepositoryID(uuid.NewString()),
		UserID:    cmd.UserID,
		URL:       cmd.RepositoryURL,
		Name:      name,
		Owner:     owner,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (s *Service) recordFailure(ctx context.Context, cmd AnalyzeCommand, id reports.AnalysisID, phase failures.Phase, cause error) {
	if s.Failures == nil {
		return
	}
	details, _ := json.Marshal(map[string]string{"error": cause.Error()})
	f := &failures.Failure{
		UserID:        cmd.UserID,
		AnalysisID:    string(id),
		RepositoryURL: cmd.RepositoryURL,
		Phase:         phase,
		Message:       cause.Error(),
		DetailsJSON:   string(details),
		CreatedAt:     s.clock().Now(),
	}
	if err := s.Failures.Save(ctx, f); err != nil {
		s.logger().Warn("save failure record", zap.String("phase", string(phase)), zap.Error(err))
	}
}

// Get returns a stored analysis
func (s *Service) Get(ctx context.Context, id string) (*reports.Analysis, error) {
	if s.Reports == nil {
		return nil, reports.ErrNotFound
	}
	return s.Reports.Get(ctx, reports.AnalysisID(id))
}

// List returns one page of a user's analyses, newest first.
func (s *Service) List(ctx context.Context, userID string, page, pageSize int) (reports.PaginatedResult, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defPageSz
	}
	if pageSize > maxPage {
		pageSize = maxPage
	}
	if s.Reports == nil {
		return reports.NewPaginatedResult([]*reports.Analysis{}, page, pageSize, 0), nil
	}
	total, err := s.Reports.Count(ctx, userID)
	if err != nil {
		return reports.PaginatedResult{}, err
	}
	items, err := s.Reports.Paginate(ctx, userID, page, pageSize)
	if err != nil {
		return reports.PaginatedResult{}, err
	}
	if items == nil {
		items = []*reports.Analysis{}
	}
	return reports.NewPaginatedResult(items, page, pageSize, total), nil
}

// FailuresOf lists the recorded pipeline failures of an analysis.
func (s *Service) FailuresOf(ctx context.Context, id string, limit int) ([]*failures.Failure, error) {
	if s.Failures == nil {
		return []*failures.Failure{}, nil
	}
	return s.Failures.ListByAnalysis(ctx, id, limit)
}

func (s *Service) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

func (s *Service) clock() application.Clock {
	if s.Clock == nil {
		return application.SystemClock{}
	}
	return s.Clock
}

func keyPart(s string) string {
	if s == "" {
		return "anonymous"
	}
	return s
}

// IsClientError reports whether err was caused by bad input.
func IsClientError(err error) bool {
	return errors.Is(err, repos.ErrInvalidURL) || errors.Is(err, repos.ErrCloneFailed)
}
