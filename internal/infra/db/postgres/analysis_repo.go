package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/bryanwahyu/repo-analyzer/internal/domain/ai"
	domain "github.com/bryanwahyu/repo-analyzer/internal/domain/reports"
)

type AnalysisRepository struct {
	db *sql.DB
}

func NewAnalysisRepository(db *sql.DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

const analysisColumns = `id, user_id, repository_url, code_quality, bugs_found, recommendations,
       code_structure, performance, security, best_practices,
       ai_analysis, ai_error, report_url, created_at, updated_at`

func (r *AnalysisRepository) Save(ctx context.Context, a *domain.Analysis) error {
	const q = `
INSERT INTO analyses
  (id, user_id, repository_url, code_quality, bugs_found, recommendations,
   code_structure, performance, security, best_practices,
   ai_analysis, ai_error, report_url, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
ON CONFLICT (id) DO UPDATE SET
  code_quality=EXCLUDED.code_quality, bugs_found=EXCLUDED.bugs_found,
  recommendations=EXCLUDED.recommendations,
  code_structure=EXCLUDED.code_structure, performance=EXCLUDED.performance,
  security=EXCLUDED.security, best_practices=EXCLUDED.best_practices,
  ai_analysis=EXCLUDED.ai_analysis, ai_error=EXCLUDED.ai_error,
  report_url=EXCLUDED.report_url, updated_at=EXCLUDED.updated_at;
`
	recs := a.Recommendations
	if recs == nil {
		recs = []string{}
	}
	recsJSON, err := json.Marshal(recs)
	if err != nil {
		return err
	}
	var aiJSON sql.NullString
	if a.AIAnalysis != nil {
		b, err := json.Marshal(a.AIAnalysis)
		if err != nil {
			return err
		}
		aiJSON = sql.NullString{String: string(b), Valid: true}
	}
	now := time.Now()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = now
	}

	_, err = r.db.ExecContext(ctx, q,
		a.ID, a.UserID, a.RepositoryURL, a.CodeQuality, a.BugsFound, string(recsJSON),
		a.Details.CodeStructure, a.Details.Performance, a.Details.Security, a.Details.BestPractices,
		aiJSON, a.AIError, a.ReportURL, a.CreatedAt, a.UpdatedAt,
	)
	return err
}

func (r *AnalysisRepository) Get(ctx context.Context, id domain.AnalysisID) (*domain.Analysis, error) {
	q := `SELECT ` + analysisColumns + ` FROM analyses WHERE id=$1 LIMIT 1;`
	a, err := scanAnalysis(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return a, err
}

func (r *AnalysisRepository) Paginate(ctx context.Context, userID string, page, pageSize int) ([]*domain.Analysis, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	q := `SELECT ` + analysisColumns + `
FROM analyses
WHERE user_id=$1
ORDER BY created_at DESC, id DESC
LIMIT $2 OFFSET $3;`
	rows, err := r.db.QueryContext(ctx, q, userID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Analysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *AnalysisRepository) Count(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM analyses WHERE user_id=$1`, userID).Scan(&n)
	return n, err
}

func scanAnalysis(row interface{ Scan(...any) error }) (*domain.Analysis, error) {
	var a domain.Analysis
	var recs []byte
	var aiJSON []byte
	var aiErr, reportURL sql.NullString
	if err := row.Scan(
		&a.ID, &a.UserID, &a.RepositoryURL, &a.CodeQuality, &a.BugsFound, &recs,
		&a.Details.CodeStructure, &a.Details.Performance, &a.Details.Security, &a.Details.BestPractices,
		&aiJSON, &aiErr, &reportURL, &a.CreatedAt, &a.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(recs, &a.Recommendations); err != nil {
		return nil, err
	}
	if len(aiJSON) > 0 {
		var p ai.ParsedAnalysis
		if err := json.Unmarshal(aiJSON, &p); err != nil {
			return nil, err
		}
		a.AIAnalysis = &p
	}
	a.AIError = aiErr.String
	a.ReportURL = reportURL.String
	return &a, nil
}
