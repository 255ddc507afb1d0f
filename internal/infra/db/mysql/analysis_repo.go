package mysql

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

// Save inserts or updates an analysis record
func (r *AnalysisRepository) Save(ctx context.Context, a *domain.Analysis) error {
	const q = `
INSERT INTO analyses
  (id, user_id, repository_url, code_quality, bugs_found, recommendations,
   code_structure, performance, security, best_practices,
   ai_analysis, ai_error, report_url, created_at, updated_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
  code_quality=VALUES(code_quality), bugs_found=VALUES(bugs_found),
  recommendations=VALUES(recommendations),
  code_structure=VALUES(code_structure), performance=VALUES(performance),
  security=VALUES(security), best_practices=VALUES(best_practices),
  ai_analysis=VALUES(ai_analysis), ai_error=VALUES(ai_error),
  report_url=VALUES(report_url), updated_at=VALUES(updated_at);
`
	recs, err := json.Marshal(nonNil(a.Recommendations))
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
		a.ID, stringOrDash(a.UserID), a.RepositoryURL, a.CodeQuality, a.BugsFound, string(recs),
		a.Details.CodeStructure, a.Details.Performance, a.Details.Security, a.Details.BestPractices,
		aiJSON, a.AIError, a.ReportURL, a.CreatedAt, a.UpdatedAt,
	)
	return err
}

func (r *AnalysisRepository) Get(ctx context.Context, id domain.AnalysisID) (*domain.Analysis, error) {
	q := `SELECT ` + analysisColumns + ` FROM analyses WHERE id=? LIMIT 1;`
	a, err := scanAnalysis(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return a, err
}

// Paginate returns a page of analyses ordered by created_at desc
func (r *AnalysisRepository) Paginate(ctx context.Context, userID string, page, pageSize int) ([]*domain.Analysis, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	q := `SELECT ` + analysisColumns + `
FROM analyses
WHERE user_id=?
ORDER BY created_at DESC, id DESC
LIMIT ? OFFSET ?;`
	rows, err := r.db.QueryContext(ctx, q, userID, pageSize, offset)
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
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM analyses WHERE user_id=?`, userID).Scan(&n)
	return n, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnalysis(row rowScanner) (*domain.Analysis, error) {
	var a domain.Analysis
	var recs string
	var aiJSON, aiErr, reportURL sql.NullString
	if err := row.Scan(
		&a.ID, &a.UserID, &a.RepositoryURL, &a.CodeQuality, &a.BugsFound, &recs,
		&a.Details.CodeStructure, &a.Details.Performance, &a.Details.Security, &a.Details.BestPractices,
		&aiJSON, &aiErr, &reportURL, &a.CreatedAt, &a.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(recs), &a.Recommendations); err != nil {
		return nil, err
	}
	if aiJSON.Valid && aiJSON.String != "" {
		var p ai.ParsedAnalysis
		if err := json.Unmarshal([]byte(aiJSON.String), &p); err != nil {
			return nil, err
		}
		a.AIAnalysis = &p
	}
	a.AIError = aiErr.String
	a.ReportURL = reportURL.String
	return &a, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
