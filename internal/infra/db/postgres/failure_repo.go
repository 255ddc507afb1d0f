package postgres

import (
	"context"
	"database/sql"
	"time"

	domain "github.com/bryanwahyu/repo-analyzer/internal/domain/failures"
)

type FailureRepository struct {
	db *sql.DB
}

func NewFailureRepository(db *sql.DB) *FailureRepository { return &FailureRepository{db: db} }

func (r *FailureRepository) Save(ctx context.Context, f *domain.Failure) error {
	const q = `
INSERT INTO analysis_errors
  (user_id, analysis_id, repository_url, phase, message, details_json, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
RETURNING id;`
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now()
	}
	details := f.DetailsJSON
	if details == "" {
		details = "{}"
	}
	return r.db.QueryRowContext(ctx, q,
		f.UserID, f.AnalysisID, f.RepositoryURL, string(f.Phase), f.Message, details, f.CreatedAt,
	).Scan(&f.ID)
}

func (r *FailureRepository) ListByAnalysis(ctx context.Context, analysisID string, limit int) ([]*domain.Failure, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
SELECT id, user_id, analysis_id, repository_url, phase, message, details_json, created_at
FROM analysis_errors
WHERE analysis_id=$1
ORDER BY created_at DESC, id DESC
LIMIT $2;`
	rows, err := r.db.QueryContext(ctx, q, analysisID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Failure
	for rows.Next() {
		var f domain.Failure
		if err := rows.Scan(&f.ID, &f.UserID, &f.AnalysisID, &f.RepositoryURL, &f.Phase, &f.Message, &f.DetailsJSON, &f.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &f)
	}
	return out, rows.Err()
}
