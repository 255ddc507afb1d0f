package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	domain "github.com/bryanwahyu/repo-analyzer/internal/domain/repos"
)

type RepositoryRepository struct {
	db *sql.DB
}

func NewRepositoryRepository(db *sql.DB) *RepositoryRepository {
	return &RepositoryRepository{db: db}
}

func (r *RepositoryRepository) FindByURL(ctx context.Context, userID, url string) (*domain.Repository, error) {
	const q = `
SELECT id, user_id, url, name, owner, created_at, updated_at
FROM repositories
WHERE url=$1 AND user_id=$2
LIMIT 1;`
	var repo domain.Repository
	err := r.db.QueryRowContext(ctx, q, url, userID).Scan(
		&repo.ID, &repo.UserID, &repo.URL, &repo.Name, &repo.Owner, &repo.CreatedAt, &repo.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &repo, nil
}

func (r *RepositoryRepository) Create(ctx context.Context, repo *domain.Repository) error {
	const q = `
INSERT INTO repositories (id, user_id, url, name, owner, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (user_id, url) DO NOTHING;`
	now := time.Now()
	if repo.CreatedAt.IsZero() {
		repo.CreatedAt = now
	}
	if repo.UpdatedAt.IsZero() {
		repo.UpdatedAt = now
	}
	_, err := r.db.ExecContext(ctx, q,
		repo.ID, repo.UserID, repo.URL, repo.Name, repo.Owner, repo.CreatedAt, repo.UpdatedAt,
	)
	return err
}
