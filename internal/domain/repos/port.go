package repos

import (
	"context"
	"errors"
)

// Store persists registered repositories.
type Store interface {
	FindByURL(ctx context.Context, userID, url string) (*Repository, error)
	Create(ctx context.Context, r *Repository) error
}

// Fetcher reads repository metadata from the hosting API.
type Fetcher interface {
	Fetch(ctx context.Context, owner, name string) (*Metadata, error)
}

// Cloner checks a repository out into a local directory. The caller owns
// the returned directory and must remove it.
type Cloner interface {
	Clone(ctx context.Context, url string) (string, error)
}

// ErrCloneFailed wraps any checkout failure.
var ErrCloneFailed = errors.New("failed to clone repository")
