package reports

import (
	"context"
	"errors"
)

// ErrNotFound is returned when an analysis does not exist.
var ErrNotFound = errors.New("analysis not found")

// Repository port (interface untuk persistence)
type Repository interface {
	Save(ctx context.Context, a *Analysis) error
	Get(ctx context.Context, id AnalysisID) (*Analysis, error)
	Paginate(ctx context.Context, userID string, page, pageSize int) ([]*Analysis, error)
	Count(ctx context.Context, userID string) (int64, error)
}

// ArtifactStore keeps a rendered copy of each report.
type ArtifactStore interface {
	UploadJSON(ctx context.Context, key string, body []byte) (string, error)
}
