package failures

import "time"

// Phase names the pipeline step that failed.
type Phase string

const (
	PhaseClone   Phase = "clone"
	PhaseFetch   Phase = "fetch"
	PhaseAI      Phase = "ai"
	PhasePersist Phase = "persist"
	PhaseUpload  Phase = "upload"
)

// Failure represents a persisted analysis error entry
type Failure struct {
	ID            int64     `json:"id"`
	UserID        string    `json:"user_id"`
	AnalysisID    string    `json:"analysis_id"`
	RepositoryURL string    `json:"repository_url,omitempty"`
	Phase         Phase     `json:"phase,omitempty"`
	Message       string    `json:"message"`
	DetailsJSON   string    `json:"details_json,omitempty"` // raw JSON string
	CreatedAt     time.Time `json:"created_at"`
}
