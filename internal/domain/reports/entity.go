package reports

import (
	"time"

	"github.com/bryanwahyu/repo-analyzer/internal/domain/ai"
)

// AnalysisID identifier type
type AnalysisID string

// Details holds the four prose sections of a report.
type Details struct {
	CodeStructure string `json:"code_structure"`
	Performance   string `json:"performance"`
	Security      string `json:"security"`
	BestPractices string `json:"best_practices"`
}

// Analysis is the report returned to the caller and persisted.
type Analysis struct {
	ID              AnalysisID         `json:"id"`
	UserID          string             `json:"user_id,omitempty"`
	RepositoryURL   string             `json:"repository_url"`
	CodeQuality     int                `json:"code_quality"`
	BugsFound       int                `json:"bugs_found"`
	Recommendations []string           `json:"recommendations"`
	Details         Details            `json:"details"`
	AIAnalysis      *ai.ParsedAnalysis `json:"ai_analysis,omitempty"`
	AIError         string             `json:"ai_error,omitempty"`
	ReportURL       string             `json:"report_url,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}
