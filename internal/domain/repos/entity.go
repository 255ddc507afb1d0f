package repos

import "time"

// RepositoryID identifier type
type RepositoryID string

// Repository is a GitHub repository registered by a user.
type Repository struct {
	ID        RepositoryID `json:"id"`
	UserID    string       `json:"user_id"`
	URL       string       `json:"url"`
	Name      string       `json:"name"`
	Owner     string       `json:"owner"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// FileEntry is one top-level item of a repository tree.
type FileEntry struct {
	Name string `json:"name"`
	Type string `json:"type"` // dir | file
	Path string `json:"path"`
}

// Metadata is what the hosting API tells us about a repository, used to
// build the model prompt.
type Metadata struct {
	FullName        string            `json:"full_name"`
	Description     string            `json:"description"`
	Language        string            `json:"language"`
	StargazersCount int               `json:"stargazers_count"`
	ForksCount      int               `json:"forks_count"`
	OpenIssuesCount int               `json:"open_issues_count"`
	FileStructure   []FileEntry       `json:"file_structure"`
	ReadmeContent   string            `json:"readme_content"`
	KeyFilesContent map[string]string `json:"key_files_content"`
}

// KeyFiles are fetched verbatim (truncated) when present at the root.
var KeyFiles = []string{
	"package.json", "requirements.txt", "setup.py", "pom.xml", "build.gradle",
	"Dockerfile", ".gitignore", "tsconfig.json", "composer.json",
}

const (
	MaxReadmeChars  = 5000
	MaxKeyFileChars = 2000
)

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
