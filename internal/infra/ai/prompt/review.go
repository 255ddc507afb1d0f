package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bryanwahyu/repo-analyzer/internal/domain/repos"
)

// MaxKeyFilesChars bounds the key-files JSON embedded in the user prompt.
const MaxKeyFilesChars = 4000

// GetSystemPrompt is the reviewer persona sent with every request.
func GetSystemPrompt() string {
	return `You are an expert software developer with deep knowledge of full-stack development,
best practices, design patterns, and code quality. Analyze the provided GitHub repository information
and provide detailed, actionable recommendations to improve the codebase. Focus on:

1. Code structure and architecture
2. Performance optimizations
3. Security vulnerabilities
4. Best practices and patterns
5. Missing features or improvements

Provide specific, actionable recommendations that would help improve the repository.`
}

// GetUserPrompt embeds repository metadata in the review request.
func GetUserPrompt(md *repos.Metadata) string {
	if md == nil {
		md = &repos.Metadata{}
	}

	structure, err := json.MarshalIndent(nonNilFiles(md.FileStructure), "", "  ")
	if err != nil {
		structure = []byte("[]")
	}
	keyFiles, err := json.MarshalIndent(nonNilMap(md.KeyFilesContent), "", "  ")
	if err != nil {
		keyFiles = []byte("{}")
	}

	var b strings.Builder
	b.WriteString("Please analyze this GitHub repository and provide expert recommendations:\n\n")
	fmt.Fprintf(&b, "Repository: %s\n", orDefault(md.FullName, "Unknown"))
	fmt.Fprintf(&b, "Description: %s\n", orDefault(md.Description, "No description"))
	fmt.Fprintf(&b, "Language: %s\n", orDefault(md.Language, "Unknown"))
	fmt.Fprintf(&b, "Stars: %d\n", md.StargazersCount)
	fmt.Fprintf(&b, "Forks: %d\n", md.ForksCount)
	fmt.Fprintf(&b, "Open Issues: %d\n\n", md.OpenIssuesCount)
	fmt.Fprintf(&b, "File structure:\n%s\n\n", structure)
	fmt.Fprintf(&b, "README content:\n%s\n\n", orDefault(repos.Truncate(md.ReadmeContent, repos.MaxReadmeChars), "No README found"))
	fmt.Fprintf(&b, "Key files content:\n%s\n\n", repos.Truncate(string(keyFiles), MaxKeyFilesChars))
	b.WriteString(`Based on this information, provide:
1. An overall assessment of code quality (score out of 100)
2. A list of 5-10 specific recommendations to improve the codebase
3. A brief analysis of architecture, performance, security, and best practices`)
	return b.String()
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func nonNilFiles(f []repos.FileEntry) []repos.FileEntry {
	if f == nil {
		return []repos.FileEntry{}
	}
	return f
}

func nonNilMap(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
