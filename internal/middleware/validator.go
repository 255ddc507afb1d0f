package middleware

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/bryanwahyu/repo-analyzer/internal/domain/repos"
)

// Input validation and sanitization utilities

// ErrValidation marks errors caused by bad request input.
var ErrValidation = errors.New("validation failed")

var (
	userIDPattern     = regexp.MustCompile(`^[a-zA-Z0-9_.@-]{1,128}$`)
	analysisIDPattern = regexp.MustCompile(`^analysis_[a-f0-9]{8}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{12}$`)
)

// ValidateRepositoryURL accepts http(s) URLs naming a GitHub owner/repo.
func ValidateRepositoryURL(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("%w: repository_url cannot be empty", ErrValidation)
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: invalid URL format: %v", ErrValidation, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: invalid URL scheme: %s (allowed: http, https)", ErrValidation, u.Scheme)
	}

	// Block shell metacharacters before the URL reaches git
	dangerous := []string{"$(", "`", "&", "|", ";", "\n", "\r", " "}
	for _, d := range dangerous {
		if strings.Contains(rawURL, d) {
			return fmt.Errorf("%w: invalid characters in repository_url", ErrValidation)
		}
	}

	if _, _, err := repos.ParseURL(rawURL); err != nil {
		return err
	}
	return nil
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")

	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}

	return strings.TrimSpace(result.String())
}

// ValidateUserID validates user ID format
func ValidateUserID(userID string) error {
	if userID == "" {
		return fmt.Errorf("%w: user_id cannot be empty", ErrValidation)
	}
	if !userIDPattern.MatchString(userID) {
		return fmt.Errorf("%w: invalid user_id format (alphanumeric, dot, at, dash, underscore only, max 128 chars)", ErrValidation)
	}
	return nil
}

// ValidateAnalysisID validates analysis ID format
func ValidateAnalysisID(id string) error {
	if !analysisIDPattern.MatchString(id) {
		return fmt.Errorf("%w: invalid analysis id format", ErrValidation)
	}
	return nil
}

// ValidatePageSize clamps the page size
func ValidatePageSize(size int) int {
	if size <= 0 {
		return 20 // default
	}
	if size > 100 {
		return 100 // max limit
	}
	return size
}

// ValidatePage clamps the page number
func ValidatePage(page int) int {
	if page <= 0 {
		return 1
	}
	return page
}
