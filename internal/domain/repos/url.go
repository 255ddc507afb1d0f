package repos

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidURL is returned for URLs that do not name a GitHub repository.
var ErrInvalidURL = errors.New("invalid repository url")

var namePattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// ValidName reports whether s is usable as a GitHub owner or repository
// name. Such names also end up as path elements, so ".." is refused.
func ValidName(s string) bool {
	return namePattern.MatchString(s) && !strings.Contains(s, "..") && s != "."
}

// ParseURL extracts owner and repository name from a github.com URL.
func ParseURL(rawURL string) (owner, name string, err error) {
	parts := strings.Split(strings.TrimRight(strings.TrimSpace(rawURL), "/"), "/")
	idx := -1
	for i, p := range parts {
		if p == "github.com" || p == "www.github.com" {
			idx = i
			break
		}
	}
	if idx < 0 {
		return "", "", fmt.Errorf("%w: not a GitHub URL", ErrInvalidURL)
	}
	if len(parts) <= idx+2 {
		return "", "", fmt.Errorf("%w: URL does not contain owner and repo", ErrInvalidURL)
	}
	owner = parts[idx+1]
	name = strings.TrimSuffix(parts[idx+2], ".git")
	if owner == "" || name == "" {
		return "", "", fmt.Errorf("%w: URL does not contain owner and repo", ErrInvalidURL)
	}
	if !ValidName(owner) || !ValidName(name) {
		return "", "", fmt.Errorf("%w: invalid owner or repo name", ErrInvalidURL)
	}
	return owner, name, nil
}
