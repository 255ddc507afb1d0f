package analysis

import (
	"bytes"
	"errors"
	"fmt"
	"hash/fnv"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// lineCounted lists the extensions whose lines count toward TotalLines.
var lineCounted = map[string]bool{
	".py": true, ".js": true, ".jsx": true, ".ts": true, ".tsx": true,
	".html": true, ".css": true, ".md": true, ".txt": true,
}

// GenericRecommendations is the fallback advice rotated per repository.
var GenericRecommendations = []string{
	"Implement comprehensive unit tests to improve code coverage",
	"Add detailed documentation for public APIs and functions",
	"Consider using type hints to improve code readability and catch errors early",
	"Refactor large functions into smaller, more manageable pieces",
	"Implement consistent error handling throughout the codebase",
	"Add logging to help with debugging and monitoring",
	"Consider using a linter to enforce coding standards",
	"Review security practices, especially around user inputs and authentication",
	"Optimize database queries for better performance",
	"Implement CI/CD pipelines for automated testing and deployment",
}

const genericPicks = 5

// GenericDetails are used whenever model output is unusable.
var GenericDetails = struct {
	CodeStructure, Performance, Security, BestPractices string
}{
	CodeStructure: "The codebase has a clear structure but could benefit from more modularization. Consider breaking down large components into smaller, reusable ones.",
	Performance:   "Performance is generally good, but there are opportunities for optimization in data fetching and rendering large lists.",
	Security:      "Some potential security issues were found, including possible XSS vulnerabilities and insecure dependencies.",
	BestPractices: "The code mostly follows best practices, but there are inconsistencies in coding style and patterns across the codebase.",
}

// BasicResult is the placeholder quality estimate computed from a checkout.
type BasicResult struct {
	CodeQuality      int            `json:"code_quality"`
	BugsFound        int            `json:"bugs_found"`
	FileDistribution map[string]int `json:"file_distribution"`
	TotalLines       int            `json:"total_lines"`
}

// AnalyzeTree walks root counting files per extension. Dotfiles and the
// .git directory are skipped. Score and bug count are stable hashes, not
// real measurements.
func AnalyzeTree(root, repoURL string) (BasicResult, error) {
	res := BasicResult{FileDistribution: map[string]int{}}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(d.Name()))
		if ext == "" {
			return nil
		}
		res.FileDistribution[ext]++
		if lineCounted[ext] {
			// unreadable files simply don't contribute
			if n, err := countLines(path); err == nil {
				res.TotalLines += n
			}
		}
		return nil
	})
	if err != nil {
		return BasicResult{}, fmt.Errorf("walk %s: %w", root, err)
	}
	res.CodeQuality = fallbackScore(res.FileDistribution)
	res.BugsFound = int(hash(repoURL) % 10)
	return res, nil
}

// PickRecommendations returns genericPicks consecutive entries of
// GenericRecommendations starting at a position derived from repoURL.
func PickRecommendations(repoURL string) []string {
	seed := int(hash(repoURL) % 100)
	out := make([]string, 0, genericPicks)
	for i := 0; i < genericPicks; i++ {
		out = append(out, GenericRecommendations[(seed+i)%len(GenericRecommendations)])
	}
	return out
}

func fallbackScore(dist map[string]int) int {
	exts := make([]string, 0, len(dist))
	for ext := range dist {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	var b strings.Builder
	for _, ext := range exts {
		fmt.Fprintf(&b, "%s:%d,", ext, dist[ext])
	}
	return min(100, max(60, 75+int(hash(b.String())%20)))
}

func hash(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}

// countLines counts newline-terminated lines plus a trailing partial line.
func countLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	buf := make([]byte, 32*1024)
	n := 0
	var last byte
	for {
		c, err := f.Read(buf)
		if c > 0 {
			n += bytes.Count(buf[:c], []byte{'\n'})
			last = buf[c-1]
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, err
		}
	}
	if last != 0 && last != '\n' {
		n++
	}
	return n, nil
}
