package git

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

type Cloner struct {
	// Binary is the git executable; empty means "git" on PATH.
	Binary string
	// TempDir is the parent for checkouts; empty means os.TempDir().
	TempDir string
	Timeout time.Duration
	logger  *zap.Logger
}

func NewCloner(logger *zap.Logger) *Cloner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cloner{Binary: "git", Timeout: 2 * time.Minute, logger: logger}
}

// Clone does a shallow clone of url into a fresh temporary directory.
func (c *Cloner) Clone(ctx context.Context, url string) (string, error) {
	start := time.Now()
	dir, err := os.MkdirTemp(c.TempDir, "repo-*")
	if err != nil {
		return "", err
	}

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	bin := c.Binary
	if bin == "" {
		bin = "git"
	}
	cmd := exec.CommandContext(ctx, bin, "clone", "--depth", "1", "--quiet", "--", url, dir)
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")

	out, err := cmd.CombinedOutput()
	if err != nil {
		os.RemoveAll(dir)
		return "", fmt.Errorf("failed to clone repository: %v: %s", err, strings.TrimSpace(string(out)))
	}

	c.logger.Info("repository cloned",
		zap.String("url", url),
		zap.String("dir", dir),
		zap.Duration("duration", time.Since(start)),
	)
	return dir, nil
}
