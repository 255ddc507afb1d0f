package github

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// diskCache stores JSON blobs under dir with a modification-time TTL.
type diskCache struct {
	dir string
	ttl time.Duration
}

func newDiskCache(dir string, ttl time.Duration) (*diskCache, error) {
	if dir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(base, "repo-analyzer")
	}
	return &diskCache{dir: dir, ttl: ttl}, nil
}

func (c *diskCache) path(elem ...string) string {
	return filepath.Join(append([]string{c.dir}, elem...)...)
}

func (c *diskCache) write(path string, data any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

func (c *diskCache) read(path string, target any) (bool, error) {
	stat, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if c.ttl <= 0 || time.Since(stat.ModTime()) > c.ttl {
		return false, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(b, target); err != nil {
		return false, err
	}
	return true, nil
}
