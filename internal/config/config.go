package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bryanwahyu/repo-analyzer/internal/domain/ai"
)

const (
	DefaultModel   = "mistralai/devstral-small:free"
	DefaultBaseURL = "https://openrouter.ai/api/v1"

	DefaultTemperature float32 = 0.7
)

type Config struct {
	Server struct {
		Port                int `yaml:"port"`
		ReadTimeoutSeconds  int `yaml:"readTimeoutSeconds"`
		WriteTimeoutSeconds int `yaml:"writeTimeoutSeconds"`
	} `yaml:"server"`

	AI struct {
		APIKey         string   `yaml:"apiKey"`
		Model          string   `yaml:"model"`
		TimeoutSeconds int      `yaml:"timeoutSeconds"`
		BaseURL        string   `yaml:"baseURL"`
		Referer        string   `yaml:"referer"`
		Temperature    *float32 `yaml:"temperature"` // nil means 0.7; 0 is honoured
		MaxTokens      int      `yaml:"maxTokens"`
	} `yaml:"ai"`

	GitHub struct {
		Token           string `yaml:"token"`
		CacheTTLMinutes int    `yaml:"cacheTTLMinutes"`
	} `yaml:"github"`

	Database struct {
		Driver   string `yaml:"driver"` // mysql | postgres | "" (disabled)
		DSN      string `yaml:"dsn"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		Migrate  bool   `yaml:"migrate"` // apply schema.sql at startup
	} `yaml:"database"`

	Minio struct {
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`

	Auth struct {
		// APIKeys maps client name to key; empty disables auth.
		APIKeys map[string]string `yaml:"apiKeys"`
	} `yaml:"auth"`

	RateLimit struct {
		Capacity        int `yaml:"capacity"`
		RefillPerSecond int `yaml:"refillPerSecond"`
	} `yaml:"rateLimit"`

	Log struct {
		Development bool `yaml:"development"`
	} `yaml:"log"`
}

// Load reads the YAML file at path, applies environment overrides and
// defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, err
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("OPENROUTER_API_KEY"); v != "" {
		c.AI.APIKey = v
	}
	if v := os.Getenv("OPENROUTER_MODEL"); v != "" {
		c.AI.Model = v
	}
	if v := os.Getenv("GITHUB_TOKEN"); v != "" {
		c.GitHub.Token = v
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Server.Port = p
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
	if c.Server.ReadTimeoutSeconds <= 0 {
		c.Server.ReadTimeoutSeconds = 15
	}
	// analysis clones and calls the model synchronously
	if c.Server.WriteTimeoutSeconds <= 0 {
		c.Server.WriteTimeoutSeconds = 180
	}
	if c.AI.Model == "" {
		c.AI.Model = DefaultModel
	}
	if c.AI.TimeoutSeconds <= 0 {
		c.AI.TimeoutSeconds = 60
	}
	if c.AI.BaseURL == "" {
		c.AI.BaseURL = DefaultBaseURL
	}
	if c.AI.Temperature == nil {
		t := DefaultTemperature
		c.AI.Temperature = &t
	}
	if c.AI.MaxTokens <= 0 {
		c.AI.MaxTokens = 1500
	}
	if c.GitHub.CacheTTLMinutes <= 0 {
		c.GitHub.CacheTTLMinutes = 60
	}
	if c.RateLimit.Capacity <= 0 {
		c.RateLimit.Capacity = 10
	}
	if c.RateLimit.RefillPerSecond <= 0 {
		c.RateLimit.RefillPerSecond = 1
	}
}

// AIOptions returns the gateway record handed to the AI client.
func (c *Config) AIOptions() ai.Options {
	temp := DefaultTemperature
	if c.AI.Temperature != nil {
		temp = *c.AI.Temperature
	}
	return ai.Options{
		APIKey:         c.AI.APIKey,
		Model:          c.AI.Model,
		TimeoutSeconds: c.AI.TimeoutSeconds,
		BaseURL:        c.AI.BaseURL,
		Referer:        c.AI.Referer,
		Temperature:    temp,
		MaxTokens:      c.AI.MaxTokens,
	}
}

// GitHubCacheTTL is the metadata cache lifetime.
func (c *Config) GitHubCacheTTL() time.Duration {
	return time.Duration(c.GitHub.CacheTTLMinutes) * time.Minute
}

// DatabaseDSN builds the driver DSN unless one was given explicitly.
func (c *Config) DatabaseDSN() string {
	if c.Database.DSN != "" {
		return c.Database.DSN
	}
	switch c.Database.Driver {
	case "postgres":
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			c.Database.Host, c.Database.Port, c.Database.User, c.Database.Password, c.Database.Name)
	default:
		return c.MySQLDSN()
	}
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}
