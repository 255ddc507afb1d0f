// Package bootstrap builds the analysis service and its adapters from
// configuration. Both the HTTP server and the CLI start here.
package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/bryanwahyu/repo-analyzer/internal/application"
	appai "github.com/bryanwahyu/repo-analyzer/internal/application/ai"
	appanalysis "github.com/bryanwahyu/repo-analyzer/internal/application/analysis"
	"github.com/bryanwahyu/repo-analyzer/internal/config"
	"github.com/bryanwahyu/repo-analyzer/internal/domain/ai"
	openaiClient "github.com/bryanwahyu/repo-analyzer/internal/infra/ai/openai"
	mysqlp "github.com/bryanwahyu/repo-analyzer/internal/infra/db/mysql"
	postgresp "github.com/bryanwahyu/repo-analyzer/internal/infra/db/postgres"
	"github.com/bryanwahyu/repo-analyzer/internal/infra/executor/git"
	"github.com/bryanwahyu/repo-analyzer/internal/infra/github"
	minioStore "github.com/bryanwahyu/repo-analyzer/internal/infra/storage"
	"github.com/bryanwahyu/repo-analyzer/internal/middleware"
)

// App holds the wired service plus what must be closed on shutdown.
type App struct {
	Analyses *appanalysis.Service
	Checkers map[string]middleware.HealthChecker
	db       *sql.DB
}

// Build connects the optional database and object store and wires the
// analysis pipeline. A missing API key only disables the model review.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	app := &App{Checkers: map[string]middleware.HealthChecker{}}
	svc := &appanalysis.Service{
		Cloner: git.NewCloner(logger),
		Clock:  application.SystemClock{},
		Logger: logger,
	}

	fetcher, err := github.NewFetcher(github.Options{
		Token:    cfg.GitHub.Token,
		CacheTTL: cfg.GitHubCacheTTL(),
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("github fetcher: %w", err)
	}
	svc.Fetcher = fetcher

	client, err := openaiClient.NewClient(cfg.AIOptions())
	switch {
	case errors.Is(err, ai.ErrNotConfigured):
		logger.Warn("OPENROUTER_API_KEY not set, model review disabled")
		svc.AI = appai.NewService(nil)
	case err != nil:
		return nil, fmt.Errorf("ai client: %w", err)
	default:
		logger.Info("model review enabled", zap.String("model", cfg.AI.Model))
		svc.AI = appai.NewService(client)
	}

	if err := app.connectDB(ctx, cfg, logger, svc); err != nil {
		app.Close()
		return nil, err
	}

	if cfg.Minio.Endpoint != "" {
		store, err := minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("minio init: %w", err)
		}
		svc.Artifacts = store
		app.Checkers["storage"] = store
	}

	app.Analyses = svc
	return app, nil
}

func (a *App) connectDB(ctx context.Context, cfg *config.Config, logger *zap.Logger, svc *appanalysis.Service) error {
	switch cfg.Database.Driver {
	case "":
		logger.Warn("no database configured, analyses are not persisted")
		return nil
	case "mysql":
		db, err := mysqlp.Connect(ctx, cfg.DatabaseDSN())
		if err != nil {
			return fmt.Errorf("mysql connect: %w", err)
		}
		a.db = db
		if cfg.Database.Migrate {
			if err := mysqlp.Migrate(ctx, db); err != nil {
				return fmt.Errorf("mysql migrate: %w", err)
			}
		}
		svc.Repos = mysqlp.NewRepositoryRepository(db)
		svc.Reports = mysqlp.NewAnalysisRepository(db)
		svc.Failures = mysqlp.NewFailureRepository(db)
	case "postgres":
		db, err := postgresp.Connect(ctx, cfg.DatabaseDSN())
		if err != nil {
			return fmt.Errorf("postgres connect: %w", err)
		}
		a.db = db
		if cfg.Database.Migrate {
			if err := postgresp.Migrate(ctx, db); err != nil {
				return fmt.Errorf("postgres migrate: %w", err)
			}
		}
		svc.Repos = postgresp.NewRepositoryRepository(db)
		svc.Reports = postgresp.NewAnalysisRepository(db)
		svc.Failures = postgresp.NewFailureRepository(db)
	default:
		return fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
	a.Checkers["database"] = &middleware.DatabaseHealthChecker{DB: a.db}
	logger.Info("database connected", zap.String("driver", cfg.Database.Driver))
	return nil
}

// Close releases the database pool.
func (a *App) Close() {
	if a.db != nil {
		a.db.Close()
	}
}

// NewLogger returns the production logger, or the development one when asked.
func NewLogger(development bool) (*zap.Logger, error) {
	if development {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
