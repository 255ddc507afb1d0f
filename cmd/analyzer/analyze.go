package main

import (
	"os"
	"os/signal"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	appanalysis "github.com/bryanwahyu/repo-analyzer/internal/application/analysis"
	"github.com/bryanwahyu/repo-analyzer/internal/bootstrap"
	"github.com/bryanwahyu/repo-analyzer/internal/config"
	"github.com/bryanwahyu/repo-analyzer/internal/formatter"
	"github.com/bryanwahyu/repo-analyzer/internal/middleware"
)

func newAnalyzeCmd() *cobra.Command {
	var (
		configPath   string
		userID       string
		outputFormat string
		verbose      bool
	)
	cmd := &cobra.Command{
		Use:   "analyze REPOSITORY_URL",
		Short: "Analyze a GitHub repository without running the server",
		Long: `Clone the repository, run the basic analysis and, when an OpenRouter key is
configured, the model review. Persistence and report upload follow the
config file exactly as the server does.

Examples:
  analyzer analyze https://github.com/octo/cat
  OPENROUTER_API_KEY=... analyzer analyze https://github.com/octo/cat -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repoURL := middleware.SanitizeString(args[0])
			if err := middleware.ValidateRepositoryURL(repoURL); err != nil {
				return err
			}

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			logger := zap.NewNop()
			if verbose {
				if logger, err = bootstrap.NewLogger(true); err != nil {
					return err
				}
				defer logger.Sync()
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			app, err := bootstrap.Build(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer app.Close()

			s := spinner.New(spinner.CharSets[11], 100*time.Millisecond, spinner.WithWriter(cmd.ErrOrStderr()))
			s.Suffix = " Analyzing " + repoURL + "..."
			s.Start()
			a, err := app.Analyses.Analyze(ctx, appanalysis.AnalyzeCommand{RepositoryURL: repoURL, UserID: userID})
			s.Stop()
			if err != nil {
				return err
			}
			return formatter.DisplayAnalysis(cmd.OutOrStdout(), a, outputFormat)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", envOr("CONFIG_PATH", "config.yaml"), "Path to config file")
	cmd.Flags().StringVarP(&userID, "user", "u", "cli", "User ID the analysis is stored under")
	cmd.Flags().StringVarP(&outputFormat, "output", "o", formatter.FormatHuman, "Output format (human, json, yaml)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log pipeline steps to stderr")
	return cmd
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
