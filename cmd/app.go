package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/naka-gawa/gh-issue-collector/internal/config"
	"github.com/naka-gawa/gh-issue-collector/internal/gateway"
	"github.com/naka-gawa/gh-issue-collector/internal/report"
	"github.com/naka-gawa/gh-issue-collector/internal/storage"
	"github.com/naka-gawa/gh-issue-collector/internal/usecase"
)

// loadConfig reads the environment and applies the persistent flags on top.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if path, _ := flags.GetString("repos-file"); path != "" {
		if err := cfg.ApplyRepositoriesFile(path); err != nil {
			return nil, err
		}
	}
	if org, _ := flags.GetString("org"); org != "" {
		cfg.Source.Org = org
	}
	if flags.Changed("repo") {
		repos, _ := flags.GetStringSlice("repo")
		cfg.Source.Repositories = repos
	}
	if dir, _ := flags.GetString("work-dir"); dir != "" {
		cfg.SetWorkDir(dir)
	}
	if n, _ := flags.GetInt("concurrency"); n > 0 {
		cfg.Source.Concurrency = n
	}
	if verbose, _ := flags.GetBool("verbose"); verbose {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

func newLogger(cfg config.LogConfig) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	if strings.EqualFold(cfg.Format, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}

// newCollector wires the gateway, aggregator, storage and sink together.
// Storage that cannot be opened does not stop collection: records are still
// written locally and the publish step reports the failure.
func newCollector(ctx context.Context, cfg *config.Config, logger logrus.FieldLogger) (*usecase.Collector, error) {
	githubGateway, err := gateway.NewGitHubGateway(gateway.Options{
		Org:            cfg.Source.Org,
		Token:          cfg.Source.Token,
		UserAgent:      cfg.Source.UserAgent,
		RequestTimeout: cfg.Source.RequestTimeout,
		WaitRateLimit:  cfg.Source.WaitRateLimit,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub gateway: %w", err)
	}
	if !githubGateway.CanCount() {
		logger.Warn("No auth token configured, requests are unauthenticated and reconciliation is off")
	}

	aggregator := usecase.NewAggregator(githubGateway, logger)
	if githubGateway.CanCount() {
		aggregator.WithCounter(githubGateway)
	}

	var store storage.Store
	store, err = storage.Open(ctx, cfg.Storage)
	if err != nil {
		logger.WithError(err).Warn("Blob storage unavailable, records will only be written locally")
		store = storage.Unavailable{Err: err}
	}
	sink := report.NewSink(store, cfg.Records.History, cfg.Records.Recent, cfg.Records.SyncHistory, logger)

	return usecase.NewCollector(aggregator, sink, logger, cfg.Source.Concurrency), nil
}
