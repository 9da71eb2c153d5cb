// Package config loads the collector configuration from the environment,
// an optional .env file and an optional YAML repository file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/naka-gawa/gh-issue-collector/internal/report"
	"github.com/naka-gawa/gh-issue-collector/internal/storage"
)

// DefaultRepositories are the repositories collected when none are configured.
var DefaultRepositories = []string{
	"azure-iot-sdk-node",
	"azure-iot-sdk-python",
	"azure-iot-sdk-c",
	"azure-iot-sdk-csharp",
	"azure-iot-sdk-java",
}

// Config is the complete collector configuration.
type Config struct {
	Source  SourceConfig
	Storage storage.Config
	Records RecordsConfig
	Log     LogConfig
}

// SourceConfig describes where issues are read from and how.
type SourceConfig struct {
	Org            string
	Repositories   []string
	Token          string
	UserAgent      string
	RequestTimeout time.Duration
	WaitRateLimit  bool
	Concurrency    int
}

// RecordsConfig locates the historical and recent records.
type RecordsConfig struct {
	WorkDir     string
	SyncHistory bool
	History     report.Target
	Recent      report.Target
}

// LogConfig selects the log level and output format.
type LogConfig struct {
	Level  string
	Format string
}

// RepositoriesFile is the YAML layout accepted by REPOSITORIES_FILE.
type RepositoriesFile struct {
	Org          string   `yaml:"org"`
	Repositories []string `yaml:"repositories"`
}

// Load reads the configuration. A missing .env file is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	timeout, err := time.ParseDuration(getEnv("REQUEST_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid REQUEST_TIMEOUT: %w", err)
	}
	if timeout <= 0 {
		return nil, errors.New("REQUEST_TIMEOUT must be positive")
	}

	concurrency, err := strconv.Atoi(getEnv("CONCURRENCY", "1"))
	if err != nil {
		return nil, fmt.Errorf("invalid CONCURRENCY: %w", err)
	}
	if concurrency < 1 {
		return nil, errors.New("CONCURRENCY must be >= 1")
	}

	cfg := &Config{
		Source: SourceConfig{
			Org:            getEnv("SOURCE_ORG", "azure"),
			Repositories:   splitCSV(getEnv("REPOSITORIES", strings.Join(DefaultRepositories, ","))),
			Token:          getEnv("SOURCE_AUTH_TOKEN", os.Getenv("GITHUB_AUTH_TOKEN")),
			UserAgent:      getEnv("USER_AGENT", "Azure-IoT-SDK"),
			RequestTimeout: timeout,
			WaitRateLimit:  getEnvBool("WAIT_RATE_LIMIT", false),
			Concurrency:    concurrency,
		},
		Storage: storage.Config{
			Backend:          getEnv("STORAGE_BACKEND", storage.BackendAzure),
			ConnectionString: getEnv("STORAGE_CONNECTION_STRING", os.Getenv("AZURE_STORAGE_CONNECTION_STRING")),
			S3: storage.S3Config{
				Region:          getEnv("S3_REGION", "us-east-1"),
				Endpoint:        getEnv("S3_ENDPOINT", ""),
				AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
				SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
				UsePathStyle:    getEnvBool("S3_USE_PATH_STYLE", false),
			},
		},
		Records: RecordsConfig{
			WorkDir:     getEnv("WORK_DIR", "."),
			SyncHistory: getEnvBool("SYNC_HISTORY", true),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
	}

	if path := getEnv("REPOSITORIES_FILE", ""); path != "" {
		if err := cfg.ApplyRepositoriesFile(path); err != nil {
			return nil, err
		}
	}
	cfg.SetWorkDir(cfg.Records.WorkDir)
	return cfg, nil
}

// ApplyRepositoriesFile overrides the org and repository list from a YAML file.
// Empty fields in the file leave the current values alone.
func (c *Config) ApplyRepositoriesFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read repositories file: %w", err)
	}
	var file RepositoriesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse repositories file %s: %w", path, err)
	}
	if file.Org != "" {
		c.Source.Org = file.Org
	}
	if file.Repositories != nil {
		c.Source.Repositories = file.Repositories
	}
	return nil
}

// SetWorkDir places both local records under dir.
func (c *Config) SetWorkDir(dir string) {
	c.Records.WorkDir = dir
	c.Records.History = report.Target{
		LocalPath: filepath.Join(dir, "githubIssues.csv"),
		Container: "ghissuescsv",
		Blob:      "githubissues.csv",
	}
	c.Records.Recent = report.Target{
		LocalPath: filepath.Join(dir, "mostRecentGithubIssues.csv"),
		Container: "newghissuecsv",
		Blob:      "mostRecentGithubIssues.csv",
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}

	return parsed
}

func splitCSV(raw string) []string {
	items := make([]string, 0)
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
