package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv isolates a test from variables set by the environment or an earlier test.
func clearEnv(t *testing.T) {
	for _, key := range []string{
		"SOURCE_ORG", "REPOSITORIES", "REPOSITORIES_FILE", "SOURCE_AUTH_TOKEN", "GITHUB_AUTH_TOKEN",
		"USER_AGENT", "REQUEST_TIMEOUT", "WAIT_RATE_LIMIT", "CONCURRENCY",
		"STORAGE_BACKEND", "STORAGE_CONNECTION_STRING", "AZURE_STORAGE_CONNECTION_STRING",
		"S3_REGION", "S3_ENDPOINT", "S3_ACCESS_KEY_ID", "S3_SECRET_ACCESS_KEY", "S3_USE_PATH_STYLE",
		"WORK_DIR", "SYNC_HISTORY", "LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(key, "")
	}
	// godotenv.Load reads .env from the working directory; run from an empty one.
	t.Chdir(t.TempDir())
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "azure", cfg.Source.Org)
	assert.Equal(t, DefaultRepositories, cfg.Source.Repositories)
	assert.Empty(t, cfg.Source.Token)
	assert.Equal(t, 30*time.Second, cfg.Source.RequestTimeout)
	assert.Equal(t, 1, cfg.Source.Concurrency)
	assert.False(t, cfg.Source.WaitRateLimit)
	assert.Equal(t, "azure", cfg.Storage.Backend)
	assert.Empty(t, cfg.Storage.ConnectionString)
	assert.True(t, cfg.Records.SyncHistory)
	assert.Equal(t, "githubIssues.csv", cfg.Records.History.LocalPath)
	assert.Equal(t, "ghissuescsv", cfg.Records.History.Container)
	assert.Equal(t, "githubissues.csv", cfg.Records.History.Blob)
	assert.Equal(t, "mostRecentGithubIssues.csv", cfg.Records.Recent.LocalPath)
	assert.Equal(t, "newghissuecsv", cfg.Records.Recent.Container)
	assert.Equal(t, "mostRecentGithubIssues.csv", cfg.Records.Recent.Blob)
}

func TestLoad_FromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("REPOSITORIES", " sdk-a, ,sdk-b ")
	t.Setenv("GITHUB_AUTH_TOKEN", "legacy")
	t.Setenv("AZURE_STORAGE_CONNECTION_STRING", "legacy-conn")
	t.Setenv("CONCURRENCY", "3")
	t.Setenv("WORK_DIR", "/var/lib/collector")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"sdk-a", "sdk-b"}, cfg.Source.Repositories)
	assert.Equal(t, "legacy", cfg.Source.Token)
	assert.Equal(t, "legacy-conn", cfg.Storage.ConnectionString)
	assert.Equal(t, 3, cfg.Source.Concurrency)
	assert.Equal(t, filepath.Join("/var/lib/collector", "githubIssues.csv"), cfg.Records.History.LocalPath)

	t.Setenv("SOURCE_AUTH_TOKEN", "primary")
	t.Setenv("STORAGE_CONNECTION_STRING", "primary-conn")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "primary", cfg.Source.Token)
	assert.Equal(t, "primary-conn", cfg.Storage.ConnectionString)
}

func TestLoad_Invalid(t *testing.T) {
	testCases := []struct {
		name  string
		key   string
		value string
	}{
		{name: "timeout not a duration", key: "REQUEST_TIMEOUT", value: "soon"},
		{name: "timeout not positive", key: "REQUEST_TIMEOUT", value: "0s"},
		{name: "concurrency not a number", key: "CONCURRENCY", value: "many"},
		{name: "concurrency below one", key: "CONCURRENCY", value: "0"},
		{name: "missing repositories file", key: "REPOSITORIES_FILE", value: "does-not-exist.yaml"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tc.key, tc.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_DotEnv(t *testing.T) {
	clearEnv(t)
	// godotenv never overrides a variable that is set, even to "".
	os.Unsetenv("SOURCE_ORG")
	os.Unsetenv("SYNC_HISTORY")
	require.NoError(t, os.WriteFile(".env", []byte("SOURCE_ORG=contoso\nSYNC_HISTORY=false\n"), 0o644))
	t.Cleanup(func() {
		os.Unsetenv("SOURCE_ORG")
		os.Unsetenv("SYNC_HISTORY")
	})

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "contoso", cfg.Source.Org)
	assert.False(t, cfg.Records.SyncHistory)
}

func TestApplyRepositoriesFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "repos.yaml")
	require.NoError(t, os.WriteFile(path, []byte("org: contoso\nrepositories:\n  - widgets\n  - gadgets\n"), 0o644))
	t.Setenv("REPOSITORIES_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "contoso", cfg.Source.Org)
	assert.Equal(t, []string{"widgets", "gadgets"}, cfg.Source.Repositories)

	empty := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("repositories: []\n"), 0o644))
	require.NoError(t, cfg.ApplyRepositoriesFile(empty))
	assert.Equal(t, "contoso", cfg.Source.Org)
	assert.Empty(t, cfg.Source.Repositories)

	broken := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(broken, []byte("repositories: [unterminated\n"), 0o644))
	assert.Error(t, cfg.ApplyRepositoriesFile(broken))
}
