// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var rootCmd = &cobra.Command{
	Use:   "gh-issue-collector",
	Short: "Collects issue statistics for a set of GitHub repositories.",
	Long: `gh-issue-collector counts open, new, stale and unassigned issues, plus
enhancement and investigation labels, for each configured repository. Every run
appends a row per repository to a historical CSV record, replaces the most recent
CSV record, and publishes both to blob storage.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	addCollectionFlags(rootCmd.PersistentFlags())
}

// addCollectionFlags registers the flags that override the environment configuration.
func addCollectionFlags(flags *pflag.FlagSet) {
	flags.BoolP("verbose", "v", false, "Enable verbose/debug logging")
	flags.StringP("org", "o", "", "GitHub organization owning the repositories (overrides SOURCE_ORG)")
	flags.StringSliceP("repo", "r", nil, "Repository to collect, repeatable (overrides REPOSITORIES)")
	flags.String("repos-file", "", "YAML file listing the org and repositories (overrides REPOSITORIES_FILE)")
	flags.String("work-dir", "", "Directory holding the local CSV records (overrides WORK_DIR)")
	flags.Int("concurrency", 0, "Repositories aggregated in parallel (overrides CONCURRENCY)")
}
