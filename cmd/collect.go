package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Runs one collection and publishes the CSV records",
	Long: `Aggregates the issues of every configured repository, appends the rows to the
historical record, replaces the most recent record and publishes both. Failures on
single repositories or uploads are logged and do not fail the command.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger := newLogger(cfg.Log)

		collector, err := newCollector(ctx, cfg, logger)
		if err != nil {
			return err
		}

		// Run logs its own failures; the job is fire-and-forget.
		_, _ = collector.Run(ctx, cfg.Source.Repositories)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(collectCmd)
}
