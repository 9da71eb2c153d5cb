package cmd

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// invoker runs one collection per call.
type invoker interface {
	Invoke(ctx context.Context) error
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Runs a collection on a recurring timer",
	Long: `Fires one collection per interval until interrupted. Collections never overlap:
a tick that arrives while a collection is running is handled once it finishes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		interval, _ := cmd.Flags().GetDuration("interval")
		if interval <= 0 {
			return errors.New("--interval must be positive")
		}
		runOnStart, _ := cmd.Flags().GetBool("run-on-start")

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger := newLogger(cfg.Log)

		collector, err := newCollector(ctx, cfg, logger)
		if err != nil {
			return err
		}

		trigger := collectionFunc(func(ctx context.Context) error {
			_, err := collector.Run(ctx, cfg.Source.Repositories)
			return err
		})
		runSchedule(ctx, trigger, interval, runOnStart, logger)
		return nil
	},
}

type collectionFunc func(ctx context.Context) error

func (f collectionFunc) Invoke(ctx context.Context) error { return f(ctx) }

// runSchedule invokes the trigger once per tick until ctx is done.
func runSchedule(ctx context.Context, trigger invoker, interval time.Duration, runOnStart bool, logger logrus.FieldLogger) {
	logger.WithField("interval", interval.String()).Info("Scheduler started")

	fire := func() {
		started := time.Now()
		if err := trigger.Invoke(ctx); err != nil {
			logger.WithError(err).Warn("Scheduled collection finished with errors")
		}
		logger.WithField("took", time.Since(started).Round(time.Millisecond).String()).Debug("Scheduled collection done")
	}

	if runOnStart {
		fire()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			fire()
		case <-ctx.Done():
			logger.Info("Scheduler stopped")
			return
		}
	}
}

func init() {
	rootCmd.AddCommand(scheduleCmd)
	scheduleCmd.Flags().Duration("interval", 24*time.Hour, "Time between collections")
	scheduleCmd.Flags().Bool("run-on-start", false, "Run a collection immediately instead of waiting for the first tick")
}
