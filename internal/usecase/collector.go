package usecase

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/naka-gawa/gh-issue-collector/internal/domain"
)

// RepositoryAggregator summarizes a single repository.
type RepositoryAggregator interface {
	Aggregate(ctx context.Context, repo string, now time.Time) (domain.RepositorySummary, error)
}

// Sink persists and publishes a finished batch.
type Sink interface {
	Deliver(ctx context.Context, batch domain.RunBatch) error
}

// Collector runs one collection: every configured repository is aggregated,
// the rows are gathered in configuration order and handed to the sink.
type Collector struct {
	aggregator  RepositoryAggregator
	sink        Sink
	logger      logrus.FieldLogger
	concurrency int

	// Now is read once per run; every summary of a run shares that moment.
	Now func() time.Time
}

// NewCollector creates a Collector. A concurrency below 2 aggregates one
// repository at a time.
func NewCollector(aggregator RepositoryAggregator, sink Sink, logger logrus.FieldLogger, concurrency int) *Collector {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Collector{
		aggregator:  aggregator,
		sink:        sink,
		logger:      logger,
		concurrency: concurrency,
		Now:         time.Now,
	}
}

// Run aggregates repos and delivers the batch. A repository that cannot be
// aggregated is logged and left out of the batch. The returned error is the
// sink's, or the context's when the run was cancelled before delivery.
func (c *Collector) Run(ctx context.Context, repos []string) (domain.RunBatch, error) {
	now := c.Now()
	c.logger.WithField("repositories", len(repos)).Info("Collection started")

	results := make([]*domain.RepositorySummary, len(repos))
	var eg errgroup.Group
	eg.SetLimit(c.concurrency)
	for i, repo := range repos {
		eg.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			summary, err := c.aggregator.Aggregate(ctx, repo, now)
			if err != nil {
				c.logger.WithError(err).WithField("repo", repo).Error("Repository skipped")
				return nil
			}
			results[i] = &summary
			return nil
		})
	}
	_ = eg.Wait()

	if err := ctx.Err(); err != nil {
		c.logger.WithError(err).Warn("Collection cancelled before delivery")
		return nil, err
	}

	batch := make(domain.RunBatch, 0, len(repos))
	for _, summary := range results {
		if summary != nil {
			batch = append(batch, *summary)
		}
	}
	logOverview(c.logger, Summarize(batch))

	if err := c.sink.Deliver(ctx, batch); err != nil {
		c.logger.WithError(err).Error("Delivering batch failed")
		return batch, err
	}
	c.logger.WithField("rows", len(batch)).Info("Collection finished")
	return batch, nil
}
