// Package usecase contains the business logic of the application.
package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/naka-gawa/gh-issue-collector/internal/domain"
	"github.com/naka-gawa/gh-issue-collector/internal/gateway"
)

// Aggregator is the use case for summarizing the issues of one repository.
// It drives pagination against the fetcher and folds every page into a summary.
type Aggregator struct {
	fetcher gateway.Fetcher
	counter gateway.Counter
	logger  logrus.FieldLogger
}

// NewAggregator creates a new Aggregator instance.
func NewAggregator(fetcher gateway.Fetcher, logger logrus.FieldLogger) *Aggregator {
	return &Aggregator{
		fetcher: fetcher,
		logger:  logger,
	}
}

// WithCounter enables reconciliation of the counted issues against the
// repository's open issue total.
func (a *Aggregator) WithCounter(counter gateway.Counter) *Aggregator {
	a.counter = counter
	return a
}

// Aggregate pages through a repository's issues and returns its summary.
//
// Pagination stops after the first page holding fewer than domain.PageSize
// records. A failed fetch also ends pagination and the pages already folded
// are kept; only a failure on the first page is returned as an error, since
// nothing was observed for the repository in that case.
func (a *Aggregator) Aggregate(ctx context.Context, repo string, now time.Time) (domain.RepositorySummary, error) {
	log := a.logger.WithField("repo", repo)
	summary := domain.RepositorySummary{Repository: repo}

	complete := true
	for page := 1; ; page++ {
		issues, err := a.fetcher.FetchPage(ctx, repo, page, domain.PageSize)
		if err != nil {
			if page == 1 {
				return domain.RepositorySummary{}, fmt.Errorf("aggregate %s: %w", repo, err)
			}
			log.WithError(err).WithField("page", page).Warn("Page fetch failed, keeping partial results")
			complete = false
			break
		}

		for _, issue := range issues {
			fold(&summary, Classify(issue, now))
		}

		if len(issues) < domain.PageSize {
			break
		}
	}
	summary.Date = now

	log.WithFields(logrus.Fields{
		"issues":        summary.Issues,
		"new":           summary.NewIssues,
		"stale":         summary.StaleIssues,
		"unassigned":    summary.Unassigned,
		"enhancement":   summary.Enhancements,
		"investigation": summary.UnderInvestigation,
	}).Info("Repository aggregated")

	if complete && a.counter != nil {
		a.reconcile(ctx, log, summary)
	}
	return summary, nil
}

// fold adds one classified record to the running summary. Labels count for
// pull requests as well; every other counter only counts real issues.
func fold(summary *domain.RepositorySummary, c Classification) {
	if c.HasEnhancementLabel {
		summary.Enhancements++
	}
	if c.HasInvestigationLabel {
		summary.UnderInvestigation++
	}
	if c.IsPullRequest {
		return
	}
	summary.Issues++
	if c.IsNew {
		summary.NewIssues++
	}
	if c.IsStale {
		summary.StaleIssues++
	}
	if c.IsUnassigned {
		summary.Unassigned++
	}
}

func (a *Aggregator) reconcile(ctx context.Context, log logrus.FieldLogger, summary domain.RepositorySummary) {
	total, err := a.counter.CountOpenIssues(ctx, summary.Repository)
	if err != nil {
		log.WithError(err).Debug("Open issue count unavailable, skipping reconciliation")
		return
	}
	if total != summary.Issues {
		log.WithFields(logrus.Fields{
			"counted":  summary.Issues,
			"reported": total,
		}).Warn("Counted issues differ from the repository's open issue total")
	}
}
