package usecase

import (
	"github.com/montanaflynn/stats"
	"github.com/sirupsen/logrus"

	"github.com/naka-gawa/gh-issue-collector/internal/domain"
)

// Overview describes the distribution of issue counts across one batch.
type Overview struct {
	Repositories int
	TotalIssues  int
	TotalStale   int
	MeanIssues   float64
	MedianIssues float64
	MaxIssues    float64
}

// Summarize computes the batch overview. An empty batch yields a zero Overview.
func Summarize(batch domain.RunBatch) Overview {
	o := Overview{Repositories: len(batch), TotalIssues: batch.TotalIssues()}
	if len(batch) == 0 {
		return o
	}
	counts := make([]int, 0, len(batch))
	for _, s := range batch {
		counts = append(counts, s.Issues)
		o.TotalStale += s.StaleIssues
	}
	data := stats.LoadRawData(counts)
	// Errors are only returned for empty input, ruled out above.
	o.MeanIssues, _ = stats.Mean(data)
	o.MedianIssues, _ = stats.Median(data)
	o.MaxIssues, _ = stats.Max(data)
	return o
}

func logOverview(logger logrus.FieldLogger, o Overview) {
	logger.WithFields(logrus.Fields{
		"repositories":  o.Repositories,
		"total_issues":  o.TotalIssues,
		"total_stale":   o.TotalStale,
		"mean_issues":   o.MeanIssues,
		"median_issues": o.MedianIssues,
		"max_issues":    o.MaxIssues,
	}).Info("Batch overview")
}
