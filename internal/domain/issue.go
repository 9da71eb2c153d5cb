// Package domain contains the core data structures and domain logic for the application.
package domain

import "time"

// PageSize is the number of issues requested per page. A page holding fewer
// records than this is the last one.
const PageSize = 50

// Issue is the read-only view of a single issue-tracker record.
// Pull requests are returned by the issues endpoint too and are flagged here.
type Issue struct {
	Labels        []string
	IsPullRequest bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Assigned      bool
}

// RepositorySummary holds the issue counts for a single repository in one run.
// It is the core domain entity of this application.
type RepositorySummary struct {
	Repository         string    `json:"repository"`
	Issues             int       `json:"issues"`
	NewIssues          int       `json:"new_issues"`
	StaleIssues        int       `json:"stale_issues"`
	Unassigned         int       `json:"unassigned"`
	Enhancements       int       `json:"enhancements"`
	UnderInvestigation int       `json:"under_investigation"`
	Date               time.Time `json:"date"`
}

// RunBatch is the ordered set of summaries produced by one invocation,
// one per successfully aggregated repository, in configuration order.
type RunBatch []RepositorySummary

// TotalIssues sums the issue counts across the batch.
func (b RunBatch) TotalIssues() int {
	total := 0
	for _, s := range b {
		total += s.Issues
	}
	return total
}
