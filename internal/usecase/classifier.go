package usecase

import (
	"time"

	"github.com/naka-gawa/gh-issue-collector/internal/domain"
)

const (
	// StaleAfter is how long an issue may go without updates before it is stale.
	StaleAfter = 14 * 24 * time.Hour
	// NewWithin is the window in which a created issue still counts as new.
	NewWithin = 7 * 24 * time.Hour

	// EnhancementLabel marks an issue as a feature request.
	EnhancementLabel = "enhancement"
	// InvestigationLabel marks an issue still awaiting triage.
	InvestigationLabel = "investigation-required"
)

// Classification is the set of facts derived from a single issue at a given moment.
type Classification struct {
	IsPullRequest         bool
	IsStale               bool
	IsNew                 bool
	IsUnassigned          bool
	HasEnhancementLabel   bool
	HasInvestigationLabel bool
}

// Classify evaluates an issue against now. Staleness and newness are computed
// for pull requests too; the caller decides what to count. A zero timestamp is
// never stale or new.
func Classify(issue domain.Issue, now time.Time) Classification {
	c := Classification{
		IsPullRequest: issue.IsPullRequest,
		IsUnassigned:  !issue.Assigned,
		IsStale:       !issue.UpdatedAt.IsZero() && now.Sub(issue.UpdatedAt) > StaleAfter,
		IsNew:         !issue.CreatedAt.IsZero() && now.Sub(issue.CreatedAt) < NewWithin,
	}
	for _, label := range issue.Labels {
		switch label {
		case EnhancementLabel:
			c.HasEnhancementLabel = true
		case InvestigationLabel:
			c.HasInvestigationLabel = true
		}
	}
	return c
}
