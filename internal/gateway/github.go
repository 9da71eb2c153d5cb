// Package gateway provides a gateway to the GitHub API,
// abstracting away the underlying REST and GraphQL clients.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/go-github/v62/github"
	"github.com/shurcooL/githubv4"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"

	"github.com/naka-gawa/gh-issue-collector/internal/domain"
)

// Fetcher defines the behavior of a gateway for fetching issues from GitHub.
type Fetcher interface {
	FetchPage(ctx context.Context, repo string, page, perPage int) ([]domain.Issue, error)
}

// Counter reports the number of open issues (pull requests excluded) in a repository.
type Counter interface {
	CountOpenIssues(ctx context.Context, repo string) (int, error)
}

// Options configures the GitHub gateway.
type Options struct {
	Org            string
	Token          string
	UserAgent      string
	RequestTimeout time.Duration
	WaitRateLimit  bool
}

// GitHubGateway is the concrete implementation of the Fetcher and Counter interfaces.
type GitHubGateway struct {
	org           string
	restClient    *github.Client
	graphqlClient *githubv4.Client
	logger        logrus.FieldLogger
}

// openIssuesQuery asks for the open issue total; GraphQL issues never include pull requests.
type openIssuesQuery struct {
	Repository struct {
		Issues struct {
			TotalCount int
		} `graphql:"issues(states: OPEN)"`
	} `graphql:"repository(owner: $owner, name: $name)"`
}

// NewGitHubGateway is a constructor that creates a new instance of GitHubGateway.
// Without a token requests go out unauthenticated and the GraphQL client is not built.
func NewGitHubGateway(opts Options, logger logrus.FieldLogger) (*GitHubGateway, error) {
	var base http.RoundTripper = http.DefaultTransport
	if opts.WaitRateLimit {
		rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(nil, github_ratelimit.WithSingleSleepLimit(1*time.Hour, nil))
		if err != nil {
			return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
		}
		base = rateLimitWaiter
	}

	token := normalizeToken(opts.Token)
	transport := base
	if token != "" {
		transport = &oauth2.Transport{
			Base:   base,
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}),
		}
	}
	httpClient := &http.Client{
		Transport: transport,
		Timeout:   opts.RequestTimeout,
	}

	restClient := github.NewClient(httpClient)
	if opts.UserAgent != "" {
		restClient.UserAgent = opts.UserAgent
	}

	g := &GitHubGateway{
		org:        opts.Org,
		restClient: restClient,
		logger:     logger,
	}
	if token != "" {
		g.graphqlClient = githubv4.NewClient(httpClient)
	}
	return g, nil
}

// CanCount reports whether CountOpenIssues is usable; GraphQL requires authentication.
func (g *GitHubGateway) CanCount() bool {
	return g.graphqlClient != nil
}

// FetchPage fetches one page of issues (pull requests included) for a repository.
func (g *GitHubGateway) FetchPage(ctx context.Context, repo string, page, perPage int) ([]domain.Issue, error) {
	g.logger.WithFields(logrus.Fields{"repo": repo, "page": page}).Debug("Fetching issues page")

	opts := &github.IssueListByRepoOptions{ListOptions: github.ListOptions{Page: page, PerPage: perPage}}
	issues, resp, err := g.restClient.Issues.ListByRepo(ctx, g.org, repo, opts)
	if err != nil {
		if resp != nil && resp.Response != nil && resp.StatusCode >= http.StatusMultipleChoices {
			return nil, &domain.SourceUnavailableError{Repository: repo, Page: page, StatusCode: resp.StatusCode, Err: err}
		}
		return nil, &domain.TransportError{Repository: repo, Page: page, Err: err}
	}
	result := make([]domain.Issue, 0, len(issues))
	for _, issue := range issues {
		result = append(result, toDomainIssue(issue))
	}
	return result, nil
}

// CountOpenIssues returns the open issue total of a repository.
func (g *GitHubGateway) CountOpenIssues(ctx context.Context, repo string) (int, error) {
	if g.graphqlClient == nil {
		return 0, errors.New("open issue count requires an auth token")
	}
	var q openIssuesQuery
	variables := map[string]interface{}{
		"owner": githubv4.String(g.org),
		"name":  githubv4.String(repo),
	}
	if err := g.graphqlClient.Query(ctx, &q, variables); err != nil {
		return 0, fmt.Errorf("failed to execute GraphQL query for open issue count: %w", err)
	}
	return q.Repository.Issues.TotalCount, nil
}

func toDomainIssue(issue *github.Issue) domain.Issue {
	labels := make([]string, 0, len(issue.Labels))
	for _, label := range issue.Labels {
		labels = append(labels, label.GetName())
	}
	return domain.Issue{
		Labels:        labels,
		IsPullRequest: issue.IsPullRequest(),
		CreatedAt:     issue.GetCreatedAt().Time,
		UpdatedAt:     issue.GetUpdatedAt().Time,
		Assigned:      issue.Assignee != nil,
	}
}

// normalizeToken accepts raw tokens as well as "token <t>" and "Bearer <t>" header values.
func normalizeToken(token string) string {
	token = strings.TrimSpace(token)
	for _, prefix := range []string{"token ", "Token ", "Bearer ", "bearer "} {
		token = strings.TrimPrefix(token, prefix)
	}
	return strings.TrimSpace(token)
}
