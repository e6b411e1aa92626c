// Package service holds the external data gatherers, the prompt assembler,
// the retrieval-augmented chain and the chat orchestrator.
package service

import (
	"context"
	"time"

	"github.com/ahmednasr/githelpdesk/internal/github"
	"github.com/ahmednasr/githelpdesk/internal/models"
	"github.com/ahmednasr/githelpdesk/pkg/metrics"
)

// ---- Collaborator contracts ------------------------------------------------

// GitHubAPI is the subset of the GitHub REST client the gatherers use.
// *github.Client satisfies it.
type GitHubAPI interface {
	SearchRepositories(ctx context.Context, query, sort, order string, perPage int) (github.RepoSearch, error)
	SearchIssues(ctx context.Context, query string, perPage int) ([]github.Issue, error)
	ListIssues(ctx context.Context, fullName, state string, perPage int) ([]github.Issue, error)
	GetRepo(ctx context.Context, fullName string) (github.Repo, error)
	GetContent(ctx context.Context, fullName, path string) (string, error)
	ListContributors(ctx context.Context, fullName string, perPage int) ([]github.Contributor, error)
	ListCommits(ctx context.Context, fullName string, since time.Time, perPage int) ([]github.Commit, error)
	ListPulls(ctx context.Context, fullName, state string, perPage int) ([]github.Pull, error)
	CommunityProfile(ctx context.Context, fullName string) (github.Community, error)
	Languages(ctx context.Context, fullName string) (map[string]int64, error)
}

// ---- Shared helpers ---------------------------------------------------------

// perPage is the page size for GitHub list and search calls.
const perPage = 25

// observe records a gatherer outcome and passes the result through.
func observe[T any](gatherer string, r models.Result[T]) models.Result[T] {
	metrics.RecordGatherer(gatherer, string(r.Origin))
	return r
}

// truncateRunes cuts s to at most n runes, ending in "..." when cut.
func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
