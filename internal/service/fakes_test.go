package service

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/ahmednasr/githelpdesk/internal/cache"
	"github.com/ahmednasr/githelpdesk/internal/github"
	"github.com/ahmednasr/githelpdesk/internal/llm"
	"github.com/ahmednasr/githelpdesk/pkg/logger"
)

var errUnavailable = &github.StatusError{StatusCode: http.StatusServiceUnavailable, Status: "503 Service Unavailable", URL: "/"}

func notFound(path string) error {
	return &github.StatusError{StatusCode: http.StatusNotFound, Status: "404 Not Found", URL: path}
}

// fakeGitHub is an in-memory GitHubAPI. Zero values answer with empty data.
type fakeGitHub struct {
	mu    sync.Mutex
	calls []string

	repoSearch    github.RepoSearch
	repoSearchErr error
	repoQueries   []string

	searchIssues    []github.Issue
	searchIssuesErr error
	issueQueries    []string
	listIssues      []github.Issue
	listIssuesErr   error

	repo    github.Repo
	repoErr error

	contents   map[string]string // path -> decoded file
	contentErr error             // returned for paths not in contents; 404 when nil
	probed     []string

	contributors []github.Contributor
	commits      []github.Commit
	openPulls    []github.Pull
	closedPulls  []github.Pull
	community    github.Community
	communityErr error
	languages    map[string]int64
}

func (f *fakeGitHub) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeGitHub) SearchRepositories(_ context.Context, query, _, _ string, _ int) (github.RepoSearch, error) {
	f.record("search_repositories")
	f.repoQueries = append(f.repoQueries, query)
	return f.repoSearch, f.repoSearchErr
}

func (f *fakeGitHub) SearchIssues(_ context.Context, query string, _ int) ([]github.Issue, error) {
	f.record("search_issues")
	f.issueQueries = append(f.issueQueries, query)
	return f.searchIssues, f.searchIssuesErr
}

func (f *fakeGitHub) ListIssues(context.Context, string, string, int) ([]github.Issue, error) {
	f.record("list_issues")
	return f.listIssues, f.listIssuesErr
}

func (f *fakeGitHub) GetRepo(context.Context, string) (github.Repo, error) {
	f.record("get_repo")
	return f.repo, f.repoErr
}

func (f *fakeGitHub) GetContent(_ context.Context, _, path string) (string, error) {
	f.record("get_content")
	f.probed = append(f.probed, path)
	if c, ok := f.contents[path]; ok {
		return c, nil
	}
	if f.contentErr != nil {
		return "", f.contentErr
	}
	return "", notFound(path)
}

func (f *fakeGitHub) ListContributors(context.Context, string, int) ([]github.Contributor, error) {
	f.record("contributors")
	return f.contributors, nil
}

func (f *fakeGitHub) ListCommits(context.Context, string, time.Time, int) ([]github.Commit, error) {
	f.record("commits")
	return f.commits, nil
}

func (f *fakeGitHub) ListPulls(_ context.Context, _, state string, _ int) ([]github.Pull, error) {
	f.record("pulls_" + state)
	if state == "closed" {
		return f.closedPulls, nil
	}
	return f.openPulls, nil
}

func (f *fakeGitHub) CommunityProfile(context.Context, string) (github.Community, error) {
	f.record("community")
	return f.community, f.communityErr
}

func (f *fakeGitHub) Languages(context.Context, string) (map[string]int64, error) {
	f.record("languages")
	return f.languages, nil
}

func (f *fakeGitHub) count(call string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == call {
			n++
		}
	}
	return n
}

// scriptedLLM answers with reply, or fails with err, and keeps every request.
type scriptedLLM struct {
	reply    string
	err      error
	requests [][]llm.Message
}

func (s *scriptedLLM) Name() string { return "scripted" }

func (s *scriptedLLM) Complete(_ context.Context, msgs []llm.Message) (string, error) {
	s.requests = append(s.requests, msgs)
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

func newTestCache() *cache.Cache {
	return cache.New(cache.NewMemoryStore(), logger.Nop())
}

var errBoom = errors.New("boom")

func fixedNow() time.Time {
	return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
}
