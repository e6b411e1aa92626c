package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ahmednasr/githelpdesk/pkg/logger"
	"github.com/ahmednasr/githelpdesk/pkg/metrics"
)

const (
	DefaultBaseURL = "https://api.github.com"

	// Below this many remaining calls a warning is logged.
	rateLimitWarnThreshold = 10

	acceptDefault   = "application/vnd.github+json"
	acceptCommunity = "application/vnd.github.black-panther-preview+json"
)

// StatusError is returned for any non-2xx response.
type StatusError struct {
	StatusCode int
	Status     string
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("github: unexpected status %s for %s", e.Status, e.URL)
}

// IsNotFound reports whether err is a GitHub 404.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}

// Client is a minimal wrapper around GitHub's REST API v3.
// It is intentionally light: just the endpoints the gatherers require.
type Client struct {
	http    *http.Client
	token   string
	baseURL string
	log     *logger.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another API root (tests, GHES).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// NewClient returns a ready-to-use GitHub API client.
// token may be empty, but you will be subject to very low rate-limits.
func NewClient(token string, log *logger.Logger, opts ...Option) *Client {
	c := &Client{
		http:    &http.Client{Timeout: 10 * time.Second},
		token:   token,
		baseURL: DefaultBaseURL,
		log:     log.Named("github"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SearchRepositories runs GET /search/repositories.
func (c *Client) SearchRepositories(ctx context.Context, query, sort, order string, perPage int) (RepoSearch, error) {
	q := url.Values{}
	q.Set("q", query)
	if sort != "" {
		q.Set("sort", sort)
	}
	if order != "" {
		q.Set("order", order)
	}
	setPerPage(q, perPage)

	var out RepoSearch
	err := c.get(ctx, "/search/repositories", q, acceptDefault, &out)
	return out, err
}

// SearchIssues runs GET /search/issues and returns the matched items.
func (c *Client) SearchIssues(ctx context.Context, query string, perPage int) ([]Issue, error) {
	q := url.Values{}
	q.Set("q", query)
	setPerPage(q, perPage)

	var out issueSearch
	if err := c.get(ctx, "/search/issues", q, acceptDefault, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// ListIssues fetches issues for a repo. The endpoint also returns pull
// requests; callers filter them with Issue.IsPullRequest.
//
//	fullName – "owner/name" (e.g., "torvalds/linux")
//	state    – "open" | "closed" | "all"
//	perPage  – max items per page (1–100)
func (c *Client) ListIssues(ctx context.Context, fullName, state string, perPage int) ([]Issue, error) {
	p, err := repoPath(fullName)
	if err != nil {
		return nil, err
	}
	q := url.Values{}
	if state != "" {
		q.Set("state", state)
	}
	setPerPage(q, perPage)

	var issues []Issue
	if err := c.get(ctx, p+"/issues", q, acceptDefault, &issues); err != nil {
		return nil, err
	}
	return issues, nil
}

// GetRepo returns repository metadata.
func (c *Client) GetRepo(ctx context.Context, fullName string) (Repo, error) {
	p, err := repoPath(fullName)
	if err != nil {
		return Repo{}, err
	}
	var repo Repo
	err = c.get(ctx, p, nil, acceptDefault, &repo)
	return repo, err
}

// GetContent returns the decoded text of a file on the default branch.
func (c *Client) GetContent(ctx context.Context, fullName, path string) (string, error) {
	p, err := repoPath(fullName)
	if err != nil {
		return "", err
	}
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}

	var body content
	if err := c.get(ctx, p+"/contents/"+strings.Join(segments, "/"), nil, acceptDefault, &body); err != nil {
		return "", err
	}
	if body.Encoding != "base64" {
		return body.Content, nil
	}
	raw, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(body.Content, "\n", ""))
	if err != nil {
		return "", fmt.Errorf("github: decode %s: %w", path, err)
	}
	return string(raw), nil
}

// ListContributors returns the top contributors by commit count.
func (c *Client) ListContributors(ctx context.Context, fullName string, perPage int) ([]Contributor, error) {
	p, err := repoPath(fullName)
	if err != nil {
		return nil, err
	}
	q := url.Values{}
	setPerPage(q, perPage)

	var out []Contributor
	err = c.get(ctx, p+"/contributors", q, acceptDefault, &out)
	return out, err
}

// ListCommits returns commits made after since.
func (c *Client) ListCommits(ctx context.Context, fullName string, since time.Time, perPage int) ([]Commit, error) {
	p, err := repoPath(fullName)
	if err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("since", since.UTC().Format(time.RFC3339))
	setPerPage(q, perPage)

	var out []Commit
	err = c.get(ctx, p+"/commits", q, acceptDefault, &out)
	return out, err
}

// ListPulls returns pull requests in the given state, newest first.
func (c *Client) ListPulls(ctx context.Context, fullName, state string, perPage int) ([]Pull, error) {
	p, err := repoPath(fullName)
	if err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("state", state)
	setPerPage(q, perPage)

	var out []Pull
	err = c.get(ctx, p+"/pulls", q, acceptDefault, &out)
	return out, err
}

// CommunityProfile returns the community health summary.
func (c *Client) CommunityProfile(ctx context.Context, fullName string) (Community, error) {
	p, err := repoPath(fullName)
	if err != nil {
		return Community{}, err
	}
	var out Community
	err = c.get(ctx, p+"/community/profile", nil, acceptCommunity, &out)
	return out, err
}

// Languages returns bytes of code per language.
func (c *Client) Languages(ctx context.Context, fullName string) (map[string]int64, error) {
	p, err := repoPath(fullName)
	if err != nil {
		return nil, err
	}
	out := map[string]int64{}
	err = c.get(ctx, p+"/languages", nil, acceptDefault, &out)
	return out, err
}

// repoPath turns "owner/name" into "/repos/owner/name".
func repoPath(fullName string) (string, error) {
	owner, name, ok := strings.Cut(strings.TrimSpace(fullName), "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", fmt.Errorf("github: invalid repository %q, want owner/name", fullName)
	}
	return "/repos/" + url.PathEscape(owner) + "/" + url.PathEscape(name), nil
}

func setPerPage(q url.Values, perPage int) {
	if perPage > 0 {
		q.Set("per_page", strconv.Itoa(perPage))
	}
}

func (c *Client) get(ctx context.Context, path string, q url.Values, accept string, v any) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	c.addHeaders(req, accept)
	return c.do(req, v)
}

// addHeaders sets authentication and Accept headers.
func (c *Client) addHeaders(req *http.Request, accept string) {
	req.Header.Set("Accept", accept)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("User-Agent", "githelpdesk")
}

// do executes the HTTP request and decodes JSON into v.
func (c *Client) do(req *http.Request, v any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	c.observeRateLimit(resp)

	if resp.StatusCode >= 300 {
		return &StatusError{StatusCode: resp.StatusCode, Status: resp.Status, URL: req.URL.Path}
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("github: decode %s: %w", req.URL.Path, err)
	}
	return nil
}

func (c *Client) observeRateLimit(resp *http.Response) {
	raw := resp.Header.Get("X-RateLimit-Remaining")
	if raw == "" {
		return
	}
	remaining, err := strconv.Atoi(raw)
	if err != nil {
		return
	}
	metrics.GitHubRateRemaining.Set(float64(remaining))
	if remaining < rateLimitWarnThreshold {
		c.log.Warn("github rate limit running low",
			zap.Int("remaining", remaining),
			zap.String("reset", resp.Header.Get("X-RateLimit-Reset")),
		)
	}
}
