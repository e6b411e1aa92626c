package github

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ahmednasr/githelpdesk/pkg/logger"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient("tkn", logger.Nop(), WithBaseURL(srv.URL))
}

func TestSearchRepositories_SendsQueryAndAuth(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/repositories", r.URL.Path)
		assert.Equal(t, "language:go stars:>50", r.URL.Query().Get("q"))
		assert.Equal(t, "stars", r.URL.Query().Get("sort"))
		assert.Equal(t, "25", r.URL.Query().Get("per_page"))
		assert.Equal(t, "Bearer tkn", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"total_count":1,"items":[{"full_name":"golang/go","stargazers_count":120000,"description":null}]}`))
	})

	res, err := c.SearchRepositories(context.Background(), "language:go stars:>50", "stars", "desc", 25)
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "golang/go", res.Items[0].FullName)
	assert.Equal(t, 120000, res.Items[0].StargazersCount)
	assert.Empty(t, res.Items[0].Description)
}

func TestGet_StatusError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	})

	_, err := c.GetContent(context.Background(), "a/b", "CONTRIBUTING.md")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "/repos/a/b/contents/CONTRIBUTING.md", se.URL)
}

func TestGetContent_DecodesBase64(t *testing.T) {
	text := "# Contributing\n\nFork, branch, PR."
	enc := base64.StdEncoding.EncodeToString([]byte(text))

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/a/b/contents/.github/CONTRIBUTING.md", r.URL.Path)
		_, _ = w.Write([]byte(`{"encoding":"base64","content":"` + enc[:10] + `\n` + enc[10:] + `"}`))
	})

	got, err := c.GetContent(context.Background(), "a/b", ".github/CONTRIBUTING.md")
	require.NoError(t, err)
	assert.Equal(t, text, got)
}

func TestCommunityProfile_UsesPreviewAccept(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, acceptCommunity, r.Header.Get("Accept"))
		_, _ = w.Write([]byte(`{"health_percentage":85,"files":{"readme":{"url":"x"},"contributing":null}}`))
	})

	got, err := c.CommunityProfile(context.Background(), "a/b")
	require.NoError(t, err)
	assert.Equal(t, 85, got.HealthPercentage)
	assert.NotNil(t, got.Files.Readme)
	assert.Nil(t, got.Files.Contributing)
}

func TestListIssues_MarksPullRequests(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "open", r.URL.Query().Get("state"))
		_, _ = w.Write([]byte(`[{"id":1,"number":1,"title":"bug"},{"id":2,"number":2,"title":"pr","pull_request":{"url":"u"}}]`))
	})

	issues, err := c.ListIssues(context.Background(), "a/b", "open", 25)
	require.NoError(t, err)
	require.Len(t, issues, 2)
	assert.False(t, issues[0].IsPullRequest())
	assert.True(t, issues[1].IsPullRequest())
}

func TestListCommits_SinceParam(t *testing.T) {
	since := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2025-05-01T00:00:00Z", r.URL.Query().Get("since"))
		_, _ = w.Write([]byte(`[{"sha":"a"},{"sha":"b"}]`))
	})

	commits, err := c.ListCommits(context.Background(), "a/b", since, 100)
	require.NoError(t, err)
	assert.Len(t, commits, 2)
}

func TestRepoPath_Invalid(t *testing.T) {
	c := NewClient("", logger.Nop())
	for _, bad := range []string{"", "react", "/react", "a/b/c"} {
		_, err := c.GetRepo(context.Background(), bad)
		assert.Error(t, err, bad)
	}
}

func TestRateLimitWarning(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Remaining", "3")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient("", &logger.Logger{Logger: zap.New(core)}, WithBaseURL(srv.URL))
	_, err := c.Languages(context.Background(), "a/b")
	require.NoError(t, err)

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "github rate limit running low", logs.All()[0].Message)
}
