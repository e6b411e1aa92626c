package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmednasr/githelpdesk/internal/models"
	"github.com/ahmednasr/githelpdesk/internal/preferences"
	"github.com/ahmednasr/githelpdesk/internal/service"
	"github.com/ahmednasr/githelpdesk/internal/session"
	"github.com/ahmednasr/githelpdesk/pkg/logger"
)

// ---- Stubs ------------------------------------------------------------------

type stubChat struct {
	inputs []service.ChatInput
	ids    []string
}

func (s *stubChat) Ask(_ context.Context, sess *session.Session, in service.ChatInput) service.ChatTurn {
	s.inputs = append(s.inputs, in)
	s.ids = append(s.ids, sess.ID)
	sess.Lock()
	defer sess.Unlock()
	sess.Prefs.Update(in.Question, sess.Created)
	sess.AddExchange(in.Question, "answer to "+in.Question, sess.Created)
	return service.ChatTurn{
		ChatAnswer:  models.ChatAnswer{Answer: "answer to " + in.Question},
		History:     sess.History(),
		Preferences: sess.Prefs.Snapshot(),
	}
}

type stubRepos struct{ queries []service.RepoQuery }

func (s *stubRepos) Search(_ context.Context, prefs *preferences.Preferences, q service.RepoQuery) models.Result[[]models.Repository] {
	s.queries = append(s.queries, q)
	prefs.RememberRepos(time.Now(), "a/b")
	return models.Live([]models.Repository{{Name: "a/b"}})
}

type stubIssues struct{ skills []preferences.SkillLevel }

func (s *stubIssues) Search(_ context.Context, _ string, skill preferences.SkillLevel, _ bool) models.Result[[]models.Issue] {
	s.skills = append(s.skills, skill)
	return models.Fallback([]models.Issue{}, errors.New("503"))
}

type stubGuides struct{}

func (stubGuides) Get(_ context.Context, repo string, _ bool) models.Result[models.Guide] {
	return models.Live(models.Guide{Repo: repo, Source: "CONTRIBUTING.md", Content: "guide for " + repo})
}

type stubInsights struct{}

func (stubInsights) Get(_ context.Context, repo string, _ bool) models.Result[models.Insights] {
	return models.Live(models.Insights{RepoName: repo, Stars: 3})
}

type stubTrending struct{ queries []service.TrendingQuery }

func (s *stubTrending) Crawl(_ context.Context, q service.TrendingQuery) models.Result[[]models.TrendingItem] {
	s.queries = append(s.queries, q)
	return models.Live([]models.TrendingItem{{Source: "DEV.to", Type: models.ItemArticle, Title: "t"}})
}

type stubQA struct{ terms []string }

func (s *stubQA) Search(_ context.Context, term string) models.Result[[]models.Question] {
	s.terms = append(s.terms, term)
	return models.Live([]models.Question{{Title: "q"}})
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

// ---- Harness ----------------------------------------------------------------

type harness struct {
	app      *fiber.App
	sessions *session.Store
	chat     *stubChat
	repos    *stubRepos
	issues   *stubIssues
	trending *stubTrending
	qa       *stubQA
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		app:      fiber.New(fiber.Config{ErrorHandler: ErrorHandler}),
		sessions: session.NewStore(),
		chat:     &stubChat{},
		repos:    &stubRepos{},
		issues:   &stubIssues{},
		trending: &stubTrending{},
		qa:       &stubQA{},
	}
	RegisterRoutes(h.app, Services{
		Chat:     h.chat,
		Sessions: h.sessions,
		Gatherers: service.Gatherers{
			Repos:    h.repos,
			Issues:   h.issues,
			Guides:   stubGuides{},
			Insights: stubInsights{},
			Trending: h.trending,
			QA:       h.qa,
		},
		Health: NewHealthHandler(stubPinger{}, nil, "nvidia"),
	}, logger.Nop())
	return h
}

func (h *harness) do(t *testing.T, method, target, body string) (int, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := h.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

// ---- Tests ------------------------------------------------------------------

func TestChat_ReturnsAnswerHistoryAndPreferences(t *testing.T) {
	h := newHarness(t)

	status, body := h.do(t, http.MethodPost, "/api/chat", `{"conversation_id":"c1","question":"Find JavaScript projects"}`)

	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "answer to Find JavaScript projects", body["answer"])
	assert.Contains(t, body, "processing_time")
	assert.Contains(t, body, "context_data")
	assert.Len(t, body["conversation_history"], 2)
	prefs := body["user_preferences"].(map[string]any)
	assert.Equal(t, []any{"javascript"}, prefs["languages"])
	assert.Equal(t, "beginner", prefs["skill_level"])

	require.Len(t, h.chat.inputs, 1)
	assert.True(t, h.chat.inputs[0].UseRealtime)
	assert.Equal(t, []string{"c1"}, h.chat.ids)
}

func TestChat_UseRealtimeFalse(t *testing.T) {
	h := newHarness(t)

	status, _ := h.do(t, http.MethodPost, "/api/chat", `{"conversation_id":"c1","question":"hi","use_realtime":false,"force_refresh":true}`)

	require.Equal(t, http.StatusOK, status)
	assert.False(t, h.chat.inputs[0].UseRealtime)
	assert.True(t, h.chat.inputs[0].ForceRefresh)
}

func TestChat_ValidationErrors(t *testing.T) {
	h := newHarness(t)

	status, body := h.do(t, http.MethodPost, "/api/chat", `{"question":""}`)

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid request", body["error"])
	details := body["details"].(map[string]any)
	assert.Contains(t, details, "conversation_id")
	assert.Contains(t, details, "question")
	assert.Empty(t, h.chat.inputs)
}

func TestChat_MalformedBody(t *testing.T) {
	h := newHarness(t)

	status, body := h.do(t, http.MethodPost, "/api/chat", `{"question":`)

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid request", body["error"])
}

func TestReset_OneConversationOrAll(t *testing.T) {
	h := newHarness(t)
	h.sessions.Get("c1")
	h.sessions.Get("c2")
	h.sessions.Get("c3")

	status, body := h.do(t, http.MethodPost, "/api/reset", `{"conversation_id":"c1"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, 2, h.sessions.Len())

	status, _ = h.do(t, http.MethodPost, "/api/reset?conversation_id=c2", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, h.sessions.Len())

	status, _ = h.do(t, http.MethodPost, "/api/reset", "")
	require.Equal(t, http.StatusOK, status)
	assert.Zero(t, h.sessions.Len())
}

func TestStartConversation(t *testing.T) {
	h := newHarness(t)

	status, a := h.do(t, http.MethodPost, "/start-conversation", "")
	_, b := h.do(t, http.MethodPost, "/start-conversation", "")

	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "success", a["status"])
	assert.Len(t, a["conversation_id"], 36)
	assert.NotEqual(t, a["conversation_id"], b["conversation_id"])
}

func TestSearchRepositories(t *testing.T) {
	h := newHarness(t)

	status, body := h.do(t, http.MethodGet, "/api/search/repositories?query=cli&language=go&force_refresh=true", "")

	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["repositories"], 1)
	assert.Contains(t, body, "processing_time")
	assert.Equal(t, []service.RepoQuery{{Query: "cli", Language: "go", ForceRefresh: true}}, h.repos.queries)
	assert.Equal(t, []string{"a/b"}, h.sessions.Get("").Prefs.PreviousRepos)
}

func TestSearchIssues(t *testing.T) {
	h := newHarness(t)

	status, body := h.do(t, http.MethodGet, "/api/search/issues", "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Repository name is required", body["error"])

	h.sessions.Get("c9").Prefs.SkillLevel = preferences.Advanced
	status, body = h.do(t, http.MethodGet, "/api/search/issues?repo=facebook/react&conversation_id=c9", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []any{}, body["issues"])
	assert.Equal(t, []preferences.SkillLevel{preferences.Advanced}, h.issues.skills)
}

func TestContributionGuideAndInsights(t *testing.T) {
	h := newHarness(t)

	status, _ := h.do(t, http.MethodGet, "/api/contribution_guide", "")
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = h.do(t, http.MethodGet, "/api/project_insights?repo=", "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, body := h.do(t, http.MethodGet, "/api/contribution_guide?repo=a/b", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "guide for a/b", body["guide"])

	status, body = h.do(t, http.MethodGet, "/api/project_insights?repo=a/b", "")
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 3, body["insights"].(map[string]any)["stars"])
}

func TestTrendingUsesStoredPreferences(t *testing.T) {
	h := newHarness(t)
	h.sessions.Get("").Prefs.Languages = []string{"rust"}

	status, body := h.do(t, http.MethodGet, "/api/trending?topic=cli", "")

	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["trending"], 1)
	assert.Equal(t, []service.TrendingQuery{{Topic: "cli", Language: "rust"}}, h.trending.queries)
}

func TestStackOverflow(t *testing.T) {
	h := newHarness(t)

	status, body := h.do(t, http.MethodGet, "/api/stackoverflow?repo=facebook/react", "")

	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["questions"], 1)
	assert.Equal(t, []string{"facebook react"}, h.qa.terms)
}

func TestHealth(t *testing.T) {
	h := newHarness(t)

	status, body := h.do(t, http.MethodGet, "/health", "")

	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, map[string]any{"mongo": "connected", "redis": "not_configured"}, body["dbs"])
	assert.Equal(t, "nvidia", body["llm"])
}

func TestHealth_PingFailure(t *testing.T) {
	hh := NewHealthHandler(stubPinger{err: errors.New("down")}, stubPinger{}, "none")
	assert.Equal(t, "error", hh.check(context.Background(), hh.mongo))
	assert.Equal(t, "connected", hh.check(context.Background(), hh.redis))
}

func TestErrorHandler_UnknownRoute(t *testing.T) {
	h := newHarness(t)

	status, body := h.do(t, http.MethodGet, "/api/nope", "")

	assert.Equal(t, http.StatusNotFound, status)
	assert.NotEmpty(t, body["error"])
}
