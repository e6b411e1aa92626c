package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmednasr/githelpdesk/internal/github"
	"github.com/ahmednasr/githelpdesk/internal/llm"
	"github.com/ahmednasr/githelpdesk/internal/models"
	"github.com/ahmednasr/githelpdesk/internal/preferences"
	"github.com/ahmednasr/githelpdesk/internal/session"
	"github.com/ahmednasr/githelpdesk/pkg/logger"
)

// recordingRepos remembers the queries it was called with.
type recordingRepos struct {
	queries []RepoQuery
	result  models.Result[[]models.Repository]
}

func (r *recordingRepos) Search(_ context.Context, _ *preferences.Preferences, q RepoQuery) models.Result[[]models.Repository] {
	r.queries = append(r.queries, q)
	return r.result
}

type recordingIssues struct {
	repos  []string
	skills []preferences.SkillLevel
	result models.Result[[]models.Issue]
}

func (r *recordingIssues) Search(_ context.Context, repo string, skill preferences.SkillLevel, _ bool) models.Result[[]models.Issue] {
	r.repos = append(r.repos, repo)
	r.skills = append(r.skills, skill)
	return r.result
}

type failingRAG struct{ err error }

func (f failingRAG) Answer(context.Context, string, []models.Message, string) (RAGAnswer, error) {
	return RAGAnswer{}, f.err
}

type panickingLLM struct{}

func (panickingLLM) Name() string { return "panicky" }
func (panickingLLM) Complete(context.Context, []llm.Message) (string, error) {
	panic("kaboom")
}

func newChat(g Gatherers, rag RAGChain, client llm.Client) ChatService {
	return NewChatService(g, rag, client, time.Second, logger.Nop())
}

func TestAsk_FindJavaScriptProjects(t *testing.T) {
	repos := &recordingRepos{result: models.Live([]models.Repository{{Name: "expressjs/express", Language: "JavaScript"}})}
	model := &scriptedLLM{reply: "Try express."}
	sess := session.NewStore().Get("c1")

	turn := newChat(Gatherers{Repos: repos}, nil, model).Ask(context.Background(), sess, ChatInput{Question: "Find JavaScript projects", UseRealtime: true})

	require.Empty(t, turn.Error)
	assert.Equal(t, "Try express.", turn.Answer)
	require.Len(t, repos.queries, 1)
	assert.Equal(t, "javascript", repos.queries[0].Language)
	assert.Contains(t, turn.Preferences.Languages, "javascript")
	assert.Equal(t, "expressjs/express", turn.ContextData.Repositories[0].Name)
	assert.Contains(t, model.requests[0][0].Content, "REPOSITORIES FOUND:\n- expressjs/express")

	require.Len(t, turn.History, 2)
	assert.Equal(t, models.Message{Role: models.RoleHuman, Content: "Find JavaScript projects", At: turn.History[0].At}, turn.History[0])
	assert.Equal(t, models.RoleAI, turn.History[1].Role)
}

func TestAsk_BeginnerIssuesInReact(t *testing.T) {
	issues := &recordingIssues{result: models.Live([]models.Issue{{Number: 1, Title: "Docs typo"}})}
	sess := session.NewStore().Get("c1")
	sess.Prefs.SkillLevel = preferences.Advanced

	turn := newChat(Gatherers{Issues: issues}, nil, &scriptedLLM{reply: "ok"}).Ask(context.Background(), sess,
		ChatInput{Question: "I'm new to coding, show me beginner issues in facebook/react", UseRealtime: true})

	assert.Equal(t, preferences.Beginner, turn.Preferences.SkillLevel)
	assert.Equal(t, []string{"facebook/react"}, issues.repos)
	assert.Equal(t, []preferences.SkillLevel{preferences.Beginner}, issues.skills)
	assert.Equal(t, BeginnerLabels, LabelsFor(issues.skills[0]))
	assert.Contains(t, turn.ContextData.IssueList, "Issue #1: Docs typo")
}

func TestAsk_UnavailableGathererLeavesSectionOut(t *testing.T) {
	gh := &fakeGitHub{searchIssuesErr: errUnavailable}
	issueSvc := NewIssueService(gh, newTestCache(), logger.Nop())
	model := &scriptedLLM{reply: "Here is what I know."}
	sess := session.NewStore().Get("c1")

	turn := newChat(Gatherers{Issues: issueSvc}, nil, model).Ask(context.Background(), sess,
		ChatInput{Question: "show me issues in facebook/react", UseRealtime: true})

	assert.Empty(t, turn.Error)
	assert.Equal(t, "Here is what I know.", turn.Answer)
	assert.Empty(t, turn.ContextData.Issues)
	assert.NotContains(t, model.requests[0][0].Content, "ISSUES FOUND")
}

func TestAsk_RealtimeOffSkipsGatherers(t *testing.T) {
	repos := &recordingRepos{result: models.Live([]models.Repository{{Name: "a/b"}})}
	sess := session.NewStore().Get("c1")

	turn := newChat(Gatherers{Repos: repos}, nil, &scriptedLLM{reply: "ok"}).Ask(context.Background(), sess,
		ChatInput{Question: "Find Python repositories"})

	assert.Empty(t, repos.queries)
	assert.Equal(t, []string{"python"}, turn.Preferences.Languages)
}

func TestAsk_FallsBackFromRAGToDirectCompletion(t *testing.T) {
	model := &scriptedLLM{reply: "direct"}
	sess := session.NewStore().Get("c1")

	turn := newChat(Gatherers{}, failingRAG{err: errBoom}, model).Ask(context.Background(), sess, ChatInput{Question: "hello"})

	assert.Equal(t, "direct", turn.Answer)
	require.Len(t, model.requests, 1)
	require.Len(t, model.requests[0], 2)
	assert.Equal(t, llm.RoleSystem, model.requests[0][0].Role)
	assert.Equal(t, llm.Message{Role: llm.RoleUser, Content: "hello"}, model.requests[0][1])
}

func TestAsk_CannedFailures(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("429: Rate limit exceeded"), rateLimitAnswer},
		{fmt.Errorf("call: %w", context.DeadlineExceeded), timeoutAnswer},
		{fmt.Errorf("read tcp: i/o timeout"), timeoutAnswer},
		{llm.ErrNoBackend, genericAnswer},
	}
	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			sess := session.NewStore().Get("c1")

			turn := newChat(Gatherers{}, nil, &scriptedLLM{err: tc.err}).Ask(context.Background(), sess, ChatInput{Question: "hi"})

			assert.Equal(t, tc.want, turn.Answer)
			assert.Contains(t, turn.Error, tc.err.Error())
			assert.Empty(t, turn.History, "failed turns are not recorded")
		})
	}
}

func TestAsk_RecoversPanics(t *testing.T) {
	sess := session.NewStore().Get("c1")

	turn := newChat(Gatherers{}, nil, panickingLLM{}).Ask(context.Background(), sess, ChatInput{Question: "hi"})

	assert.Equal(t, genericAnswer, turn.Answer)
	assert.Contains(t, turn.Error, "kaboom")
	assert.True(t, sess.TryLock(), "session lock released")
}

func TestAsk_FollowUpUsesPreviousRepo(t *testing.T) {
	gh := &fakeGitHub{repo: github.Repo{DefaultBranch: "main"}}
	guides := NewGuideService(gh, newTestCache(), logger.Nop())
	sess := session.NewStore().Get("c1")
	sess.Prefs.RememberRepos(fixedNow(), "vuejs/core")

	turn := newChat(Gatherers{Guides: guides}, nil, &scriptedLLM{reply: "ok"}).Ask(context.Background(), sess,
		ChatInput{Question: "How do I contribute?", UseRealtime: true})

	assert.Contains(t, turn.ContextData.ContributionGuide, "vuejs/core")
}
