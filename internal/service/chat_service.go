package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ahmednasr/githelpdesk/internal/intent"
	"github.com/ahmednasr/githelpdesk/internal/llm"
	"github.com/ahmednasr/githelpdesk/internal/models"
	"github.com/ahmednasr/githelpdesk/internal/preferences"
	"github.com/ahmednasr/githelpdesk/internal/session"
	"github.com/ahmednasr/githelpdesk/pkg/logger"
)

// Canned answers returned when a turn fails.
const (
	apology          = "I apologize, but I encountered an error while processing your request. "
	rateLimitAnswer  = apology + "It seems we've hit the GitHub API rate limit. Please try again in a few minutes."
	timeoutAnswer    = apology + "The request timed out. Please try again with a more specific question."
	genericAnswer    = apology + "Please try again or rephrase your question."
)

// DefaultLLMTimeout bounds each model call of a turn.
const DefaultLLMTimeout = 30 * time.Second

// ---- Inputs and outputs -----------------------------------------------------

// ChatInput is one user turn.
type ChatInput struct {
	Question     string
	UseRealtime  bool
	ForceRefresh bool
}

// ChatTurn is the answer plus the session state after the turn, captured
// while the session was still locked.
type ChatTurn struct {
	models.ChatAnswer
	History     []models.Message
	Preferences preferences.Preferences
}

// Gatherers bundles the external data sources the orchestrator may consult.
type Gatherers struct {
	Repos    RepoService
	Issues   IssueService
	Guides   GuideService
	Insights InsightService
	Trending TrendingService
	QA       QAService
}

// ---- Service interface + implementation ------------------------------------

// ChatService answers questions within a conversation.
type ChatService interface {
	// Ask runs one turn on sess. It never returns an error: failures become
	// a canned answer with ChatAnswer.Error set.
	Ask(ctx context.Context, sess *session.Session, in ChatInput) ChatTurn
}

type chatService struct {
	g          Gatherers
	rag        RAGChain // nil when retrieval is disabled
	llm        llm.Client
	llmTimeout time.Duration
	log        *logger.Logger
	now        func() time.Time
}

// NewChatService wires the orchestrator. rag may be nil.
func NewChatService(g Gatherers, rag RAGChain, client llm.Client, llmTimeout time.Duration, log *logger.Logger) ChatService {
	if llmTimeout <= 0 {
		llmTimeout = DefaultLLMTimeout
	}
	return &chatService{g: g, rag: rag, llm: client, llmTimeout: llmTimeout, log: log.Named("chat"), now: time.Now}
}

func (s *chatService) Ask(ctx context.Context, sess *session.Session, in ChatInput) (turn ChatTurn) {
	sess.Lock()
	defer sess.Unlock()

	defer func() {
		if r := recover(); r != nil {
			s.log.Error("chat turn panicked", zap.String("session", sess.ID), zap.Any("panic", r))
			turn = ChatTurn{
				ChatAnswer:  failure(fmt.Errorf("panic: %v", r)),
				History:     sess.History(),
				Preferences: sess.Prefs.Snapshot(),
			}
		}
	}()

	ans, err := s.turn(ctx, sess, in)
	if err != nil {
		s.log.Error("chat turn failed", zap.String("session", sess.ID), zap.Error(err))
		ans = failure(err)
	}
	return ChatTurn{ChatAnswer: ans, History: sess.History(), Preferences: sess.Prefs.Snapshot()}
}

func (s *chatService) turn(ctx context.Context, sess *session.Session, in ChatInput) (models.ChatAnswer, error) {
	if strings.TrimSpace(in.Question) == "" {
		return models.ChatAnswer{}, errors.New("question cannot be empty")
	}
	now := s.now()

	// 1. Preferences, 2. intent
	sig := sess.Prefs.Update(in.Question, now)
	route := intent.Classify(in.Question, sess.Prefs.PreviousRepos)

	// 3. Gatherers
	var data models.ContextData
	if in.UseRealtime {
		data = s.gather(ctx, sess.Prefs, sig, route, in.ForceRefresh)
	}

	// 4. Prompt
	system := BuildSystemMessage(sess.Prefs, data)

	// 5. Model
	answer, sources, err := s.complete(ctx, system, sess.History(), in.Question)
	if err != nil {
		return models.ChatAnswer{}, err
	}

	// 6. History
	sess.AddExchange(in.Question, answer, now)

	return models.ChatAnswer{Answer: answer, ContextData: data, SourceDocuments: sources}, nil
}

// gather runs the gatherers the intent calls for, one after another. A
// gatherer that fell back to its default leaves its section empty.
func (s *chatService) gather(ctx context.Context, prefs *preferences.Preferences, sig preferences.Signals, route intent.Intent, force bool) models.ContextData {
	var data models.ContextData

	if route.WantsTrending() && s.g.Trending != nil {
		q := TrendingQuery{Topic: first(sig.Interests), Language: first(sig.Languages)}
		if r := s.g.Trending.Crawl(ctx, ResolveTrending(q, prefs)); r.Ok() && len(r.Value) > 0 {
			data.Trending = r.Value
			data.TrendingText = TrendingText(r.Value)
		}
	}

	if route.Repo && s.g.Repos != nil {
		lang := first(sig.Languages)
		if lang == "" {
			lang = prefs.RecentLanguage()
		}
		r := s.g.Repos.Search(ctx, prefs, RepoQuery{Language: lang, ForceRefresh: force})
		if r.Ok() && len(r.Value) > 0 {
			data.Repositories = r.Value
			data.RepoList = RepoListText(r.Value)
		}
	}

	if route.Issue && route.RepoName != "" && s.g.Issues != nil {
		r := s.g.Issues.Search(ctx, route.RepoName, prefs.SkillLevel, force)
		if r.Ok() && len(r.Value) > 0 {
			data.Issues = r.Value
			data.IssueList = IssueListText(r.Value)
		}
	}

	if route.WantsGuide() && s.g.Guides != nil {
		if r := s.g.Guides.Get(ctx, route.RepoName, force); r.Ok() && r.Value.Content != "" {
			data.ContributionGuide = r.Value.Content
		}
	}

	if route.Insight && route.RepoName != "" && s.g.Insights != nil {
		if r := s.g.Insights.Get(ctx, route.RepoName, force); r.Ok() {
			in := r.Value
			data.Insights = &in
			data.InsightText = InsightText(route.RepoName, in)
		}
	}

	if route.Help && s.g.QA != nil {
		r := s.g.QA.Search(ctx, QATerm(route.RepoName, "", prefs))
		if r.Ok() && len(r.Value) > 0 {
			data.StackOverflow = r.Value
			data.StackOverflowText = QuestionsText(r.Value)
		}
	}

	return data
}

// complete asks the retrieval chain first and falls back to a plain
// completion of [system, question] when the chain is missing or fails.
func (s *chatService) complete(ctx context.Context, system string, history []models.Message, question string) (string, []models.KnowledgeChunk, error) {
	if s.rag != nil {
		rctx, cancel := context.WithTimeout(ctx, s.llmTimeout)
		res, err := s.rag.Answer(rctx, system, history, question)
		cancel()
		if err == nil {
			return res.Answer, res.Sources, nil
		}
		s.log.Warn("retrieval chain failed, using direct completion", zap.Error(err))
	}

	cctx, cancel := context.WithTimeout(ctx, s.llmTimeout)
	defer cancel()
	answer, err := s.llm.Complete(cctx, []llm.Message{
		{Role: llm.RoleSystem, Content: system},
		{Role: llm.RoleUser, Content: question},
	})
	if err != nil {
		return "", nil, fmt.Errorf("%s completion: %w", s.llm.Name(), err)
	}
	return answer, nil, nil
}

// failure maps err to one of the canned answers.
func failure(err error) models.ChatAnswer {
	msg := strings.ToLower(err.Error())
	answer := genericAnswer
	switch {
	case strings.Contains(msg, "rate limit"):
		answer = rateLimitAnswer
	case errors.Is(err, context.DeadlineExceeded), strings.Contains(msg, "timeout"), strings.Contains(msg, "timed out"):
		answer = timeoutAnswer
	}
	return models.ChatAnswer{Answer: answer, Error: err.Error()}
}

func first(list []string) string {
	if len(list) == 0 {
		return ""
	}
	return list[0]
}
