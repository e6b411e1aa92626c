package service

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/ahmednasr/githelpdesk/internal/models"
	"github.com/ahmednasr/githelpdesk/internal/preferences"
	"github.com/ahmednasr/githelpdesk/pkg/logger"
)

// DefaultStackExchangeURL is the public StackExchange API root.
const DefaultStackExchangeURL = "https://api.stackexchange.com"

const maxQuestions = 5

// QATerm picks the search term: the repository (slash replaced by a space),
// else the topic, else the first stored language, else the first interest,
// else "open source".
func QATerm(repo, topic string, prefs *preferences.Preferences) string {
	term := strings.TrimSpace(repo)
	if term == "" {
		term = strings.TrimSpace(topic)
	}
	if term == "" && prefs != nil {
		switch {
		case len(prefs.Languages) > 0:
			term = prefs.Languages[0]
		case len(prefs.Interests) > 0:
			term = prefs.Interests[0]
		}
	}
	if term == "" {
		term = "open source"
	}
	return strings.ReplaceAll(term, "/", " ")
}

// QAService searches Stack Overflow question titles.
type QAService interface {
	Search(ctx context.Context, term string) models.Result[[]models.Question]
}

type qaService struct {
	client  *http.Client
	baseURL string
	log     *logger.Logger
}

// NewQAService returns a StackExchange-backed QAService. An empty baseURL
// selects the public API.
func NewQAService(client *http.Client, baseURL string, log *logger.Logger) QAService {
	if baseURL == "" {
		baseURL = DefaultStackExchangeURL
	}
	return &qaService{client: client, baseURL: strings.TrimRight(baseURL, "/"), log: log.Named("gatherer.qa")}
}

type seSearch struct {
	Items []struct {
		Title       string   `json:"title"`
		Link        string   `json:"link"`
		Score       int      `json:"score"`
		AnswerCount int      `json:"answer_count"`
		Tags        []string `json:"tags"`
		IsAnswered  bool     `json:"is_answered"`
	} `json:"items"`
}

func (s *qaService) Search(ctx context.Context, term string) models.Result[[]models.Question] {
	params := url.Values{}
	params.Set("order", "desc")
	params.Set("sort", "votes")
	params.Set("intitle", term)
	params.Set("site", "stackoverflow")
	params.Set("pagesize", fmt.Sprint(maxQuestions))

	var body seSearch
	if err := getJSON(ctx, s.client, s.baseURL+"/2.3/search?"+params.Encode(), &body); err != nil {
		s.log.Warn("stack overflow search failed", zap.String("term", term), zap.Error(err))
		return observe("qa", models.Fallback([]models.Question{}, err))
	}

	items := body.Items
	if len(items) > maxQuestions {
		items = items[:maxQuestions]
	}
	questions := make([]models.Question, 0, len(items))
	for _, it := range items {
		tags := it.Tags
		if tags == nil {
			tags = []string{}
		}
		questions = append(questions, models.Question{
			// Titles come HTML-escaped.
			Title:       html.UnescapeString(it.Title),
			Link:        it.Link,
			Score:       it.Score,
			AnswerCount: it.AnswerCount,
			Tags:        tags,
			IsAnswered:  it.IsAnswered,
		})
	}
	return observe("qa", models.Live(questions))
}
