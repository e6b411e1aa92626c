package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/ahmednasr/githelpdesk/internal/models"
	"github.com/ahmednasr/githelpdesk/internal/preferences"
	"github.com/ahmednasr/githelpdesk/pkg/logger"
)

// Default endpoints of the trending sources.
const (
	DefaultDevToURL  = "https://dev.to"
	DefaultRedditURL = "https://www.reddit.com"
)

// DefaultFeeds are the RSS feeds read on every crawl.
var DefaultFeeds = []string{
	"https://opensource.com/feed",
	"https://changelog.com/feed",
}

const (
	trendingRepos   = 5
	trendingWindow  = 7 * 24 * time.Hour
	devToArticles   = 3
	feedEntries     = 2
	redditPosts     = 3
	feedSummaryMax  = 200
	sourceGitHub    = "GitHub Trending"
	sourceDevTo     = "DEV.to"
	defaultFeedName = "RSS Feed"
)

// TrendingQuery narrows a crawl. Empty fields are allowed.
type TrendingQuery struct {
	Topic    string
	Language string
}

// ResolveTrending fills an empty topic or language from the stored
// preferences, most recent first.
func ResolveTrending(q TrendingQuery, prefs *preferences.Preferences) TrendingQuery {
	if prefs == nil {
		return q
	}
	if q.Topic == "" && len(prefs.Interests) > 0 {
		q.Topic = prefs.Interests[0]
	}
	if q.Language == "" && len(prefs.Languages) > 0 {
		q.Language = prefs.Languages[0]
	}
	return q
}

// TrendingService collects what is currently popular in open source from
// several independent sources.
type TrendingService interface {
	// Crawl queries every source in turn. One failing source never hides the
	// others; the result is a Fallback only when all of them failed.
	Crawl(ctx context.Context, q TrendingQuery) models.Result[[]models.TrendingItem]
}

// TrendingOption configures the trending service.
type TrendingOption func(*trendingService)

func WithDevToURL(u string) TrendingOption {
	return func(s *trendingService) { s.devTo = strings.TrimRight(u, "/") }
}

func WithRedditURL(u string) TrendingOption {
	return func(s *trendingService) { s.reddit = strings.TrimRight(u, "/") }
}

func WithFeeds(feeds ...string) TrendingOption {
	return func(s *trendingService) { s.feeds = feeds }
}

type trendingService struct {
	gh     GitHubAPI
	client *http.Client
	devTo  string
	reddit string
	feeds  []string
	log    *logger.Logger
	now    func() time.Time
}

func NewTrendingService(gh GitHubAPI, client *http.Client, log *logger.Logger, opts ...TrendingOption) TrendingService {
	s := &trendingService{
		gh:     gh,
		client: client,
		devTo:  DefaultDevToURL,
		reddit: DefaultRedditURL,
		feeds:  DefaultFeeds,
		log:    log.Named("gatherer.trending"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type trendingSource struct {
	name  string
	fetch func(ctx context.Context) ([]models.TrendingItem, error)
}

func (s *trendingService) Crawl(ctx context.Context, q TrendingQuery) models.Result[[]models.TrendingItem] {
	sources := []trendingSource{
		{"github", func(ctx context.Context) ([]models.TrendingItem, error) { return s.githubTrending(ctx, q.Language) }},
		{"devto", func(ctx context.Context) ([]models.TrendingItem, error) { return s.devToArticles(ctx, q) }},
	}
	for _, feed := range s.feeds {
		feed := feed
		sources = append(sources, trendingSource{"rss", func(ctx context.Context) ([]models.TrendingItem, error) { return s.rss(ctx, feed) }})
	}
	if sub := Subreddit(q.Language); sub != "" && sub != "opensource" {
		sources = append(sources, trendingSource{"reddit", func(ctx context.Context) ([]models.TrendingItem, error) { return s.redditTop(ctx, sub) }})
	}
	sources = append(sources, trendingSource{"reddit", func(ctx context.Context) ([]models.TrendingItem, error) { return s.redditTop(ctx, "opensource") }})

	items := []models.TrendingItem{}
	var errs []error
	for _, src := range sources {
		got, err := src.fetch(ctx)
		if err != nil {
			s.log.Warn("trending source failed", zap.String("source", src.name), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", src.name, err))
			continue
		}
		items = append(items, got...)
	}

	if len(errs) == len(sources) {
		return observe("trending", models.Fallback(items, errors.Join(errs...)))
	}
	return observe("trending", models.Live(items))
}

// githubTrending lists the most starred repositories created in the last week.
func (s *trendingService) githubTrending(ctx context.Context, language string) ([]models.TrendingItem, error) {
	query := "created:>" + s.now().Add(-trendingWindow).Format("2006-01-02")
	if language != "" {
		query += " language:" + language
	}
	res, err := s.gh.SearchRepositories(ctx, query, "stars", "desc", trendingRepos)
	if err != nil {
		return nil, err
	}
	items := make([]models.TrendingItem, 0, len(res.Items))
	for _, r := range res.Items {
		desc := r.Description
		if desc == "" {
			desc = "No description available"
		}
		items = append(items, models.TrendingItem{
			Source:      sourceGitHub,
			Type:        models.ItemRepository,
			Name:        r.FullName,
			URL:         r.HTMLURL,
			Description: desc,
			Popularity:  fmt.Sprintf("%d stars", r.StargazersCount),
		})
	}
	return items, nil
}

type devToArticle struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	PublishedAt string `json:"published_at"`
	Description string `json:"description"`
}

func (s *trendingService) devToArticles(ctx context.Context, q TrendingQuery) ([]models.TrendingItem, error) {
	tag := DevToTag(q.Topic)
	if tag == "" {
		tag = DevToTag(q.Language)
	}
	if tag == "" {
		tag = "opensource"
	}
	params := url.Values{}
	params.Set("tag", tag)
	params.Set("top", "7")
	params.Set("per_page", fmt.Sprint(devToArticles))

	var articles []devToArticle
	if err := getJSON(ctx, s.client, s.devTo+"/api/articles?"+params.Encode(), &articles); err != nil {
		return nil, err
	}
	if len(articles) > devToArticles {
		articles = articles[:devToArticles]
	}
	items := make([]models.TrendingItem, 0, len(articles))
	for _, a := range articles {
		items = append(items, models.TrendingItem{
			Source:        sourceDevTo,
			Type:          models.ItemArticle,
			Title:         a.Title,
			URL:           a.URL,
			Description:   a.Description,
			PublishedDate: a.PublishedAt,
		})
	}
	return items, nil
}

func (s *trendingService) rss(ctx context.Context, feedURL string) ([]models.TrendingItem, error) {
	body, err := fetch(ctx, s.client, feedURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	feed, err := gofeed.NewParser().Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", feedURL, err)
	}

	source := feed.Title
	if source == "" {
		source = defaultFeedName
	}
	entries := feed.Items
	if len(entries) > feedEntries {
		entries = entries[:feedEntries]
	}
	items := make([]models.TrendingItem, 0, len(entries))
	for _, e := range entries {
		item := models.TrendingItem{
			Source:        source,
			Type:          models.ItemArticle,
			Title:         e.Title,
			URL:           e.Link,
			PublishedDate: e.Published,
			Description:   truncateRunes(HTMLToText(e.Description), feedSummaryMax),
		}
		if item.Title == "" {
			item.Title = "No title"
		}
		if item.URL == "" {
			item.URL = "#"
		}
		if item.PublishedDate == "" {
			item.PublishedDate = "N/A"
		}
		items = append(items, item)
	}
	return items, nil
}

type redditListing struct {
	Data struct {
		Children []struct {
			Data struct {
				Title     string `json:"title"`
				Permalink string `json:"permalink"`
				Score     int    `json:"score"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

func (s *trendingService) redditTop(ctx context.Context, sub string) ([]models.TrendingItem, error) {
	u := fmt.Sprintf("%s/r/%s/top.json?t=week&limit=%d", s.reddit, url.PathEscape(sub), redditPosts)
	var listing redditListing
	if err := getJSON(ctx, s.client, u, &listing); err != nil {
		return nil, err
	}
	items := make([]models.TrendingItem, 0, len(listing.Data.Children))
	for _, c := range listing.Data.Children {
		title := c.Data.Title
		if title == "" {
			title = "No title"
		}
		items = append(items, models.TrendingItem{
			Source:  "Reddit r/" + sub,
			Type:    models.ItemDiscussion,
			Title:   title,
			URL:     "https://www.reddit.com" + c.Data.Permalink,
			Upvotes: c.Data.Score,
		})
	}
	return items, nil
}

// Subreddit maps a language to its subreddit name.
func Subreddit(language string) string {
	switch l := strings.ToLower(strings.TrimSpace(language)); l {
	case "c#":
		return "csharp"
	case "c++":
		return "cpp"
	default:
		return l
	}
}

// DevToTag turns a topic into a DEV.to tag: lower-case alphanumerics only.
func DevToTag(topic string) string {
	var b strings.Builder
	for _, r := range Subreddit(topic) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// HTMLToText extracts the visible text of an HTML fragment with runs of
// whitespace collapsed.
func HTMLToText(fragment string) string {
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return strings.Join(strings.Fields(fragment), " ")
	}
	var parts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			parts = append(parts, n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}
