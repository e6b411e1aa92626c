package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ahmednasr/githelpdesk/internal/cache"
	"github.com/ahmednasr/githelpdesk/internal/github"
	"github.com/ahmednasr/githelpdesk/internal/models"
	"github.com/ahmednasr/githelpdesk/internal/preferences"
	"github.com/ahmednasr/githelpdesk/pkg/logger"
)

// ---- Return DTO -------------------------------------------------------------

// RepoQuery is the input of a repository search.
type RepoQuery struct {
	Query        string
	Language     string
	ForceRefresh bool
}

// ---- Service interface + implementation ------------------------------------

// RepoService searches GitHub for repositories matching the user's preferences.
type RepoService interface {
	// Search also records the returned repositories in prefs.PreviousRepos.
	Search(ctx context.Context, prefs *preferences.Preferences, q RepoQuery) models.Result[[]models.Repository]
}

type repoService struct {
	gh    GitHubAPI
	cache *cache.Cache
	log   *logger.Logger
	now   func() time.Time
}

// NewRepoService returns a concrete implementation.
func NewRepoService(gh GitHubAPI, c *cache.Cache, log *logger.Logger) RepoService {
	return &repoService{gh: gh, cache: c, log: log.Named("gatherer.repos"), now: time.Now}
}

func (s *repoService) Search(ctx context.Context, prefs *preferences.Preferences, q RepoQuery) models.Result[[]models.Repository] {
	key := cache.Key(q.Query, q.Language)

	if !q.ForceRefresh {
		var repos []models.Repository
		if s.cache.Get(ctx, cache.Repos, key, &repos) {
			s.remember(prefs, repos)
			return observe("repos", models.Cached(repos))
		}
	}

	query := BuildRepoQuery(q.Query, q.Language, prefs, s.now())
	res, err := s.gh.SearchRepositories(ctx, query, "stars", "desc", perPage)
	if err != nil {
		s.log.Warn("repository search failed", zap.String("query", query), zap.Error(err))
		return observe("repos", models.Fallback([]models.Repository{}, err))
	}

	repos := make([]models.Repository, 0, len(res.Items))
	for _, item := range res.Items {
		repos = append(repos, toRepository(item))
	}

	s.cache.Put(ctx, cache.Repos, key, repos)
	s.remember(prefs, repos)
	return observe("repos", models.Live(repos))
}

func (s *repoService) remember(prefs *preferences.Preferences, repos []models.Repository) {
	if prefs == nil {
		return
	}
	names := make([]string, len(repos))
	for i, r := range repos {
		names[i] = r.Name
	}
	prefs.RememberRepos(s.now(), names...)
}

// ---- Query construction ----------------------------------------------------

// Star thresholds and push recency per skill level.
var (
	minStars = map[preferences.SkillLevel]int{
		preferences.Beginner:     50,
		preferences.Intermediate: 100,
		preferences.Advanced:     500,
	}
	beginnerPushWindow = 90 * 24 * time.Hour
	defaultPushWindow  = 180 * 24 * time.Hour
)

// BuildRepoQuery composes the GitHub search string from the free-text query,
// an explicit language and the stored preferences.
func BuildRepoQuery(query, language string, prefs *preferences.Preferences, now time.Time) string {
	if prefs == nil {
		prefs = preferences.New()
	}
	var parts []string

	if q := strings.TrimSpace(query); q != "" {
		parts = append(parts, q)
	}

	if lang := strings.TrimSpace(language); lang != "" {
		parts = append(parts, "language:"+lang)
	} else if len(prefs.Languages) > 0 {
		langs := prefs.Languages
		if len(langs) > 3 {
			langs = langs[:3]
		}
		filters := make([]string, len(langs))
		for i, l := range langs {
			filters[i] = "language:" + l
		}
		parts = append(parts, "("+strings.Join(filters, " OR ")+")")
	}

	lowerQuery := strings.ToLower(query)
	interests := prefs.Interests
	if len(interests) > 2 {
		interests = interests[:2]
	}
	for _, interest := range interests {
		if !strings.Contains(lowerQuery, interest) {
			parts = append(parts, interest)
		}
	}

	skill := prefs.SkillLevel
	stars, ok := minStars[skill]
	if !ok {
		skill, stars = preferences.Beginner, minStars[preferences.Beginner]
	}

	window := defaultPushWindow
	if skill == preferences.Beginner {
		parts = append(parts, "(good-first-issues:>0 OR help-wanted-issues:>0)")
		window = beginnerPushWindow
	}
	parts = append(parts,
		fmt.Sprintf("stars:>%d", stars),
		"pushed:>"+now.Add(-window).Format("2006-01-02"),
		"is:public fork:false archived:false",
	)
	return strings.Join(parts, " ")
}

func toRepository(r github.Repo) models.Repository {
	desc := r.Description
	if desc == "" {
		desc = "No description available"
	}
	lang := r.Language
	if lang == "" {
		lang = "Various"
	}
	branch := r.DefaultBranch
	if branch == "" {
		branch = "main"
	}
	topics := r.Topics
	if topics == nil {
		topics = []string{}
	}
	return models.Repository{
		Name:            r.FullName,
		Description:     desc,
		URL:             r.HTMLURL,
		Stars:           r.StargazersCount,
		Forks:           r.ForksCount,
		Language:        lang,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
		OpenIssuesCount: r.OpenIssuesCount,
		HasIssues:       r.HasIssues,
		Topics:          topics,
		DefaultBranch:   branch,
	}
}
