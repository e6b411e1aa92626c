package service

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ahmednasr/githelpdesk/internal/cache"
	"github.com/ahmednasr/githelpdesk/internal/github"
	"github.com/ahmednasr/githelpdesk/internal/models"
	"github.com/ahmednasr/githelpdesk/pkg/logger"
)

const (
	maxRelated      = 5
	responseSamples = 20
	commitWindow    = 30 * 24 * time.Hour
)

// InsightService aggregates activity and community health for a repository.
type InsightService interface {
	Get(ctx context.Context, repo string, forceRefresh bool) models.Result[models.Insights]
}

type insightService struct {
	gh       GitHubAPI
	trending TrendingService
	cache    *cache.Cache
	log      *logger.Logger
	now      func() time.Time
}

// NewInsightService wires dependencies. trending may be nil, in which case
// related resources stay empty.
func NewInsightService(gh GitHubAPI, trending TrendingService, c *cache.Cache, log *logger.Logger) InsightService {
	return &insightService{gh: gh, trending: trending, cache: c, log: log.Named("gatherer.insights"), now: time.Now}
}

// Get fills the insights step by step. A failing step stops the aggregation
// and the partially filled value is returned as a Fallback, uncached.
func (s *insightService) Get(ctx context.Context, repo string, forceRefresh bool) models.Result[models.Insights] {
	repo = strings.TrimSpace(repo)
	key := "insights_" + cache.Key(repo)

	if !forceRefresh {
		var in models.Insights
		if s.cache.Get(ctx, cache.Repos, key, &in) {
			return observe("insights", models.Cached(in))
		}
	}

	in := emptyInsights(repo)
	if err := s.fill(ctx, repo, &in); err != nil {
		s.log.Warn("insights incomplete", zap.String("repo", repo), zap.Error(err))
		return observe("insights", models.Fallback(in, err))
	}

	s.cache.Put(ctx, cache.Repos, key, in)
	return observe("insights", models.Live(in))
}

func emptyInsights(repo string) models.Insights {
	return models.Insights{
		RepoName:         repo,
		License:          "Unknown",
		DefaultBranch:    "main",
		Contributors:     []models.Contributor{},
		CommitFrequency:  "Unknown",
		PullRequests:     models.PullRequestStats{ResponseTime: "Unknown"},
		Technologies:     []models.Technology{},
		RelatedResources: []models.TrendingItem{},
	}
}

func (s *insightService) fill(ctx context.Context, repo string, in *models.Insights) error {
	meta, err := s.gh.GetRepo(ctx, repo)
	if err != nil {
		return err
	}
	in.Stars = meta.StargazersCount
	in.Forks = meta.ForksCount
	in.Watchers = meta.SubscribersCount
	in.OpenIssues = meta.OpenIssuesCount
	if meta.DefaultBranch != "" {
		in.DefaultBranch = meta.DefaultBranch
	}
	if meta.License != nil && meta.License.Name != "" {
		in.License = meta.License.Name
	}

	contributors, err := s.gh.ListContributors(ctx, repo, 5)
	if err != nil {
		return err
	}
	for _, c := range contributors {
		in.Contributors = append(in.Contributors, models.Contributor{Login: c.Login, Contributions: c.Contributions, URL: c.HTMLURL})
	}

	commits, err := s.gh.ListCommits(ctx, repo, s.now().Add(-commitWindow), 100)
	if err != nil {
		return err
	}
	in.CommitFrequency = CommitFrequency(len(commits))

	open, err := s.gh.ListPulls(ctx, repo, "open", 100)
	if err != nil {
		return err
	}
	in.PullRequests.Open = len(open)

	closed, err := s.gh.ListPulls(ctx, repo, "closed", 100)
	if err != nil {
		return err
	}
	in.PullRequests.MergedRate = MergeRate(closed)
	in.PullRequests.ResponseTime = ResponseTime(closed)

	community, err := s.gh.CommunityProfile(ctx, repo)
	if err != nil {
		return err
	}
	in.CommunityProfile = models.CommunityProfile{
		HasReadme:              community.Files.Readme != nil,
		HasContributing:        community.Files.Contributing != nil,
		HasCodeOfConduct:       community.Files.CodeOfConduct != nil,
		HasIssueTemplate:       community.Files.IssueTemplate != nil,
		HasPullRequestTemplate: community.Files.PullRequestTemplate != nil,
		HealthPercentage:       community.HealthPercentage,
	}

	langs, err := s.gh.Languages(ctx, repo)
	if err != nil {
		return err
	}
	in.Technologies = Technologies(langs)

	if s.trending != nil {
		_, name, _ := strings.Cut(repo, "/")
		// Best effort: the crawl isolates its own source failures.
		items := s.trending.Crawl(ctx, TrendingQuery{Topic: name}).Value
		if len(items) > maxRelated {
			items = items[:maxRelated]
		}
		in.RelatedResources = items
	}
	return nil
}

// CommitFrequency buckets the number of commits in the trailing 30 days.
func CommitFrequency(n int) string {
	switch {
	case n >= 50:
		return "Very Active (50+ commits in last month)"
	case n >= 20:
		return "Active (20-50 commits in last month)"
	case n >= 5:
		return "Moderately Active (5-20 commits in last month)"
	default:
		return "Low Activity (< 5 commits in last month)"
	}
}

// MergeRate is the percentage of closed PRs that were merged, one decimal.
func MergeRate(closed []github.Pull) float64 {
	if len(closed) == 0 {
		return 0
	}
	merged := 0
	for _, pr := range closed {
		if pr.MergedAt != nil {
			merged++
		}
	}
	return math.Round(float64(merged)/float64(len(closed))*1000) / 10
}

// ResponseTime buckets the mean created-to-merged (or closed) delay of the
// first 20 closed PRs.
func ResponseTime(closed []github.Pull) string {
	if len(closed) > responseSamples {
		closed = closed[:responseSamples]
	}
	var total time.Duration
	n := 0
	for _, pr := range closed {
		end := pr.MergedAt
		if end == nil {
			end = pr.ClosedAt
		}
		if end == nil {
			continue
		}
		total += end.Sub(pr.CreatedAt)
		n++
	}
	if n == 0 {
		return "Unknown"
	}
	avg := total / time.Duration(n)
	switch {
	case avg < 24*time.Hour:
		return "Fast (< 24 hours)"
	case avg < 72*time.Hour:
		return "Medium (1-3 days)"
	default:
		return "Slow (> 3 days)"
	}
}

// Technologies converts language byte counts into percentages, largest first.
func Technologies(langs map[string]int64) []models.Technology {
	var total int64
	for _, b := range langs {
		total += b
	}
	out := make([]models.Technology, 0, len(langs))
	if total == 0 {
		return out
	}
	for name, b := range langs {
		pct := math.Round(float64(b)/float64(total)*1000) / 10
		out = append(out, models.Technology{Name: name, Percentage: pct})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Percentage != out[j].Percentage {
			return out[i].Percentage > out[j].Percentage
		}
		return out[i].Name < out[j].Name
	})
	return out
}
