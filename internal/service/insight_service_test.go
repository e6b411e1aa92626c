package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmednasr/githelpdesk/internal/github"
	"github.com/ahmednasr/githelpdesk/internal/models"
	"github.com/ahmednasr/githelpdesk/pkg/logger"
)

type stubTrending struct {
	items   []models.TrendingItem
	queries []TrendingQuery
}

func (s *stubTrending) Crawl(_ context.Context, q TrendingQuery) models.Result[[]models.TrendingItem] {
	s.queries = append(s.queries, q)
	return models.Live(s.items)
}

func pull(created time.Time, closedAfter time.Duration, merged bool) github.Pull {
	end := created.Add(closedAfter)
	p := github.Pull{CreatedAt: created, ClosedAt: &end}
	if merged {
		p.MergedAt = &end
	}
	return p
}

func TestCommitFrequency(t *testing.T) {
	assert.Equal(t, "Very Active (50+ commits in last month)", CommitFrequency(50))
	assert.Equal(t, "Active (20-50 commits in last month)", CommitFrequency(20))
	assert.Equal(t, "Moderately Active (5-20 commits in last month)", CommitFrequency(5))
	assert.Equal(t, "Low Activity (< 5 commits in last month)", CommitFrequency(4))
}

func TestMergeRateAndResponseTime(t *testing.T) {
	t0 := fixedNow()
	closed := []github.Pull{
		pull(t0, 2*time.Hour, true),
		pull(t0, 10*time.Hour, true),
		pull(t0, 30*time.Hour, false),
	}

	assert.Equal(t, 66.7, MergeRate(closed))
	assert.Equal(t, "Fast (< 24 hours)", ResponseTime(closed))
	assert.Equal(t, "Medium (1-3 days)", ResponseTime([]github.Pull{pull(t0, 48*time.Hour, true)}))
	assert.Equal(t, "Slow (> 3 days)", ResponseTime([]github.Pull{pull(t0, 100*time.Hour, false)}))
	assert.Equal(t, "Unknown", ResponseTime(nil))
	assert.Zero(t, MergeRate(nil))
}

func TestTechnologies(t *testing.T) {
	got := Technologies(map[string]int64{"Go": 750, "Shell": 125, "Makefile": 125})

	assert.Equal(t, []models.Technology{
		{Name: "Go", Percentage: 75},
		{Name: "Makefile", Percentage: 12.5},
		{Name: "Shell", Percentage: 12.5},
	}, got)
	assert.Empty(t, Technologies(nil))
}

func TestInsightGet_Aggregates(t *testing.T) {
	t0 := fixedNow()
	gh := &fakeGitHub{
		repo:         github.Repo{StargazersCount: 10, ForksCount: 2, SubscribersCount: 3, DefaultBranch: "develop", License: &github.License{Name: "MIT License"}},
		contributors: []github.Contributor{{Login: "octo", Contributions: 42}},
		commits:      make([]github.Commit, 21),
		openPulls:    make([]github.Pull, 4),
		closedPulls:  []github.Pull{pull(t0, time.Hour, true)},
		languages:    map[string]int64{"Go": 1},
	}
	gh.community.HealthPercentage = 85
	gh.community.Files.Readme = &github.CommunityFile{}

	trending := &stubTrending{items: make([]models.TrendingItem, 8)}
	s := NewInsightService(gh, trending, newTestCache(), logger.Nop())

	res := s.Get(context.Background(), "acme/widgets", false)

	require.True(t, res.Ok())
	in := res.Value
	assert.Equal(t, "acme/widgets", in.RepoName)
	assert.Equal(t, 3, in.Watchers)
	assert.Equal(t, "develop", in.DefaultBranch)
	assert.Equal(t, "MIT License", in.License)
	assert.Equal(t, "Active (20-50 commits in last month)", in.CommitFrequency)
	assert.Equal(t, 4, in.PullRequests.Open)
	assert.Equal(t, 100.0, in.PullRequests.MergedRate)
	assert.True(t, in.CommunityProfile.HasReadme)
	assert.False(t, in.CommunityProfile.HasContributing)
	assert.Len(t, in.RelatedResources, 5)
	assert.Equal(t, "widgets", trending.queries[0].Topic)

	cached := s.Get(context.Background(), "acme/widgets", false)
	assert.Equal(t, models.OriginCache, cached.Origin)
}

func TestInsightGet_PartialIsNotCached(t *testing.T) {
	gh := &fakeGitHub{repo: github.Repo{StargazersCount: 7}, communityErr: errUnavailable}
	s := NewInsightService(gh, nil, newTestCache(), logger.Nop())

	res := s.Get(context.Background(), "acme/widgets", false)

	assert.False(t, res.Ok())
	assert.Equal(t, 7, res.Value.Stars)
	assert.Equal(t, "Unknown", res.Value.License)
	assert.Zero(t, gh.count("languages"))

	s.Get(context.Background(), "acme/widgets", false)
	assert.Equal(t, 2, gh.count("get_repo"))
}
