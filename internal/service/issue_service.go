package service

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ahmednasr/githelpdesk/internal/cache"
	"github.com/ahmednasr/githelpdesk/internal/github"
	"github.com/ahmednasr/githelpdesk/internal/models"
	"github.com/ahmednasr/githelpdesk/internal/preferences"
	"github.com/ahmednasr/githelpdesk/pkg/logger"
)

// Label vocabularies used for the targeted issue search.
var (
	BeginnerLabels = []string{
		"good first issue", "good-first-issue", "beginner", "beginner-friendly",
		"easy", "help wanted", "help-wanted", "starter", "first-timers-only",
	}
	IntermediateLabels = append(append([]string{}, BeginnerLabels...),
		"enhancement", "feature", "bug", "improvement")
)

const (
	minTargetedIssues = 5
	maxIssues         = 15
	maxDescription    = 300
	issueMaxAge       = 180 * 24 * time.Hour
	noDescription     = "No description available"
)

// IssueService finds open issues worth picking up in a repository.
type IssueService interface {
	Search(ctx context.Context, repo string, skill preferences.SkillLevel, forceRefresh bool) models.Result[[]models.Issue]
}

type issueService struct {
	gh    GitHubAPI
	cache *cache.Cache
	log   *logger.Logger
	now   func() time.Time
}

func NewIssueService(gh GitHubAPI, c *cache.Cache, log *logger.Logger) IssueService {
	return &issueService{gh: gh, cache: c, log: log.Named("gatherer.issues"), now: time.Now}
}

// LabelsFor returns the targeted label set for a skill level.
func LabelsFor(skill preferences.SkillLevel) []string {
	if skill == preferences.Beginner || skill == "" {
		return BeginnerLabels
	}
	return IntermediateLabels
}

// LabelQuery builds the issue search string matching any of labels.
func LabelQuery(repo string, labels []string) string {
	quoted := make([]string, len(labels))
	for i, l := range labels {
		quoted[i] = `"` + l + `"`
	}
	return "repo:" + repo + " is:issue is:open label:" + strings.Join(quoted, ",")
}

func (s *issueService) Search(ctx context.Context, repo string, skill preferences.SkillLevel, forceRefresh bool) models.Result[[]models.Issue] {
	repo = strings.TrimSpace(repo)
	key := cache.Key(repo, string(skill))

	if !forceRefresh {
		var issues []models.Issue
		if s.cache.Get(ctx, cache.Issues, key, &issues) {
			return observe("issues", models.Cached(issues))
		}
	}

	targeted, err := s.gh.SearchIssues(ctx, LabelQuery(repo, LabelsFor(skill)), perPage)
	if err != nil {
		s.log.Warn("labeled issue search failed", zap.String("repo", repo), zap.Error(err))
		return observe("issues", models.Fallback([]models.Issue{}, err))
	}

	combined := targeted
	if len(targeted) < minTargetedIssues {
		regular, err := s.gh.ListIssues(ctx, repo, "open", perPage)
		if err != nil {
			s.log.Warn("issue listing failed", zap.String("repo", repo), zap.Error(err))
			return observe("issues", models.Fallback([]models.Issue{}, err))
		}
		combined = mergeIssues(targeted, regular)
	}

	issues := make([]models.Issue, 0, len(combined))
	for _, it := range combined {
		if it.IsPullRequest() {
			continue
		}
		issues = append(issues, toIssue(it))
	}
	issues = RefineIssues(issues, s.now())

	s.cache.Put(ctx, cache.Issues, key, issues)
	return observe("issues", models.Live(issues))
}

// mergeIssues appends the regular issues not already in targeted.
func mergeIssues(targeted, regular []github.Issue) []github.Issue {
	seen := make(map[int64]bool, len(targeted))
	out := make([]github.Issue, 0, len(targeted)+len(regular))
	for _, it := range targeted {
		seen[it.ID] = true
		out = append(out, it)
	}
	for _, it := range regular {
		if !seen[it.ID] {
			seen[it.ID] = true
			out = append(out, it)
		}
	}
	return out
}

func toIssue(it github.Issue) models.Issue {
	labels := make([]models.Label, len(it.Labels))
	for i, l := range it.Labels {
		labels[i] = models.Label{Name: l.Name, Color: l.Color}
	}
	user := it.User.Login
	if user == "" {
		user = "Unknown"
	}
	return models.Issue{
		Title:              it.Title,
		Number:             it.Number,
		URL:                it.HTMLURL,
		Labels:             labels,
		CreatedAt:          it.CreatedAt,
		UpdatedAt:          it.UpdatedAt,
		Comments:           it.Comments,
		Description:        it.Body,
		User:               user,
		IsBeginnerFriendly: hasBeginnerLabel(labels),
	}
}

func hasBeginnerLabel(labels []models.Label) bool {
	for _, l := range labels {
		name := strings.ToLower(l.Name)
		for _, bl := range BeginnerLabels {
			if name == bl {
				return true
			}
		}
	}
	return false
}

// ---- Refinement ------------------------------------------------------------

var (
	markdownImage = regexp.MustCompile(`!\[.*?\]\(.*?\)`)
	fencedCode    = regexp.MustCompile("(?s)```.*?```")
	newlines      = regexp.MustCompile(`[\r\n]+`)
)

// SanitizeDescription strips images and fenced code, collapses newlines and
// truncates to 300 characters. Applying it twice changes nothing.
func SanitizeDescription(body string) string {
	if strings.TrimSpace(body) == "" {
		return noDescription
	}
	// Each replacement can expose a new match (e.g. "!![a](b)(c)"), so run
	// to a fixed point. Every changing pass consumes a '!', '`' or newline.
	for {
		next := newlines.ReplaceAllString(body, " ")
		next = markdownImage.ReplaceAllString(next, "[image]")
		next = fencedCode.ReplaceAllString(next, "[code block]")
		if next == body {
			break
		}
		body = next
	}
	return truncateRunes(body, maxDescription)
}

// RefineIssues drops issues idle for more than 180 days, sanitises
// descriptions, orders beginner-friendly first then most recently updated,
// and keeps the first 15. It is idempotent for a fixed now.
func RefineIssues(issues []models.Issue, now time.Time) []models.Issue {
	cutoff := now.Add(-issueMaxAge)
	out := make([]models.Issue, 0, len(issues))
	for _, is := range issues {
		if is.UpdatedAt.Before(cutoff) {
			continue
		}
		is.Description = SanitizeDescription(is.Description)
		out = append(out, is)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].IsBeginnerFriendly != out[j].IsBeginnerFriendly {
			return out[i].IsBeginnerFriendly
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})

	if len(out) > maxIssues {
		out = out[:maxIssues]
	}
	return out
}
