package service

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/ahmednasr/githelpdesk/internal/cache"
	"github.com/ahmednasr/githelpdesk/internal/github"
	"github.com/ahmednasr/githelpdesk/internal/models"
	"github.com/ahmednasr/githelpdesk/pkg/logger"
)

// GuidePaths are probed in order; the first file that exists wins.
var GuidePaths = []string{
	"CONTRIBUTING.md",
	".github/CONTRIBUTING.md",
	"docs/CONTRIBUTING.md",
	"CONTRIBUTE.md",
	".github/CONTRIBUTE.md",
	"docs/CONTRIBUTE.md",
	"DEVELOPMENT.md",
	"docs/DEVELOPMENT.md",
	"README.md",
	".github/PULL_REQUEST_TEMPLATE.md",
}

const (
	maxGuide        = 5000
	maxReadmePrefix = 3000
	guideTruncated  = "\n...\n[Guide truncated. See full guide at the repository]"
)

// GuideService fetches or synthesizes a repository's contribution guide.
type GuideService interface {
	Get(ctx context.Context, repo string, forceRefresh bool) models.Result[models.Guide]
}

type guideService struct {
	gh    GitHubAPI
	cache *cache.Cache
	log   *logger.Logger
}

func NewGuideService(gh GitHubAPI, c *cache.Cache, log *logger.Logger) GuideService {
	return &guideService{gh: gh, cache: c, log: log.Named("gatherer.guide")}
}

// Get returns the first guide file found. When none exists a generic guide
// is built from repository metadata; when even that fails the result is a
// Fallback carrying fully generic steps.
func (s *guideService) Get(ctx context.Context, repo string, forceRefresh bool) models.Result[models.Guide] {
	repo = strings.TrimSpace(repo)
	key := cache.Key(repo)

	if !forceRefresh {
		var g models.Guide
		if s.cache.Get(ctx, cache.Guides, key, &g) {
			return observe("guide", models.Cached(g))
		}
	}

	for _, p := range GuidePaths {
		raw, err := s.gh.GetContent(ctx, repo, p)
		if err != nil {
			if !github.IsNotFound(err) {
				s.log.Warn("guide fetch failed", zap.String("repo", repo), zap.String("path", p), zap.Error(err))
			}
			continue
		}
		file := path.Base(p)
		g := models.Guide{Repo: repo, Source: file, Content: FormatGuide(repo, file, raw)}
		s.cache.Put(ctx, cache.Guides, key, g)
		return observe("guide", models.Live(g))
	}

	meta, err := s.gh.GetRepo(ctx, repo)
	if err != nil {
		s.log.Warn("repository lookup for generic guide failed", zap.String("repo", repo), zap.Error(err))
		g := models.Guide{Repo: repo, Source: models.GuideGenerated, Content: genericGuide()}
		return observe("guide", models.Fallback(g, err))
	}

	g := models.Guide{Repo: repo, Source: models.GuideGenerated, Content: metadataGuide(repo, meta)}
	s.cache.Put(ctx, cache.Guides, key, g)
	return observe("guide", models.Live(g))
}

// FormatGuide cleans a guide file and prefixes it with its origin.
func FormatGuide(repo, file, content string) string {
	content = markdownImage.ReplaceAllString(content, "[image]")

	if file == "README.md" {
		if sections := ExtractReadmeSections(content); sections != "" {
			content = sections
		} else {
			content = truncatePlain(content, maxReadmePrefix)
		}
	}

	if r := []rune(content); len(r) > maxGuide {
		content = string(r[:maxGuide]) + guideTruncated
	}
	return fmt.Sprintf("Contribution guide for %s (from %s):\n\n%s", repo, file, content)
}

var (
	headingLine  = regexp.MustCompile(`^(#{1,6})\s+(.*)$`)
	guideHeading = regexp.MustCompile(`(?i)^(contribut|develop|getting started|how to|set ?up)`)
)

// ExtractReadmeSections returns the README sections whose heading is about
// contributing, development or setup. A section runs until the next heading
// of the same or a higher level. Fenced code is never read as a heading.
func ExtractReadmeSections(md string) string {
	var (
		sections []string
		current  []string
		level    int // level of the open section; 0 when none
		inFence  bool
	)
	flush := func() {
		if text := strings.TrimSpace(strings.Join(current, "\n")); text != "" {
			sections = append(sections, text)
		}
		current, level = nil, 0
	}

	for _, line := range strings.Split(md, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inFence = !inFence
		}
		if !inFence {
			if m := headingLine.FindStringSubmatch(strings.TrimRight(line, "\r")); m != nil {
				l := len(m[1])
				if level > 0 && l <= level {
					flush()
				}
				if level == 0 && guideHeading.MatchString(strings.TrimSpace(m[2])) {
					level = l
				}
			}
		}
		if level > 0 {
			current = append(current, line)
		}
	}
	if level > 0 {
		flush()
	}
	return strings.Join(sections, "\n\n")
}

func truncatePlain(s string, n int) string {
	if r := []rune(s); len(r) > n {
		return string(r[:n])
	}
	return s
}

func metadataGuide(repo string, meta github.Repo) string {
	branch := meta.DefaultBranch
	if branch == "" {
		branch = "main"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "No specific contribution guide found for %s. Here are general steps to contribute:\n\n", repo)
	fmt.Fprintf(&b, "This repository uses '%s' as its default branch.\n\n", branch)
	b.WriteString("1. Fork the repository\n")
	b.WriteString("2. Clone your fork locally\n")
	fmt.Fprintf(&b, "3. Create a new branch from '%s' for your feature or bugfix\n", branch)
	b.WriteString("4. Make your changes with clear commit messages\n")
	b.WriteString("5. Push to your fork\n")
	fmt.Fprintf(&b, "6. Submit a pull request to the '%s' branch of the original repository\n\n", branch)
	if meta.HasIssues {
		b.WriteString("This repository has Issues enabled. Look for issues labeled 'good first issue' or 'help wanted' for beginner-friendly tasks.\n")
	}
	if meta.HasWiki {
		fmt.Fprintf(&b, "This repository has a Wiki which may contain additional documentation: %s/wiki\n", meta.HTMLURL)
	}
	return b.String()
}

func genericGuide() string {
	return "No specific contribution guide found. Here are general steps to contribute:\n\n" +
		"1. Fork the repository\n" +
		"2. Clone your fork locally\n" +
		"3. Create a new branch for your feature or bugfix\n" +
		"4. Make your changes with clear commit messages\n" +
		"5. Push to your fork\n" +
		"6. Submit a pull request to the original repository\n\n" +
		"Look for issues labeled 'good first issue' or 'help wanted' for beginner-friendly tasks."
}
