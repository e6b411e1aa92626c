// Package intent decides which data gatherers a question needs.
package intent

import (
	"regexp"
	"strings"
)

// Intent is the set of independent routing flags for one question plus
// the repository it refers to, if any.
type Intent struct {
	Repo       bool
	Issue      bool
	Contribute bool
	Guide      bool
	Trend      bool
	Insight    bool
	Help       bool
	Crawl      bool

	// RepoName is "owner/name", or "" when none was found.
	RepoName string
}

var keywords = struct {
	repo, contribute, guide, trend, insight, help []string
}{
	repo:       []string{"repository", "repositories", "repos", "projects"},
	contribute: []string{"contribute", "contributing", "contribution"},
	guide:      []string{"guide", "how to", "steps", "process"},
	trend:      []string{"trend", "trending", "popular", "new", "latest"},
	insight:    []string{"insight", "activity", "stats", "statistics", "health"},
	help:       []string{"help", "assistance", "stuck", "problem", "error"},
}

const repoToken = `([a-zA-Z0-9][a-zA-Z0-9\-]*/[a-zA-Z0-9\.\-_]+)`

var (
	githubURL      = regexp.MustCompile(`(?i)github\.com/` + repoToken)
	bareRepo       = regexp.MustCompile(repoToken)
	contributeTo   = regexp.MustCompile(`(?i)contribute to\s+` + repoToken)
	issuesIn       = regexp.MustCompile(`(?i)issues in\s+` + repoToken)
	namedRepo      = regexp.MustCompile(`(?i)` + repoToken + `\s+(?:repo|repository)`)
	repoCandidates = []*regexp.Regexp{githubURL, bareRepo, contributeTo, issuesIn, namedRepo}
)

// Classify computes the routing flags for question. previousRepos is the
// session's previously discussed repositories, most recent last; its last
// entry is used when the question names no repository.
func Classify(question string, previousRepos []string) Intent {
	q := strings.ToLower(question)

	in := Intent{
		Repo:       containsAny(q, keywords.repo),
		Issue:      strings.Contains(q, "issue"),
		Contribute: containsAny(q, keywords.contribute),
		Guide:      containsAny(q, keywords.guide),
		Trend:      containsAny(q, keywords.trend),
		Insight:    containsAny(q, keywords.insight),
		Help:       containsAny(q, keywords.help),
		Crawl:      strings.Contains(q, "crawl"),
	}

	in.RepoName = ExtractRepo(question)
	if in.RepoName == "" && len(previousRepos) > 0 {
		in.RepoName = previousRepos[len(previousRepos)-1]
	}
	return in
}

// WantsTrending is true for trend questions and explicit crawl requests.
func (i Intent) WantsTrending() bool { return i.Trend || i.Crawl }

// WantsGuide is true when a contribution guide is relevant and there is a
// repository to fetch it for.
func (i Intent) WantsGuide() bool { return (i.Contribute || i.Guide) && i.RepoName != "" }

// ExtractRepo returns the first "owner/name" found in question.
func ExtractRepo(question string) string {
	for _, re := range repoCandidates {
		if m := re.FindStringSubmatch(question); m != nil {
			return cleanRepo(m[1])
		}
	}
	return ""
}

func cleanRepo(name string) string {
	name = strings.TrimRight(name, ".")
	return strings.TrimSuffix(name, ".git")
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
