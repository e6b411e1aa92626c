package service

import (
	"fmt"
	"strings"

	"github.com/ahmednasr/githelpdesk/internal/models"
	"github.com/ahmednasr/githelpdesk/internal/preferences"
)

const persona = `You are GitHelpDesk, an expert assistant specializing in helping users contribute to open source projects.
Your primary goal is to help users find suitable projects, understand contribution processes, and solve technical issues
related to open source contribution. Be practical, direct, and provide specific actionable guidance.`

const closingInstruction = "Provide a helpful, informative response based on the real-time data above and your expertise. " +
	"When recommending repositories or issues, be specific and give actual names and links. " +
	"If asked about contribution steps, provide detailed guidance tailored to the user's skill level and the specific repository."

// Prompt listing limits.
const (
	promptRepos      = 7
	promptRepoDesc   = 100
	promptIssues     = 5
	promptIssueLabel = 3
	promptGuide      = 1000
	promptTechs      = 3
	promptPrevRepos  = 3
)

// BuildSystemMessage composes the persona, the user's profile and every
// gathered section. Sections always appear in the same order and are left
// out entirely when their data is missing.
func BuildSystemMessage(prefs *preferences.Preferences, data models.ContextData) string {
	var b strings.Builder
	b.WriteString(persona)
	b.WriteString("\n\nCurrent User Profile:\n")

	if prefs != nil {
		if len(prefs.Languages) > 0 {
			fmt.Fprintf(&b, "\nLanguages: %s", strings.Join(prefs.Languages, ", "))
		}
		if len(prefs.Interests) > 0 {
			fmt.Fprintf(&b, "\nInterests: %s", strings.Join(prefs.Interests, ", "))
		}
		if prefs.SkillLevel != "" {
			fmt.Fprintf(&b, "\nSkill Level: %s", prefs.SkillLevel)
		}
		if n := len(prefs.PreviousRepos); n > 0 {
			recent := prefs.PreviousRepos[max(0, n-promptPrevRepos):]
			fmt.Fprintf(&b, "\nPreviously Discussed Repos: %s", strings.Join(recent, ", "))
		}
	}

	b.WriteString("\n\n--- REAL-TIME DATA ---\n")

	section := func(title, body string) {
		if body != "" {
			fmt.Fprintf(&b, "\n%s:\n%s\n", title, body)
		}
	}
	section("REPOSITORIES FOUND", data.RepoList)
	section("ISSUES FOUND", data.IssueList)
	if data.ContributionGuide != "" {
		section("CONTRIBUTION GUIDE", truncatePlain(data.ContributionGuide, promptGuide)+"...")
	}
	section("REPOSITORY INSIGHTS", data.InsightText)
	section("RELEVANT QUESTIONS", data.StackOverflowText)
	section("TRENDING DATA", data.TrendingText)

	b.WriteString("\n\n")
	b.WriteString(closingInstruction)
	return b.String()
}

// RepoListText renders the top repositories for the prompt.
func RepoListText(repos []models.Repository) string {
	if len(repos) > promptRepos {
		repos = repos[:promptRepos]
	}
	lines := make([]string, 0, 2*len(repos))
	for _, r := range repos {
		desc := r.Description
		if len([]rune(desc)) > promptRepoDesc {
			desc = truncatePlain(desc, promptRepoDesc) + "..."
		}
		lines = append(lines,
			fmt.Sprintf("- %s: %s", r.Name, desc),
			fmt.Sprintf("  Language: %s, Stars: %d, Open Issues: %d", r.Language, r.Stars, r.OpenIssuesCount),
		)
	}
	return strings.Join(lines, "\n")
}

// IssueListText renders the top issues for the prompt.
func IssueListText(issues []models.Issue) string {
	if len(issues) > promptIssues {
		issues = issues[:promptIssues]
	}
	lines := make([]string, 0, 3*len(issues))
	for _, is := range issues {
		labels := is.Labels
		if len(labels) > promptIssueLabel {
			labels = labels[:promptIssueLabel]
		}
		names := make([]string, len(labels))
		for i, l := range labels {
			names[i] = l.Name
		}
		labelText := strings.Join(names, ", ")
		if labelText == "" {
			labelText = "None"
		}
		lines = append(lines,
			fmt.Sprintf("- Issue #%d: %s", is.Number, is.Title),
			fmt.Sprintf("  Labels: %s", labelText),
			fmt.Sprintf("  URL: %s", is.URL),
		)
	}
	return strings.Join(lines, "\n")
}

// HealthRating turns a community health percentage into a word.
func HealthRating(pct int) string {
	switch {
	case pct > 80:
		return "Excellent"
	case pct > 60:
		return "Good"
	case pct > 40:
		return "Fair"
	default:
		return "Poor"
	}
}

// InsightText summarises repository insights for the prompt.
func InsightText(repo string, in models.Insights) string {
	lines := []string{
		fmt.Sprintf("Insights for %s:", repo),
		fmt.Sprintf("- Stars: %d", in.Stars),
		fmt.Sprintf("- Forks: %d", in.Forks),
		fmt.Sprintf("- Open Issues: %d", in.OpenIssues),
		fmt.Sprintf("- Activity: %s", in.CommitFrequency),
		fmt.Sprintf("- Pull Request Merge Rate: %g%%", in.PullRequests.MergedRate),
		fmt.Sprintf("- PR Response Time: %s", in.PullRequests.ResponseTime),
	}

	cp := in.CommunityProfile
	lines = append(lines, fmt.Sprintf("- Community Health: %s (%d%%)", HealthRating(cp.HealthPercentage), cp.HealthPercentage))

	var docs []string
	if cp.HasReadme {
		docs = append(docs, "README")
	}
	if cp.HasContributing {
		docs = append(docs, "CONTRIBUTING")
	}
	if cp.HasCodeOfConduct {
		docs = append(docs, "CODE_OF_CONDUCT")
	}
	docStatus := "Minimal"
	if len(docs) > 0 {
		docStatus = strings.Join(docs, ", ")
	}
	lines = append(lines, "- Documentation: "+docStatus)

	if techs := in.Technologies; len(techs) > 0 {
		if len(techs) > promptTechs {
			techs = techs[:promptTechs]
		}
		parts := make([]string, len(techs))
		for i, t := range techs {
			parts[i] = fmt.Sprintf("%s (%g%%)", t.Name, t.Percentage)
		}
		lines = append(lines, "- Top Technologies: "+strings.Join(parts, ", "))
	}
	return strings.Join(lines, "\n")
}

// QuestionsText renders Stack Overflow questions with answered marks.
func QuestionsText(qs []models.Question) string {
	lines := []string{"Relevant Stack Overflow questions:"}
	for _, q := range qs {
		mark := "✗"
		if q.IsAnswered {
			mark = "✓"
		}
		lines = append(lines,
			fmt.Sprintf("- [%s] %s", mark, q.Title),
			fmt.Sprintf("  Score: %d, Answers: %d", q.Score, q.AnswerCount),
			fmt.Sprintf("  Link: %s", q.Link),
		)
	}
	return strings.Join(lines, "\n")
}

// TrendingText groups trending items by source, in first-seen order.
func TrendingText(items []models.TrendingItem) string {
	var order []string
	bySource := map[string][]models.TrendingItem{}
	for _, it := range items {
		src := it.Source
		if src == "" {
			src = "Unknown"
		}
		if _, ok := bySource[src]; !ok {
			order = append(order, src)
		}
		bySource[src] = append(bySource[src], it)
	}

	var lines []string
	for _, src := range order {
		lines = append(lines, "From "+src+":")
		for _, it := range bySource[src] {
			if it.Type == models.ItemRepository {
				lines = append(lines, fmt.Sprintf("- Repository: [%s](%s)", it.Name, it.URL))
				if it.Description != "" {
					lines = append(lines, "  Description: "+it.Description)
				}
				if it.Popularity != "" {
					lines = append(lines, "  Popularity: "+it.Popularity)
				}
			} else {
				lines = append(lines, fmt.Sprintf("- [%s](%s)", it.Title, it.URL))
				if it.PublishedDate != "" {
					lines = append(lines, "  Published: "+it.PublishedDate)
				}
				if it.Type == models.ItemDiscussion {
					lines = append(lines, fmt.Sprintf("  Upvotes: %d", it.Upvotes))
				}
			}
			lines = append(lines, "")
		}
	}
	return strings.Join(lines, "\n")
}
