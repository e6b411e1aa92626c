package github

import "time"

// Wire types: only the fields the gatherers read are decoded.

type User struct {
	Login   string `json:"login"`
	HTMLURL string `json:"html_url"`
}

type License struct {
	Name   string `json:"name"`
	SPDXID string `json:"spdx_id"`
}

type Repo struct {
	FullName         string    `json:"full_name"`
	Name             string    `json:"name"`
	Owner            User      `json:"owner"`
	Description      string    `json:"description"`
	HTMLURL          string    `json:"html_url"`
	StargazersCount  int       `json:"stargazers_count"`
	ForksCount       int       `json:"forks_count"`
	WatchersCount    int       `json:"watchers_count"`
	SubscribersCount int       `json:"subscribers_count"`
	Language         string    `json:"language"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
	PushedAt         time.Time `json:"pushed_at"`
	OpenIssuesCount  int       `json:"open_issues_count"`
	HasIssues        bool      `json:"has_issues"`
	HasWiki          bool      `json:"has_wiki"`
	Topics           []string  `json:"topics"`
	DefaultBranch    string    `json:"default_branch"`
	License          *License  `json:"license"`
}

// RepoSearch is the body of GET /search/repositories.
type RepoSearch struct {
	TotalCount int    `json:"total_count"`
	Items      []Repo `json:"items"`
}

type Label struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

type Issue struct {
	ID          int64     `json:"id"`
	Number      int       `json:"number"`
	Title       string    `json:"title"`
	HTMLURL     string    `json:"html_url"`
	State       string    `json:"state"`
	Body        string    `json:"body"`
	User        User      `json:"user"`
	Labels      []Label   `json:"labels"`
	Comments    int       `json:"comments"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	PullRequest *struct {
		URL string `json:"url"`
	} `json:"pull_request,omitempty"`
}

// IsPullRequest reports whether the issues endpoint returned a PR.
func (i Issue) IsPullRequest() bool { return i.PullRequest != nil }

type issueSearch struct {
	TotalCount int     `json:"total_count"`
	Items      []Issue `json:"items"`
}

type Contributor struct {
	Login         string `json:"login"`
	HTMLURL       string `json:"html_url"`
	Contributions int    `json:"contributions"`
}

type Commit struct {
	SHA string `json:"sha"`
}

type Pull struct {
	Number    int        `json:"number"`
	State     string     `json:"state"`
	CreatedAt time.Time  `json:"created_at"`
	ClosedAt  *time.Time `json:"closed_at"`
	MergedAt  *time.Time `json:"merged_at"`
}

type CommunityFile struct {
	URL     string `json:"url"`
	HTMLURL string `json:"html_url"`
}

type Community struct {
	HealthPercentage int `json:"health_percentage"`
	Files            struct {
		Readme              *CommunityFile `json:"readme"`
		Contributing        *CommunityFile `json:"contributing"`
		CodeOfConduct       *CommunityFile `json:"code_of_conduct"`
		IssueTemplate       *CommunityFile `json:"issue_template"`
		PullRequestTemplate *CommunityFile `json:"pull_request_template"`
	} `json:"files"`
}

type content struct {
	Path     string `json:"path"`
	Encoding string `json:"encoding"`
	Content  string `json:"content"`
}
