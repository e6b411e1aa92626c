package models

import "time"

// Repository is a GitHub repository as surfaced to the user. It is rebuilt
// from the search API on every uncached call.
type Repository struct {
	Name            string    `json:"name"` // full name, e.g. "facebook/react"
	Description     string    `json:"description"`
	URL             string    `json:"url"`
	Stars           int       `json:"stars"`
	Forks           int       `json:"forks"`
	Language        string    `json:"language"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	OpenIssuesCount int       `json:"open_issues_count"`
	HasIssues       bool      `json:"has_issues"`
	Topics          []string  `json:"topics"`
	DefaultBranch   string    `json:"default_branch"`
}

// Label is an issue-tracker label.
type Label struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Issue captures the fields we surface for an open GitHub issue.
type Issue struct {
	Title              string    `json:"title"`
	Number             int       `json:"number"`
	URL                string    `json:"url"`
	Labels             []Label   `json:"labels"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
	Comments           int       `json:"comments"`
	Description        string    `json:"description"`
	User               string    `json:"user"`
	IsBeginnerFriendly bool      `json:"is_beginner_friendly"`
}

// Guide is the contribution guide text for a repository.
type Guide struct {
	Repo    string `json:"repo"`
	Source  string `json:"source"` // file name the guide came from, or "generated"
	Content string `json:"content"`
}

// GuideGenerated marks a guide synthesized from repository metadata.
const GuideGenerated = "generated"

// Contributor is one of the top contributors of a repository.
type Contributor struct {
	Login         string `json:"login"`
	Contributions int    `json:"contributions"`
	URL           string `json:"url"`
}

// CommunityProfile mirrors GitHub's community health files summary.
type CommunityProfile struct {
	HasReadme              bool `json:"has_readme"`
	HasContributing        bool `json:"has_contributing"`
	HasCodeOfConduct       bool `json:"has_code_of_conduct"`
	HasIssueTemplate       bool `json:"has_issue_template"`
	HasPullRequestTemplate bool `json:"has_pull_request_template"`
	HealthPercentage       int  `json:"health_percentage"`
}

// PullRequestStats summarises recent pull request handling.
type PullRequestStats struct {
	Open         int     `json:"open"`
	MergedRate   float64 `json:"merged_rate"` // percent, one decimal
	ResponseTime string  `json:"response_time"`
}

// Technology is one language's share of the repository's bytes.
type Technology struct {
	Name       string  `json:"name"`
	Percentage float64 `json:"percentage"`
}

// Insights aggregates activity and community signals for a repository.
type Insights struct {
	RepoName         string           `json:"repo_name"`
	Stars            int              `json:"stars"`
	Forks            int              `json:"forks"`
	Watchers         int              `json:"watchers"`
	OpenIssues       int              `json:"open_issues"`
	DefaultBranch    string           `json:"default_branch"`
	License          string           `json:"license"`
	Contributors     []Contributor    `json:"contributors"`
	CommitFrequency  string           `json:"commit_frequency"`
	CommunityProfile CommunityProfile `json:"community_profile"`
	PullRequests     PullRequestStats `json:"pull_requests"`
	Technologies     []Technology     `json:"technologies"`
	RelatedResources []TrendingItem   `json:"related_resources"`
}

// Trending item types.
const (
	ItemRepository = "repository"
	ItemArticle    = "article"
	ItemDiscussion = "discussion"
)

// TrendingItem is one result of the trending crawl, tagged with the source
// it came from and what kind of thing it is.
type TrendingItem struct {
	Source        string `json:"source"`
	Type          string `json:"type"`
	Name          string `json:"name,omitempty"`
	Title         string `json:"title,omitempty"`
	URL           string `json:"url"`
	Description   string `json:"description,omitempty"`
	Popularity    string `json:"popularity,omitempty"`
	PublishedDate string `json:"published_date,omitempty"`
	Upvotes       int    `json:"upvotes,omitempty"`
}

// Question is a Stack Overflow question.
type Question struct {
	Title       string   `json:"title"`
	Link        string   `json:"link"`
	Score       int      `json:"score"`
	AnswerCount int      `json:"answer_count"`
	Tags        []string `json:"tags"`
	IsAnswered  bool     `json:"is_answered"`
}

// KnowledgeChunk is a curated text chunk returned by the vector index.
type KnowledgeChunk struct {
	ID     string  `bson:"_id" json:"id"`
	Text   string  `bson:"text" json:"text"`
	Source string  `bson:"source" json:"source"`
	Score  float64 `bson:"score" json:"score"`
}
