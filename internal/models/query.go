package models

import "time"

// ChatRequest is the payload for POST /api/chat.
type ChatRequest struct {
	ConversationID string `json:"conversation_id" validate:"required"`
	Question       string `json:"question"        validate:"required"`
	UseRealtime    *bool  `json:"use_realtime"`
	ForceRefresh   bool   `json:"force_refresh"`
}

// Realtime defaults use_realtime to true when the field is absent.
func (r ChatRequest) Realtime() bool {
	return r.UseRealtime == nil || *r.UseRealtime
}

// ResetRequest is the optional payload for POST /api/reset.
type ResetRequest struct {
	ConversationID string `json:"conversation_id" query:"conversation_id"`
}

// Conversation roles as exposed by the API.
const (
	RoleHuman = "human"
	RoleAI    = "ai"
)

// Message is one entry of a conversation history.
type Message struct {
	Role    string    `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"-"`
}

// ContextData is the raw data that fed a chat answer, plus the text
// renderings embedded into the system message.
type ContextData struct {
	Repositories      []Repository   `json:"repositories,omitempty"`
	RepoList          string         `json:"repo_list,omitempty"`
	Issues            []Issue        `json:"issues,omitempty"`
	IssueList         string         `json:"issue_list,omitempty"`
	ContributionGuide string         `json:"contribution_guide,omitempty"`
	Insights          *Insights      `json:"insights,omitempty"`
	InsightText       string         `json:"insight_text,omitempty"`
	StackOverflow     []Question     `json:"stackoverflow,omitempty"`
	StackOverflowText string         `json:"stackoverflow_text,omitempty"`
	Trending          []TrendingItem `json:"trending,omitempty"`
	TrendingText      string         `json:"trending_text,omitempty"`
}

// ChatAnswer is what the orchestrator produces for one question.
type ChatAnswer struct {
	Answer          string           `json:"answer"`
	ContextData     ContextData      `json:"context_data"`
	SourceDocuments []KnowledgeChunk `json:"source_documents,omitempty"`
	Error           string           `json:"error,omitempty"`
}
