package chat

import (
	"encoding/json"
	"time"

	"github.com/pendohq/pendo-assistant/internal/attachments"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

type ConversationStatus string

const (
	StatusActive   ConversationStatus = "active"
	StatusArchived ConversationStatus = "archived"
)

type ConversationType string

const (
	TypeChat         ConversationType = "chat"
	TypeJobSearch    ConversationType = "job_search"
	TypeCareerAdvice ConversationType = "career_advice"
)

type Message struct {
	ID             string          `json:"id" db:"id"`
	ConversationID string          `json:"conversation_id" db:"conversation_id"`
	Role           Role            `json:"role" db:"role"`
	Content        string          `json:"content" db:"content"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	Metadata       json.RawMessage `json:"metadata,omitempty" db:"metadata"`
}

type Conversation struct {
	ID        string             `json:"id" db:"id"`
	UserID    string             `json:"user_id" db:"user_id"`
	Title     string             `json:"title,omitempty" db:"title"`
	Status    ConversationStatus `json:"status" db:"status"`
	Type      ConversationType   `json:"type" db:"type"`
	CreatedAt time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt time.Time          `json:"updated_at" db:"updated_at"`
}

// AgentRequest is the body of POST /api/pendo-agent. Query is accepted as an
// alias of Content for older frontends.
type AgentRequest struct {
	Content        string                       `json:"content"`
	Query          string                       `json:"query,omitempty"`
	UserID         string                       `json:"user_id"`
	ConversationID string                       `json:"conversation_id,omitempty"`
	SessionID      string                       `json:"session_id,omitempty"`
	Stream         bool                         `json:"stream,omitempty"`
	Files          []attachments.FileAttachment `json:"files,omitempty"`
}

func (r AgentRequest) ActualContent() string {
	if r.Content != "" {
		return r.Content
	}
	return r.Query
}

type AgentResponse struct {
	Response       string `json:"response"`
	SessionID      string `json:"session_id"`
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id"`
}

type GetMessagesResponse struct {
	Messages []Message `json:"messages"`
}

type GetConversationsResponse struct {
	Conversations []Conversation `json:"conversations"`
}
