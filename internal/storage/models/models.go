package models

import (
	"encoding/json"
	"time"
)

type EventType string

const (
	EventMessageReceived    EventType = "message_received"
	EventAgentThinking      EventType = "agent_thinking"
	EventToolsExecuting     EventType = "tools_executing"
	EventToolSearchDocs     EventType = "tool_search_documents"
	EventResponseGenerating EventType = "response_generating"
	EventError              EventType = "error"
)

type EventStatus string

const (
	StatusStarted   EventStatus = "started"
	StatusCompleted EventStatus = "completed"
	StatusFailed    EventStatus = "failed"
)

type ChatSession struct {
	ID        string
	UserID    string
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MessageContent is the decoded form of ChatMessage.Content. Assistant turns
// may carry the sources the answer was grounded on.
type MessageContent struct {
	Text    string          `json:"text"`
	Sources []MessageSource `json:"sources,omitempty"`
}

type MessageSource struct {
	Title        string `json:"title,omitempty"`
	URL          string `json:"url,omitempty"`
	CollectionID string `json:"collection_id,omitempty"`
}

type ChatMessage struct {
	ID        string
	SessionID string
	Role      string
	Content   string
	Ordinal   int
	CreatedAt time.Time
}

// DecodeContent tolerates legacy rows where Content is bare text rather than
// a JSON payload.
func (m *ChatMessage) DecodeContent() MessageContent {
	var content MessageContent
	if err := json.Unmarshal([]byte(m.Content), &content); err != nil {
		return MessageContent{Text: m.Content}
	}
	return content
}

// ToolPayload is the payload shape emitted by retrieval-tool events.
type ToolPayload struct {
	Tool       string `json:"tool,omitempty"`
	Collection string `json:"collection,omitempty"`
	Count      *int   `json:"count,omitempty"`
}

type ChatEvent struct {
	ID               string
	SessionID        string
	MessageID        string
	EventType        EventType
	Status           EventStatus
	Payload          string
	ProcessingTimeMS *int
	CreatedAt        time.Time
}

// DecodeToolPayload never fails; malformed payloads degrade to the zero value
// so consumers bucket them under "unknown".
func (e *ChatEvent) DecodeToolPayload() ToolPayload {
	var p ToolPayload
	if e.Payload == "" {
		return p
	}
	_ = json.Unmarshal([]byte(e.Payload), &p)
	return p
}

type MessageRating struct {
	ID        int
	MessageID string
	SessionID string
	Rating    int
	CreatedAt time.Time
}

type Collection struct {
	ID        string
	Name      string
	Type      string
	CreatedAt time.Time
}

type Document struct {
	ID           string
	CollectionID string
	Filename     string
	SizeBytes    int64
	Indexed      bool
	Public       bool
	IndexedAt    *time.Time
	CreatedAt    time.Time
}

type Webpage struct {
	ID           string
	CollectionID string
	URL          string
	HTTPStatus   int
	Indexed      bool
	IndexedAt    *time.Time
	CreatedAt    time.Time
}
