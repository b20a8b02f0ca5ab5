package events

import (
	"time"

	"github.com/spec-kit/helpdesk-triage/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated    EventType = "ticket_created"
	EventTicketTriaged    EventType = "ticket_triaged"
	EventTicketClosed     EventType = "ticket_closed"
	EventArticlePublished EventType = "article_published"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Type    domain.SubjectType `json:"type"`
	UserID  *string            `json:"user_id,omitempty"`
	AgentID *string            `json:"agent_id,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id,omitempty"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// TicketTriagedPayload payload.
type TicketTriagedPayload struct {
	TraceID      string                `json:"trace_id"`
	SuggestionID string                `json:"suggestion_id"`
	Category     domain.TicketCategory `json:"category"`
	AutoClosed   bool                  `json:"auto_closed"`
}

// TicketClosedPayload payload.
type TicketClosedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
}

// ArticlePublishedPayload payload.
type ArticlePublishedPayload struct {
	ArticleID string                `json:"article_id"`
	Title     string                `json:"title"`
	Category  domain.TicketCategory `json:"category"`
}
