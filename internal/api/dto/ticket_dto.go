package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-triage/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// TicketSummary response.
type TicketSummary struct {
	ID           string                `json:"id"`
	ExternalKey  string                `json:"external_key"`
	Title        string                `json:"title"`
	Category     domain.TicketCategory `json:"category"`
	Status       domain.TicketStatus   `json:"status"`
	SuggestionID *string               `json:"suggestion_id,omitempty"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

// TicketDetailResponse provides full ticket info.
type TicketDetailResponse struct {
	ID           string                `json:"id"`
	ExternalKey  string                `json:"external_key"`
	Title        string                `json:"title"`
	Description  string                `json:"description"`
	Category     domain.TicketCategory `json:"category"`
	Status       domain.TicketStatus   `json:"status"`
	SuggestionID *string               `json:"suggestion_id,omitempty"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
	ClosedAt     *time.Time            `json:"closed_at,omitempty"`
}

// SuggestionResponse represents one triage run outcome.
type SuggestionResponse struct {
	ID                string                `json:"id"`
	TicketID          string                `json:"ticket_id"`
	TraceID           string                `json:"trace_id"`
	PredictedCategory domain.TicketCategory `json:"predicted_category"`
	CitedArticleIDs   []string              `json:"cited_article_ids"`
	DraftReply        string                `json:"draft_reply"`
	Confidence        float64               `json:"confidence"`
	AutoClosed        bool                  `json:"auto_closed"`
	ClassifierName    string                `json:"classifier_name"`
	DraftLatencyMs    int64                 `json:"draft_latency_ms"`
	CreatedAt         time.Time             `json:"created_at"`
}

// AuditEntryResponse represents one audit trail entry.
type AuditEntryResponse struct {
	ID        string             `json:"id"`
	TraceID   string             `json:"trace_id"`
	TicketID  string             `json:"ticket_id"`
	Actor     string             `json:"actor"`
	Action    domain.AuditAction `json:"action"`
	Metadata  map[string]any     `json:"metadata"`
	CreatedAt time.Time          `json:"created_at"`
}

// TriageResponse is returned from a synchronous triage trigger.
type TriageResponse struct {
	TraceID       string `json:"trace_id"`
	SuggestionID  string `json:"suggestion_id"`
	AutoClosed    bool   `json:"auto_closed"`
	AssignToHuman bool   `json:"assign_to_human"`
}
