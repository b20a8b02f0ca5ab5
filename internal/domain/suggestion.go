package domain

import "time"

// AgentSuggestion captures the output of one triage run. It is created exactly
// once per run and never mutated afterwards.
type AgentSuggestion struct {
	ID                string
	TicketID          string
	TraceID           string
	PredictedCategory TicketCategory
	CitedArticleIDs   []string
	DraftReply        string
	Confidence        float64
	AutoClosed        bool
	ClassifierName    string
	DraftLatencyMs    int64
	CreatedAt         time.Time
}
