package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen         TicketStatus = "OPEN"
	TicketStatusTriaged      TicketStatus = "TRIAGED"
	TicketStatusWaitingHuman TicketStatus = "WAITING_HUMAN"
	TicketStatusResolved     TicketStatus = "RESOLVED"
	TicketStatusClosed       TicketStatus = "CLOSED"
)

// TicketCategory enumerates the categories the classifier can predict.
type TicketCategory string

const (
	CategoryBilling  TicketCategory = "BILLING"
	CategoryTech     TicketCategory = "TECH"
	CategoryShipping TicketCategory = "SHIPPING"
	CategoryOther    TicketCategory = "OTHER"
)

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID           string
	ExternalKey  string
	RequesterID  string
	Title        string
	Description  string
	Category     TicketCategory
	Status       TicketStatus
	SuggestionID *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	ClosedAt     *time.Time
}
