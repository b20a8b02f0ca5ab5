package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-triage/internal/domain"
	"github.com/spec-kit/helpdesk-triage/internal/events"
	"github.com/spec-kit/helpdesk-triage/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-triage/pkg/util"
)

type memTicketRepo struct {
	tickets map[string]domain.Ticket
	seq     int
}

func newMemTicketRepo() *memTicketRepo {
	return &memTicketRepo{tickets: map[string]domain.Ticket{}}
}

func (r *memTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.seq++
	ticket.ID = fmt.Sprintf("tkt-%d", r.seq)
	r.tickets[ticket.ID] = *ticket
	return nil
}

func (r *memTicketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	if _, ok := r.tickets[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.tickets[ticket.ID] = *ticket
	return nil
}

func (r *memTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := ticket
	return &copied, nil
}

func (r *memTicketRepo) GetByExternalKey(_ context.Context, key string) (*domain.Ticket, error) {
	for _, ticket := range r.tickets {
		if ticket.ExternalKey == key {
			copied := ticket
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memTicketRepo) ListWithFilter(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for _, ticket := range r.tickets {
		if filter.RequesterID != nil && ticket.RequesterID != *filter.RequesterID {
			continue
		}
		result = append(result, ticket)
	}
	return result, nil
}

type memSuggestionRepo struct {
	suggestions []domain.AgentSuggestion
}

func (r *memSuggestionRepo) Create(_ context.Context, suggestion *domain.AgentSuggestion) error {
	suggestion.ID = fmt.Sprintf("sug-%d", len(r.suggestions)+1)
	r.suggestions = append(r.suggestions, *suggestion)
	return nil
}

func (r *memSuggestionRepo) GetByID(_ context.Context, id string) (*domain.AgentSuggestion, error) {
	for i := range r.suggestions {
		if r.suggestions[i].ID == id {
			copied := r.suggestions[i]
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memSuggestionRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.AgentSuggestion, error) {
	var result []domain.AgentSuggestion
	for _, suggestion := range r.suggestions {
		if suggestion.TicketID == ticketID {
			result = append(result, suggestion)
		}
	}
	return result, nil
}

type memAuditRepo struct {
	entries []domain.AuditLogEntry
}

func (r *memAuditRepo) Append(_ context.Context, entry *domain.AuditLogEntry) error {
	entry.ID = fmt.Sprintf("aud-%d", len(r.entries)+1)
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *memAuditRepo) ListByTrace(_ context.Context, traceID string) ([]domain.AuditLogEntry, error) {
	var result []domain.AuditLogEntry
	for _, entry := range r.entries {
		if entry.TraceID == traceID {
			result = append(result, entry)
		}
	}
	return result, nil
}

func (r *memAuditRepo) ListByTicket(_ context.Context, ticketID string, _, _ int) ([]domain.AuditLogEntry, error) {
	var result []domain.AuditLogEntry
	for _, entry := range r.entries {
		if entry.TicketID == ticketID {
			result = append(result, entry)
		}
	}
	return result, nil
}

func newTicketServiceFixture() (*TicketService, *memTicketRepo, *memAuditRepo, events.Dispatcher) {
	tickets := newMemTicketRepo()
	audit := &memAuditRepo{}
	dispatcher := events.NewInMemoryDispatcher(nil)
	svc := NewTicketService(TicketDependencies{
		TicketRepo:     tickets,
		SuggestionRepo: &memSuggestionRepo{},
		AuditRepo:      audit,
		Dispatcher:     dispatcher,
	})
	return svc, tickets, audit, dispatcher
}

func TestCreateTicketPublishesEvent(t *testing.T) {
	svc, _, _, dispatcher := newTicketServiceFixture()

	var received []events.Event
	dispatcher.Subscribe(events.EventTicketCreated, func(_ context.Context, event events.Event) error {
		received = append(received, event)
		return nil
	})

	ticket, err := svc.CreateTicket(context.Background(), "user-1", TicketCreateInput{
		Title:       "  Refund needed  ",
		Description: "I was charged twice",
	})
	if err != nil {
		t.Fatalf("CreateTicket() error = %v", err)
	}
	if ticket.Title != "Refund needed" {
		t.Errorf("title = %q, want trimmed", ticket.Title)
	}
	if !strings.HasPrefix(ticket.ExternalKey, "TCK-") {
		t.Errorf("external key = %q, want TCK- prefix", ticket.ExternalKey)
	}
	if ticket.Status != domain.TicketStatusOpen {
		t.Errorf("status = %q, want OPEN", ticket.Status)
	}
	if ticket.Category != domain.CategoryOther {
		t.Errorf("category = %q, want OTHER", ticket.Category)
	}

	if len(received) != 1 {
		t.Fatalf("published events = %d, want 1", len(received))
	}
	if received[0].TicketID != ticket.ID {
		t.Errorf("event ticket id = %q, want %q", received[0].TicketID, ticket.ID)
	}
	if received[0].Actor.UserID == nil || *received[0].Actor.UserID != "user-1" {
		t.Errorf("event actor = %+v, want user-1", received[0].Actor)
	}
}

func TestCreateTicketRequiresTitle(t *testing.T) {
	svc, _, _, _ := newTicketServiceFixture()

	_, err := svc.CreateTicket(context.Background(), "user-1", TicketCreateInput{
		Title: "   ",
	})
	if err == nil {
		t.Fatal("CreateTicket() error = nil, want validation failure")
	}
	var domainErr *apperrors.DomainError
	if !errors.As(err, &domainErr) || domainErr.Code != "VALIDATION_FAILED" {
		t.Errorf("error = %v, want VALIDATION_FAILED", err)
	}
}

func TestGetTicketForUserOwnership(t *testing.T) {
	svc, _, _, _ := newTicketServiceFixture()
	ticket, err := svc.CreateTicket(context.Background(), "user-1", TicketCreateInput{Title: "Login broken"})
	if err != nil {
		t.Fatalf("CreateTicket() error = %v", err)
	}

	if _, err := svc.GetTicketForUser(context.Background(), "user-1", ticket.ID); err != nil {
		t.Errorf("owner access error = %v, want nil", err)
	}

	_, err = svc.GetTicketForUser(context.Background(), "user-2", ticket.ID)
	var domainErr *apperrors.DomainError
	if !errors.As(err, &domainErr) || domainErr.Code != "FORBIDDEN" {
		t.Errorf("foreign access error = %v, want FORBIDDEN", err)
	}

	_, err = svc.GetTicketForUser(context.Background(), "user-1", "missing")
	if !apperrors.IsNotFound(err) {
		t.Errorf("missing ticket error = %v, want NotFound", err)
	}
}

func TestCloseTicketAsUser(t *testing.T) {
	svc, tickets, _, dispatcher := newTicketServiceFixture()

	var closed []events.Event
	dispatcher.Subscribe(events.EventTicketClosed, func(_ context.Context, event events.Event) error {
		closed = append(closed, event)
		return nil
	})

	ticket, err := svc.CreateTicket(context.Background(), "user-1", TicketCreateInput{Title: "Package lost"})
	if err != nil {
		t.Fatalf("CreateTicket() error = %v", err)
	}

	// An open ticket has not been triaged; closing it is rejected.
	_, err = svc.CloseTicketAsUser(context.Background(), "user-1", ticket.ID)
	var domainErr *apperrors.DomainError
	if !errors.As(err, &domainErr) || domainErr.Code != "CONFLICT" {
		t.Fatalf("close open ticket error = %v, want CONFLICT", err)
	}

	stored := tickets.tickets[ticket.ID]
	stored.Status = domain.TicketStatusWaitingHuman
	tickets.tickets[ticket.ID] = stored

	updated, err := svc.CloseTicketAsUser(context.Background(), "user-1", ticket.ID)
	if err != nil {
		t.Fatalf("CloseTicketAsUser() error = %v", err)
	}
	if updated.Status != domain.TicketStatusClosed {
		t.Errorf("status = %q, want CLOSED", updated.Status)
	}
	if updated.ClosedAt == nil {
		t.Error("ClosedAt = nil, want set")
	}
	if len(closed) != 1 {
		t.Fatalf("closed events = %d, want 1", len(closed))
	}
	payload, ok := closed[0].Payload.(events.TicketClosedPayload)
	if !ok {
		t.Fatalf("payload type = %T, want TicketClosedPayload", closed[0].Payload)
	}
	if payload.OldStatus != domain.TicketStatusWaitingHuman {
		t.Errorf("old status = %q, want WAITING_HUMAN", payload.OldStatus)
	}
}

func TestListAuditTrailUnknownTrace(t *testing.T) {
	svc, _, _, _ := newTicketServiceFixture()

	_, err := svc.ListAuditTrail(context.Background(), "no-such-trace")
	if !apperrors.IsNotFound(err) {
		t.Errorf("error = %v, want NotFound", err)
	}
}

func TestListAuditTrailReturnsRunEntries(t *testing.T) {
	svc, _, audit, _ := newTicketServiceFixture()
	for _, action := range []domain.AuditAction{domain.AuditActionAgentPlan, domain.AuditActionAutoClosed} {
		_ = audit.Append(context.Background(), &domain.AuditLogEntry{
			TraceID:  "trace-1",
			TicketID: "tkt-1",
			Actor:    domain.AuditActorSystem,
			Action:   action,
		})
	}
	_ = audit.Append(context.Background(), &domain.AuditLogEntry{
		TraceID:  "trace-2",
		TicketID: "tkt-1",
		Actor:    domain.AuditActorSystem,
		Action:   domain.AuditActionAgentPlan,
	})

	entries, err := svc.ListAuditTrail(context.Background(), "trace-1")
	if err != nil {
		t.Fatalf("ListAuditTrail() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	for _, entry := range entries {
		if entry.TraceID != "trace-1" {
			t.Errorf("entry trace = %q, want trace-1", entry.TraceID)
		}
	}
}
