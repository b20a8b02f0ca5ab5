package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-triage/internal/api/dto"
	"github.com/spec-kit/helpdesk-triage/internal/auth"
	"github.com/spec-kit/helpdesk-triage/internal/domain"
	"github.com/spec-kit/helpdesk-triage/internal/service"
	"github.com/spec-kit/helpdesk-triage/internal/triage"
	apperrors "github.com/spec-kit/helpdesk-triage/pkg/util"
)

// TriageHandler exposes agent-facing triage and audit endpoints.
type TriageHandler struct {
	pipeline *triage.Pipeline
	tickets  *service.TicketService
}

// NewTriageHandler constructs handler.
func NewTriageHandler(pipeline *triage.Pipeline, tickets *service.TicketService) *TriageHandler {
	return &TriageHandler{pipeline: pipeline, tickets: tickets}
}

// TriggerTriage POST /tickets/:id/triage. Runs the pipeline synchronously so
// the agent sees the outcome; re-running is additive (new suggestion, new
// trace id).
func (h *TriageHandler) TriggerTriage(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Agent == nil {
		return apperrors.NewUnauthorized("agent required")
	}
	result, err := h.pipeline.Triage(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.TriageResponse{
		TraceID:       result.TraceID,
		SuggestionID:  result.SuggestionID,
		AutoClosed:    result.Decision.AutoClose,
		AssignToHuman: result.Decision.AssignToHuman,
	}})
}

// ListSuggestions GET /tickets/:id/suggestions.
func (h *TriageHandler) ListSuggestions(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Agent == nil {
		return apperrors.NewUnauthorized("agent required")
	}
	suggestions, err := h.tickets.ListSuggestions(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.SuggestionResponse, 0, len(suggestions))
	for i := range suggestions {
		items = append(items, suggestionResponse(&suggestions[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetAuditTrail GET /audit/:traceId.
func (h *TriageHandler) GetAuditTrail(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Agent == nil {
		return apperrors.NewUnauthorized("agent required")
	}
	entries, err := h.tickets.ListAuditTrail(c.Context(), c.Params("traceId"))
	if err != nil {
		return err
	}
	items := make([]dto.AuditEntryResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, dto.AuditEntryResponse{
			ID:        entry.ID,
			TraceID:   entry.TraceID,
			TicketID:  entry.TicketID,
			Actor:     entry.Actor,
			Action:    entry.Action,
			Metadata:  entry.Metadata,
			CreatedAt: entry.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicket GET /agent/tickets/:id — agents can inspect any ticket.
func (h *TriageHandler) GetTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Agent == nil {
		return apperrors.NewUnauthorized("agent required")
	}
	ticket, err := h.tickets.GetTicketForAgent(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket)})
}

func suggestionResponse(s *domain.AgentSuggestion) dto.SuggestionResponse {
	return dto.SuggestionResponse{
		ID:                s.ID,
		TicketID:          s.TicketID,
		TraceID:           s.TraceID,
		PredictedCategory: s.PredictedCategory,
		CitedArticleIDs:   s.CitedArticleIDs,
		DraftReply:        s.DraftReply,
		Confidence:        s.Confidence,
		AutoClosed:        s.AutoClosed,
		ClassifierName:    s.ClassifierName,
		DraftLatencyMs:    s.DraftLatencyMs,
		CreatedAt:         s.CreatedAt,
	}
}
