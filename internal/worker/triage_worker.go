package worker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-triage/internal/events"
	"github.com/spec-kit/helpdesk-triage/internal/triage"
)

// TriageWorker runs the triage pipeline for newly created tickets. Each event
// gets its own goroutine; runs for different tickets are independent and may
// proceed concurrently. Failures are logged, never retried here.
type TriageWorker struct {
	pipeline   *triage.Pipeline
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewTriageWorker constructs the worker.
func NewTriageWorker(pipeline *triage.Pipeline, logger *zap.Logger) *TriageWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TriageWorker{pipeline: pipeline, logger: logger}
}

// Register subscribes the worker to ticket_created events.
func (w *TriageWorker) Register(dispatcher events.Dispatcher) {
	if dispatcher == nil || w.pipeline == nil {
		return
	}
	w.dispatcher = dispatcher
	dispatcher.Subscribe(events.EventTicketCreated, w.handleTicketCreated)
}

func (w *TriageWorker) handleTicketCreated(_ context.Context, event events.Event) error {
	ticketID := event.TicketID
	go func() {
		// Detach from the request context: the triage run outlives the
		// HTTP request that created the ticket.
		ctx := context.Background()
		result, err := w.pipeline.Triage(ctx, ticketID)
		if err != nil {
			w.logger.Error("background triage failed",
				zap.String("ticket_id", ticketID),
				zap.Error(err))
			return
		}
		_ = w.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventTicketTriaged,
			TicketID:  ticketID,
			Timestamp: time.Now(),
			Payload: events.TicketTriagedPayload{
				TraceID:      result.TraceID,
				SuggestionID: result.SuggestionID,
				Category:     result.Category,
				AutoClosed:   result.Decision.AutoClose,
			},
		})
	}()
	return nil
}
