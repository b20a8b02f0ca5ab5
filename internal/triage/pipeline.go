package triage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-triage/internal/domain"
	"github.com/spec-kit/helpdesk-triage/internal/observability"
	"github.com/spec-kit/helpdesk-triage/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-triage/pkg/util"
)

// Config store keys and fallback defaults for the decision policy. Missing or
// malformed keys never fail a run; the defaults apply instead.
const (
	ConfigKeyAutoCloseEnabled    = "triage.auto_close_enabled"
	ConfigKeyConfidenceThreshold = "triage.confidence_threshold"

	DefaultAutoCloseEnabled    = true
	DefaultConfidenceThreshold = 0.78
)

const retrieveLimit = 3

// Result is returned to the caller of a successful triage run.
type Result struct {
	TraceID      string
	SuggestionID string
	Category     domain.TicketCategory
	Decision     Decision
}

// Pipeline orchestrates classify, retrieve, draft and decide for one ticket,
// persisting an AgentSuggestion and an audit entry per step.
type Pipeline struct {
	tickets     repository.TicketRepository
	articles    repository.ArticleRepository
	suggestions repository.SuggestionRepository
	audit       repository.AuditLogRepository
	config      repository.ConfigRepository
	metrics     *observability.Metrics
	logger      *zap.Logger
}

// PipelineDependencies bundles the stores the pipeline needs.
type PipelineDependencies struct {
	TicketRepo     repository.TicketRepository
	ArticleRepo    repository.ArticleRepository
	SuggestionRepo repository.SuggestionRepository
	AuditRepo      repository.AuditLogRepository
	ConfigRepo     repository.ConfigRepository
	Metrics        *observability.Metrics
	Logger         *zap.Logger
}

// NewPipeline constructs the pipeline.
func NewPipeline(deps PipelineDependencies) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		tickets:     deps.TicketRepo,
		articles:    deps.ArticleRepo,
		suggestions: deps.SuggestionRepo,
		audit:       deps.AuditRepo,
		config:      deps.ConfigRepo,
		metrics:     deps.Metrics,
		logger:      logger,
	}
}

// Triage runs the full workflow for one ticket. Steps run strictly in order;
// each writes one audit entry tagged with a trace id generated at the start.
// A failed step records a TRIAGE_FAILED entry and the error propagates to the
// caller. Retrying creates a new suggestion under a new trace id.
func (p *Pipeline) Triage(ctx context.Context, ticketID string) (*Result, error) {
	traceID := uuid.NewString()

	ticket, err := p.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, p.fail(ctx, traceID, ticketID, "load_ticket", err)
	}

	p.logStep(ctx, traceID, ticket.ID, domain.AuditActionAgentPlan, map[string]any{
		"title": ticket.Title,
		"steps": []string{"classify", "retrieve", "draft", "decide"},
	})

	prediction := Classify(ticket.Title + " " + ticket.Description)
	p.logStep(ctx, traceID, ticket.ID, domain.AuditActionAgentClassified, map[string]any{
		"category":   prediction.Category,
		"confidence": prediction.Confidence,
		"hits":       prediction.Hits,
	})

	query := ticket.Description
	if query == "" {
		query = ticket.Title
	}
	candidates, err := p.articles.FindPublished(ctx, repository.ArticleFilter{})
	if err != nil {
		return nil, p.fail(ctx, traceID, ticket.ID, "retrieve", err)
	}
	ranked := RankArticles(query, candidates, retrieveLimit)
	p.logStep(ctx, traceID, ticket.ID, domain.AuditActionKBRetrieved, map[string]any{
		"article_ids": articleIDs(ranked),
		"candidates":  len(candidates),
	})

	draftStart := time.Now()
	draft := DraftReply(query, ranked)
	draftLatency := time.Since(draftStart).Milliseconds()
	p.logStep(ctx, traceID, ticket.ID, domain.AuditActionDraftGenerated, map[string]any{
		"citations":  draft.Citations,
		"latency_ms": draftLatency,
	})

	policy := p.loadPolicy(ctx, traceID)
	decision := Decide(prediction.Confidence, policy)
	p.logStep(ctx, traceID, ticket.ID, domain.AuditActionDecisionMade, map[string]any{
		"auto_close": decision.AutoClose,
		"threshold":  policy.ConfidenceThreshold,
		"confidence": prediction.Confidence,
		"enabled":    policy.AutoCloseEnabled,
	})

	suggestion := &domain.AgentSuggestion{
		TicketID:          ticket.ID,
		TraceID:           traceID,
		PredictedCategory: prediction.Category,
		CitedArticleIDs:   draft.Citations,
		DraftReply:        draft.Reply,
		Confidence:        prediction.Confidence,
		AutoClosed:        decision.AutoClose,
		ClassifierName:    ClassifierName,
		DraftLatencyMs:    draftLatency,
	}
	if err := p.suggestions.Create(ctx, suggestion); err != nil {
		return nil, p.fail(ctx, traceID, ticket.ID, "persist_suggestion",
			apperrors.NewPersistenceError("suggestion create", err))
	}

	ticket.Category = prediction.Category
	if decision.AutoClose {
		ticket.Status = domain.TicketStatusResolved
	} else {
		ticket.Status = domain.TicketStatusWaitingHuman
	}
	ticket.SuggestionID = &suggestion.ID
	if err := p.tickets.Update(ctx, ticket); err != nil {
		return nil, p.fail(ctx, traceID, ticket.ID, "update_ticket",
			apperrors.NewPersistenceError("ticket update", err))
	}

	finalAction := domain.AuditActionAssignedToHuman
	if decision.AutoClose {
		finalAction = domain.AuditActionAutoClosed
	}
	p.logStep(ctx, traceID, ticket.ID, finalAction, map[string]any{
		"suggestion_id": suggestion.ID,
	})
	p.metrics.RecordTriage(string(finalAction))

	p.logger.Info("triage completed",
		zap.String("trace_id", traceID),
		zap.String("ticket_id", ticket.ID),
		zap.String("category", string(prediction.Category)),
		zap.Bool("auto_close", decision.AutoClose),
	)

	return &Result{
		TraceID:      traceID,
		SuggestionID: suggestion.ID,
		Category:     prediction.Category,
		Decision:     decision,
	}, nil
}

// loadPolicy reads the decision flags from the config store. Absent keys fall
// back to defaults; malformed or out-of-range values are replaced with the
// default and logged as a warning. Never returns an error.
func (p *Pipeline) loadPolicy(ctx context.Context, traceID string) Policy {
	policy := Policy{
		AutoCloseEnabled:    DefaultAutoCloseEnabled,
		ConfidenceThreshold: DefaultConfidenceThreshold,
	}

	if entry, err := p.config.GetValue(ctx, ConfigKeyAutoCloseEnabled); err == nil {
		if enabled, err := entry.Bool(); err == nil {
			policy.AutoCloseEnabled = enabled
		} else {
			p.logger.Warn("invalid auto-close config, using default",
				zap.String("trace_id", traceID), zap.Error(err))
		}
	} else if !errors.Is(err, pgx.ErrNoRows) {
		p.logger.Warn("config lookup failed, using default",
			zap.String("trace_id", traceID),
			zap.String("key", ConfigKeyAutoCloseEnabled), zap.Error(err))
	}

	if entry, err := p.config.GetValue(ctx, ConfigKeyConfidenceThreshold); err == nil {
		threshold, err := entry.Number()
		if err != nil || threshold < 0 || threshold > 1 {
			p.logger.Warn("invalid confidence threshold, using default",
				zap.String("trace_id", traceID),
				zap.Float64("value", threshold), zap.Error(err))
		} else {
			policy.ConfidenceThreshold = threshold
		}
	} else if !errors.Is(err, pgx.ErrNoRows) {
		p.logger.Warn("config lookup failed, using default",
			zap.String("trace_id", traceID),
			zap.String("key", ConfigKeyConfidenceThreshold), zap.Error(err))
	}

	return policy
}

// logStep appends one audit entry. Append failures are logged and swallowed:
// the audit trail must not abort the run.
func (p *Pipeline) logStep(ctx context.Context, traceID, ticketID string, action domain.AuditAction, metadata map[string]any) {
	entry := &domain.AuditLogEntry{
		TraceID:  traceID,
		TicketID: ticketID,
		Actor:    domain.AuditActorSystem,
		Action:   action,
		Metadata: metadata,
	}
	if err := p.audit.Append(ctx, entry); err != nil {
		p.logger.Warn("audit append failed",
			zap.String("trace_id", traceID),
			zap.String("action", string(action)),
			zap.Error(err))
	}
}

// fail records a failure audit entry and wraps the error with stage context
// before it propagates.
func (p *Pipeline) fail(ctx context.Context, traceID, ticketID, stage string, err error) error {
	p.logStep(ctx, traceID, ticketID, domain.AuditActionTriageFailed, map[string]any{
		"stage": stage,
		"error": err.Error(),
	})
	p.metrics.RecordTriage(string(domain.AuditActionTriageFailed))
	p.logger.Error("triage stage failed",
		zap.String("trace_id", traceID),
		zap.String("ticket_id", ticketID),
		zap.String("stage", stage),
		zap.Error(err))
	return fmt.Errorf("triage stage %s (trace %s): %w", stage, traceID, err)
}

func articleIDs(articles []domain.Article) []string {
	ids := make([]string, 0, len(articles))
	for _, article := range articles {
		ids = append(ids, article.ID)
	}
	return ids
}
