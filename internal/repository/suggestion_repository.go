package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-triage/internal/domain"
)

// SuggestionRepository stores triage outputs. Suggestions are immutable once
// written, so the interface offers no update.
type SuggestionRepository interface {
	Create(ctx context.Context, suggestion *domain.AgentSuggestion) error
	GetByID(ctx context.Context, id string) (*domain.AgentSuggestion, error)
	ListByTicket(ctx context.Context, ticketID string) ([]domain.AgentSuggestion, error)
}

type suggestionRepository struct {
	pool *pgxpool.Pool
}

// NewSuggestionRepository builds repository.
func NewSuggestionRepository(pool *pgxpool.Pool) SuggestionRepository {
	return &suggestionRepository{pool: pool}
}

func (r *suggestionRepository) Create(ctx context.Context, suggestion *domain.AgentSuggestion) error {
	const query = `
        INSERT INTO agent_suggestions (ticket_id, trace_id, predicted_category, cited_article_ids,
            draft_reply, confidence, auto_closed, classifier_name, draft_latency_ms)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		suggestion.TicketID,
		suggestion.TraceID,
		suggestion.PredictedCategory,
		suggestion.CitedArticleIDs,
		suggestion.DraftReply,
		suggestion.Confidence,
		suggestion.AutoClosed,
		suggestion.ClassifierName,
		suggestion.DraftLatencyMs,
	).Scan(&suggestion.ID, &suggestion.CreatedAt)
}

func (r *suggestionRepository) GetByID(ctx context.Context, id string) (*domain.AgentSuggestion, error) {
	const query = `
        SELECT id, ticket_id, trace_id, predicted_category, cited_article_ids, draft_reply,
               confidence, auto_closed, classifier_name, draft_latency_ms, created_at
        FROM agent_suggestions WHERE id=$1`
	var suggestion domain.AgentSuggestion
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&suggestion.ID,
		&suggestion.TicketID,
		&suggestion.TraceID,
		&suggestion.PredictedCategory,
		&suggestion.CitedArticleIDs,
		&suggestion.DraftReply,
		&suggestion.Confidence,
		&suggestion.AutoClosed,
		&suggestion.ClassifierName,
		&suggestion.DraftLatencyMs,
		&suggestion.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &suggestion, nil
}

func (r *suggestionRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.AgentSuggestion, error) {
	const query = `
        SELECT id, ticket_id, trace_id, predicted_category, cited_article_ids, draft_reply,
               confidence, auto_closed, classifier_name, draft_latency_ms, created_at
        FROM agent_suggestions WHERE ticket_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSuggestions(rows)
}

func scanSuggestions(rows pgx.Rows) ([]domain.AgentSuggestion, error) {
	var result []domain.AgentSuggestion
	for rows.Next() {
		var suggestion domain.AgentSuggestion
		if err := rows.Scan(
			&suggestion.ID,
			&suggestion.TicketID,
			&suggestion.TraceID,
			&suggestion.PredictedCategory,
			&suggestion.CitedArticleIDs,
			&suggestion.DraftReply,
			&suggestion.Confidence,
			&suggestion.AutoClosed,
			&suggestion.ClassifierName,
			&suggestion.DraftLatencyMs,
			&suggestion.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, suggestion)
	}
	return result, rows.Err()
}
