package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-triage/internal/domain"
)

// CreateArticleRequest payload.
type CreateArticleRequest struct {
	Title    string                `json:"title"`
	Body     string                `json:"body"`
	Tags     []string              `json:"tags"`
	Category domain.TicketCategory `json:"category"`
}

// UpdateArticleRequest payload with optional fields.
type UpdateArticleRequest struct {
	Title    *string                `json:"title"`
	Body     *string                `json:"body"`
	Tags     []string               `json:"tags"`
	Category *domain.TicketCategory `json:"category"`
}

// ArticleResponse response.
type ArticleResponse struct {
	ID        string                `json:"id"`
	Title     string                `json:"title"`
	Body      string                `json:"body"`
	Tags      []string              `json:"tags"`
	Category  domain.TicketCategory `json:"category"`
	Status    domain.ArticleStatus  `json:"status"`
	AuthorID  *string               `json:"author_id,omitempty"`
	CreatedAt time.Time             `json:"created_at"`
	UpdatedAt time.Time             `json:"updated_at"`
}
