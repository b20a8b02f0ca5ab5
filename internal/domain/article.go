package domain

import "time"

// ArticleStatus enumerates knowledge-base article lifecycle states.
type ArticleStatus string

const (
	ArticleStatusDraft     ArticleStatus = "DRAFT"
	ArticleStatusPublished ArticleStatus = "PUBLISHED"
	ArticleStatusArchived  ArticleStatus = "ARCHIVED"
)

// Article is a knowledge-base entry used to ground drafted replies.
type Article struct {
	ID        string
	Title     string
	Body      string
	Tags      []string
	Category  TicketCategory
	Status    ArticleStatus
	AuthorID  *string
	CreatedAt time.Time
	UpdatedAt time.Time
}
