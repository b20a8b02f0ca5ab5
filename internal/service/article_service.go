package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-triage/internal/domain"
	"github.com/spec-kit/helpdesk-triage/internal/events"
	"github.com/spec-kit/helpdesk-triage/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-triage/pkg/util"
)

// ArticleService manages knowledge-base articles for agents.
type ArticleService struct {
	articles   repository.ArticleRepository
	dispatcher events.Dispatcher
}

// ArticleCreateInput describes article creation payload.
type ArticleCreateInput struct {
	Title    string
	Body     string
	Tags     []string
	Category domain.TicketCategory
}

// ArticleUpdateInput describes editable article fields.
type ArticleUpdateInput struct {
	Title    *string
	Body     *string
	Tags     []string
	Category *domain.TicketCategory
}

// NewArticleService constructs the service.
func NewArticleService(articles repository.ArticleRepository, dispatcher events.Dispatcher) *ArticleService {
	return &ArticleService{articles: articles, dispatcher: dispatcher}
}

// CreateArticle creates a draft article authored by an agent.
func (s *ArticleService) CreateArticle(ctx context.Context, agentID string, input ArticleCreateInput) (*domain.Article, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewValidationError("title required", nil)
	}
	article := &domain.Article{
		Title:    title,
		Body:     strings.TrimSpace(input.Body),
		Tags:     input.Tags,
		Category: input.Category,
		Status:   domain.ArticleStatusDraft,
		AuthorID: &agentID,
	}
	if article.Category == "" {
		article.Category = domain.CategoryOther
	}
	if err := s.articles.Create(ctx, article); err != nil {
		return nil, apperrors.NewPersistenceError("article create", err)
	}
	return article, nil
}

// UpdateArticle applies partial edits to an article.
func (s *ArticleService) UpdateArticle(ctx context.Context, articleID string, input ArticleUpdateInput) (*domain.Article, error) {
	article, err := s.getArticle(ctx, articleID)
	if err != nil {
		return nil, err
	}
	if input.Title != nil {
		article.Title = strings.TrimSpace(*input.Title)
	}
	if input.Body != nil {
		article.Body = strings.TrimSpace(*input.Body)
	}
	if input.Tags != nil {
		article.Tags = input.Tags
	}
	if input.Category != nil {
		article.Category = *input.Category
	}
	if err := s.articles.Update(ctx, article); err != nil {
		return nil, apperrors.NewPersistenceError("article update", err)
	}
	return article, nil
}

// PublishArticle makes a draft article visible to the triage retriever.
func (s *ArticleService) PublishArticle(ctx context.Context, agentID, articleID string) (*domain.Article, error) {
	article, err := s.getArticle(ctx, articleID)
	if err != nil {
		return nil, err
	}
	if article.Status == domain.ArticleStatusArchived {
		return nil, apperrors.NewConflict("archived articles cannot be published", nil)
	}
	article.Status = domain.ArticleStatusPublished
	if err := s.articles.Update(ctx, article); err != nil {
		return nil, apperrors.NewPersistenceError("article update", err)
	}
	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			Type:  events.EventArticlePublished,
			Actor: agentActor(agentID),
			Payload: events.ArticlePublishedPayload{
				ArticleID: article.ID,
				Title:     article.Title,
				Category:  article.Category,
			},
		})
	}
	return article, nil
}

// ArchiveArticle removes an article from retrieval without deleting it.
func (s *ArticleService) ArchiveArticle(ctx context.Context, articleID string) (*domain.Article, error) {
	article, err := s.getArticle(ctx, articleID)
	if err != nil {
		return nil, err
	}
	article.Status = domain.ArticleStatusArchived
	if err := s.articles.Update(ctx, article); err != nil {
		return nil, apperrors.NewPersistenceError("article update", err)
	}
	return article, nil
}

// GetArticle fetches a single article.
func (s *ArticleService) GetArticle(ctx context.Context, articleID string) (*domain.Article, error) {
	return s.getArticle(ctx, articleID)
}

// ListArticles returns paginated articles regardless of status.
func (s *ArticleService) ListArticles(ctx context.Context, limit, offset int) ([]domain.Article, error) {
	return s.articles.List(ctx, limit, offset)
}

func (s *ArticleService) getArticle(ctx context.Context, articleID string) (*domain.Article, error) {
	article, err := s.articles.GetByID(ctx, articleID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("article", map[string]any{"article_id": articleID})
		}
		return nil, apperrors.MapError(err)
	}
	return article, nil
}
