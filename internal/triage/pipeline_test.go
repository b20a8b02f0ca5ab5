package triage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-triage/internal/domain"
	"github.com/spec-kit/helpdesk-triage/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-triage/pkg/util"
)

// In-memory fakes for the pipeline's store dependencies.

type fakeTicketRepo struct {
	mu      sync.Mutex
	tickets map[string]domain.Ticket
	seq     int
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: map[string]domain.Ticket{}}
}

func (r *fakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	ticket.ID = fmt.Sprintf("tkt-%d", r.seq)
	r.tickets[ticket.ID] = *ticket
	return nil
}

func (r *fakeTicketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tickets[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.tickets[ticket.ID] = *ticket
	return nil
}

func (r *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := ticket
	return &copied, nil
}

func (r *fakeTicketRepo) GetByExternalKey(_ context.Context, key string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ticket := range r.tickets {
		if ticket.ExternalKey == key {
			copied := ticket
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeTicketRepo) ListWithFilter(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Ticket
	for _, ticket := range r.tickets {
		if filter.RequesterID != nil && ticket.RequesterID != *filter.RequesterID {
			continue
		}
		result = append(result, ticket)
	}
	return result, nil
}

type fakeArticleRepo struct {
	articles []domain.Article
	failFind bool
}

func (r *fakeArticleRepo) Create(_ context.Context, article *domain.Article) error {
	r.articles = append(r.articles, *article)
	return nil
}

func (r *fakeArticleRepo) Update(context.Context, *domain.Article) error { return nil }

func (r *fakeArticleRepo) GetByID(_ context.Context, id string) (*domain.Article, error) {
	for i := range r.articles {
		if r.articles[i].ID == id {
			copied := r.articles[i]
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeArticleRepo) FindPublished(context.Context, repository.ArticleFilter) ([]domain.Article, error) {
	if r.failFind {
		return nil, errors.New("article store down")
	}
	var result []domain.Article
	for _, article := range r.articles {
		if article.Status == domain.ArticleStatusPublished {
			result = append(result, article)
		}
	}
	return result, nil
}

func (r *fakeArticleRepo) List(context.Context, int, int) ([]domain.Article, error) {
	return r.articles, nil
}

type fakeSuggestionRepo struct {
	mu          sync.Mutex
	suggestions []domain.AgentSuggestion
	failCreate  bool
}

func (r *fakeSuggestionRepo) Create(_ context.Context, suggestion *domain.AgentSuggestion) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate {
		return errors.New("suggestion store down")
	}
	suggestion.ID = fmt.Sprintf("sug-%d", len(r.suggestions)+1)
	r.suggestions = append(r.suggestions, *suggestion)
	return nil
}

func (r *fakeSuggestionRepo) GetByID(_ context.Context, id string) (*domain.AgentSuggestion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.suggestions {
		if r.suggestions[i].ID == id {
			copied := r.suggestions[i]
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeSuggestionRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.AgentSuggestion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.AgentSuggestion
	for _, suggestion := range r.suggestions {
		if suggestion.TicketID == ticketID {
			result = append(result, suggestion)
		}
	}
	return result, nil
}

type fakeAuditRepo struct {
	mu         sync.Mutex
	entries    []domain.AuditLogEntry
	failAppend bool
}

func (r *fakeAuditRepo) Append(_ context.Context, entry *domain.AuditLogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAppend {
		return errors.New("audit store down")
	}
	entry.ID = fmt.Sprintf("aud-%d", len(r.entries)+1)
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeAuditRepo) ListByTrace(_ context.Context, traceID string) ([]domain.AuditLogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.AuditLogEntry
	for _, entry := range r.entries {
		if entry.TraceID == traceID {
			result = append(result, entry)
		}
	}
	return result, nil
}

func (r *fakeAuditRepo) ListByTicket(_ context.Context, ticketID string, _, _ int) ([]domain.AuditLogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.AuditLogEntry
	for _, entry := range r.entries {
		if entry.TicketID == ticketID {
			result = append(result, entry)
		}
	}
	return result, nil
}

type fakeConfigRepo struct {
	entries map[string]*domain.ConfigEntry
}

func (r *fakeConfigRepo) GetValue(_ context.Context, key string) (*domain.ConfigEntry, error) {
	entry, ok := r.entries[key]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return entry, nil
}

func (r *fakeConfigRepo) Upsert(_ context.Context, entry *domain.ConfigEntry) error {
	r.entries[entry.Key] = entry
	return nil
}

func (r *fakeConfigRepo) List(context.Context) ([]domain.ConfigEntry, error) {
	var result []domain.ConfigEntry
	for _, entry := range r.entries {
		result = append(result, *entry)
	}
	return result, nil
}

type pipelineFixture struct {
	tickets     *fakeTicketRepo
	articles    *fakeArticleRepo
	suggestions *fakeSuggestionRepo
	audit       *fakeAuditRepo
	config      *fakeConfigRepo
	pipeline    *Pipeline
}

func newPipelineFixture(t *testing.T) *pipelineFixture {
	t.Helper()
	f := &pipelineFixture{
		tickets:     newFakeTicketRepo(),
		articles:    &fakeArticleRepo{},
		suggestions: &fakeSuggestionRepo{},
		audit:       &fakeAuditRepo{},
		config:      &fakeConfigRepo{entries: map[string]*domain.ConfigEntry{}},
	}
	f.pipeline = NewPipeline(PipelineDependencies{
		TicketRepo:     f.tickets,
		ArticleRepo:    f.articles,
		SuggestionRepo: f.suggestions,
		AuditRepo:      f.audit,
		ConfigRepo:     f.config,
	})
	return f
}

func (f *pipelineFixture) setThreshold(threshold float64) {
	f.config.entries[ConfigKeyConfidenceThreshold] = &domain.ConfigEntry{
		Key:         ConfigKeyConfidenceThreshold,
		Kind:        domain.ConfigKindNumber,
		NumberValue: threshold,
	}
}

func (f *pipelineFixture) setAutoClose(enabled bool) {
	f.config.entries[ConfigKeyAutoCloseEnabled] = &domain.ConfigEntry{
		Key:       ConfigKeyAutoCloseEnabled,
		Kind:      domain.ConfigKindBool,
		BoolValue: enabled,
	}
}

func (f *pipelineFixture) addRefundTicket(t *testing.T) *domain.Ticket {
	t.Helper()
	ticket := &domain.Ticket{
		ExternalKey: "TCK-REFUND01",
		RequesterID: "user-1",
		Title:       "Refund needed",
		Description: "I was charged twice, please refund",
		Category:    domain.CategoryOther,
		Status:      domain.TicketStatusOpen,
	}
	if err := f.tickets.Create(context.Background(), ticket); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return ticket
}

func (f *pipelineFixture) addBillingArticle() {
	f.articles.articles = append(f.articles.articles, domain.Article{
		ID:       "art-billing",
		Title:    "How to request a refund",
		Body:     "Steps to get your payment refunded after a duplicate charge.",
		Tags:     []string{"billing", "refund"},
		Category: domain.CategoryBilling,
		Status:   domain.ArticleStatusPublished,
	})
}

func TestTriageAutoCloses(t *testing.T) {
	f := newPipelineFixture(t)
	f.setAutoClose(true)
	f.setThreshold(0.5)
	f.addBillingArticle()
	ticket := f.addRefundTicket(t)

	result, err := f.pipeline.Triage(context.Background(), ticket.ID)
	if err != nil {
		t.Fatalf("Triage() error = %v", err)
	}
	if !result.Decision.AutoClose {
		t.Error("Decision.AutoClose = false, want true")
	}

	if len(f.suggestions.suggestions) != 1 {
		t.Fatalf("suggestions = %d, want 1", len(f.suggestions.suggestions))
	}
	suggestion := f.suggestions.suggestions[0]
	if suggestion.PredictedCategory != domain.CategoryBilling {
		t.Errorf("PredictedCategory = %q, want BILLING", suggestion.PredictedCategory)
	}
	if suggestion.Confidence < 0.5 {
		t.Errorf("Confidence = %v, want >= 0.5", suggestion.Confidence)
	}
	if !suggestion.AutoClosed {
		t.Error("suggestion.AutoClosed = false, want true")
	}
	if suggestion.ClassifierName != ClassifierName {
		t.Errorf("ClassifierName = %q, want %q", suggestion.ClassifierName, ClassifierName)
	}
	if len(suggestion.CitedArticleIDs) != 1 || suggestion.CitedArticleIDs[0] != "art-billing" {
		t.Errorf("CitedArticleIDs = %v, want [art-billing]", suggestion.CitedArticleIDs)
	}

	stored, err := f.tickets.GetByID(context.Background(), ticket.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if stored.Status != domain.TicketStatusResolved {
		t.Errorf("ticket status = %q, want RESOLVED", stored.Status)
	}
	if stored.Category != domain.CategoryBilling {
		t.Errorf("ticket category = %q, want BILLING", stored.Category)
	}
	if stored.SuggestionID == nil || *stored.SuggestionID != suggestion.ID {
		t.Errorf("ticket suggestion ref = %v, want %q", stored.SuggestionID, suggestion.ID)
	}

	entries := f.audit.entries
	if len(entries) != 6 {
		t.Fatalf("audit entries = %d, want 6", len(entries))
	}
	wantActions := []domain.AuditAction{
		domain.AuditActionAgentPlan,
		domain.AuditActionAgentClassified,
		domain.AuditActionKBRetrieved,
		domain.AuditActionDraftGenerated,
		domain.AuditActionDecisionMade,
		domain.AuditActionAutoClosed,
	}
	for i, entry := range entries {
		if entry.Action != wantActions[i] {
			t.Errorf("entry[%d].Action = %q, want %q", i, entry.Action, wantActions[i])
		}
		if entry.TraceID != result.TraceID {
			t.Errorf("entry[%d].TraceID = %q, want shared trace %q", i, entry.TraceID, result.TraceID)
		}
		if entry.Actor != domain.AuditActorSystem {
			t.Errorf("entry[%d].Actor = %q, want system", i, entry.Actor)
		}
	}
}

func TestTriageRoutesToHuman(t *testing.T) {
	f := newPipelineFixture(t)
	f.setAutoClose(true)
	f.setThreshold(0.99)
	f.addBillingArticle()
	ticket := f.addRefundTicket(t)

	result, err := f.pipeline.Triage(context.Background(), ticket.ID)
	if err != nil {
		t.Fatalf("Triage() error = %v", err)
	}
	if result.Decision.AutoClose {
		t.Error("Decision.AutoClose = true, want false")
	}
	if !result.Decision.AssignToHuman {
		t.Error("Decision.AssignToHuman = false, want true")
	}

	stored, _ := f.tickets.GetByID(context.Background(), ticket.ID)
	if stored.Status != domain.TicketStatusWaitingHuman {
		t.Errorf("ticket status = %q, want WAITING_HUMAN", stored.Status)
	}

	last := f.audit.entries[len(f.audit.entries)-1]
	if last.Action != domain.AuditActionAssignedToHuman {
		t.Errorf("final action = %q, want ASSIGNED_TO_HUMAN", last.Action)
	}
}

func TestTriageAutoCloseDisabled(t *testing.T) {
	f := newPipelineFixture(t)
	f.setAutoClose(false)
	f.setThreshold(0.1)
	ticket := f.addRefundTicket(t)

	result, err := f.pipeline.Triage(context.Background(), ticket.ID)
	if err != nil {
		t.Fatalf("Triage() error = %v", err)
	}
	if result.Decision.AutoClose {
		t.Error("auto-close disabled but AutoClose = true")
	}
}

func TestTriageMissingTicket(t *testing.T) {
	f := newPipelineFixture(t)

	_, err := f.pipeline.Triage(context.Background(), "missing")
	if err == nil {
		t.Fatal("Triage() error = nil, want NotFound")
	}
	if !apperrors.IsNotFound(err) {
		t.Errorf("error = %v, want NotFound", err)
	}
	if len(f.suggestions.suggestions) != 0 {
		t.Errorf("suggestions = %d, want 0", len(f.suggestions.suggestions))
	}
	if len(f.audit.entries) == 0 {
		t.Fatal("no failure audit entry recorded")
	}
	if f.audit.entries[0].Action != domain.AuditActionTriageFailed {
		t.Errorf("failure action = %q, want TRIAGE_FAILED", f.audit.entries[0].Action)
	}
}

func TestTriageRetrieveFailure(t *testing.T) {
	f := newPipelineFixture(t)
	f.articles.failFind = true
	ticket := f.addRefundTicket(t)

	_, err := f.pipeline.Triage(context.Background(), ticket.ID)
	if err == nil {
		t.Fatal("Triage() error = nil, want retrieve failure")
	}
	if !strings.Contains(err.Error(), "retrieve") {
		t.Errorf("error %q missing stage name", err)
	}

	stored, _ := f.tickets.GetByID(context.Background(), ticket.ID)
	if stored.Status != domain.TicketStatusOpen {
		t.Errorf("ticket status = %q, want unchanged OPEN", stored.Status)
	}
	last := f.audit.entries[len(f.audit.entries)-1]
	if last.Action != domain.AuditActionTriageFailed {
		t.Errorf("final audit action = %q, want TRIAGE_FAILED", last.Action)
	}
}

func TestTriageDefaultsWhenConfigAbsent(t *testing.T) {
	// Two billing hits give 0.67, below the 0.78 default threshold.
	f := newPipelineFixture(t)
	ticket := f.addRefundTicket(t)

	result, err := f.pipeline.Triage(context.Background(), ticket.ID)
	if err != nil {
		t.Fatalf("Triage() error = %v", err)
	}
	if result.Decision.AutoClose {
		t.Error("AutoClose = true, want false under default threshold 0.78")
	}
}

func TestTriageInvalidThresholdFallsBack(t *testing.T) {
	// Threshold 1.5 is out of range; the 0.78 default applies. The ticket
	// scores three billing hits, so confidence 1.0 clears the default.
	f := newPipelineFixture(t)
	f.setThreshold(1.5)
	ticket := &domain.Ticket{
		Title:       "Billing problem",
		Description: "refund my payment, wrong invoice",
		Status:      domain.TicketStatusOpen,
	}
	if err := f.tickets.Create(context.Background(), ticket); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	result, err := f.pipeline.Triage(context.Background(), ticket.ID)
	if err != nil {
		t.Fatalf("Triage() error = %v", err)
	}
	if !result.Decision.AutoClose {
		t.Error("AutoClose = false, want true via default threshold")
	}
}

func TestTriageWrongConfigKindFallsBack(t *testing.T) {
	f := newPipelineFixture(t)
	f.config.entries[ConfigKeyAutoCloseEnabled] = &domain.ConfigEntry{
		Key:         ConfigKeyAutoCloseEnabled,
		Kind:        domain.ConfigKindString,
		StringValue: "yes",
	}
	f.setThreshold(0.5)
	ticket := f.addRefundTicket(t)

	result, err := f.pipeline.Triage(context.Background(), ticket.ID)
	if err != nil {
		t.Fatalf("Triage() error = %v", err)
	}
	// Default auto_close_enabled=true applies despite the bad entry.
	if !result.Decision.AutoClose {
		t.Error("AutoClose = false, want true via default flag")
	}
}

func TestTriageAuditFailureDoesNotAbort(t *testing.T) {
	f := newPipelineFixture(t)
	f.audit.failAppend = true
	f.setThreshold(0.5)
	ticket := f.addRefundTicket(t)

	result, err := f.pipeline.Triage(context.Background(), ticket.ID)
	if err != nil {
		t.Fatalf("Triage() error = %v with audit store down", err)
	}
	if result.SuggestionID == "" {
		t.Error("no suggestion created despite successful run")
	}
}

func TestTriageSuggestionWriteFailureIsFatal(t *testing.T) {
	f := newPipelineFixture(t)
	f.suggestions.failCreate = true
	ticket := f.addRefundTicket(t)

	_, err := f.pipeline.Triage(context.Background(), ticket.ID)
	if err == nil {
		t.Fatal("Triage() error = nil, want persistence failure")
	}
	var domainErr *apperrors.DomainError
	if !errors.As(err, &domainErr) || domainErr.Code != "PERSISTENCE_FAILED" {
		t.Errorf("error = %v, want PERSISTENCE_FAILED", err)
	}
	if !strings.Contains(err.Error(), "persist_suggestion") {
		t.Errorf("error %q missing stage name", err)
	}

	stored, _ := f.tickets.GetByID(context.Background(), ticket.ID)
	if stored.Status != domain.TicketStatusOpen {
		t.Errorf("ticket status = %q, want unchanged OPEN", stored.Status)
	}
	last := f.audit.entries[len(f.audit.entries)-1]
	if last.Action != domain.AuditActionTriageFailed {
		t.Errorf("final audit action = %q, want TRIAGE_FAILED", last.Action)
	}
}

func TestTriageRunsAreAdditive(t *testing.T) {
	f := newPipelineFixture(t)
	f.setThreshold(0.5)
	ticket := f.addRefundTicket(t)

	first, err := f.pipeline.Triage(context.Background(), ticket.ID)
	if err != nil {
		t.Fatalf("first Triage() error = %v", err)
	}
	second, err := f.pipeline.Triage(context.Background(), ticket.ID)
	if err != nil {
		t.Fatalf("second Triage() error = %v", err)
	}

	if first.TraceID == second.TraceID {
		t.Error("re-triage reused the trace id")
	}
	if len(f.suggestions.suggestions) != 2 {
		t.Errorf("suggestions = %d, want 2 additive runs", len(f.suggestions.suggestions))
	}
}
