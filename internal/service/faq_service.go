package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/northgate/helpdesk/internal/domain"
	"github.com/northgate/helpdesk/internal/markdown"
	"github.com/northgate/helpdesk/internal/repository"
	apperrors "github.com/northgate/helpdesk/pkg/util/errorutil"
)

// FAQEntry is a knowledge-base entry together with its rendered body.
type FAQEntry struct {
	domain.FAQ
	ContentHTML string
}

// FAQInput describes a new entry. Content is markdown.
type FAQInput struct {
	Title    string
	Content  string
	Category string
}

// FAQService manages the knowledge base.
type FAQService struct {
	store    repository.Store
	renderer markdown.Renderer
	logger   *zap.Logger
}

// NewFAQService builds the service.
func NewFAQService(store repository.Store, renderer markdown.Renderer, logger *zap.Logger) *FAQService {
	if renderer == nil {
		renderer = markdown.NewRenderer()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FAQService{store: store, renderer: renderer, logger: logger}
}

// Create publishes an entry authored by caller.
func (s *FAQService) Create(ctx context.Context, caller *domain.User, input FAQInput) (*FAQEntry, error) {
	if caller == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	faq := &domain.FAQ{
		Title:      strings.TrimSpace(input.Title),
		Content:    strings.TrimSpace(input.Content),
		Category:   strings.TrimSpace(input.Category),
		AuthorID:   caller.ID,
		AuthorName: caller.Name,
	}
	if faq.Title == "" || faq.Content == "" {
		return nil, apperrors.NewValidationError("titulo and contenido are required", nil)
	}
	if faq.Category == "" {
		faq.Category = "general"
	}
	if err := s.store.Repos().FAQs.Create(ctx, faq); err != nil {
		return nil, apperrors.FromStore(err, "faq")
	}
	return s.render(*faq), nil
}

// Get returns one entry.
func (s *FAQService) Get(ctx context.Context, id int64) (*FAQEntry, error) {
	faq, err := s.store.Repos().FAQs.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.FromStore(err, "faq")
	}
	return s.render(*faq), nil
}

// List returns entries in category, or all entries when category is empty.
func (s *FAQService) List(ctx context.Context, category string) ([]FAQEntry, error) {
	faqs, err := s.store.Repos().FAQs.List(ctx, strings.TrimSpace(category))
	if err != nil {
		return nil, apperrors.FromStore(err, "faq")
	}
	entries := make([]FAQEntry, 0, len(faqs))
	for _, faq := range faqs {
		entries = append(entries, *s.render(faq))
	}
	return entries, nil
}

// Delete removes an entry.
func (s *FAQService) Delete(ctx context.Context, id int64) error {
	if err := s.store.Repos().FAQs.Delete(ctx, id); err != nil {
		return apperrors.FromStore(err, "faq")
	}
	return nil
}

// render never fails the request; an entry that cannot be rendered is served
// without HTML.
func (s *FAQService) render(faq domain.FAQ) *FAQEntry {
	html, err := s.renderer.Render(faq.Content)
	if err != nil {
		s.logger.Warn("faq render failed", zap.Int64("faq_id", faq.ID), zap.Error(err))
	}
	return &FAQEntry{FAQ: faq, ContentHTML: html}
}
