package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/unilak/community/internal/dto"
	"github.com/unilak/community/internal/models"
	"github.com/unilak/community/internal/store"
)

var (
	ErrInvalidFeedback  = errors.New("names, a valid email and a message are required")
	ErrFeedbackNotFound = errors.New("feedback not found")
	ErrFactNotFound     = errors.New("fact not found")
)

// CommunityService owns the contact form and the "did you know" facts.
type CommunityService struct {
	store *store.Store
}

func NewCommunityService(st *store.Store) *CommunityService {
	return &CommunityService{store: st}
}

func (s *CommunityService) feedback() *store.Table[models.Feedback] {
	return store.For[models.Feedback](s.store, models.TableFeedback)
}

func (s *CommunityService) facts() *store.Table[models.Fact] {
	return store.For[models.Fact](s.store, models.TableFacts)
}

func (s *CommunityService) SubmitFeedback(ctx context.Context, req *dto.FeedbackRequest) (*models.Feedback, error) {
	f := models.Feedback{
		Names:        strings.TrimSpace(req.Names),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Role:         strings.TrimSpace(req.Role),
		FeedbackType: strings.TrimSpace(req.FeedbackType),
		Message:      strings.TrimSpace(req.Message),
	}
	if f.Names == "" || f.Message == "" || !strings.Contains(f.Email, "@") {
		return nil, ErrInvalidFeedback
	}
	if err := s.feedback().Insert(ctx, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *CommunityService) ListFeedback(ctx context.Context, offset, limit int) ([]models.Feedback, int64, error) {
	total, err := s.feedback().Count(ctx, store.Q())
	if err != nil {
		return nil, 0, err
	}
	items, err := s.feedback().List(ctx, store.Q().Order("created_at", true).Range(offset, limit))
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *CommunityService) DeleteFeedback(ctx context.Context, id uuid.UUID) error {
	return notFound(s.feedback().Delete(ctx, id), ErrFeedbackNotFound)
}

// Facts returns a window of facts, newest first.
func (s *CommunityService) Facts(ctx context.Context, offset, limit int) ([]models.Fact, int64, error) {
	total, err := s.facts().Count(ctx, store.Q())
	if err != nil {
		return nil, 0, err
	}
	items, err := s.facts().List(ctx, store.Q().Order("created_at", true).Range(offset, limit))
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *CommunityService) CreateFact(ctx context.Context, req *dto.FactRequest) (*models.Fact, error) {
	msg := strings.TrimSpace(req.Message)
	if msg == "" {
		return nil, ErrMissingFields
	}
	f := models.Fact{Message: msg}
	if err := s.facts().Insert(ctx, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *CommunityService) UpdateFact(ctx context.Context, id uuid.UUID, req *dto.FactRequest) (*models.Fact, error) {
	msg := strings.TrimSpace(req.Message)
	if msg == "" {
		return nil, ErrMissingFields
	}
	f, err := s.facts().Update(ctx, id, map[string]any{"message": msg})
	if err != nil {
		return nil, notFound(err, ErrFactNotFound)
	}
	return f, nil
}

func (s *CommunityService) DeleteFact(ctx context.Context, id uuid.UUID) error {
	return notFound(s.facts().Delete(ctx, id), ErrFactNotFound)
}
