package services

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/unilak/community/internal/dto"
	"github.com/unilak/community/internal/format"
	"github.com/unilak/community/internal/identity"
	"github.com/unilak/community/internal/models"
	"github.com/unilak/community/internal/store"
)

var (
	ErrMissingFields     = errors.New("missing required fields")
	ErrInvalidReviewType = errors.New("invalid review type")
	ErrUnknownTopic      = errors.New("unknown topic or subtopic")
	ErrReviewNotFound    = errors.New("review not found")
	ErrNotOwner          = errors.New("not the owner")
	ErrEditWindowClosed  = errors.New("edit window closed")
)

// publicProfile is what other users may see of a profile.
var publicProfile = []string{"id", "username", "avatar_url", "role"}

type ReviewService struct {
	store      *store.Store
	editWindow time.Duration
	now        func() time.Time
}

func NewReviewService(st *store.Store, editWindow time.Duration) *ReviewService {
	return &ReviewService{store: st, editWindow: editWindow, now: time.Now}
}

func (s *ReviewService) reviews() *store.Table[models.Review] {
	return store.For[models.Review](s.store, models.TableReviews)
}

func reviewQuery() store.Query {
	return store.Q().
		With("User", publicProfile...).
		With("Topic").
		With("Subtopic")
}

func (s *ReviewService) Create(ctx context.Context, viewer identity.Viewer, req *dto.CreateReviewRequest) (*models.Review, error) {
	content := strings.TrimSpace(req.Content)
	if strings.TrimSpace(req.TopicID) == "" || strings.TrimSpace(req.SubtopicID) == "" || req.Type == "" || content == "" {
		return nil, ErrMissingFields
	}
	if !models.IsReviewType(req.Type) {
		return nil, ErrInvalidReviewType
	}

	topicID, subtopicID, err := s.resolveTopic(ctx, req.TopicID, req.SubtopicID)
	if err != nil {
		return nil, err
	}

	review := models.Review{
		UserID:         viewer.ID,
		TopicID:        topicID,
		SubtopicID:     subtopicID,
		Type:           req.Type,
		Content:        format.SentenceCase(content),
		Recommendation: optionalText(req.Recommendation),
	}
	if err := s.reviews().Insert(ctx, &review); err != nil {
		return nil, err
	}
	return s.Get(ctx, review.ID)
}

func (s *ReviewService) resolveTopic(ctx context.Context, rawTopic, rawSubtopic string) (uuid.UUID, uuid.UUID, error) {
	topicID, err := uuid.Parse(strings.TrimSpace(rawTopic))
	if err != nil {
		return uuid.Nil, uuid.Nil, ErrUnknownTopic
	}
	subtopicID, err := uuid.Parse(strings.TrimSpace(rawSubtopic))
	if err != nil {
		return uuid.Nil, uuid.Nil, ErrUnknownTopic
	}
	if _, err := store.For[models.Topic](s.store, models.TableTopics).Get(ctx, topicID); err != nil {
		return uuid.Nil, uuid.Nil, notFound(err, ErrUnknownTopic)
	}
	sub, err := store.For[models.Subtopic](s.store, models.TableSubtopics).Get(ctx, subtopicID)
	if err != nil {
		return uuid.Nil, uuid.Nil, notFound(err, ErrUnknownTopic)
	}
	if sub.TopicID != nil && *sub.TopicID != topicID {
		return uuid.Nil, uuid.Nil, ErrUnknownTopic
	}
	return topicID, subtopicID, nil
}

// Update edits the viewer's own review while it is inside the edit window.
func (s *ReviewService) Update(ctx context.Context, viewer identity.Viewer, id uuid.UUID, req *dto.UpdateReviewRequest) (*models.Review, error) {
	review, err := s.reviews().Get(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrReviewNotFound)
	}
	if !viewer.Owns(review.UserID) {
		return nil, ErrNotOwner
	}
	if s.now().Sub(review.CreatedAt) >= s.editWindow {
		return nil, ErrEditWindowClosed
	}

	patch := map[string]any{}
	if req.Type != nil {
		if !models.IsReviewType(*req.Type) {
			return nil, ErrInvalidReviewType
		}
		patch["type"] = *req.Type
	}
	if req.Content != nil {
		content := strings.TrimSpace(*req.Content)
		if content == "" {
			return nil, ErrMissingFields
		}
		patch["content"] = format.SentenceCase(content)
	}
	if req.Recommendation != nil {
		patch["recommendation"] = optionalText(*req.Recommendation)
	}

	if len(patch) > 0 {
		if _, err := s.reviews().Update(ctx, id, patch); err != nil {
			return nil, notFound(err, ErrReviewNotFound)
		}
	}
	return s.Get(ctx, id)
}

// Delete removes a review. Owners may delete their own; moderators any.
func (s *ReviewService) Delete(ctx context.Context, viewer identity.Viewer, id uuid.UUID) error {
	review, err := s.reviews().Get(ctx, id)
	if err != nil {
		return notFound(err, ErrReviewNotFound)
	}
	if !viewer.Owns(review.UserID) && !viewer.IsModerator() {
		return ErrNotOwner
	}
	return deleteReview(ctx, s.store, id)
}

// deleteReview removes the review and every report against it.
func deleteReview(ctx context.Context, st *store.Store, id uuid.UUID) error {
	return st.Transaction(ctx, func(tx *store.Store) error {
		if _, err := store.For[models.Report](tx, models.TableReports).DeleteWhere(ctx, store.Q().Eq("review_id", id)); err != nil {
			return err
		}
		return notFound(store.For[models.Review](tx, models.TableReviews).Delete(ctx, id), ErrReviewNotFound)
	})
}

func (s *ReviewService) Get(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	review, err := s.reviews().First(ctx, reviewQuery().Eq("id", id))
	if err != nil {
		return nil, notFound(err, ErrReviewNotFound)
	}
	return review, nil
}

// List returns newest reviews first, optionally for one topic.
func (s *ReviewService) List(ctx context.Context, topicID *uuid.UUID, offset, limit int) ([]models.Review, error) {
	q := reviewQuery().Order("created_at", true).Range(offset, limit)
	if topicID != nil {
		q = q.Eq("topic_id", *topicID)
	}
	return s.reviews().List(ctx, q)
}

func (s *ReviewService) ListByUser(ctx context.Context, userID uuid.UUID, offset, limit int) ([]models.Review, error) {
	return s.reviews().List(ctx, reviewQuery().Eq("user_id", userID).Order("created_at", true).Range(offset, limit))
}

func (s *ReviewService) Stats(ctx context.Context) (*dto.ReviewStats, error) {
	positive, err := s.reviews().Count(ctx, store.Q().Eq("type", models.ReviewPositive))
	if err != nil {
		return nil, err
	}
	negative, err := s.reviews().Count(ctx, store.Q().Eq("type", models.ReviewNegative))
	if err != nil {
		return nil, err
	}

	stats := &dto.ReviewStats{Total: positive + negative, Positive: positive, Negative: negative}
	if stats.Total > 0 {
		stats.PositivePercent = int(math.Round(float64(positive) * 100 / float64(stats.Total)))
		stats.NegativePercent = int(math.Round(float64(negative) * 100 / float64(stats.Total)))
	}
	return stats, nil
}

func (s *ReviewService) Topics(ctx context.Context) ([]models.Topic, error) {
	return store.For[models.Topic](s.store, models.TableTopics).List(ctx, store.Q().With("Subtopics").Order("name", false))
}

func (s *ReviewService) Subtopics(ctx context.Context, topicID uuid.UUID) ([]models.Subtopic, error) {
	return store.For[models.Subtopic](s.store, models.TableSubtopics).List(ctx, store.Q().Eq("topic_id", topicID).Order("name", false))
}

func (s *ReviewService) CreateTopic(ctx context.Context, name string) (*models.Topic, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrMissingFields
	}
	topic := models.Topic{Name: name}
	if err := store.For[models.Topic](s.store, models.TableTopics).Insert(ctx, &topic); err != nil {
		return nil, err
	}
	return &topic, nil
}

func (s *ReviewService) CreateSubtopic(ctx context.Context, topicID uuid.UUID, name string) (*models.Subtopic, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrMissingFields
	}
	if _, err := store.For[models.Topic](s.store, models.TableTopics).Get(ctx, topicID); err != nil {
		return nil, notFound(err, ErrUnknownTopic)
	}
	sub := models.Subtopic{TopicID: &topicID, Name: name}
	if err := store.For[models.Subtopic](s.store, models.TableSubtopics).Insert(ctx, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// optionalText trims s and maps empty to nil.
func optionalText(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	s = format.SentenceCase(s)
	return &s
}

// notFound swaps a store miss for the domain error and passes others through.
func notFound(err, domain error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, store.ErrNotFound) {
		return domain
	}
	return err
}

// optionalString trims s and maps empty to nil, leaving case alone.
func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
