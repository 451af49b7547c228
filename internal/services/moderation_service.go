package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/unilak/community/internal/dto"
	"github.com/unilak/community/internal/identity"
	"github.com/unilak/community/internal/models"
	"github.com/unilak/community/internal/store"
)

var (
	ErrReportNotFound = errors.New("report not found")
	ErrInvalidReason  = errors.New("invalid report reason")
)

// ModerationService handles review reports and the moderator dashboard.
type ModerationService struct {
	store *store.Store
}

func NewModerationService(st *store.Store) *ModerationService {
	return &ModerationService{store: st}
}

func (s *ModerationService) reports() *store.Table[models.Report] {
	return store.For[models.Report](s.store, models.TableReports)
}

func (s *ModerationService) CreateReport(ctx context.Context, viewer identity.Viewer, reviewID uuid.UUID, req *dto.CreateReportRequest) (*models.Report, error) {
	reason := strings.TrimSpace(req.Reason)
	if !validReason(reason) {
		return nil, ErrInvalidReason
	}
	if _, err := store.For[models.Review](s.store, models.TableReviews).Get(ctx, reviewID); err != nil {
		return nil, notFound(err, ErrReviewNotFound)
	}

	report := models.Report{
		ReviewID: reviewID,
		UserID:   viewer.ID,
		Reason:   reason,
	}
	if err := s.reports().Insert(ctx, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

func validReason(reason string) bool {
	for _, r := range models.ReportReasons {
		if r == reason {
			return true
		}
	}
	return false
}

func (s *ModerationService) ListReports(ctx context.Context, offset, limit int) ([]models.Report, int64, error) {
	total, err := s.reports().Count(ctx, store.Q())
	if err != nil {
		return nil, 0, err
	}
	reports, err := s.reports().List(ctx, store.Q().
		With("Review").
		With("Review.User", publicProfile...).
		With("User", publicProfile...).
		Order("created_at", true).
		Range(offset, limit))
	if err != nil {
		return nil, 0, err
	}
	return reports, total, nil
}

// DismissReport deletes the report and keeps the review.
func (s *ModerationService) DismissReport(ctx context.Context, id uuid.UUID) error {
	return notFound(s.reports().Delete(ctx, id), ErrReportNotFound)
}

// DeleteReportedReview deletes the reported review together with every
// report against it.
func (s *ModerationService) DeleteReportedReview(ctx context.Context, reportID uuid.UUID) error {
	report, err := s.reports().Get(ctx, reportID)
	if err != nil {
		return notFound(err, ErrReportNotFound)
	}
	return deleteReview(ctx, s.store, report.ReviewID)
}

func (s *ModerationService) Dashboard(ctx context.Context) (*dto.DashboardCounts, error) {
	var counts dto.DashboardCounts
	var err error

	if counts.Reviews, err = store.For[models.Review](s.store, models.TableReviews).Count(ctx, store.Q()); err != nil {
		return nil, err
	}
	if counts.PendingRequests, err = store.For[models.AnnouncementRequest](s.store, models.TableAnnouncementRequests).
		Count(ctx, store.Q().Eq("status", models.StatusPending)); err != nil {
		return nil, err
	}
	if counts.Feedback, err = store.For[models.Feedback](s.store, models.TableFeedback).Count(ctx, store.Q()); err != nil {
		return nil, err
	}
	if counts.Users, err = store.For[models.Profile](s.store, models.TableProfiles).Count(ctx, store.Q()); err != nil {
		return nil, err
	}
	if counts.Facts, err = store.For[models.Fact](s.store, models.TableFacts).Count(ctx, store.Q()); err != nil {
		return nil, err
	}
	if counts.Reports, err = s.reports().Count(ctx, store.Q()); err != nil {
		return nil, err
	}
	return &counts, nil
}
