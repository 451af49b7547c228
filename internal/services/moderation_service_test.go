package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unilak/community/internal/dto"
	"github.com/unilak/community/internal/models"
	"github.com/unilak/community/internal/testutil"
)

func TestReportLifecycle(t *testing.T) {
	st, db := newStore(t)
	reviews := NewReviewService(st, 24*time.Hour)
	svc := NewModerationService(st)
	alice := viewerOf(testutil.Profile(t, db, "alice@unilak.ac.rw", ""))
	bob := viewerOf(testutil.Profile(t, db, "bob@unilak.ac.rw", ""))
	topic, sub := seedTopic(t, db, "Hostel")

	review, err := reviews.Create(ctx, alice, &dto.CreateReviewRequest{
		TopicID: topic.ID.String(), SubtopicID: sub.ID.String(), Type: "negative", Content: "no water",
	})
	require.NoError(t, err)

	_, err = svc.CreateReport(ctx, bob, review.ID, &dto.CreateReportRequest{Reason: "I just dislike it"})
	assert.ErrorIs(t, err, ErrInvalidReason)
	_, err = svc.CreateReport(ctx, bob, uuid.New(), &dto.CreateReportRequest{Reason: models.ReportReasons[0]})
	assert.ErrorIs(t, err, ErrReviewNotFound)

	first, err := svc.CreateReport(ctx, bob, review.ID, &dto.CreateReportRequest{Reason: models.ReportReasons[0]})
	require.NoError(t, err)
	second, err := svc.CreateReport(ctx, alice, review.ID, &dto.CreateReportRequest{Reason: models.ReportReasons[1]})
	require.NoError(t, err)

	list, total, err := svc.ListReports(ctx, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, list, 2)
	require.NotNil(t, list[0].Review)
	assert.Equal(t, review.ID, list[0].Review.ID)

	require.NoError(t, svc.DismissReport(ctx, first.ID))
	assert.ErrorIs(t, svc.DismissReport(ctx, first.ID), ErrReportNotFound)

	require.NoError(t, svc.DeleteReportedReview(ctx, second.ID))
	_, err = reviews.Get(ctx, review.ID)
	assert.ErrorIs(t, err, ErrReviewNotFound)

	var left int64
	require.NoError(t, db.Model(&models.Report{}).Count(&left).Error)
	assert.Zero(t, left)
}

func TestDashboardCounts(t *testing.T) {
	st, db := newStore(t)
	svc := NewModerationService(st)
	announcements := NewAnnouncementService(st)
	alice := viewerOf(testutil.Profile(t, db, "alice@unilak.ac.rw", ""))
	testutil.Profile(t, db, "mod@unilak.ac.rw", models.RoleModerator)

	_, err := announcements.Submit(ctx, alice, &dto.SubmitRequestRequest{Content: "Lost keys"})
	require.NoError(t, err)
	rejected, err := announcements.Submit(ctx, alice, &dto.SubmitRequestRequest{Content: "Found pen"})
	require.NoError(t, err)
	require.NoError(t, announcements.Reject(ctx, rejected.ID))
	require.NoError(t, db.Create(&models.Fact{Message: "UNILAK was founded in 1997"}).Error)

	counts, err := svc.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, dto.DashboardCounts{PendingRequests: 1, Users: 2, Facts: 1}, *counts)
}
