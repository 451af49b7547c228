package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unilak/community/internal/dto"
	"github.com/unilak/community/internal/identity"
	"github.com/unilak/community/internal/models"
	"github.com/unilak/community/internal/testutil"
)

func TestAccountProfileAndStats(t *testing.T) {
	st, db := newStore(t)
	anns := NewAnnouncementService(st)
	reviews := NewReviewService(st, 24*time.Hour)
	threads := NewThreadService(st)
	svc := NewAccountService(st, anns)
	alice := viewerOf(testutil.Profile(t, db, "alice@unilak.ac.rw", ""))
	moderator := viewerOf(testutil.Profile(t, db, "mod@unilak.ac.rw", models.RoleModerator))
	topic, sub := seedTopic(t, db, "Library")

	_, err := reviews.Create(ctx, alice, &dto.CreateReviewRequest{
		TopicID: topic.ID.String(), SubtopicID: sub.ID.String(), Type: "positive", Content: "nice",
	})
	require.NoError(t, err)
	req, err := anns.Submit(ctx, alice, &dto.SubmitRequestRequest{Content: "Lost card"})
	require.NoError(t, err)
	_, err = threads.PostToRequest(ctx, moderator, req.ID, "Where?")
	require.NoError(t, err)

	acct, err := svc.Get(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, dto.AccountStats{Reviews: 1, Requests: 1, UnseenReplies: 1}, acct.Stats)

	_, err = svc.UpdateProfile(ctx, alice, &dto.UpdateProfileRequest{Username: strPtr("  ")})
	assert.ErrorIs(t, err, ErrInvalidUsername)

	user, err := svc.UpdateProfile(ctx, alice, &dto.UpdateProfileRequest{Username: strPtr(" Alice "), AvatarURL: strPtr("🦁")})
	require.NoError(t, err)
	assert.Equal(t, "Alice", user.Username)
	assert.Equal(t, "🦁", user.AvatarURL)

	user, err = svc.UpdateProfile(ctx, alice, &dto.UpdateProfileRequest{AvatarURL: strPtr("")})
	require.NoError(t, err)
	assert.Empty(t, user.AvatarURL)
	assert.Equal(t, "Alice", user.Username)
}

func TestDeleteAccountRemovesOwnedRows(t *testing.T) {
	st, db := newStore(t)
	anns := NewAnnouncementService(st)
	reviews := NewReviewService(st, 24*time.Hour)
	threads := NewThreadService(st)
	mod := NewModerationService(st)
	svc := NewAccountService(st, anns)
	alice := viewerOf(testutil.Profile(t, db, "alice@unilak.ac.rw", ""))
	bob := viewerOf(testutil.Profile(t, db, "bob@unilak.ac.rw", ""))
	topic, sub := seedTopic(t, db, "Sports")

	review, err := reviews.Create(ctx, alice, &dto.CreateReviewRequest{
		TopicID: topic.ID.String(), SubtopicID: sub.ID.String(), Type: "negative", Content: "no balls",
	})
	require.NoError(t, err)
	_, err = mod.CreateReport(ctx, bob, review.ID, &dto.CreateReportRequest{Reason: models.ReportReasons[4]})
	require.NoError(t, err)
	req, err := anns.Submit(ctx, alice, &dto.SubmitRequestRequest{Content: "Match today"})
	require.NoError(t, err)
	ann, err := anns.Approve(ctx, req.ID, nil)
	require.NoError(t, err)
	_, err = threads.PostToAnnouncement(ctx, bob, ann.ID, "what time?")
	require.NoError(t, err)

	bobReq, err := anns.Submit(ctx, bob, &dto.SubmitRequestRequest{Content: "Bob's request"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteAccount(ctx, alice))

	for _, model := range []any{&models.Review{}, &models.Report{}, &models.Announcement{}, &models.AnnouncementResponse{}} {
		var n int64
		require.NoError(t, db.Model(model).Count(&n).Error)
		assert.Zero(t, n)
	}
	var left []models.AnnouncementRequest
	require.NoError(t, db.Find(&left).Error)
	require.Len(t, left, 1)
	assert.Equal(t, bobReq.ID, left[0].ID)

	_, err = svc.Get(ctx, alice)
	assert.ErrorIs(t, err, ErrUserNotFound)

	users, total, err := svc.ListUsers(ctx, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, users, 1)
	assert.Equal(t, identity.Viewer{ID: users[0].ID, Email: users[0].Email, Role: users[0].Role}, bob)
}
