package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unilak/community/internal/dto"
	"github.com/unilak/community/internal/identity"
	"github.com/unilak/community/internal/models"
	"github.com/unilak/community/internal/testutil"
	"github.com/unilak/community/internal/thread"
)

func TestRequestThreadAccessAndSeen(t *testing.T) {
	st, db := newStore(t)
	anns := NewAnnouncementService(st)
	svc := NewThreadService(st)
	alice := viewerOf(testutil.Profile(t, db, "alice@unilak.ac.rw", ""))
	bob := viewerOf(testutil.Profile(t, db, "bob@unilak.ac.rw", ""))
	moderator := viewerOf(testutil.Profile(t, db, "mod@unilak.ac.rw", models.RoleModerator))

	req, err := anns.Submit(ctx, alice, &dto.SubmitRequestRequest{Content: "Tutoring offer"})
	require.NoError(t, err)

	msgs, err := svc.RequestThread(ctx, alice, req.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs, "request threads have no greeting")

	_, err = svc.RequestThread(ctx, bob, req.ID)
	assert.ErrorIs(t, err, ErrThreadForbidden)
	_, err = svc.PostToRequest(ctx, bob, req.ID, "hi")
	assert.ErrorIs(t, err, ErrThreadForbidden)

	sent, err := svc.PostToRequest(ctx, moderator, req.ID, " Which subjects? ")
	require.NoError(t, err)
	assert.Equal(t, "Which subjects?", sent.Content)
	assert.False(t, sent.Seen)

	_, err = svc.PostToRequest(ctx, alice, req.ID, "  ")
	assert.ErrorIs(t, err, ErrEmptyContent)

	msgs, err = svc.RequestThread(ctx, alice, req.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.True(t, msgs[0].Seen)
	require.NotNil(t, msgs[0].Author)
	assert.Equal(t, models.RoleModerator, msgs[0].Author.Role)

	var row models.AnnouncementResponse
	require.NoError(t, db.First(&row, "request_id = ?", req.ID).Error)
	assert.True(t, row.Seen)
}

func TestAnnouncementThreadVisibility(t *testing.T) {
	st, db := newStore(t)
	anns := NewAnnouncementService(st)
	svc := NewThreadService(st)
	alice := viewerOf(testutil.Profile(t, db, "alice@unilak.ac.rw", ""))
	bob := viewerOf(testutil.Profile(t, db, "bob@unilak.ac.rw", ""))
	carol := viewerOf(testutil.Profile(t, db, "carol@unilak.ac.rw", ""))
	moderator := viewerOf(testutil.Profile(t, db, "mod@unilak.ac.rw", models.RoleModerator))

	req, err := anns.Submit(ctx, alice, &dto.SubmitRequestRequest{Content: "Found a laptop"})
	require.NoError(t, err)
	ann, err := anns.Approve(ctx, req.ID, nil)
	require.NoError(t, err)

	msgs, err := svc.AnnouncementThread(ctx, alice, ann.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.True(t, msgs[0].System)
	assert.Equal(t, thread.GreetingText, msgs[0].Content)
	assert.Equal(t, ann.ID.String()+"-system", msgs[0].ID)

	_, err = svc.PostToAnnouncement(ctx, bob, ann.ID, "It's mine")
	require.NoError(t, err)
	anon, err := svc.PostToAnnouncement(ctx, identity.Viewer{}, ann.ID, "Which brand?")
	require.NoError(t, err)
	assert.Empty(t, anon.UserID)

	owner, err := svc.AnnouncementThread(ctx, alice, ann.ID)
	require.NoError(t, err)
	assert.Len(t, owner, 2)

	mod, err := svc.AnnouncementThread(ctx, moderator, ann.ID)
	require.NoError(t, err)
	assert.Len(t, mod, 2)

	own, err := svc.AnnouncementThread(ctx, bob, ann.ID)
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, "It's mine", own[0].Content)

	stranger, err := svc.AnnouncementThread(ctx, carol, ann.ID)
	require.NoError(t, err)
	require.Len(t, stranger, 1)
	assert.True(t, stranger[0].System)

	_, err = svc.AnnouncementThread(ctx, identity.Viewer{}, ann.ID)
	assert.ErrorIs(t, err, ErrThreadForbidden)
}

func TestDeleteMessagePermissions(t *testing.T) {
	st, db := newStore(t)
	anns := NewAnnouncementService(st)
	svc := NewThreadService(st)
	alice := viewerOf(testutil.Profile(t, db, "alice@unilak.ac.rw", ""))
	bob := viewerOf(testutil.Profile(t, db, "bob@unilak.ac.rw", ""))
	carol := viewerOf(testutil.Profile(t, db, "carol@unilak.ac.rw", ""))

	req, err := anns.Submit(ctx, alice, &dto.SubmitRequestRequest{Content: "Bike for sale"})
	require.NoError(t, err)
	ann, err := anns.Approve(ctx, req.ID, nil)
	require.NoError(t, err)

	first, err := svc.PostToAnnouncement(ctx, bob, ann.ID, "price?")
	require.NoError(t, err)
	second, err := svc.PostToAnnouncement(ctx, bob, ann.ID, "still there?")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.DeleteMessage(ctx, carol, mustParse(t, first.ID)), ErrNotOwner)
	require.NoError(t, svc.DeleteMessage(ctx, bob, mustParse(t, first.ID)))
	require.NoError(t, svc.DeleteMessage(ctx, alice, mustParse(t, second.ID)), "thread owner may delete")
	assert.ErrorIs(t, svc.DeleteMessage(ctx, alice, mustParse(t, second.ID)), ErrMessageNotFound)
}
