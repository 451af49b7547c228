package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/unilak/community/internal/dto"
	"github.com/unilak/community/internal/format"
	"github.com/unilak/community/internal/identity"
	"github.com/unilak/community/internal/models"
	"github.com/unilak/community/internal/store"
	"github.com/unilak/community/internal/thread"
)

var (
	ErrRequestNotFound      = errors.New("announcement request not found")
	ErrRequestNotPending    = errors.New("announcement request is no longer pending")
	ErrAnnouncementNotFound = errors.New("announcement not found")
	ErrEmptyContent         = errors.New("content is required")
	ErrInvalidStatus        = errors.New("invalid status")
)

type AnnouncementService struct {
	store *store.Store
	now   func() time.Time
}

func NewAnnouncementService(st *store.Store) *AnnouncementService {
	return &AnnouncementService{store: st, now: time.Now}
}

func (s *AnnouncementService) requests() *store.Table[models.AnnouncementRequest] {
	return store.For[models.AnnouncementRequest](s.store, models.TableAnnouncementRequests)
}

func (s *AnnouncementService) announcements() *store.Table[models.Announcement] {
	return store.For[models.Announcement](s.store, models.TableAnnouncements)
}

func (s *AnnouncementService) responses() *store.Table[models.AnnouncementResponse] {
	return store.For[models.AnnouncementResponse](s.store, models.TableAnnouncementResponses)
}

func (s *AnnouncementService) Submit(ctx context.Context, viewer identity.Viewer, req *dto.SubmitRequestRequest) (*models.AnnouncementRequest, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, ErrEmptyContent
	}
	r := models.AnnouncementRequest{
		UserID:  viewer.ID,
		Content: content,
		Phone:   optionalString(req.Phone),
		Status:  models.StatusPending,
	}
	if err := s.requests().Insert(ctx, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// Mine lists the viewer's requests with their chat state.
func (s *AnnouncementService) Mine(ctx context.Context, viewer identity.Viewer) ([]dto.MyRequestView, error) {
	reqs, err := s.requests().List(ctx, store.Q().
		Eq("user_id", viewer.ID).
		With("Responses").
		Order("created_at", true))
	if err != nil {
		return nil, err
	}
	if len(reqs) == 0 {
		return []dto.MyRequestView{}, nil
	}

	reqIDs := make([]uuid.UUID, len(reqs))
	for i, r := range reqs {
		reqIDs[i] = r.ID
	}
	anns, err := s.announcements().List(ctx, store.Q().In("request_id", reqIDs).With("Responses"))
	if err != nil {
		return nil, err
	}
	byRequest := make(map[uuid.UUID]models.Announcement, len(anns))
	for _, a := range anns {
		byRequest[a.RequestID] = a
	}

	me := viewer.ID.String()
	views := make([]dto.MyRequestView, 0, len(reqs))
	for _, r := range reqs {
		v := dto.MyRequestView{AnnouncementRequest: r}
		msgs := toMessages(r.Responses)
		v.UnseenCount = len(thread.UnseenBy(msgs, me))
		for _, m := range msgs {
			if m.UserID != me {
				v.HasModeratorMessages = true
				break
			}
		}
		if a, ok := byRequest[r.ID]; ok {
			id := a.ID
			v.AnnouncementID = &id
			community := toMessages(a.Responses)
			v.CommunityReplies = len(community)
			v.UnseenCount += len(thread.UnseenBy(community, me))
		}
		views = append(views, v)
	}
	return views, nil
}

// DeleteRequest removes a request with its chat and any announcement made
// from it. Owners and moderators only.
func (s *AnnouncementService) DeleteRequest(ctx context.Context, viewer identity.Viewer, id uuid.UUID) error {
	r, err := s.requests().Get(ctx, id)
	if err != nil {
		return notFound(err, ErrRequestNotFound)
	}
	if !viewer.Owns(r.UserID) && !viewer.IsModerator() {
		return ErrNotOwner
	}
	return deleteRequest(ctx, s.store, id)
}

func deleteRequest(ctx context.Context, st *store.Store, id uuid.UUID) error {
	return st.Transaction(ctx, func(tx *store.Store) error {
		anns := store.For[models.Announcement](tx, models.TableAnnouncements)
		responses := store.For[models.AnnouncementResponse](tx, models.TableAnnouncementResponses)

		linked, err := anns.List(ctx, store.Q().Eq("request_id", id))
		if err != nil {
			return err
		}
		for _, a := range linked {
			if _, err := responses.DeleteWhere(ctx, store.Q().Eq("announcement_id", a.ID)); err != nil {
				return err
			}
			if err := anns.Delete(ctx, a.ID); err != nil {
				return err
			}
		}
		if _, err := responses.DeleteWhere(ctx, store.Q().Eq("request_id", id)); err != nil {
			return err
		}
		return notFound(store.For[models.AnnouncementRequest](tx, models.TableAnnouncementRequests).Delete(ctx, id), ErrRequestNotFound)
	})
}

// ListRequests is the moderator queue, newest first.
func (s *AnnouncementService) ListRequests(ctx context.Context, status string, offset, limit int) ([]models.AnnouncementRequest, int64, error) {
	q := store.Q()
	switch status {
	case "", "all":
	case models.StatusPending, models.StatusApproved, models.StatusRejected:
		q = q.Eq("status", status)
	default:
		return nil, 0, ErrInvalidStatus
	}

	total, err := s.requests().Count(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	reqs, err := s.requests().List(ctx, q.
		With("User", append([]string{"email"}, publicProfile...)...).
		Order("created_at", true).
		Range(offset, limit))
	if err != nil {
		return nil, 0, err
	}
	return reqs, total, nil
}

// Edit changes a pending request's content or phone before approval.
func (s *AnnouncementService) Edit(ctx context.Context, id uuid.UUID, req *dto.EditRequestRequest) (*models.AnnouncementRequest, error) {
	patch := map[string]any{}
	if req.Content != nil {
		content := strings.TrimSpace(*req.Content)
		if content == "" {
			return nil, ErrEmptyContent
		}
		patch["content"] = content
	}
	if req.Phone != nil {
		patch["phone"] = optionalString(*req.Phone)
	}
	if len(patch) == 0 {
		r, err := s.requests().Get(ctx, id)
		return r, notFound(err, ErrRequestNotFound)
	}

	if err := s.transitionPending(ctx, s.store, id, patch); err != nil {
		return nil, err
	}
	r, err := s.requests().Get(ctx, id)
	return r, notFound(err, ErrRequestNotFound)
}

// Approve marks a pending request approved and publishes its announcement
// in one transaction. Edits in req are applied to both.
func (s *AnnouncementService) Approve(ctx context.Context, id uuid.UUID, req *dto.EditRequestRequest) (*models.Announcement, error) {
	var ann models.Announcement
	err := s.store.Transaction(ctx, func(tx *store.Store) error {
		r, err := store.For[models.AnnouncementRequest](tx, models.TableAnnouncementRequests).Get(ctx, id)
		if err != nil {
			return notFound(err, ErrRequestNotFound)
		}

		content, phone := r.Content, r.Phone
		if req != nil && req.Content != nil {
			if content = strings.TrimSpace(*req.Content); content == "" {
				return ErrEmptyContent
			}
		}
		if req != nil && req.Phone != nil {
			phone = optionalString(*req.Phone)
		}

		if err := s.transitionPending(ctx, tx, id, map[string]any{
			"status":  models.StatusApproved,
			"content": content,
			"phone":   phone,
		}); err != nil {
			return err
		}

		ann = models.Announcement{RequestID: id, Message: content, Phone: phone}
		return store.For[models.Announcement](tx, models.TableAnnouncements).Insert(ctx, &ann)
	})
	if err != nil {
		return nil, err
	}
	return &ann, nil
}

func (s *AnnouncementService) Reject(ctx context.Context, id uuid.UUID) error {
	return s.transitionPending(ctx, s.store, id, map[string]any{"status": models.StatusRejected})
}

// transitionPending patches the request only while it is still pending.
func (s *AnnouncementService) transitionPending(ctx context.Context, st *store.Store, id uuid.UUID, patch map[string]any) error {
	reqs := store.For[models.AnnouncementRequest](st, models.TableAnnouncementRequests)
	n, err := reqs.UpdateWhere(ctx, store.Q().Eq("id", id).Eq("status", models.StatusPending), patch)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	if _, err := reqs.Get(ctx, id); err != nil {
		return notFound(err, ErrRequestNotFound)
	}
	return ErrRequestNotPending
}

// ListAnnouncements is the public feed with owner and reply count.
func (s *AnnouncementService) ListAnnouncements(ctx context.Context, offset, limit int) ([]dto.AnnouncementView, error) {
	anns, err := s.announcements().List(ctx, store.Q().
		With("Request").
		With("Request.User", publicProfile...).
		Order("created_at", true).
		Range(offset, limit))
	if err != nil {
		return nil, err
	}

	now := s.now()
	views := make([]dto.AnnouncementView, 0, len(anns))
	for _, a := range anns {
		count, err := s.responses().Count(ctx, store.Q().Eq("announcement_id", a.ID))
		if err != nil {
			return nil, err
		}
		v := dto.AnnouncementView{
			ID:            a.ID,
			RequestID:     a.RequestID,
			Message:       a.Message,
			Phone:         a.Phone,
			CreatedAt:     a.CreatedAt,
			TimeAgo:       format.TimeAgo(a.CreatedAt, now),
			Username:      format.DisplayName(nil),
			ResponseCount: count,
		}
		if a.Request != nil && a.Request.User != nil {
			v.Username = format.DisplayName(a.Request.User.Username)
			v.AvatarURL = a.Request.User.AvatarURL
		}
		views = append(views, v)
	}
	return views, nil
}
