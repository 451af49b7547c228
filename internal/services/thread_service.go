package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/unilak/community/internal/identity"
	"github.com/unilak/community/internal/models"
	"github.com/unilak/community/internal/store"
	"github.com/unilak/community/internal/thread"
)

var (
	ErrThreadForbidden = errors.New("not a participant in this thread")
	ErrMessageNotFound = errors.New("message not found")
)

// ThreadService serves the two kinds of chat: the private thread between a
// request owner and moderators, and the replies to a public announcement.
type ThreadService struct {
	store *store.Store
}

func NewThreadService(st *store.Store) *ThreadService {
	return &ThreadService{store: st}
}

func (s *ThreadService) responses() *store.Table[models.AnnouncementResponse] {
	return store.For[models.AnnouncementResponse](s.store, models.TableAnnouncementResponses)
}

func (s *ThreadService) request(ctx context.Context, viewer identity.Viewer, id uuid.UUID) (*models.AnnouncementRequest, error) {
	r, err := store.For[models.AnnouncementRequest](s.store, models.TableAnnouncementRequests).Get(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrRequestNotFound)
	}
	if !viewer.Owns(r.UserID) && !viewer.IsModerator() {
		return nil, ErrThreadForbidden
	}
	return r, nil
}

func (s *ThreadService) announcement(ctx context.Context, id uuid.UUID) (*models.Announcement, error) {
	a, err := store.For[models.Announcement](s.store, models.TableAnnouncements).First(ctx, store.Q().Eq("id", id).With("Request"))
	if err != nil {
		return nil, notFound(err, ErrAnnouncementNotFound)
	}
	return a, nil
}

// RequestThread opens the moderation chat of a request for its owner or a
// moderator.
func (s *ThreadService) RequestThread(ctx context.Context, viewer identity.Viewer, requestID uuid.UUID) ([]thread.Message, error) {
	if _, err := s.request(ctx, viewer, requestID); err != nil {
		return nil, err
	}
	return s.open(ctx, viewer, store.Q().Eq("request_id", requestID), nil)
}

// AnnouncementThread opens the replies to an announcement. The request owner
// and moderators see every reply; anyone else sees only their own.
func (s *ThreadService) AnnouncementThread(ctx context.Context, viewer identity.Viewer, announcementID uuid.UUID) ([]thread.Message, error) {
	a, err := s.announcement(ctx, announcementID)
	if err != nil {
		return nil, err
	}

	q := store.Q().Eq("announcement_id", announcementID)
	owner := a.Request != nil && viewer.Owns(a.Request.UserID)
	if !owner && !viewer.IsModerator() {
		if viewer.Anonymous() {
			return nil, ErrThreadForbidden
		}
		q = q.Eq("user_id", viewer.ID)
	}

	greeting := thread.Greeting(a.ID.String(), a.CreatedAt)
	return s.open(ctx, viewer, q, &greeting)
}

// open loads the thread and marks what the viewer had not seen. A failed
// mark is logged; the thread is still returned.
func (s *ThreadService) open(ctx context.Context, viewer identity.Viewer, q store.Query, greeting *thread.Message) ([]thread.Message, error) {
	msgs, err := s.load(ctx, q)
	if err != nil {
		return nil, err
	}

	if ids := thread.UnseenBy(msgs, viewer.ID.String()); len(ids) > 0 {
		if _, err := s.responses().UpdateWhere(ctx, store.Q().In("id", ids), map[string]any{"seen": true}); err != nil {
			slog.Warn("mark seen failed", "viewer", viewer.ID.String(), "count", len(ids), "error", err)
		} else if fresh, err := s.load(ctx, q); err == nil {
			msgs = fresh
		}
	}

	return thread.Merge(msgs, nil, greeting), nil
}

func (s *ThreadService) load(ctx context.Context, q store.Query) ([]thread.Message, error) {
	rows, err := s.responses().List(ctx, q.With("User", publicProfile...).Order("created_at", false))
	if err != nil {
		return nil, err
	}
	return toMessages(rows), nil
}

func (s *ThreadService) PostToRequest(ctx context.Context, viewer identity.Viewer, requestID uuid.UUID, content string) (*thread.Message, error) {
	if _, err := s.request(ctx, viewer, requestID); err != nil {
		return nil, err
	}
	return s.post(ctx, viewer, models.AnnouncementResponse{RequestID: &requestID}, content)
}

// PostToAnnouncement accepts replies from anyone, signed in or not.
func (s *ThreadService) PostToAnnouncement(ctx context.Context, viewer identity.Viewer, announcementID uuid.UUID, content string) (*thread.Message, error) {
	if _, err := s.announcement(ctx, announcementID); err != nil {
		return nil, err
	}
	return s.post(ctx, viewer, models.AnnouncementResponse{AnnouncementID: &announcementID}, content)
}

func (s *ThreadService) post(ctx context.Context, viewer identity.Viewer, row models.AnnouncementResponse, content string) (*thread.Message, error) {
	row.Content = strings.TrimSpace(content)
	if row.Content == "" {
		return nil, ErrEmptyContent
	}
	if !viewer.Anonymous() {
		id := viewer.ID
		row.UserID = &id
	}
	if err := s.responses().Insert(ctx, &row); err != nil {
		return nil, err
	}
	msg := toMessage(row)
	return &msg, nil
}

// DeleteMessage lets the author, the owner of the thread's request, or a
// moderator remove a message.
func (s *ThreadService) DeleteMessage(ctx context.Context, viewer identity.Viewer, id uuid.UUID) error {
	row, err := s.responses().Get(ctx, id)
	if err != nil {
		return notFound(err, ErrMessageNotFound)
	}

	allowed := viewer.IsModerator() || (row.UserID != nil && viewer.Owns(*row.UserID))
	if !allowed {
		owner, err := s.threadOwner(ctx, row)
		if err != nil {
			return err
		}
		allowed = viewer.Owns(owner)
	}
	if !allowed {
		return ErrNotOwner
	}
	return notFound(s.responses().Delete(ctx, id), ErrMessageNotFound)
}

func (s *ThreadService) threadOwner(ctx context.Context, row *models.AnnouncementResponse) (uuid.UUID, error) {
	if row.RequestID != nil {
		r, err := store.For[models.AnnouncementRequest](s.store, models.TableAnnouncementRequests).Get(ctx, *row.RequestID)
		if err != nil {
			return uuid.Nil, notFound(err, ErrRequestNotFound)
		}
		return r.UserID, nil
	}
	if row.AnnouncementID != nil {
		a, err := s.announcement(ctx, *row.AnnouncementID)
		if err != nil {
			return uuid.Nil, err
		}
		if a.Request != nil {
			return a.Request.UserID, nil
		}
	}
	return uuid.Nil, nil
}

func toMessage(r models.AnnouncementResponse) thread.Message {
	m := thread.Message{
		ID:        r.ID.String(),
		Content:   r.Content,
		Seen:      r.Seen,
		CreatedAt: r.CreatedAt,
	}
	if r.UserID != nil {
		m.UserID = r.UserID.String()
	}
	if r.User != nil {
		m.Author = &thread.Author{Role: r.User.Role}
		if r.User.Username != nil {
			m.Author.Username = *r.User.Username
		}
		if r.User.AvatarURL != nil {
			m.Author.AvatarURL = *r.User.AvatarURL
		}
	}
	return m
}

func toMessages(rows []models.AnnouncementResponse) []thread.Message {
	out := make([]thread.Message, len(rows))
	for i, r := range rows {
		out[i] = toMessage(r)
	}
	return out
}

// CanAccessRequest reports whether viewer may follow the request's thread.
func (s *ThreadService) CanAccessRequest(ctx context.Context, viewer identity.Viewer, requestID uuid.UUID) error {
	_, err := s.request(ctx, viewer, requestID)
	return err
}
