package handlers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/unilak/community/internal/identity"
	"github.com/unilak/community/internal/models"
	"github.com/unilak/community/internal/realtime"
)

const filterKey = "realtime_filter"

var (
	errNeedsSignIn   = errors.New("sign in to follow this table")
	errNotWatchable  = errors.New("this table cannot be followed")
	errModeratorOnly = errors.New("moderator access required")
)

// Subscriber is where the handler registers listeners.
type Subscriber interface {
	Subscribe(ctx context.Context, f realtime.Filter) (<-chan realtime.Change, string)
}

// RequestAccess checks that a viewer may follow a request's chat.
type RequestAccess interface {
	CanAccessRequest(ctx context.Context, viewer identity.Viewer, requestID uuid.UUID) error
}

// Event is what a client receives for each change: enough to know what to
// re-fetch, never the row itself.
type Event struct {
	Table           string             `json:"table"`
	Event           realtime.EventType `json:"event"`
	ID              any                `json:"id,omitempty"`
	Column          string             `json:"column,omitempty"`
	Value           any                `json:"value,omitempty"`
	CommitTimestamp time.Time          `json:"commit_timestamp"`
}

func newEvent(c realtime.Change, f realtime.Filter) Event {
	rec := c.Record()
	e := Event{Table: c.Table, Event: c.Event, ID: rec["id"], CommitTimestamp: c.CommitTimestamp}
	if f.Column != "" {
		e.Column = f.Column
		e.Value = rec[f.Column]
	}
	return e
}

type RealtimeHandler struct {
	hub          Subscriber
	requests     RequestAccess
	writeTimeout time.Duration
}

func NewRealtimeHandler(hub Subscriber, requests RequestAccess, writeTimeout time.Duration) *RealtimeHandler {
	return &RealtimeHandler{hub: hub, requests: requests, writeTimeout: writeTimeout}
}

// Upgrade validates the subscription before the websocket handshake.
func (h *RealtimeHandler) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return errorJSON(c, fiber.StatusUpgradeRequired, "Websocket upgrade required")
	}

	f, err := realtime.ParseFilter(c.Query("table"), c.Query("event"), c.Query("filter"))
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}

	viewer := identity.GetViewer(c)
	if err := h.authorize(c.UserContext(), viewer, f); err != nil {
		switch {
		case errors.Is(err, errNeedsSignIn):
			return errorJSON(c, fiber.StatusUnauthorized, "Unauthorized")
		case errors.Is(err, errNotWatchable):
			return errorJSON(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, errModeratorOnly):
			return errorJSON(c, fiber.StatusForbidden, "Moderator access required")
		}
		return serviceError(c, err, "Failed to subscribe")
	}

	c.Locals(filterKey, f)
	return c.Next()
}

// authorize decides who may follow what. Public tables are open to
// everyone; chats need the same access as reading them.
func (h *RealtimeHandler) authorize(ctx context.Context, viewer identity.Viewer, f realtime.Filter) error {
	switch f.Table {
	case models.TableReviews, models.TableAnnouncements, models.TableTopics,
		models.TableSubtopics, models.TableFacts:
		return nil

	case models.TableAnnouncementRequests:
		if viewer.Anonymous() {
			return errNeedsSignIn
		}
		if viewer.IsModerator() || (f.Column == "user_id" && f.Value == viewer.ID.String()) {
			return nil
		}
		return errModeratorOnly

	case models.TableAnnouncementResponses:
		if viewer.Anonymous() {
			return errNeedsSignIn
		}
		if viewer.IsModerator() {
			return nil
		}
		switch f.Column {
		case "announcement_id":
			return nil
		case "request_id":
			id, err := uuid.Parse(f.Value)
			if err != nil {
				return errNotWatchable
			}
			return h.requests.CanAccessRequest(ctx, viewer, id)
		}
		return errModeratorOnly

	case models.TableReports, models.TableFeedback, models.TableProfiles:
		if viewer.Anonymous() {
			return errNeedsSignIn
		}
		if viewer.IsModerator() {
			return nil
		}
		return errModeratorOnly
	}
	return errNotWatchable
}

// Stream forwards matching changes until either side goes away.
func (h *RealtimeHandler) Stream() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		f, ok := conn.Locals(filterKey).(realtime.Filter)
		if !ok {
			return
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		changes, id := h.hub.Subscribe(ctx, f)
		slog.Debug("realtime subscribe", "id", id, "filter", f.String())

		// The client never sends anything we need; reading detects close.
		go func() {
			defer cancel()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case c, ok := <-changes:
				if !ok {
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
				if err := conn.WriteJSON(newEvent(c, f)); err != nil {
					slog.Debug("realtime write failed", "id", id, "error", err)
					return
				}
			}
		}
	})
}
