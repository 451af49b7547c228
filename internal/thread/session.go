package thread

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

var (
	ErrEmptyMessage = errors.New("message is empty")
	ErrSendFailed   = errors.New(SendFailedText)
)

// Backend is the persistence side of one conversation.
type Backend interface {
	// Messages returns the persisted messages in creation order.
	Messages(ctx context.Context) ([]Message, error)
	MarkSeen(ctx context.Context, ids []string) error
	Send(ctx context.Context, content string) error
}

// Session is a client-side view of one conversation for one viewer.
type Session struct {
	backend  Backend
	viewer   string
	author   *Author
	greeting *Message
	outbox   *Outbox

	mu        sync.Mutex
	persisted []Message
}

func NewSession(backend Backend, viewer string, author *Author, greeting *Message) *Session {
	return &Session{
		backend:  backend,
		viewer:   viewer,
		author:   author,
		greeting: greeting,
		outbox:   NewOutbox(),
	}
}

// Open loads the thread and marks everything addressed to the viewer as
// seen. A failed mark-seen is logged and retried on the next load.
func (s *Session) Open(ctx context.Context) ([]Message, error) {
	msgs, err := s.backend.Messages(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load thread: %w", err)
	}

	if ids := UnseenBy(msgs, s.viewer); len(ids) > 0 {
		if err := s.backend.MarkSeen(ctx, ids); err != nil {
			slog.Warn("mark seen failed", "viewer", s.viewer, "count", len(ids), "error", err)
		} else if fresh, err := s.backend.Messages(ctx); err == nil {
			msgs = fresh
		} else {
			slog.Warn("refetch after mark seen failed", "error", err)
		}
	}

	s.store(msgs)
	return s.View(), nil
}

// Refresh reloads after a change notification.
func (s *Session) Refresh(ctx context.Context) ([]Message, error) {
	return s.Open(ctx)
}

// Send shows the message immediately as pending, then persists it. On
// failure the pending entry is withdrawn and ErrSendFailed returned.
func (s *Session) Send(ctx context.Context, content string) ([]Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return s.View(), ErrEmptyMessage
	}

	pending := s.outbox.Add(s.viewer, content, s.author)
	if err := s.backend.Send(ctx, content); err != nil {
		s.outbox.Remove(pending.ID)
		slog.Error("send message failed", "viewer", s.viewer, "error", err)
		return s.View(), fmt.Errorf("%w: %v", ErrSendFailed, err)
	}

	msgs, err := s.backend.Messages(ctx)
	if err != nil {
		// The entry stays pending until a later refresh confirms it.
		return s.View(), nil
	}
	s.store(msgs)
	return s.View(), nil
}

func (s *Session) store(msgs []Message) {
	s.mu.Lock()
	s.persisted = msgs
	s.mu.Unlock()
	s.outbox.Reconcile(msgs)
}

// View is the thread as it should be rendered now.
func (s *Session) View() []Message {
	s.mu.Lock()
	persisted := s.persisted
	s.mu.Unlock()
	return Merge(persisted, s.outbox.Pending(), s.greeting)
}

func (s *Session) UnseenCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(UnseenBy(s.persisted, s.viewer))
}

func (s *Session) PendingCount() int {
	return s.outbox.Len()
}
