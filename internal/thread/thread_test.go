package thread

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

func msg(id, user, content string, at time.Duration, seen bool) Message {
	return Message{ID: id, UserID: user, Content: content, CreatedAt: t0.Add(at), Seen: seen}
}

func TestUnseenBy(t *testing.T) {
	msgs := []Message{
		msg("1", "me", "hi", 0, false),
		msg("2", "mod", "hello", time.Second, false),
		msg("3", "mod", "again", 2*time.Second, true),
		Greeting("ann", t0),
	}
	assert.Equal(t, []string{"2"}, UnseenBy(msgs, "me"))
	assert.Equal(t, []string{"1"}, UnseenBy(msgs, "mod"))
	assert.Empty(t, UnseenBy(nil, "me"))
}

func TestMergeGreetingOnlyWhenEmpty(t *testing.T) {
	g := Greeting("ann-1", t0)
	assert.Equal(t, "ann-1-system", g.ID)
	assert.Equal(t, SystemUserID, g.UserID)
	assert.Equal(t, t0.Add(time.Second), g.CreatedAt)

	view := Merge(nil, nil, &g)
	require.Len(t, view, 1)
	assert.True(t, view[0].System)

	view = Merge(nil, []Message{msg("temp-1", "me", "hi", time.Minute, true)}, &g)
	require.Len(t, view, 1)
	assert.False(t, view[0].System)

	view = Merge([]Message{msg("1", "me", "hi", 0, true)}, nil, &g)
	require.Len(t, view, 1)
	assert.Equal(t, "1", view[0].ID)

	assert.Empty(t, Merge(nil, nil, nil))
}

func TestMergeOrdersByCreatedAtStable(t *testing.T) {
	persisted := []Message{
		msg("b", "x", "second", 2*time.Second, true),
		msg("a", "x", "first", time.Second, true),
		msg("c", "x", "tie-persisted", 3*time.Second, true),
	}
	pending := []Message{msg("temp-1", "me", "tie-pending", 3*time.Second, true)}

	view := Merge(persisted, pending, nil)
	ids := make([]string, len(view))
	for i, m := range view {
		ids[i] = m.ID
	}
	assert.Equal(t, []string{"a", "b", "c", "temp-1"}, ids)
}

func TestOutboxReconcile(t *testing.T) {
	o := NewOutbox()
	o.now = func() time.Time { return t0.Add(10 * time.Second) }

	// A row already known before sending never confirms a new pending entry.
	older := msg("old", "me", "same text", 5*time.Second, true)
	assert.Zero(t, o.Reconcile([]Message{older}))

	p := o.Add("me", "same text", nil)
	assert.True(t, IsTemp(p.ID))
	assert.True(t, p.Seen)
	assert.True(t, p.Pending)

	assert.Zero(t, o.Reconcile([]Message{older}))
	assert.Equal(t, 1, o.Len())

	// Another author's identical text does not confirm it either.
	assert.Zero(t, o.Reconcile([]Message{older, msg("x", "you", "same text", 11*time.Second, false)}))

	confirmed := msg("new", "me", "same text", 9*time.Second, true)
	assert.Equal(t, 1, o.Reconcile([]Message{older, confirmed}))
	assert.Zero(t, o.Len())
}

func TestOutboxOneRowConfirmsOneEntry(t *testing.T) {
	o := NewOutbox()
	o.now = func() time.Time { return t0 }

	o.Add("me", "ok", nil)
	o.Add("me", "ok", nil)

	assert.Equal(t, 1, o.Reconcile([]Message{msg("1", "me", "ok", 0, true)}))
	assert.Equal(t, 1, o.Len())
	assert.Equal(t, 1, o.Reconcile([]Message{msg("1", "me", "ok", 0, true), msg("2", "me", "ok", time.Second, true)}))
	assert.Zero(t, o.Len())
}

func TestOutboxRemove(t *testing.T) {
	o := NewOutbox()
	p := o.Add("me", "x", nil)
	assert.True(t, o.Remove(p.ID))
	assert.False(t, o.Remove(p.ID))
	assert.Empty(t, o.Pending())
}

type fakeBackend struct {
	mu        sync.Mutex
	viewer    string
	msgs      []Message
	sendErr   error
	markErr   error
	marked    [][]string
	onSend    func()
	fetches   int
	nextID    int
	clockStep time.Duration
}

func (f *fakeBackend) Messages(context.Context) ([]Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	out := make([]Message, len(f.msgs))
	copy(out, f.msgs)
	return out, nil
}

func (f *fakeBackend) MarkSeen(_ context.Context, ids []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.markErr != nil {
		return f.markErr
	}
	f.marked = append(f.marked, ids)
	set := map[string]bool{}
	for _, id := range ids {
		set[id] = true
	}
	for i := range f.msgs {
		if set[f.msgs[i].ID] {
			f.msgs[i].Seen = true
		}
	}
	return nil
}

func (f *fakeBackend) Send(_ context.Context, content string) error {
	if f.onSend != nil {
		f.onSend()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.nextID++
	f.msgs = append(f.msgs, Message{
		ID:        "srv-" + string(rune('a'+f.nextID)),
		UserID:    f.viewer,
		Content:   content,
		Seen:      false,
		CreatedAt: time.Now(),
	})
	return nil
}

func TestSessionOpenMarksSeen(t *testing.T) {
	b := &fakeBackend{viewer: "me", msgs: []Message{
		msg("1", "me", "question", 0, false),
		msg("2", "mod", "answer", time.Second, false),
	}}
	s := NewSession(b, "me", nil, nil)

	view, err := s.Open(context.Background())
	require.NoError(t, err)
	require.Len(t, view, 2)
	assert.Equal(t, [][]string{{"2"}}, b.marked)
	assert.True(t, view[1].Seen)
	assert.Equal(t, 0, s.UnseenCount())
	assert.Equal(t, 2, b.fetches)

	// Nothing left to mark: one fetch, no mark call.
	_, err = s.Open(context.Background())
	require.NoError(t, err)
	assert.Len(t, b.marked, 1)
	assert.Equal(t, 3, b.fetches)
}

func TestSessionMarkSeenFailureIsNotFatal(t *testing.T) {
	b := &fakeBackend{viewer: "me", markErr: errors.New("offline"), msgs: []Message{
		msg("2", "mod", "answer", 0, false),
	}}
	s := NewSession(b, "me", nil, nil)

	view, err := s.Open(context.Background())
	require.NoError(t, err)
	require.Len(t, view, 1)
	assert.False(t, view[0].Seen)
	assert.Equal(t, 1, s.UnseenCount())
}

func TestSessionSendShowsPendingImmediately(t *testing.T) {
	g := Greeting("ann", t0)
	b := &fakeBackend{viewer: "me"}
	s := NewSession(b, "me", &Author{Username: "keza"}, &g)

	view, err := s.Open(context.Background())
	require.NoError(t, err)
	require.Len(t, view, 1)
	assert.True(t, view[0].System)

	var during []Message
	b.onSend = func() { during = s.View() }

	view, err = s.Send(context.Background(), "  is the library open?  ")
	require.NoError(t, err)

	require.Len(t, during, 1)
	assert.True(t, during[0].Pending)
	assert.True(t, IsTemp(during[0].ID))
	assert.Equal(t, "is the library open?", during[0].Content)
	assert.Equal(t, "keza", during[0].Author.Username)

	require.Len(t, view, 1)
	assert.False(t, view[0].Pending)
	assert.Equal(t, "is the library open?", view[0].Content)
	assert.Zero(t, s.PendingCount())
}

func TestSessionSendFailureRollsBack(t *testing.T) {
	g := Greeting("ann", t0)
	b := &fakeBackend{viewer: "me", sendErr: errors.New("insert failed")}
	s := NewSession(b, "me", nil, &g)

	_, err := s.Open(context.Background())
	require.NoError(t, err)

	view, err := s.Send(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrSendFailed)
	assert.Zero(t, s.PendingCount())
	require.Len(t, view, 1)
	assert.True(t, view[0].System)
}

func TestSessionSendRejectsEmpty(t *testing.T) {
	s := NewSession(&fakeBackend{viewer: "me"}, "me", nil, nil)
	_, err := s.Send(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.Zero(t, s.PendingCount())
}
