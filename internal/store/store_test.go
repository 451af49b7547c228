package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unilak/community/internal/models"
	"github.com/unilak/community/internal/realtime"
	"github.com/unilak/community/internal/testutil"
)

type memCache struct {
	mu          sync.Mutex
	hits        int
	data        map[string]any
	invalidated []string
}

func newMemCache() *memCache { return &memCache{data: map[string]any{}} }

func (m *memCache) Get(_ context.Context, table, key string, dst any) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[table+"/"+key]
	if !ok {
		return false
	}
	m.hits++
	switch d := dst.(type) {
	case *int64:
		*d = v.(int64)
	case *[]models.Fact:
		*d = v.([]models.Fact)
	default:
		return false
	}
	return true
}

func (m *memCache) Set(_ context.Context, table, key string, v any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[table+"/"+key] = v
}

func (m *memCache) Invalidate(_ context.Context, table string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invalidated = append(m.invalidated, table)
	for k := range m.data {
		if len(k) > len(table) && k[:len(table)+1] == table+"/" {
			delete(m.data, k)
		}
	}
}

func recv(t *testing.T, ch <-chan realtime.Change) realtime.Change {
	t.Helper()
	select {
	case c := <-ch:
		return c
	case <-time.After(time.Second):
		t.Fatal("expected a change event")
		return realtime.Change{}
	}
}

func TestInsertListUpdateDelete(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := New(testutil.NewDB(t), realtime.NewHub(), nil)
	facts := For[models.Fact](s, models.TableFacts)
	events, _ := s.Subscribe(ctx, realtime.Filter{Table: models.TableFacts, Event: realtime.EventAll})

	first := &models.Fact{Message: "first"}
	require.NoError(t, facts.Insert(ctx, first))
	assert.Equal(t, realtime.EventInsert, recv(t, events).Event)

	time.Sleep(10 * time.Millisecond)
	second := &models.Fact{Message: "second"}
	require.NoError(t, facts.Insert(ctx, second))
	recv(t, events)

	rows, err := facts.List(ctx, Q().Order("created_at", true))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "second", rows[0].Message)

	page, err := facts.List(ctx, Q().Order("created_at", true).Range(1, 1))
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "first", page[0].Message)

	updated, err := facts.Update(ctx, first.ID, map[string]any{"message": "edited"})
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Message)
	c := recv(t, events)
	assert.Equal(t, realtime.EventUpdate, c.Event)
	assert.Equal(t, "edited", c.New["message"])
	assert.Equal(t, "first", c.Old["message"])

	require.NoError(t, facts.Delete(ctx, first.ID))
	c = recv(t, events)
	assert.Equal(t, realtime.EventDelete, c.Event)
	assert.Equal(t, first.ID.String(), c.Old["id"])

	_, err = facts.Get(ctx, first.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	total, err := facts.Count(ctx, Q())
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestUpdateWhereAndDeleteWhere(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	s := New(db, nil, nil)
	owner := testutil.Profile(t, db, "owner@unilak.ac.rw", models.RoleStudent)
	other := testutil.Profile(t, db, "other@unilak.ac.rw", models.RoleModerator)

	req := &models.AnnouncementRequest{UserID: owner.ID, Content: "lost keys"}
	require.NoError(t, For[models.AnnouncementRequest](s, models.TableAnnouncementRequests).Insert(ctx, req))

	msgs := For[models.AnnouncementResponse](s, models.TableAnnouncementResponses)
	for _, author := range []*models.Profile{owner, other, other} {
		id := author.ID
		require.NoError(t, msgs.Insert(ctx, &models.AnnouncementResponse{RequestID: &req.ID, UserID: &id, Content: "msg"}))
	}

	n, err := msgs.UpdateWhere(ctx, Q().Eq("request_id", req.ID).Neq("user_id", owner.ID).Eq("seen", false), map[string]any{"seen": true})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	unseen, err := msgs.Count(ctx, Q().Eq("seen", false))
	require.NoError(t, err)
	assert.Equal(t, int64(1), unseen)

	n, err = msgs.UpdateWhere(ctx, Q().Eq("content", "nothing"), map[string]any{"seen": true})
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = msgs.DeleteWhere(ctx, Q().Eq("request_id", req.ID))
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestTransactionPublishesOnlyAfterCommit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := New(testutil.NewDB(t), realtime.NewHub(), nil)
	events, _ := s.Subscribe(ctx, realtime.Filter{Table: models.TableFacts})

	boom := errors.New("boom")
	err := s.Transaction(ctx, func(tx *Store) error {
		require.NoError(t, For[models.Fact](tx, models.TableFacts).Insert(ctx, &models.Fact{Message: "rolled back"}))
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Len(t, events, 0)

	total, err := For[models.Fact](s, models.TableFacts).Count(ctx, Q())
	require.NoError(t, err)
	assert.Zero(t, total)

	err = s.Transaction(ctx, func(tx *Store) error {
		return For[models.Fact](tx, models.TableFacts).Insert(ctx, &models.Fact{Message: "kept"})
	})
	require.NoError(t, err)
	assert.Equal(t, "kept", recv(t, events).New["message"])
}

func TestReadsAreCachedAndWritesInvalidate(t *testing.T) {
	ctx := context.Background()
	c := newMemCache()
	s := New(testutil.NewDB(t), nil, c).WithDependents(map[string][]string{
		models.TableFacts: {"fact_digest"},
	})
	facts := For[models.Fact](s, models.TableFacts)

	require.NoError(t, facts.Insert(ctx, &models.Fact{Message: "a"}))
	_, err := facts.List(ctx, Q())
	require.NoError(t, err)
	rows, err := facts.List(ctx, Q())
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, 1, c.hits)

	require.NoError(t, facts.Insert(ctx, &models.Fact{Message: "b"}))
	assert.Contains(t, c.invalidated, "fact_digest")

	rows, err = facts.List(ctx, Q())
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.Equal(t, 1, c.hits)
}

func TestQueryKeyDistinguishesQueries(t *testing.T) {
	a := Q().Eq("topic_id", "x").Order("created_at", true).Range(0, 10)
	b := Q().Eq("topic_id", "x").Order("created_at", true).Range(10, 10)
	assert.NotEqual(t, a.Key(), b.Key())
	assert.Equal(t, a.Key(), Q().Eq("topic_id", "x").Order("created_at", true).Range(0, 10).Key())

	base := Q().Eq("a", 1)
	_ = base.Eq("b", 2)
	assert.Equal(t, Q().Eq("a", 1).Key(), base.Key())
}
