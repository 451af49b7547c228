package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/unilak/community/internal/realtime"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("record not found")

// Cache is the read-through cache consulted by list and count reads.
type Cache interface {
	Get(ctx context.Context, table, key string, dst any) bool
	Set(ctx context.Context, table, key string, v any)
	Invalidate(ctx context.Context, table string)
}

// Hub is where committed changes are published.
type Hub interface {
	Publish(c realtime.Change)
	Subscribe(ctx context.Context, f realtime.Filter) (<-chan realtime.Change, string)
}

type noCache struct{}

func (noCache) Get(context.Context, string, string, any) bool { return false }
func (noCache) Set(context.Context, string, string, any)      {}
func (noCache) Invalidate(context.Context, string)            {}

// Store is the single data access surface. Every mutation made through it
// publishes a change and invalidates cached reads of the touched table.
type Store struct {
	db         *gorm.DB
	hub        Hub
	cache      Cache
	dependents map[string][]string

	// non-nil inside Transaction; changes wait here until commit
	pending *[]realtime.Change
}

func New(db *gorm.DB, hub Hub, cache Cache) *Store {
	if hub == nil {
		hub = realtime.NewHub()
	}
	if cache == nil {
		cache = noCache{}
	}
	return &Store{db: db, hub: hub, cache: cache, dependents: map[string][]string{}}
}

// WithDependents declares tables whose cached reads embed rows of another
// table and must be invalidated with it.
func (s *Store) WithDependents(deps map[string][]string) *Store {
	for table, list := range deps {
		s.dependents[table] = append(s.dependents[table], list...)
	}
	return s
}

func (s *Store) DB() *gorm.DB { return s.db }

func (s *Store) Subscribe(ctx context.Context, f realtime.Filter) (<-chan realtime.Change, string) {
	return s.hub.Subscribe(ctx, f)
}

// Transaction runs fn as one unit of work. Changes are published only after
// a successful commit.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	var pending []realtime.Change
	err := s.db.WithContext(ctx).Transaction(func(gtx *gorm.DB) error {
		return fn(&Store{
			db:         gtx,
			hub:        s.hub,
			cache:      s.cache,
			dependents: s.dependents,
			pending:    &pending,
		})
	})
	if err != nil {
		return err
	}
	for _, c := range pending {
		s.emit(ctx, c)
	}
	return nil
}

func (s *Store) inTx() bool { return s.pending != nil }

func (s *Store) emit(ctx context.Context, c realtime.Change) {
	if s.inTx() {
		*s.pending = append(*s.pending, c)
		return
	}
	s.cache.Invalidate(ctx, c.Table)
	for _, dep := range s.dependents[c.Table] {
		s.cache.Invalidate(ctx, dep)
	}
	s.hub.Publish(c)
}

func newChange(table string, event realtime.EventType, newRow, oldRow any) realtime.Change {
	return realtime.Change{
		Table:           table,
		Event:           event,
		New:             record(newRow),
		Old:             record(oldRow),
		CommitTimestamp: time.Now().UTC(),
	}
}

// record flattens a row into its JSON image.
func record(row any) map[string]any {
	if row == nil {
		return nil
	}
	raw, err := json.Marshal(row)
	if err != nil {
		return nil
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}
