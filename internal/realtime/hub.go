package realtime

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

const subscriptionBuffer = 16

type subscription struct {
	filter Filter
	ch     chan Change
}

// Hub fans committed changes out to filtered subscribers. A subscription
// lives exactly as long as the context it was created with.
type Hub struct {
	// Adding or removing a subscription takes the write lock; publishing
	// only needs the read lock.
	subs map[string]*subscription
	mu   sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		subs: make(map[string]*subscription),
	}
}

// cleanUp removes a subscription once its context terminates and closes the
// channel so the reader loop ends.
func (h *Hub) cleanUp(ctx context.Context, id string) {
	<-ctx.Done()

	h.mu.Lock()
	defer h.mu.Unlock()

	if sub, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(sub.ch)
	}
}

// Subscribe registers a listener for changes matching f.
func (h *Hub) Subscribe(ctx context.Context, f Filter) (<-chan Change, string) {
	id := "sub_" + uuid.New().String()
	ch := make(chan Change, subscriptionBuffer)

	h.mu.Lock()
	h.subs[id] = &subscription{filter: f, ch: ch}
	h.mu.Unlock()

	go h.cleanUp(ctx, id)

	return ch, id
}

// Publish never blocks. A subscriber whose buffer is full misses the event.
func (h *Hub) Publish(c Change) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, sub := range h.subs {
		if !sub.filter.Matches(c) {
			continue
		}
		select {
		case sub.ch <- c:
		default:
			slog.Warn("realtime subscriber lagging, change dropped", "subscription", id, "table", c.Table, "event", string(c.Event))
		}
	}
}

func (h *Hub) ActiveSubscriptions() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
