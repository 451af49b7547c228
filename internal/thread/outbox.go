package thread

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultSkew is how far a server timestamp may trail the local clock and
// still confirm a pending message.
const DefaultSkew = time.Minute

type pendingEntry struct {
	msg Message
	gen int
}

// Outbox holds messages sent optimistically and not yet seen in a fetch.
type Outbox struct {
	mu      sync.Mutex
	entries []pendingEntry
	gen     int
	skew    time.Duration
	now     func() time.Time

	// generation in which each persisted id first appeared
	firstSeen map[string]int
	// persisted ids that already confirmed a pending entry
	claimed map[string]bool
}

func NewOutbox() *Outbox {
	return &Outbox{
		firstSeen: make(map[string]int),
		claimed:   make(map[string]bool),
		skew:      DefaultSkew,
		now:       time.Now,
	}
}

// Add queues content as a pending message authored by userID.
func (o *Outbox) Add(userID, content string, author *Author) Message {
	o.mu.Lock()
	defer o.mu.Unlock()

	msg := Message{
		ID:        TempIDPrefix + uuid.NewString(),
		Content:   content,
		UserID:    userID,
		Seen:      true,
		CreatedAt: o.now(),
		Author:    author,
		Pending:   true,
	}
	o.entries = append(o.entries, pendingEntry{msg: msg, gen: o.gen})
	return msg
}

// Remove drops a pending message, e.g. after its insert failed.
func (o *Outbox) Remove(id string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	for i, e := range o.entries {
		if e.msg.ID == id {
			o.entries = append(o.entries[:i], o.entries[i+1:]...)
			return true
		}
	}
	return false
}

func (o *Outbox) Pending() []Message {
	o.mu.Lock()
	defer o.mu.Unlock()

	out := make([]Message, len(o.entries))
	for i, e := range o.entries {
		out[i] = e.msg
	}
	return out
}

func (o *Outbox) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.entries)
}

// Reconcile drops pending messages confirmed by a fetch and returns how many
// went. A persisted row confirms at most one pending message, and only if it
// has the same author and content, first appeared after the message was
// queued, and is not older than the message minus the clock skew.
func (o *Outbox) Reconcile(persisted []Message) int {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.gen++
	for _, m := range persisted {
		if _, ok := o.firstSeen[m.ID]; !ok {
			o.firstSeen[m.ID] = o.gen
		}
	}

	kept := o.entries[:0]
	removed := 0
	for _, e := range o.entries {
		if o.confirm(e, persisted) {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	o.entries = kept
	return removed
}

func (o *Outbox) confirm(e pendingEntry, persisted []Message) bool {
	for _, m := range persisted {
		if o.claimed[m.ID] {
			continue
		}
		if m.UserID != e.msg.UserID || m.Content != e.msg.Content {
			continue
		}
		if o.firstSeen[m.ID] <= e.gen {
			continue
		}
		if m.CreatedAt.Before(e.msg.CreatedAt.Add(-o.skew)) {
			continue
		}
		o.claimed[m.ID] = true
		return true
	}
	return false
}
