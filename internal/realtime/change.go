package realtime

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type EventType string

const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
	EventDelete EventType = "DELETE"
	EventAll    EventType = "*"
)

// Change describes one committed row mutation. Receivers treat it as an
// invalidation signal and re-fetch; the row images are informational.
type Change struct {
	Table           string         `json:"table"`
	Event           EventType      `json:"event"`
	New             map[string]any `json:"new,omitempty"`
	Old             map[string]any `json:"old,omitempty"`
	CommitTimestamp time.Time      `json:"commit_timestamp"`
}

// Record returns the row image a filter is evaluated against.
func (c Change) Record() map[string]any {
	if c.Event == EventDelete {
		return c.Old
	}
	return c.New
}

// Filter selects changes for one table, optionally narrowed to an event type
// and a single column equality.
type Filter struct {
	Table  string
	Event  EventType
	Column string
	Value  string
}

var ErrInvalidFilter = errors.New("invalid realtime filter")

// ParseFilter builds a Filter from a table, an event name and an optional
// "column=eq.value" expression.
func ParseFilter(table, event, expr string) (Filter, error) {
	f := Filter{Table: strings.TrimSpace(table), Event: EventAll}
	if f.Table == "" {
		return Filter{}, fmt.Errorf("%w: table is required", ErrInvalidFilter)
	}

	switch EventType(strings.ToUpper(strings.TrimSpace(event))) {
	case "", EventAll:
	case EventInsert:
		f.Event = EventInsert
	case EventUpdate:
		f.Event = EventUpdate
	case EventDelete:
		f.Event = EventDelete
	default:
		return Filter{}, fmt.Errorf("%w: unknown event %q", ErrInvalidFilter, event)
	}

	expr = strings.TrimSpace(expr)
	if expr == "" {
		return f, nil
	}
	col, rest, ok := strings.Cut(expr, "=")
	if !ok || col == "" || !strings.HasPrefix(rest, "eq.") {
		return Filter{}, fmt.Errorf("%w: expected column=eq.value, got %q", ErrInvalidFilter, expr)
	}
	f.Column = col
	f.Value = strings.TrimPrefix(rest, "eq.")
	return f, nil
}

func (f Filter) Matches(c Change) bool {
	if f.Table != c.Table {
		return false
	}
	if f.Event != EventAll && f.Event != "" && f.Event != c.Event {
		return false
	}
	if f.Column == "" {
		return true
	}
	v, ok := c.Record()[f.Column]
	if !ok || v == nil {
		return false
	}
	return fmt.Sprint(v) == f.Value
}

func (f Filter) String() string {
	s := f.Table + ":" + string(f.Event)
	if f.Column != "" {
		s += ":" + f.Column + "=eq." + f.Value
	}
	return s
}
