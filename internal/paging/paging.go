// Package paging implements the list windowing used by the API and by
// clients walking a feed.
package paging

import (
	"strconv"
	"sync"

	"github.com/unilak/community/internal/format"
)

const (
	ReviewPageSize = 10
	FactPageSize   = 5
	MaxPageSize    = 50
)

// Window returns a sane offset/limit pair from raw query values.
func Window(rawOffset, rawLimit string, defaultLimit int) (offset, limit int) {
	offset, _ = strconv.Atoi(rawOffset)
	if offset < 0 {
		offset = 0
	}
	limit, err := strconv.Atoi(rawLimit)
	if err != nil || limit <= 0 {
		limit = defaultLimit
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return offset, limit
}

// Page converts a 1-based page number into an offset/limit pair.
func Page(rawPage string, size int) (page, offset int) {
	page, err := strconv.Atoi(rawPage)
	if err != nil || page < 1 {
		page = 1
	}
	return page, (page - 1) * size
}

func PageCount(total int64, size int) int {
	if size <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(size) - 1) / int64(size))
}

// HasMore reports whether another page may follow one of n rows. A short
// page is always the last.
func HasMore(n, size int) bool {
	return n >= size
}

// Pager walks an offset-paginated feed.
type Pager struct {
	PageSize int
	offset   int
	hasMore  bool
}

func NewPager(size int) *Pager {
	return &Pager{PageSize: size, hasMore: true}
}

// Next is the offset to request next.
func (p *Pager) Next() int { return p.offset }

func (p *Pager) HasMore() bool { return p.hasMore }

// Accept records a fetched page of n rows.
func (p *Pager) Accept(n int) {
	p.offset += n
	p.hasMore = HasMore(n, p.PageSize)
}

// Reset starts the feed over, e.g. after a filter change.
func (p *Pager) Reset() {
	p.offset = 0
	p.hasMore = true
}

// Expander tracks which entities show their full text. Entities not in the
// set render truncated.
type Expander struct {
	mu       sync.Mutex
	expanded map[string]bool
}

func NewExpander() *Expander {
	return &Expander{expanded: make(map[string]bool)}
}

// Toggle flips the entity and returns whether it is now expanded.
func (e *Expander) Toggle(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.expanded[id] {
		delete(e.expanded, id)
		return false
	}
	e.expanded[id] = true
	return true
}

func (e *Expander) Expanded(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.expanded[id]
}

// Display returns the text to render for the entity.
func (e *Expander) Display(id, text string, max int) string {
	if e.Expanded(id) {
		return text
	}
	return format.Truncate(text, max)
}

// Reset collapses everything, as on a full reload.
func (e *Expander) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.expanded = make(map[string]bool)
}
