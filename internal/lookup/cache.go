// Package lookup keeps the paginated result sets behind each entity picker.
package lookup

import (
	"context"
	"strings"
	"sync"

	"orderdesk/internal/domain"
)

// Page is a snapshot of everything cached for one kind.
type Page[T any] struct {
	Items       []T
	TotalCount  int
	CurrentPage int
}

// HasMore reports whether the remote holds entries not yet cached.
func (p Page[T]) HasMore() bool {
	return len(p.Items) < p.TotalCount
}

// Cache is the append-only result set of one entity kind. A first page
// replaces the set (Reset), later pages extend it (Append).
type Cache[T any] struct {
	mu     sync.Mutex
	key    func(T) domain.ID
	items  []T
	index  map[domain.ID]int
	total  int
	page   int
	loaded bool
	busy   bool
	// idle is closed when the in-flight fetch releases the cache.
	idle chan struct{}
}

// NewCache returns an empty cache keyed by key.
func NewCache[T any](key func(T) domain.ID) *Cache[T] {
	return &Cache[T]{key: key, index: map[domain.ID]int{}}
}

// Reset replaces the cached set with the first page of a fresh lookup.
func (c *Cache[T]) Reset(items []T, total, page int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
	c.index = make(map[domain.ID]int, len(items))
	c.appendLocked(items)
	c.setCountsLocked(total, page)
	c.loaded = true
}

// Append adds a later page. Entries already cached are skipped and existing
// entries keep their position. It returns how many entries were added.
func (c *Cache[T]) Append(items []T, total, page int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	added := c.appendLocked(items)
	c.setCountsLocked(total, page)
	c.loaded = true
	return added
}

func (c *Cache[T]) appendLocked(items []T) int {
	added := 0
	for _, it := range items {
		k := c.key(it)
		if _, dup := c.index[k]; dup {
			continue
		}
		c.index[k] = len(c.items)
		c.items = append(c.items, it)
		added++
	}
	return added
}

func (c *Cache[T]) setCountsLocked(total, page int) {
	if total < len(c.items) {
		total = len(c.items)
	}
	c.total = total
	c.page = page
}

// Snapshot copies the cached page set.
func (c *Cache[T]) Snapshot() Page[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	items := make([]T, len(c.items))
	copy(items, c.items)
	return Page[T]{Items: items, TotalCount: c.total, CurrentPage: c.page}
}

// Loaded reports whether at least one page has been stored.
func (c *Cache[T]) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded
}

// Find returns the cached entry with id.
func (c *Cache[T]) Find(id domain.ID) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i, ok := c.index[id]
	if !ok {
		var zero T
		return zero, false
	}
	return c.items[i], true
}

// TryAcquire marks the cache busy. It returns false when a fetch is already
// in flight for this kind.
func (c *Cache[T]) TryAcquire() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return false
	}
	c.busy = true
	c.idle = make(chan struct{})
	return true
}

// Release clears the busy mark set by TryAcquire and wakes waiters.
func (c *Cache[T]) Release() {
	c.mu.Lock()
	c.busy = false
	if c.idle != nil {
		close(c.idle)
		c.idle = nil
	}
	c.mu.Unlock()
}

// WaitIdle blocks until no fetch is in flight or ctx is done.
func (c *Cache[T]) WaitIdle(ctx context.Context) error {
	c.mu.Lock()
	idle := c.idle
	c.mu.Unlock()
	if idle == nil {
		return nil
	}
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Busy reports whether a fetch is in flight.
func (c *Cache[T]) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// Projection lists the searchable text fields of an entry.
type Projection[T any] func(T) []string

// Filter returns the cached entries whose projected fields contain query,
// ignoring case. An empty query returns every entry. The cache is not modified.
func Filter[T any](items []T, query string, project Projection[T]) []T {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" || project == nil {
		out := make([]T, len(items))
		copy(out, items)
		return out
	}
	out := make([]T, 0, len(items))
	for _, it := range items {
		for _, field := range project(it) {
			if strings.Contains(strings.ToLower(field), q) {
				out = append(out, it)
				break
			}
		}
	}
	return out
}
