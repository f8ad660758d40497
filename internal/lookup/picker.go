package lookup

import (
	"context"
	"errors"
	"fmt"

	"orderdesk/internal/domain"
)

// FetchFunc loads page (1-based) of a kind and reports the remote total count.
type FetchFunc[T any] func(ctx context.Context, page int) (items []T, total int, err error)

// Listing is a kind-agnostic view of a picker handed to UI collaborators.
type Listing struct {
	Kind        domain.Kind `json:"kind"`
	Items       any         `json:"items"`
	Shown       int         `json:"shown"`
	Cached      int         `json:"cached"`
	TotalCount  int         `json:"totalCount"`
	CurrentPage int         `json:"currentPage"`
	HasMore     bool        `json:"hasMore"`
	Loading     bool        `json:"loading"`
}

// Source is the untyped face of a Picker, used where the kind is only known at runtime.
type Source interface {
	Kind() domain.Kind
	Open(ctx context.Context) error
	LoadMore(ctx context.Context) error
	Listing(query string) Listing
}

// Picker couples a kind's cache with its remote fetcher and search projection.
type Picker[T any] struct {
	kind    domain.Kind
	cache   *Cache[T]
	fetch   FetchFunc[T]
	project Projection[T]
	// hide drops entries from listings without touching the cache.
	hide func(T) bool
	// observe is told about every page fetch outcome.
	observe func(kind domain.Kind, err error)
}

// NewPicker builds a picker for kind.
func NewPicker[T any](kind domain.Kind, key func(T) domain.ID, fetch FetchFunc[T], project Projection[T]) *Picker[T] {
	return &Picker[T]{
		kind:    kind,
		cache:   NewCache(key),
		fetch:   fetch,
		project: project,
	}
}

// WithHidden sets a predicate for entries that listings should omit.
func (p *Picker[T]) WithHidden(hide func(T) bool) *Picker[T] {
	p.hide = hide
	return p
}

// WithObserver sets a callback invoked after every page fetch.
func (p *Picker[T]) WithObserver(fn func(kind domain.Kind, err error)) *Picker[T] {
	p.observe = fn
	return p
}

func (p *Picker[T]) Kind() domain.Kind { return p.kind }

// Open performs the first lookup of the kind. A kind already loaded is served
// from the cache without a remote call.
func (p *Picker[T]) Open(ctx context.Context) error {
	if p.cache.Loaded() {
		return nil
	}
	if !p.cache.TryAcquire() {
		return fmt.Errorf("%w: loading %s", domain.ErrBusy, p.kind)
	}
	defer p.cache.Release()
	return p.openLocked(ctx)
}

func (p *Picker[T]) openLocked(ctx context.Context) error {
	if p.cache.Loaded() {
		return nil
	}
	items, total, err := p.fetchPage(ctx, 1)
	if err != nil {
		return err
	}
	p.cache.Reset(items, total, 1)
	return nil
}

// LoadMore fetches the page after the current one and appends it. Only one
// load per kind may be in flight; a second call gets ErrBusy.
func (p *Picker[T]) LoadMore(ctx context.Context) error {
	if !p.cache.Loaded() {
		return p.Open(ctx)
	}
	if !p.cache.TryAcquire() {
		return fmt.Errorf("%w: loading %s", domain.ErrBusy, p.kind)
	}
	defer p.cache.Release()
	_, err := p.loadNextLocked(ctx)
	return err
}

// loadNextLocked appends the next page and reports how many entries it added.
// The caller holds the cache's fetch slot.
func (p *Picker[T]) loadNextLocked(ctx context.Context) (int, error) {
	snap := p.cache.Snapshot()
	if !snap.HasMore() {
		return 0, nil
	}
	next := snap.CurrentPage + 1
	items, total, err := p.fetchPage(ctx, next)
	if err != nil {
		return 0, err
	}
	return p.cache.Append(items, total, next), nil
}

// acquire takes the fetch slot, waiting for a load already in flight.
func (p *Picker[T]) acquire(ctx context.Context) error {
	for !p.cache.TryAcquire() {
		if err := p.cache.WaitIdle(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Seek returns the entry with id, loading further pages until it shows up or
// the remote runs out of entries. Unlike LoadMore it queues behind a load in
// flight for the same kind instead of failing with ErrBusy.
func (p *Picker[T]) Seek(ctx context.Context, id domain.ID) (T, error) {
	var zero T
	notFound := fmt.Errorf("%s %s: %w", p.kind, id, domain.ErrNotFound)
	for {
		if it, ok := p.cache.Find(id); ok {
			return it, nil
		}
		before := p.cache.Snapshot()
		if p.cache.Loaded() && !before.HasMore() {
			return zero, notFound
		}
		if err := p.acquire(ctx); err != nil {
			return zero, err
		}
		if cur := p.cache.Snapshot(); p.cache.Loaded() && cur.CurrentPage != before.CurrentPage {
			// Another load landed while we waited; look again first.
			p.cache.Release()
			continue
		}
		var (
			added int
			err   error
		)
		if !p.cache.Loaded() {
			err = p.openLocked(ctx)
			added = 1
		} else {
			added, err = p.loadNextLocked(ctx)
		}
		p.cache.Release()
		if err != nil {
			return zero, err
		}
		if added == 0 {
			if _, ok := p.cache.Find(id); !ok {
				return zero, notFound
			}
		}
	}
}

// Find looks id up in the cache only.
func (p *Picker[T]) Find(id domain.ID) (T, bool) {
	return p.cache.Find(id)
}

// View returns the cached entries matching query, minus hidden ones.
func (p *Picker[T]) View(query string) []T {
	items := p.cache.Snapshot().Items
	if p.hide != nil {
		visible := items[:0:0]
		for _, it := range items {
			if !p.hide(it) {
				visible = append(visible, it)
			}
		}
		items = visible
	}
	return Filter(items, query, p.project)
}

// Listing implements Source.
func (p *Picker[T]) Listing(query string) Listing {
	snap := p.cache.Snapshot()
	shown := p.View(query)
	return Listing{
		Kind:        p.kind,
		Items:       shown,
		Shown:       len(shown),
		Cached:      len(snap.Items),
		TotalCount:  snap.TotalCount,
		CurrentPage: snap.CurrentPage,
		HasMore:     snap.HasMore(),
		Loading:     p.cache.Busy(),
	}
}

func (p *Picker[T]) fetchPage(ctx context.Context, page int) ([]T, int, error) {
	items, total, err := p.fetch(ctx, page)
	if err != nil && !errors.Is(err, domain.ErrRemoteUnavailable) && !errors.Is(err, domain.ErrNoCredential) {
		err = fmt.Errorf("%w: %v", domain.ErrRemoteUnavailable, err)
	}
	if p.observe != nil {
		p.observe(p.kind, err)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("load %s page %d: %w", p.kind, page, err)
	}
	return items, total, nil
}
