// Package sessions keeps the live workflow sessions of the API process.
package sessions

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"orderdesk/internal/domain"
	"orderdesk/internal/metrics"
	"orderdesk/internal/service/workflow"
	"orderdesk/internal/tablecrm"
)

// Factory builds the workflow session for a new id and its credentials.
type Factory func(id string, creds *tablecrm.Credentials) *workflow.Session

type entry struct {
	session  *workflow.Session
	lastSeen time.Time
}

// Registry maps session ids to sessions and tears down idle ones.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry

	factory Factory
	ttl     time.Duration
	metrics *metrics.Metrics
	logger  *log.Logger
	now     func() time.Time
}

func NewRegistry(factory Factory, ttl time.Duration, m *metrics.Metrics, logger *log.Logger) *Registry {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Registry{
		entries: make(map[string]*entry),
		factory: factory,
		ttl:     ttl,
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
}

// Create opens a session holding token.
func (r *Registry) Create(token string) *workflow.Session {
	id := uuid.NewString()
	s := r.factory(id, tablecrm.NewCredentials(token))

	r.mu.Lock()
	r.entries[id] = &entry{session: s, lastSeen: r.now()}
	r.mu.Unlock()

	r.metrics.SessionOpened()
	r.logger.Printf("session %s opened", id)
	return s
}

// Get returns a live session and marks it used. Expired sessions are closed.
func (r *Registry) Get(id string) (*workflow.Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("session %q: %w", id, domain.ErrNotFound)
	}
	r.mu.Lock()
	e, ok := r.entries[id]
	if ok && r.now().Sub(e.lastSeen) > r.ttl {
		delete(r.entries, id)
		r.mu.Unlock()
		r.teardown(id, e.session, "expired")
		return nil, fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}
	if ok {
		e.lastSeen = r.now()
	}
	r.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}
	return e.session, nil
}

// Close ends the session id.
func (r *Registry) Close(id string) error {
	r.mu.Lock()
	e, ok := r.entries[id]
	delete(r.entries, id)
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}
	r.teardown(id, e.session, "closed")
	return nil
}

// Sweep closes every session idle for longer than the TTL and reports how many.
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-r.ttl)
	expired := map[string]*workflow.Session{}

	r.mu.Lock()
	for id, e := range r.entries {
		if e.lastSeen.Before(cutoff) {
			expired[id] = e.session
			delete(r.entries, id)
		}
	}
	r.mu.Unlock()

	for id, s := range expired {
		r.teardown(id, s, "expired")
	}
	return len(expired)
}

// Run sweeps every interval until ctx is done, then closes all sessions.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.CloseAll()
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// CloseAll ends every session.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	all := r.entries
	r.entries = make(map[string]*entry)
	r.mu.Unlock()
	for id, e := range all {
		r.teardown(id, e.session, "closed")
	}
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

func (r *Registry) teardown(id string, s *workflow.Session, why string) {
	s.Close()
	r.metrics.SessionClosed()
	r.logger.Printf("session %s %s", id, why)
}
