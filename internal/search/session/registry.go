package session

import (
	"errors"
	"sync"
	"time"

	"github.com/alex-user-go/hotelsearch/internal/search"
	"github.com/google/uuid"
)

// ErrNotFound is returned for unknown or expired session IDs.
var ErrNotFound = errors.New("session not found")

// Registry keeps live search controllers keyed by session ID.
// Sessions idle for longer than the TTL are evicted by a background janitor.
type Registry struct {
	mu         sync.Mutex
	sessions   map[string]*entry
	ttl        time.Duration
	sweepEvery time.Duration
	onChange   func(n int)
	done       chan struct{}
	closeOnce  sync.Once
}

type entry struct {
	controller *search.Controller
	lastSeen   time.Time
}

// Option configures a Registry.
type Option func(*Registry)

// WithSweepInterval overrides how often the janitor runs.
func WithSweepInterval(d time.Duration) Option {
	return func(r *Registry) {
		if d > 0 {
			r.sweepEvery = d
		}
	}
}

// WithSizeObserver registers fn to receive the session count after every change.
func WithSizeObserver(fn func(n int)) Option {
	return func(r *Registry) { r.onChange = fn }
}

// NewRegistry creates a Registry with the specified idle TTL.
func NewRegistry(ttl time.Duration, opts ...Option) *Registry {
	r := &Registry{
		sessions:   make(map[string]*entry),
		ttl:        ttl,
		sweepEvery: time.Minute,
		onChange:   func(int) {},
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}

	// Start background cleanup
	go r.janitor()

	return r
}

// Close stops the background janitor. It is safe to call more than once.
func (r *Registry) Close() {
	r.closeOnce.Do(func() { close(r.done) })
}

// Create stores c under a fresh session ID and returns the ID.
func (r *Registry) Create(c *search.Controller) string {
	id := uuid.NewString()

	r.mu.Lock()
	r.sessions[id] = &entry{controller: c, lastSeen: time.Now()}
	n := len(r.sessions)
	r.mu.Unlock()

	r.onChange(n)
	return id
}

// Get returns the controller for id and marks the session as used.
func (r *Registry) Get(id string) (*search.Controller, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[id]
	if !ok || r.expired(e, time.Now()) {
		return nil, ErrNotFound
	}
	e.lastSeen = time.Now()
	return e.controller, nil
}

// Delete removes the session. Deleting an unknown session returns ErrNotFound.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	if _, ok := r.sessions[id]; !ok {
		r.mu.Unlock()
		return ErrNotFound
	}
	delete(r.sessions, id)
	n := len(r.sessions)
	r.mu.Unlock()

	r.onChange(n)
	return nil
}

// Len returns the number of stored sessions, including expired ones not yet swept.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep evicts idle sessions and returns how many were removed.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	now := time.Now()
	removed := 0
	for id, e := range r.sessions {
		if r.expired(e, now) {
			delete(r.sessions, id)
			removed++
		}
	}
	n := len(r.sessions)
	r.mu.Unlock()

	if removed > 0 {
		r.onChange(n)
	}
	return removed
}

func (r *Registry) expired(e *entry, now time.Time) bool {
	return r.ttl > 0 && now.Sub(e.lastSeen) > r.ttl
}

// janitor periodically removes idle sessions.
func (r *Registry) janitor() {
	ticker := time.NewTicker(r.sweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.Sweep()
		case <-r.done:
			return
		}
	}
}
