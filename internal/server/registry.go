package server

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iksnae/persona-chat/internal"
)

type entry struct {
	session  *internal.ConversationSession
	lastUsed time.Time
}

// Registry holds the live sessions of the HTTP front-end, keyed by uuid
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*entry
	ttl      time.Duration
	now      func() time.Time
}

// NewRegistry creates a registry that expires sessions idle for longer than ttl.
// A zero ttl keeps sessions until they are deleted.
func NewRegistry(ttl time.Duration) *Registry {
	return &Registry{
		sessions: make(map[string]*entry),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Add registers a session and returns its id
func (r *Registry) Add(s *internal.ConversationSession) string {
	id := uuid.NewString()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[id] = &entry{session: s, lastUsed: r.now()}
	return id
}

// Get returns the session and marks it used
func (r *Registry) Get(id string) (*internal.ConversationSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	e.lastUsed = r.now()
	return e.session, true
}

// Delete cancels any turn in flight and drops the session
func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	e, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if ok {
		e.session.Cancel()
	}
	return ok
}

// Prune drops idle sessions not used within the ttl and returns how many were removed
func (r *Registry) Prune() int {
	if r.ttl <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.ttl)

	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, e := range r.sessions {
		if e.lastUsed.Before(cutoff) && !e.session.State().InFlight() {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

// CloseAll cancels every turn in flight and empties the registry
func (r *Registry) CloseAll() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*entry)
	r.mu.Unlock()

	for _, e := range sessions {
		e.session.Cancel()
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
