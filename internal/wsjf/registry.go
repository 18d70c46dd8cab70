package wsjf

import "sync"

// Registry tracks every live session so Monitor can snapshot them. This is
// the Go shape of the original's module-level active_sessions dict,
// reimplemented as an object with an explicit owner per spec §9.
type Registry struct {
	mu       sync.Mutex
	sessions map[*Session]struct{}
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[*Session]struct{})}
}

// Add registers a session as live.
func (r *Registry) Add(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s] = struct{}{}
}

// Remove drops a session once its connection has closed.
func (r *Registry) Remove(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, s)
}

// Snapshot returns every currently live session.
func (r *Registry) Snapshot() []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Session, 0, len(r.sessions))
	for s := range r.sessions {
		out = append(out, s)
	}
	return out
}
