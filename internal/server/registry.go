package server

import (
	"sort"
	"sync"
)

// Registry is the single source of truth for which usernames are connected.
// A username maps to at most one session; a second login under the same name
// replaces the prior entry. All operations touch only in-memory state.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry creates an empty client registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
	}
}

// Register binds a username to a session, replacing any prior binding.
// It returns the replaced session, if there was one, so the caller can
// decide what to do with the displaced connection.
func (r *Registry) Register(username string, s *Session) (prior *Session, replaced bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prior, replaced = r.sessions[username]
	r.sessions[username] = s
	return prior, replaced
}

// Unregister removes the username's binding, but only if it still points at
// owner. This keeps a displaced session's late disconnect from evicting the
// session that replaced it. A nil owner removes unconditionally.
func (r *Registry) Unregister(username string, owner *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.sessions[username]
	if !ok {
		return false
	}
	if owner != nil && current != owner {
		return false
	}
	delete(r.sessions, username)
	return true
}

// Lookup returns the session currently bound to the username.
func (r *Registry) Lookup(username string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[username]
	return s, ok
}

// Usernames returns a sorted point-in-time copy of the connected usernames.
func (r *Registry) Usernames() []string {
	r.mu.RLock()
	usernames := make([]string, 0, len(r.sessions))
	for username := range r.sessions {
		usernames = append(usernames, username)
	}
	r.mu.RUnlock()

	sort.Strings(usernames)
	return usernames
}

// Snapshot returns a point-in-time copy of the registered sessions for
// fan-out. Sessions that register or unregister after the snapshot is taken
// are simply missed or included; there is no cross-session atomicity.
func (r *Registry) Snapshot() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	return sessions
}

// Len reports how many usernames are currently registered.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
