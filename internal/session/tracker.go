// Package session tracks per-username login state for the lifetime of
// the process. State is never persisted; a restart logs everyone out.
package session

import (
	"sync"
)

// Tracker is a mutex-guarded map from username to logged-in state.
// It is injected into the service layer rather than held as a package
// global, and the login check-and-set is a single atomic operation so
// two concurrent logins cannot both observe a logged-out state.
type Tracker struct {
	mu    sync.Mutex
	state map[string]bool
}

// NewTracker creates an empty session tracker
func NewTracker() *Tracker {
	return &Tracker{
		state: make(map[string]bool),
	}
}

// IsLoggedIn reports whether the username currently has an active session.
// Absent usernames are logged out.
func (t *Tracker) IsLoggedIn(username string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state[username]
}

// Track records a username as known with no active session. Used at
// registration time.
func (t *Tracker) Track(username string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state[username] = false
}

// BeginSession atomically transitions the username from logged-out to
// logged-in. It returns false if a session is already active, in which
// case the state is left untouched.
func (t *Tracker) BeginSession(username string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state[username] {
		return false
	}
	t.state[username] = true
	return true
}

// EndSession unconditionally transitions the username to logged-out.
// Calling it for an unknown or already logged-out username is a no-op,
// so logout is idempotent.
func (t *Tracker) EndSession(username string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state[username] = false
}
