package domain

import (
	"sync"
)

// Session guards one guild's PlayerState.
// Every read or write of the state must happen between Lock and Unlock.
type Session struct {
	mu    sync.Mutex
	state *PlayerState
}

// NewSession wraps state in a new Session.
func NewSession(state *PlayerState) *Session {
	return &Session{state: state}
}

// Lock acquires the session's critical section.
func (s *Session) Lock() {
	s.mu.Lock()
}

// Unlock releases the session's critical section.
func (s *Session) Unlock() {
	s.mu.Unlock()
}

// State returns the guarded PlayerState.
func (s *Session) State() *PlayerState {
	return s.state
}
