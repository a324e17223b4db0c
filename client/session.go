package client

import (
	"context"
	"sync"

	"github.com/Davi2004/TarefasPlus/domain"
)

// SessionSource resolves the session state, typically the HTTP client.
type SessionSource interface {
	Session(ctx context.Context) (domain.SessionState, error)
}

// Session is the session context shared by the client components. It starts
// pending and moves to signed in or signed out once resolved.
type Session struct {
	mu    sync.RWMutex
	state domain.SessionState
}

// NewSession returns a pending session.
func NewSession() *Session {
	return &Session{state: domain.PendingSession()}
}

// State returns the current state.
func (s *Session) State() domain.SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Set replaces the state.
func (s *Session) Set(state domain.SessionState) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// Identity returns the signed-in identity, if any.
func (s *Session) Identity() (domain.Identity, bool) {
	return s.State().Identity()
}

// Resolve asks src for the state and stores it. On error the session stays
// as it was.
func (s *Session) Resolve(ctx context.Context, src SessionSource) (domain.SessionState, error) {
	state, err := src.Session(ctx)
	if err != nil {
		return s.State(), err
	}
	s.Set(state)
	return state, nil
}
