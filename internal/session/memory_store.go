package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps session state in process memory. Suitable for tests and
// single-instance deployments without durability needs.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*State
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*State)}
}

func (s *MemoryStore) Create(_ context.Context, userID string) (*State, error) {
	state := New("", userID)

	s.mu.Lock()
	s.sessions[state.SessionID] = state.Clone()
	s.mu.Unlock()

	return state, nil
}

func (s *MemoryStore) Load(_ context.Context, sessionID string) (*State, error) {
	s.mu.RLock()
	state, ok := s.sessions[sessionID]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}
	return state.Clone(), nil
}

func (s *MemoryStore) Save(_ context.Context, state *State) error {
	state.UpdatedAt = time.Now().UTC()

	s.mu.Lock()
	s.sessions[state.SessionID] = state.Clone()
	s.mu.Unlock()

	return nil
}

func (s *MemoryStore) Clear(_ context.Context, sessionID string) (*State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}

	fresh := state.Reset()
	s.sessions[sessionID] = fresh.Clone()
	return fresh, nil
}
