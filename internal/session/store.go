package session

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a session id has no stored state.
var ErrNotFound = errors.New("session not found")

// Store persists session state between turns. Implementations must be safe
// for concurrent use; per-session turn ordering is the caller's job (see
// Locker).
type Store interface {
	// Create stores and returns a fresh state for a new session.
	Create(ctx context.Context, userID string) (*State, error)

	// Load returns the state for a session id, or ErrNotFound.
	Load(ctx context.Context, sessionID string) (*State, error)

	// Save writes the updated state.
	Save(ctx context.Context, state *State) error

	// Clear replaces the stored state with a reset one, keeping the
	// identity, and returns the fresh state.
	Clear(ctx context.Context, sessionID string) (*State, error)
}
