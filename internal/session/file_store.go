package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileStore persists each session as one JSON file under a directory.
// Writes go through a temp file and rename so a crash never leaves a
// half-written session behind.
type FileStore struct {
	dir string
}

// NewFileStore creates the directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create sessions dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(sessionID string) string {
	// Session ids are UUIDs; strip path separators anyway.
	safe := strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(sessionID)
	return filepath.Join(s.dir, safe+".json")
}

func (s *FileStore) Create(ctx context.Context, userID string) (*State, error) {
	state := New("", userID)
	if err := s.write(state); err != nil {
		return nil, err
	}
	return state, nil
}

func (s *FileStore) Load(_ context.Context, sessionID string) (*State, error) {
	data, err := os.ReadFile(s.path(sessionID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read session: %w", err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", sessionID, err)
	}
	return &state, nil
}

func (s *FileStore) Save(_ context.Context, state *State) error {
	state.UpdatedAt = time.Now().UTC()
	return s.write(state)
}

func (s *FileStore) Clear(ctx context.Context, sessionID string) (*State, error) {
	state, err := s.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	fresh := state.Reset()
	if err := s.write(fresh); err != nil {
		return nil, err
	}
	return fresh, nil
}

func (s *FileStore) write(state *State) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	path := s.path(state.SessionID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename session: %w", err)
	}
	return nil
}
