package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists sessions in a sqlite database. State is stored as a
// JSON blob keyed by session id, which keeps schema churn out of catalog and
// slot vocabulary changes.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and if needed initializes) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// Serialized access keeps the pure-Go driver happy under concurrency.
	db.SetMaxOpenConns(1)

	schema := `CREATE TABLE IF NOT EXISTS sessions (
		session_id TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL,
		state      TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init sqlite schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Create(ctx context.Context, userID string) (*State, error) {
	state := New("", userID)
	if err := s.upsert(ctx, state); err != nil {
		return nil, err
	}
	return state, nil
}

func (s *SQLiteStore) Load(ctx context.Context, sessionID string) (*State, error) {
	var blob string
	err := s.db.QueryRowContext(ctx,
		"SELECT state FROM sessions WHERE session_id = ?", sessionID).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	var state State
	if err := json.Unmarshal([]byte(blob), &state); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", sessionID, err)
	}
	return &state, nil
}

func (s *SQLiteStore) Save(ctx context.Context, state *State) error {
	state.UpdatedAt = time.Now().UTC()
	return s.upsert(ctx, state)
}

func (s *SQLiteStore) Clear(ctx context.Context, sessionID string) (*State, error) {
	state, err := s.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	fresh := state.Reset()
	if err := s.upsert(ctx, fresh); err != nil {
		return nil, err
	}
	return fresh, nil
}

func (s *SQLiteStore) upsert(ctx context.Context, state *State) error {
	blob, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (session_id, user_id, state, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(session_id) DO UPDATE SET
		   state = excluded.state,
		   updated_at = excluded.updated_at`,
		state.SessionID, state.UserID, string(blob),
		state.UpdatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}
