// Package session owns the client session: the bearer token and the active
// environment id. It is injected into the API client instead of being read
// from ambient storage.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// DefaultKey names the session of a single-user deployment.
const DefaultKey = "default"

// ErrNotFound is returned by stores that hold no session for a key.
var ErrNotFound = errors.New("session not found")

// State is the persisted part of a session.
type State struct {
	Token         string    `json:"token"`
	EnvironmentID string    `json:"environmentId"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Store persists session state.
type Store interface {
	LoadSession(ctx context.Context, key string) (State, error)
	SaveSession(ctx context.Context, key string, st State) error
	DeleteSession(ctx context.Context, key string) error
}

// Session is safe for concurrent use.
type Session struct {
	mu    sync.RWMutex
	key   string
	state State
	store Store
}

// New returns an empty session persisted in store under key. A nil store keeps it in memory only.
func New(store Store, key string) *Session {
	if key == "" {
		key = DefaultKey
	}
	return &Session{key: key, store: store}
}

// Restore loads the persisted state, if any.
func (s *Session) Restore(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	st, err := s.store.LoadSession(ctx, s.key)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("restore session: %w", err)
	}
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
	return nil
}

// Key is the store key of the session.
func (s *Session) Key() string { return s.key }

// Token returns the bearer token, "" when logged out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Token
}

// EnvironmentID returns the active environment, "" when none.
func (s *Session) EnvironmentID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.EnvironmentID
}

// Snapshot returns a copy of the state.
func (s *Session) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Authenticated reports whether a token is held.
func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

// SetToken stores the token returned by login.
func (s *Session) SetToken(ctx context.Context, token string) error {
	return s.update(ctx, func(st *State) { st.Token = token })
}

// SetEnvironment makes id the active environment.
func (s *Session) SetEnvironment(ctx context.Context, id string) error {
	return s.update(ctx, func(st *State) { st.EnvironmentID = id })
}

// LeaveEnvironment clears the active environment and keeps the token.
func (s *Session) LeaveEnvironment(ctx context.Context) error {
	return s.update(ctx, func(st *State) { st.EnvironmentID = "" })
}

// Clear drops the whole session.
func (s *Session) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.state = State{}
	s.mu.Unlock()
	if s.store == nil {
		return nil
	}
	if err := s.store.DeleteSession(ctx, s.key); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (s *Session) update(ctx context.Context, f func(*State)) error {
	s.mu.Lock()
	f(&s.state)
	s.state.UpdatedAt = time.Now().UTC()
	st := s.state
	s.mu.Unlock()

	if s.store == nil {
		return nil
	}
	if err := s.store.SaveSession(ctx, s.key, st); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// MemoryStore keeps sessions in a map.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]State
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]State)}
}

func (m *MemoryStore) LoadSession(_ context.Context, key string) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.sessions[key]
	if !ok {
		return State{}, ErrNotFound
	}
	return st, nil
}

func (m *MemoryStore) SaveSession(_ context.Context, key string, st State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[key] = st
	return nil
}

func (m *MemoryStore) DeleteSession(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, key)
	return nil
}
