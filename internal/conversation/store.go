package conversation

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Store is the session persistence abstraction injected into the
// orchestrator. Implementations are safe for concurrent use across different
// sessions; concurrent writes to the same session are last-write-wins.
type Store interface {
	GetOrCreate(ctx context.Context, sessionID string) (*Session, error)
	// Get is a read-only lookup; unknown ids return ErrSessionNotFound and
	// leave the store untouched.
	Get(ctx context.Context, sessionID string) (*Session, error)
	Save(ctx context.Context, session *Session) error
}

// MemoryStore holds sessions in a process-wide map. Sessions are never
// expired or evicted; they vanish on restart.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	now      func() time.Time
}

// NewMemoryStore creates an in-memory session store. A nil clock defaults to
// time.Now.
func NewMemoryStore(clock func() time.Time) *MemoryStore {
	if clock == nil {
		clock = time.Now
	}
	return &MemoryStore{
		sessions: make(map[string]*Session),
		now:      clock,
	}
}

// GetOrCreate returns the stored session or creates one at the greeting stage.
func (s *MemoryStore) GetOrCreate(_ context.Context, sessionID string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[sessionID]; ok {
		return sess, nil
	}
	sess := NewSession(sessionID, s.now())
	s.sessions[sessionID] = sess
	return sess, nil
}

// Get returns the stored session without creating one.
func (s *MemoryStore) Get(_ context.Context, sessionID string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return sess, nil
}

// Save stores the session.
func (s *MemoryStore) Save(_ context.Context, session *Session) error {
	session.UpdatedAt = s.now()
	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()
	return nil
}

// Len reports the number of live sessions. Used by tests and health output.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
