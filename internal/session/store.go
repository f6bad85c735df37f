package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store is the in-memory registry of live sessions, keyed by user identity.
// It is created once at process start and passed to the Manager; there is no
// ambient global. The Store only guards its own map — state transitions on
// individual sessions are serialized by the Manager's per-user lock.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*Session),
	}
}

// GetOrCreate returns the live session for key, creating an anonymous one if
// none exists. The second return reports whether a session was created.
// Idempotent under concurrent calls for the same key: exactly one wins.
func (st *Store) GetOrCreate(key string, now time.Time) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if s, ok := st.sessions[key]; ok {
		return s, false
	}
	s := &Session{
		id:           uuid.New().String(),
		key:          key,
		state:        StateAnonymous,
		lastActivity: now,
	}
	st.sessions[key] = s
	return s, true
}

func (st *Store) Get(key string) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.sessions[key]
}

// Install moves s from its current key to newKey, replacing any live session
// already held there. The replaced session (nil if none) is marked
// superseded so its holder's next operation fails with
// ErrConcurrentSupersession rather than silently acting on a dead session.
func (st *Store) Install(s *Session, newKey string) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.sessions[s.key] == s {
		delete(st.sessions, s.key)
	}

	prev := st.sessions[newKey]
	if prev != nil && prev != s {
		prev.superseded = true
	}

	s.key = newKey
	st.sessions[newKey] = s
	return prev
}

// Remove drops s from the registry. A session that was already replaced
// under its key is left alone.
func (st *Store) Remove(s *Session) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.sessions[s.key] == s {
		delete(st.sessions, s.key)
	}
}

func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}
