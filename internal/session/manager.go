package session

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jackyckma/baudagain/internal/cache"
)

// Notifier is the slice of the broadcaster the Manager needs: cutting a
// replaced or terminated session loose from its subscriptions.
type Notifier interface {
	UnsubscribeAll(sessionID string)
}

// AuthResult is the identity established by the authentication collaborator.
type AuthResult struct {
	UserID string
	Handle string
}

// Manager owns the top-level per-user session state machine
// (anonymous -> authenticated -> in menu <-> in door -> terminated) and is
// the single entry point for every request-handling collaborator. All
// transitions for one user run under that user's lock; different users
// proceed in parallel. Notification fan-out never happens on a code path
// holding one of these locks.
type Manager struct {
	store       *Store
	locks       *keyedMutex
	engine      *DoorEngine
	notifier    Notifier
	presence    cache.PresenceCache
	idleTimeout time.Duration
	logger      *zap.Logger
	now         func() time.Time
}

func NewManager(store *Store, engine *DoorEngine, notifier Notifier, presence cache.PresenceCache, idleTimeout time.Duration, logger *zap.Logger) *Manager {
	return &Manager{
		store:       store,
		locks:       newKeyedMutex(),
		engine:      engine,
		notifier:    notifier,
		presence:    presence,
		idleTimeout: idleTimeout,
		logger:      logger,
		now:         time.Now,
	}
}

// ResolveSession returns the live session for key, creating an anonymous one
// if none exists. Never fails; concurrent calls for the same key converge on
// one session. A live session found idle past the session timeout is
// terminated and replaced with a fresh anonymous one.
func (m *Manager) ResolveSession(ctx context.Context, key string) *Session {
	unlock := m.locks.lock(key)
	defer unlock()

	now := m.now()
	s, created := m.store.GetOrCreate(key, now)
	if !created && m.idleExpired(s, now) {
		m.expire(ctx, s)
		s, _ = m.store.GetOrCreate(key, now)
	}
	s.lastActivity = now
	return s
}

// Authenticate moves an anonymous session to the menu under its real user
// identity. Any existing live session for that user is superseded: its next
// operation fails with ErrConcurrentSupersession.
func (m *Manager) Authenticate(ctx context.Context, s *Session, auth AuthResult) error {
	unlock := m.locks.lock(s.key)
	defer unlock()

	if err := m.checkLive(ctx, s); err != nil {
		return err
	}
	if s.state != StateAnonymous {
		return fmt.Errorf("%w: authenticate from %s", ErrInvalidTransition, s.state)
	}

	if auth.UserID != s.key {
		// Re-key under the real identity; the provisional key is private to
		// this connection, so the nested acquire cannot deadlock.
		unlockUser := m.locks.lock(auth.UserID)
		defer unlockUser()
	}

	prev := m.store.Install(s, auth.UserID)
	if prev != nil {
		m.notifier.UnsubscribeAll(prev.ID())
		m.logger.Info("session superseded",
			zap.String("userId", auth.UserID),
			zap.String("oldSessionId", prev.ID()),
			zap.String("newSessionId", s.ID()))
	}

	// Authenticated is a transient hop; a fresh login lands straight in the
	// menu.
	s.handle = auth.Handle
	s.state = StateInMenu
	s.lastActivity = m.now()

	m.touchPresence(ctx, s)
	return nil
}

// EnterDoor is valid from the menu, or from inside another door (which is
// cleanly exited first). Entering the door the user is already in resumes
// it.
func (m *Manager) EnterDoor(ctx context.Context, s *Session, doorID string) (*EnterResult, error) {
	unlock := m.locks.lock(s.key)
	defer unlock()

	if err := m.checkLive(ctx, s); err != nil {
		return nil, err
	}

	switch s.state {
	case StateInMenu:
	case StateInDoor:
		if s.currentDoor != doorID {
			if err := m.engine.Exit(ctx, s.key, s.currentDoor); err != nil {
				return nil, err
			}
			s.currentDoor = ""
			s.state = StateInMenu
		}
	default:
		return nil, fmt.Errorf("%w: enter door from %s", ErrInvalidTransition, s.state)
	}

	res, err := m.engine.Enter(ctx, s.key, doorID)
	if err != nil {
		return nil, err
	}

	s.state = StateInDoor
	s.currentDoor = doorID
	s.lastActivity = m.now()
	m.touchPresence(ctx, s)
	return res, nil
}

// SubmitDoorInput feeds one input to the active door. A door-reported
// completion or a lazy timeout returns the session to the menu.
func (m *Manager) SubmitDoorInput(ctx context.Context, s *Session, input string) (*InputResult, error) {
	unlock := m.locks.lock(s.key)
	defer unlock()

	if err := m.checkLive(ctx, s); err != nil {
		return nil, err
	}
	if s.state != StateInDoor {
		return nil, fmt.Errorf("%w: door input from %s", ErrInvalidTransition, s.state)
	}

	res, err := m.engine.ProcessInput(ctx, s.key, s.currentDoor, input)
	if err != nil {
		return nil, err
	}

	if res.Done || res.TimedOut {
		s.currentDoor = ""
		s.state = StateInMenu
	}
	s.lastActivity = m.now()
	m.touchPresence(ctx, s)
	return res, nil
}

// ExitDoor closes the active door and returns to the menu.
func (m *Manager) ExitDoor(ctx context.Context, s *Session) error {
	unlock := m.locks.lock(s.key)
	defer unlock()

	if err := m.checkLive(ctx, s); err != nil {
		return err
	}
	if s.state != StateInDoor {
		return fmt.Errorf("%w: exit door from %s", ErrInvalidTransition, s.state)
	}

	if err := m.engine.Exit(ctx, s.key, s.currentDoor); err != nil {
		return err
	}

	s.currentDoor = ""
	s.state = StateInMenu
	s.lastActivity = m.now()
	m.touchPresence(ctx, s)
	return nil
}

// Terminate ends the session from any state: removes it from the store and
// drops its subscriptions. Terminating twice is a no-op. An open door
// session is left active in the repository so a later login can resume it
// within the door timeout.
func (m *Manager) Terminate(ctx context.Context, s *Session) {
	unlock := m.locks.lock(s.key)
	defer unlock()

	if s.state == StateTerminated {
		return
	}
	m.expire(ctx, s)
}

// OnlineSince is the presence cutoff for the who's-online listing.
func (m *Manager) OnlineSince() time.Time {
	return m.now().Add(-m.idleTimeout)
}

// checkLive rejects operations on superseded or terminated sessions and
// lazily expires idle ones. Caller holds the user lock.
func (m *Manager) checkLive(ctx context.Context, s *Session) error {
	if s.superseded {
		return ErrConcurrentSupersession
	}
	if s.state == StateTerminated {
		return ErrSessionExpired
	}
	if m.idleExpired(s, m.now()) {
		m.expire(ctx, s)
		return ErrSessionExpired
	}
	return nil
}

func (m *Manager) idleExpired(s *Session, now time.Time) bool {
	return m.idleTimeout > 0 && now.Sub(s.lastActivity) > m.idleTimeout
}

func (m *Manager) expire(ctx context.Context, s *Session) {
	s.state = StateTerminated
	s.currentDoor = ""
	m.store.Remove(s)
	m.notifier.UnsubscribeAll(s.ID())
	// A superseded session's user is still online through the session that
	// replaced it; its handle stays in the presence set.
	if s.handle != "" && !s.superseded {
		if err := m.presence.Remove(ctx, s.handle); err != nil {
			m.logger.Warn("presence remove failed", zap.String("handle", s.handle), zap.Error(err))
		}
	}
}

func (m *Manager) touchPresence(ctx context.Context, s *Session) {
	if s.handle == "" {
		return
	}
	if err := m.presence.Touch(ctx, s.handle, s.lastActivity); err != nil {
		m.logger.Warn("presence touch failed", zap.String("handle", s.handle), zap.Error(err))
	}
}

// SetClock overrides the manager's time source. Test hook.
func (m *Manager) SetClock(now func() time.Time) {
	m.now = now
}
