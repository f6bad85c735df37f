package session

import "time"

type State string

const (
	StateAnonymous     State = "anonymous"
	StateAuthenticated State = "authenticated"
	StateInMenu        State = "in_menu"
	StateInDoor        State = "in_door"
	StateTerminated    State = "terminated"
)

// Session is the continuous logical interaction of one user across many
// stateless requests. All fields are mutated only by this package, under the
// per-user lock held by the Manager; callers get read-only accessors.
type Session struct {
	id           string
	key          string // store key: real user ID once authenticated, provisional before
	handle       string
	state        State
	currentDoor  string
	lastActivity time.Time
	superseded   bool
}

// ID is the unique identity of this session instance. It differs from the
// user ID: a second login for the same user produces a new session ID.
func (s *Session) ID() string { return s.id }

// UserID is the identity the session is keyed under: the authenticated user
// ID, or the caller-supplied provisional identity before login.
func (s *Session) UserID() string { return s.key }

func (s *Session) Handle() string { return s.handle }

func (s *Session) State() State { return s.state }

// CurrentDoor is the active door ID; empty unless State is StateInDoor.
func (s *Session) CurrentDoor() string { return s.currentDoor }

func (s *Session) LastActivityAt() time.Time { return s.lastActivity }

// Snapshot is the wire-friendly view of a session handed to transport.
type Snapshot struct {
	SessionID   string    `json:"sessionId"`
	UserID      string    `json:"userId"`
	Handle      string    `json:"handle,omitempty"`
	State       State     `json:"state"`
	CurrentDoor string    `json:"currentDoor,omitempty"`
	LastActive  time.Time `json:"lastActive"`
}

func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		SessionID:   s.id,
		UserID:      s.key,
		Handle:      s.handle,
		State:       s.state,
		CurrentDoor: s.currentDoor,
		LastActive:  s.lastActivity,
	}
}
