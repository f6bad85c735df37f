package ws

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jackyckma/baudagain/internal/model"
)

var (
	errNoConnection = errors.New("user has no push connection")
	errBufferFull   = errors.New("push buffer full")
)

// Envelope is the wire format on the push channel.
type Envelope struct {
	Type       string          `json:"type"`
	Topic      string          `json:"topic,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	ProducedAt time.Time       `json:"producedAt"`
}

// Connection is one user's push channel. Writes go through the buffered
// Send channel; the write pump owns the socket.
type Connection struct {
	UserID    string
	SessionID string
	Send      chan []byte
}

// Hub tracks the one push connection per user and implements the
// broadcaster's delivery sink. A new connection for a user replaces the old
// one, mirroring session supersession.
type Hub struct {
	mu     sync.RWMutex
	conns  map[string]*Connection // userID -> connection
	logger *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		conns:  make(map[string]*Connection),
		logger: logger,
	}
}

// Register installs conn as the user's push channel, closing any previous
// one.
func (h *Hub) Register(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if prev, ok := h.conns[conn.UserID]; ok {
		close(prev.Send)
	}
	h.conns[conn.UserID] = conn
	h.logger.Info("push channel connected", zap.String("userId", conn.UserID))
}

// Unregister removes conn if it is still the user's current channel.
func (h *Hub) Unregister(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if current, ok := h.conns[conn.UserID]; ok && current == conn {
		delete(h.conns, conn.UserID)
		close(conn.Send)
		h.logger.Info("push channel disconnected", zap.String("userId", conn.UserID))
	}
}

// Deliver implements notify.Sink: marshal the event and hand it to the
// user's write pump without blocking. No connection or a full buffer is a
// delivery failure for the broadcaster to count.
func (h *Hub) Deliver(userID string, ev *model.NotificationEvent) error {
	data, err := json.Marshal(Envelope{
		Type:       "notification",
		Topic:      ev.Topic,
		Payload:    ev.Payload,
		ProducedAt: ev.ProducedAt,
	})
	if err != nil {
		return err
	}

	// The send happens under the read lock so Register cannot close the
	// channel out from under it.
	h.mu.RLock()
	defer h.mu.RUnlock()
	conn, ok := h.conns[userID]
	if !ok {
		return errNoConnection
	}

	select {
	case conn.Send <- data:
		return nil
	default:
		return errBufferFull
	}
}
