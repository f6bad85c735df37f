package ws

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/jackyckma/baudagain/internal/notify"
	"github.com/jackyckma/baudagain/internal/service"
	"github.com/jackyckma/baudagain/internal/session"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for dev
	},
}

// clientMessage is what a client may send on the push channel: subscription
// bookkeeping only. All BBS actions go over REST.
type clientMessage struct {
	Action string `json:"action"` // "subscribe" | "unsubscribe"
	Topic  string `json:"topic"`
}

// DefaultTopics is what every fresh push channel is subscribed to.
var DefaultTopics = []string{"system", service.BoardTopic("general")}

// Handler upgrades authenticated users onto the push channel.
type Handler struct {
	hub         *Hub
	broadcaster *notify.Broadcaster
	authSvc     *service.AuthService
	sessions    *session.Manager
	logger      *zap.Logger
}

func NewHandler(hub *Hub, broadcaster *notify.Broadcaster, authSvc *service.AuthService, sessions *session.Manager, logger *zap.Logger) *Handler {
	return &Handler{
		hub:         hub,
		broadcaster: broadcaster,
		authSvc:     authSvc,
		sessions:    sessions,
		logger:      logger,
	}
}

// Connect handles GET /v1/ws?token=...
func (h *Handler) Connect(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	claims, err := h.authSvc.ValidateToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	sess := h.sessions.ResolveSession(r.Context(), claims.UserID)

	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	conn := &Connection{
		UserID:    claims.UserID,
		SessionID: sess.ID(),
		Send:      make(chan []byte, 64),
	}
	h.hub.Register(conn)

	for _, topic := range DefaultTopics {
		h.broadcaster.Subscribe(sess.ID(), claims.UserID, topic)
	}

	go h.writePump(wsConn, conn)
	go h.readPump(wsConn, conn)
}

func (h *Handler) readPump(wsConn *websocket.Conn, conn *Connection) {
	defer func() {
		h.hub.Unregister(conn)
		wsConn.Close()
	}()

	wsConn.SetReadLimit(maxMessageSize)
	wsConn.SetReadDeadline(time.Now().Add(pongWait))
	wsConn.SetPongHandler(func(string) error {
		wsConn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := wsConn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn("websocket read error", zap.String("userId", conn.UserID), zap.Error(err))
			}
			break
		}

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil || msg.Topic == "" {
			continue
		}
		switch msg.Action {
		case "subscribe":
			h.broadcaster.Subscribe(conn.SessionID, conn.UserID, msg.Topic)
		case "unsubscribe":
			h.broadcaster.Unsubscribe(conn.SessionID, msg.Topic)
		}
	}
}

func (h *Handler) writePump(wsConn *websocket.Conn, conn *Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		wsConn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				wsConn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := wsConn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := wsConn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
