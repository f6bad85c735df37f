package handler

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/jackyckma/baudagain/internal/cache"
	"github.com/jackyckma/baudagain/internal/door"
	"github.com/jackyckma/baudagain/internal/service"
	"github.com/jackyckma/baudagain/internal/session"
)

// SessionHandler exposes the session state machine: menu, doors, presence,
// logout.
type SessionHandler struct {
	sessions *session.Manager
	doors    *door.Registry
	presence cache.PresenceCache
}

func NewSessionHandler(sessions *session.Manager, doors *door.Registry, presence cache.PresenceCache) *SessionHandler {
	return &SessionHandler{sessions: sessions, doors: doors, presence: presence}
}

// Get handles GET /v1/session
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess := h.resolve(r)
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

type doorInfo struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Menu handles GET /v1/menu
func (h *SessionHandler) Menu(w http.ResponseWriter, r *http.Request) {
	sess := h.resolve(r)

	doors := make([]doorInfo, 0)
	for _, d := range h.doors.List() {
		doors = append(doors, doorInfo{ID: d.ID(), Title: d.Title()})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"session": sess.Snapshot(),
		"doors":   doors,
		"boards":  service.Boards,
	})
}

// Online handles GET /v1/online
func (h *SessionHandler) Online(w http.ResponseWriter, r *http.Request) {
	handles, err := h.presence.ListOnline(r.Context(), h.sessions.OnlineSince())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"online": handles})
}

// EnterDoor handles POST /v1/doors/{doorId}/enter
func (h *SessionHandler) EnterDoor(w http.ResponseWriter, r *http.Request) {
	sess := h.resolve(r)
	doorID := mux.Vars(r)["doorId"]

	res, err := h.sessions.EnterDoor(r.Context(), sess, doorID)
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"result":  res,
		"session": sess.Snapshot(),
	})
}

type doorInputRequest struct {
	Input string `json:"input"`
}

// DoorInput handles POST /v1/doors/{doorId}/input
func (h *SessionHandler) DoorInput(w http.ResponseWriter, r *http.Request) {
	sess := h.resolve(r)

	var req doorInputRequest
	// An empty or absent body is a keep-alive tick, not an error.
	_ = decodeLoose(r, &req)

	res, err := h.sessions.SubmitDoorInput(r.Context(), sess, req.Input)
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"result":  res,
		"session": sess.Snapshot(),
	})
}

// ExitDoor handles POST /v1/doors/{doorId}/exit
func (h *SessionHandler) ExitDoor(w http.ResponseWriter, r *http.Request) {
	sess := h.resolve(r)

	if err := h.sessions.ExitDoor(r.Context(), sess); err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"session": sess.Snapshot(),
	})
}

// Logout handles POST /v1/session/logout
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sess := h.resolve(r)
	h.sessions.Terminate(r.Context(), sess)
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// resolve locates the caller's live session from the authenticated identity,
// creating one if the previous session lapsed.
func (h *SessionHandler) resolve(r *http.Request) *session.Session {
	return h.sessions.ResolveSession(r.Context(), getUserID(r))
}

func writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrInvalidTransition):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, session.ErrSessionExpired):
		writeError(w, http.StatusGone, err.Error())
	case errors.Is(err, session.ErrConcurrentSupersession):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, session.ErrUnknownDoor):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, session.ErrRepositoryUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
