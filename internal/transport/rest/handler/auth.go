package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/jackyckma/baudagain/internal/model"
	"github.com/jackyckma/baudagain/internal/service"
	"github.com/jackyckma/baudagain/internal/session"
	"github.com/jackyckma/baudagain/internal/transport/rest/middleware"
)

// AuthHandler handles signup and login.
type AuthHandler struct {
	authSvc  *service.AuthService
	sessions *session.Manager
}

func NewAuthHandler(authSvc *service.AuthService, sessions *session.Manager) *AuthHandler {
	return &AuthHandler{authSvc: authSvc, sessions: sessions}
}

// Signup handles POST /v1/auth/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req model.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.authSvc.Signup(r.Context(), req.Handle, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrHandleTaken):
			writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, service.ErrInvalidCredentials):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"userId": user.ID,
		"handle": user.Handle,
	})
}

// Login handles POST /v1/auth/login. A successful login opens the user's
// board session: a fresh anonymous session is authenticated under the real
// identity, superseding any session from an earlier login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.authSvc.Login(r.Context(), req.Handle, req.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	sess, err := h.openSession(r.Context(), resp.UserID, resp.Handle)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token":   resp.Token,
		"userId":  resp.UserID,
		"handle":  resp.Handle,
		"session": sess.Snapshot(),
	})
}

// openSession runs the anonymous -> in-menu handshake on behalf of the
// freshly logged-in connection. The provisional key is connection-private.
func (h *AuthHandler) openSession(ctx context.Context, userID, handle string) (*session.Session, error) {
	sess := h.sessions.ResolveSession(ctx, "login:"+uuid.New().String())
	if err := h.sessions.Authenticate(ctx, sess, session.AuthResult{UserID: userID, Handle: handle}); err != nil {
		return nil, err
	}
	return sess, nil
}

// Helper functions
func getUserID(r *http.Request) string {
	return middleware.GetUserID(r.Context())
}

func getHandle(r *http.Request) string {
	return middleware.GetHandle(r.Context())
}

// decodeLoose tolerates an empty request body.
func decodeLoose(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if err == io.EOF {
		return nil
	}
	return err
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
