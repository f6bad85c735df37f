package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/jackyckma/baudagain/internal/service"
)

// BoardHandler handles message-board endpoints.
type BoardHandler struct {
	boards *service.BoardService
}

func NewBoardHandler(boards *service.BoardService) *BoardHandler {
	return &BoardHandler{boards: boards}
}

type postRequest struct {
	Body string `json:"body"`
}

// Post handles POST /v1/boards/{board}/messages
func (h *BoardHandler) Post(w http.ResponseWriter, r *http.Request) {
	board := mux.Vars(r)["board"]

	var req postRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	msg, err := h.boards.Post(r.Context(), board, getUserID(r), getHandle(r), req.Body)
	if err != nil {
		if errors.Is(err, service.ErrEmptyMessage) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, msg)
}

// List handles GET /v1/boards/{board}/messages?limit=N
func (h *BoardHandler) List(w http.ResponseWriter, r *http.Request) {
	board := mux.Vars(r)["board"]

	var limit int64
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, _ = strconv.ParseInt(v, 10, 64)
	}

	msgs, err := h.boards.List(r.Context(), board, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"board":    board,
		"messages": msgs,
	})
}
