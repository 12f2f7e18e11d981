package handlers

import (
	"encoding/json"
	"net/http"
)

type loginRequest struct {
	UserID   int64  `json:"user_id"`
	Password string `json:"password"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID <= 0 {
		writeMessage(w, http.StatusBadRequest, "user_id and password are required")
		return
	}

	if !h.auth.CheckPassword(ctx, req.UserID, req.Password) {
		writeMessage(w, http.StatusUnauthorized, "Invalid password")
		return
	}

	token, err := h.auth.CreateSession(ctx, req.UserID)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "Failed to create session")
		return
	}

	h.auth.SetSessionCookie(w, token)
	writeMessage(w, http.StatusOK, "Logged in")
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	token := h.auth.GetSessionFromRequest(r)
	if token != "" {
		h.auth.DeleteSession(ctx, token)
	}
	h.auth.ClearSessionCookie(w)
	writeMessage(w, http.StatusOK, "Logged out")
}
