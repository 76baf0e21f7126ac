package api

import (
	"log/slog"
	"net/http"

	"github.com/erazemk/zaloga/internal/auth"
	"github.com/erazemk/zaloga/internal/metrics"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	Sessions *auth.Sessions
	Metrics  *metrics.Collector
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	SessionToken string `json:"session_token"`
}

// Login handles POST /login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	token, err := h.Sessions.Authenticate(req.Username, req.Password)
	if h.Metrics != nil {
		h.Metrics.RecordLogin(err == nil)
	}
	if err != nil {
		slog.Warn("login failed", "username", req.Username, "remote", r.RemoteAddr)
		writeError(w, r, err)
		return
	}

	slog.Info("user logged in", "user", req.Username)
	jsonResponse(w, http.StatusOK, loginResponse{SessionToken: token})
}

// Logout handles POST /logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session := GetSession(r.Context())
	if session == nil {
		writeError(w, r, auth.ErrUnauthenticated)
		return
	}

	if err := h.Sessions.Revoke(session.Token); err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("user logged out", "user", session.Identity)
	jsonResponse(w, http.StatusOK, messageResponse{Message: "Logged out successfully"})
}
