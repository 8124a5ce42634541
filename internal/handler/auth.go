package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/qaforum/internal/apperror"
	"github.com/sakif/qaforum/internal/auth"
	"github.com/sakif/qaforum/internal/model"
	"github.com/sakif/qaforum/internal/service"
)

// AuthHandler serves the /auth routes.
//
//   - HandleLogin    → POST /auth/login     {email, password} → {user, token}
//   - HandleRegister → POST /auth/register  {username, email, password} → {user, token}
//   - HandleProfile  → GET  /auth/profile   → {user}
//   - HandleLogout   → POST /auth/logout    → status only
type AuthHandler struct {
	auth   *service.AuthService
	logger *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(svc *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: svc, logger: logger}
}

func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var in model.LoginInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.auth.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, res)
}

func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var in model.RegisterInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.auth.Register(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, res)
}

// HandleProfile returns the caller's account.
// Auth: required (RequireAuth sets the user ID).
func (h *AuthHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("Authentication required"))
		return
	}

	user, err := h.auth.Profile(r.Context(), userID)
	if err != nil {
		h.logger.Warn("profile lookup failed", slog.Int64("userID", userID))
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"user": user})
}

// HandleLogout revokes the presented bearer token. It always succeeds so a
// client can fire it and forget it.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if token, ok := auth.BearerToken(r); ok {
		h.auth.Logout(token)
	}
	writeMessage(w, http.StatusOK, "Logged out")
}
