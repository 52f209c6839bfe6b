package handler

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/mkiprop/loanbook/internal/auth"
	"github.com/mkiprop/loanbook/internal/domain"
	"github.com/mkiprop/loanbook/internal/service"
	"github.com/mkiprop/loanbook/pkg/response"
)

type AuthHandler struct {
	service   *service.AuthService
	sessions  *auth.SessionManager
	validator *validator.Validate
}

func NewAuthHandler(service *service.AuthService, sessions *auth.SessionManager) *AuthHandler {
	return &AuthHandler{
		service:   service,
		sessions:  sessions,
		validator: newValidator(),
	}
}

// Login verifies credentials and sets the session cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := decode(r, h.validator, &req); err != nil {
		respondError(w, err)
		return
	}

	user, token, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		respondError(w, err)
		return
	}

	h.sessions.SetCookie(w, token)
	response.Success(w, map[string]interface{}{
		"id":       user.ID,
		"username": user.Username,
	})
}

// Logout clears the session cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.ClearCookie(w)
	response.Success(w, map[string]string{"message": "Logged out successfully"})
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Not authenticated")
		return
	}

	response.Success(w, map[string]interface{}{
		"id":         user.ID,
		"username":   user.Username,
		"created_at": user.CreatedAt,
	})
}

// ChangePassword replaces the current user's password.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Not authenticated")
		return
	}

	var req domain.ChangePasswordRequest
	if err := decode(r, h.validator, &req); err != nil {
		respondError(w, err)
		return
	}

	if err := h.service.ChangePassword(r.Context(), user, req.OldPassword, req.NewPassword); err != nil {
		respondError(w, err)
		return
	}

	response.Success(w, map[string]string{"message": "Password changed successfully"})
}
