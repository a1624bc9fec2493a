package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"top10weather/internal/domain"
	"top10weather/internal/service"
	apperrors "top10weather/pkg/errors"
)

type AuthHandler struct {
	authService service.AuthService
}

func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// SignUp handles POST /api/auth/signup
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req domain.SignUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Email == "" || req.Password == "" {
		h.respondError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	user, err := h.authService.SignUp(r.Context(), &req)
	if err != nil {
		h.respondAuthError(w, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, user)
}

// SignIn handles POST /api/auth/signin
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req domain.SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Email == "" || req.Password == "" {
		h.respondError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	session, err := h.authService.SignIn(r.Context(), &req)
	if err != nil {
		h.respondAuthError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, session)
}

// SignOut handles POST /api/auth/signout
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	token := h.bearerToken(r)
	if token == "" {
		h.respondError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	if err := h.authService.SignOut(r.Context(), token); err != nil {
		h.respondAuthError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]string{
		"message": "Signed out successfully",
	})
}

// RequestPasswordReset handles POST /api/auth/reset-password
func (h *AuthHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req domain.PasswordResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Email == "" {
		h.respondError(w, http.StatusBadRequest, "Email is required")
		return
	}

	if err := h.authService.RequestPasswordReset(r.Context(), req.Email); err != nil {
		h.respondAuthError(w, err)
		return
	}

	// The same response is returned whether or not the address exists.
	h.respondJSON(w, http.StatusOK, map[string]string{
		"message": "If an account exists for that address, a reset link has been sent",
	})
}

// UpdatePassword handles PUT /api/auth/password. The access token comes
// from the reset link's query parameter, not the Authorization header.
func (h *AuthHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("access_token")
	if token == "" {
		token = h.bearerToken(r)
	}
	if token == "" {
		h.respondError(w, http.StatusUnauthorized, "A valid access token is required")
		return
	}

	var req domain.PasswordUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if len(req.Password) < 6 {
		h.respondError(w, http.StatusBadRequest, "Password must be at least 6 characters")
		return
	}

	if err := h.authService.UpdatePassword(r.Context(), token, req.Password); err != nil {
		h.respondAuthError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]string{
		"message": "Password updated successfully",
	})
}

func (h *AuthHandler) bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

func (h *AuthHandler) respondAuthError(w http.ResponseWriter, err error) {
	if appErr, ok := apperrors.IsAppError(err); ok {
		h.respondError(w, appErr.StatusCode, appErr.Message)
		return
	}
	h.respondError(w, http.StatusInternalServerError, "Authentication service error")
}

func (h *AuthHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *AuthHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{
		"error": message,
	})
}
