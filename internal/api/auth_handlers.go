package api

import (
	"encoding/json"
	"net/http"

	"github.com/example/storefront/internal/auth"
)

// AuthHandlers serves the owner login.
type AuthHandlers struct {
	admins *auth.AdminStore
	tokens *auth.TokenService
}

func NewAuthHandlers(admins *auth.AdminStore, tokens *auth.TokenService) *AuthHandlers {
	return &AuthHandlers{admins: admins, tokens: tokens}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	admin, err := h.admins.GetByEmail(r.Context(), req.Email)
	if err != nil || !auth.CheckPassword(req.Password, admin.PasswordHash) {
		// Same response for unknown email and wrong password.
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	token, expiresAt, err := h.tokens.Issue(admin.ID, admin.Email)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "admin_token",
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	respondJSON(w, http.StatusOK, map[string]any{
		"token":      token,
		"expires_at": expiresAt,
	})
}
