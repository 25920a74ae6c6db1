// File: internal/handlers/auth_handlers.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/iyunix/go-sage/internal/auth"
	"github.com/iyunix/go-sage/internal/dtos"
	"github.com/iyunix/go-sage/internal/middleware"
	"github.com/iyunix/go-sage/internal/repository/user"
	"github.com/iyunix/go-sage/internal/services"
	"github.com/iyunix/go-sage/internal/services/account"
)

// AuthHandler holds the dependencies for authentication handlers.
type AuthHandler struct {
	accounts      *account.Service
	secureCookies bool
	logger        services.Logger
}

func NewAuthHandler(accounts *account.Service, secureCookies bool, logger services.Logger) *AuthHandler {
	return &AuthHandler{accounts: accounts, secureCookies: secureCookies, logger: logger}
}

// Signup creates an account and signs the new user in.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req dtos.SignupRequestDTO
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	u, err := h.accounts.Register(r.Context(), account.SignupInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		var verr *account.ValidationError
		switch {
		case errors.As(err, &verr):
			writeError(w, verr.Message, http.StatusBadRequest)
		case errors.Is(err, account.ErrEmailTaken):
			writeError(w, "An account with this email already exists", http.StatusConflict)
		default:
			writeError(w, "Could not create account", http.StatusInternalServerError)
		}
		return
	}

	token, err := h.accounts.IssueToken(u)
	if err != nil {
		writeError(w, "Could not sign in", http.StatusInternalServerError)
		return
	}
	middleware.SetAuthCookie(w, token, auth.TokenTTL, h.secureCookies)
	writeJSON(w, http.StatusCreated, dtos.ToUserResponse(u))
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dtos.LoginRequestDTO
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	u, token, err := h.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, account.ErrInvalidCredentials) {
			writeError(w, "Invalid email or password", http.StatusUnauthorized)
			return
		}
		writeError(w, "Could not sign in", http.StatusInternalServerError)
		return
	}

	middleware.SetAuthCookie(w, token, auth.TokenTTL, h.secureCookies)
	writeJSON(w, http.StatusOK, dtos.ToUserResponse(u))
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	middleware.ClearAuthCookie(w, h.secureCookies)
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the signed-in user. Routed behind middleware.RequireUser.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	u, err := h.accounts.FindUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			// Token outlived its account.
			middleware.ClearAuthCookie(w, h.secureCookies)
			writeError(w, "Authentication required", http.StatusUnauthorized)
			return
		}
		h.logger.Error("failed to load current user", "user_id", userID, "error", err)
		writeError(w, "Could not load user", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, dtos.ToUserResponse(u))
}
