package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/systemage/systemagego/internal/middleware"
	"github.com/systemage/systemagego/internal/models"
	"github.com/systemage/systemagego/internal/store"
	"github.com/systemage/systemagego/internal/utils"
)

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest represents a registration request
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// AuthResponse carries the token pair and the account it belongs to.
type AuthResponse struct {
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	User         *models.User `json:"user"`
}

// register creates a new account
func (r *Router) register(w http.ResponseWriter, req *http.Request) {
	var regReq RegisterRequest
	if err := json.NewDecoder(req.Body).Decode(&regReq); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	regReq.Email = strings.ToLower(strings.TrimSpace(regReq.Email))
	if regReq.Email == "" || !strings.Contains(regReq.Email, "@") {
		respondError(w, http.StatusBadRequest, "Valid email is required")
		return
	}
	if len(regReq.Password) < 8 {
		respondError(w, http.StatusBadRequest, "Password must be at least 8 characters")
		return
	}

	if _, err := r.store.GetUserByEmail(req.Context(), regReq.Email); err == nil {
		respondError(w, http.StatusConflict, "Email already registered")
		return
	}

	hash, err := utils.HashPassword(regReq.Password)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create account")
		return
	}

	user := &models.User{
		Email:    regReq.Email,
		Password: hash,
		Name:     regReq.Name,
	}
	if err := r.store.CreateUser(req.Context(), user); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create account")
		return
	}

	accessToken, refreshToken, err := utils.GenerateTokens(user, r.cfg.JWTSecret)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to generate tokens")
		return
	}

	respondJSON(w, http.StatusCreated, AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
	})
}

// login handles user login
func (r *Router) login(w http.ResponseWriter, req *http.Request) {
	var loginReq LoginRequest
	if err := json.NewDecoder(req.Body).Decode(&loginReq); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	// 1. Find User
	user, err := r.store.GetUserByEmail(req.Context(), strings.ToLower(strings.TrimSpace(loginReq.Email)))
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	// 2. Check Password
	if !utils.CheckPasswordHash(loginReq.Password, user.Password) {
		user.FailedLoginAttempts++
		_ = r.store.SaveUser(req.Context(), user)
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if !user.IsActive {
		respondError(w, http.StatusForbidden, "Account is disabled")
		return
	}

	// 3. Update Last Login
	now := time.Now()
	user.LastLogin = &now
	user.FailedLoginAttempts = 0
	_ = r.store.SaveUser(req.Context(), user)

	// 4. Generate Tokens
	accessToken, refreshToken, err := utils.GenerateTokens(user, r.cfg.JWTSecret)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to generate tokens")
		return
	}

	respondJSON(w, http.StatusOK, AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
	})
}

// logout acknowledges the client dropping its tokens. Tokens are stateless,
// so there is nothing to invalidate server-side.
func (r *Router) logout(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// me returns the authenticated account
func (r *Router) me(w http.ResponseWriter, req *http.Request) {
	userID := middleware.UserIDFromContext(req.Context())
	user, err := r.store.GetUserByID(req.Context(), userID)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusUnauthorized, "Account not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to load account")
		return
	}
	respondJSON(w, http.StatusOK, user)
}
