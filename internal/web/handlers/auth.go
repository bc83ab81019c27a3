package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/facetrace/facetrace/internal/database"
	"github.com/facetrace/facetrace/internal/web/middleware"
	"golang.org/x/crypto/bcrypt"
)

// AuthHandler handles account endpoints.
type AuthHandler struct {
	users          database.UserStore
	sessionManager *middleware.SessionManager
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(users database.UserStore, sm *middleware.SessionManager) *AuthHandler {
	return &AuthHandler{
		users:          users,
		sessionManager: sm,
	}
}

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signup registers a new account. Emails are unique.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "username, email and password are required")
		return
	}

	existing, err := h.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to look up account")
		return
	}
	if existing != nil {
		respondError(w, http.StatusBadRequest, "email already registered")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	user := &database.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
	}
	if _, err := h.users.Insert(r.Context(), user); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to create account")
		return
	}

	log.Printf("new account registered: %s", sanitizeForLog(req.Email))
	respondJSON(w, http.StatusOK, map[string]string{"message": "signup successful"})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse represents a login response.
type LoginResponse struct {
	Success   bool   `json:"success"`
	SessionID string `json:"session_id,omitempty"`
	ExpiresAt string `json:"expires_at,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Login verifies credentials and issues a session.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := h.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to look up account")
		return
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		respondJSON(w, http.StatusUnauthorized, LoginResponse{
			Success: false,
			Error:   "invalid email or password",
		})
		return
	}

	session, err := h.sessionManager.CreateSession(user.Email)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to create session")
		return
	}
	h.sessionManager.SetSessionCookie(w, session)

	respondJSON(w, http.StatusOK, LoginResponse{
		Success:   true,
		SessionID: session.ID,
		ExpiresAt: session.ExpiresAt.Format(time.RFC3339),
	})
}

// Logout deletes the current session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if session := h.sessionManager.GetSessionFromRequest(r); session != nil {
		h.sessionManager.DeleteSession(session.ID)
	}
	h.sessionManager.ClearSessionCookie(w)
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// StatusResponse represents the auth status response.
type StatusResponse struct {
	Authenticated bool   `json:"authenticated"`
	Email         string `json:"email,omitempty"`
	ExpiresAt     string `json:"expires_at,omitempty"`
}

// Me returns the account behind the authenticated session. Routed
// behind RequireAuth, so the session is always present here.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r.Context())
	if session == nil {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	user, err := h.users.GetByEmail(r.Context(), session.Email)
	if err != nil || user == nil {
		respondError(w, http.StatusInternalServerError, "failed to look up account")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"username": user.Username,
		"email":    user.Email,
	})
}

// Status reports whether the request carries a valid session.
func (h *AuthHandler) Status(w http.ResponseWriter, r *http.Request) {
	session := h.sessionManager.GetSessionFromRequest(r)
	if session == nil {
		respondJSON(w, http.StatusOK, StatusResponse{Authenticated: false})
		return
	}
	respondJSON(w, http.StatusOK, StatusResponse{
		Authenticated: true,
		Email:         session.Email,
		ExpiresAt:     session.ExpiresAt.Format(time.RFC3339),
	})
}
