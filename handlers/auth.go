package handlers

import (
	"log"
	"net/http"
	"strings"
	"time"

	"servicedesk/auth"
	"servicedesk/db"
	"servicedesk/models"
)

type AuthHandler struct {
	store      db.Store
	jwtManager *auth.JWTManager
	audit      *AuditLog
	now        func() time.Time
}

func NewAuthHandler(store db.Store, jwtManager *auth.JWTManager, audit *AuditLog, now func() time.Time) *AuthHandler {
	return &AuthHandler{
		store:      store,
		jwtManager: jwtManager,
		audit:      audit,
		now:        now,
	}
}

// Login handles user authentication
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		writeError(w, "Email and password are required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	// Get user by email
	user, err := h.store.GetUserByEmail(ctx, email)
	if err != nil {
		log.Printf("Login failed for %s: user not found", email)
		writeError(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}

	// Get password hash
	passwordHash, err := h.store.GetPasswordHash(ctx, user.ID)
	if err != nil {
		log.Printf("Login failed for %s: password hash not found", email)
		writeError(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}

	// Verify password
	if err := auth.CheckPassword(req.Password, passwordHash); err != nil {
		log.Printf("Login failed for %s: invalid password", email)
		writeError(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}

	// Update last login
	user.LastLogin = h.now().UTC()
	if err := h.store.UpdateUser(ctx, user); err != nil {
		log.Printf("Warning: failed to update last login for %s: %v", email, err)
	}

	// token claims use the wall clock at second precision, so the expiry does too
	expiresAt := time.Now().Add(h.jwtManager.TokenExpiration()).Truncate(time.Second).UTC()
	token, err := h.jwtManager.GenerateToken(user)
	if err != nil {
		log.Printf("Failed to generate token for %s: %v", email, err)
		writeError(w, "Failed to generate authentication token", http.StatusInternalServerError)
		return
	}

	log.Printf("✅ User logged in: %s (role: %s)", user.Email, user.Role)
	h.audit.Record(user.Name, "LOGIN", "role "+string(user.Role))

	writeJSON(w, http.StatusOK, models.LoginResponse{
		User:      *user,
		Token:     token,
		ExpiresAt: expiresAt,
	})
}

// Register rejects self-service sign up. Accounts are created by an admin.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	writeError(w, "Registration disabled", http.StatusForbidden)
}
