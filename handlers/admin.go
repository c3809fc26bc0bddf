package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"servicedesk/auth"
	"servicedesk/config"
	"servicedesk/db"
	"servicedesk/middleware"
	"servicedesk/models"

	"github.com/google/uuid"
)

type AdminHandler struct {
	store db.Store
	admin config.AdminConfig
	audit *AuditLog
	now   func() time.Time
}

func NewAdminHandler(store db.Store, admin config.AdminConfig, audit *AuditLog, now func() time.Time) *AdminHandler {
	return &AdminHandler{store: store, admin: admin, audit: audit, now: now}
}

// --- User Management ---

// GetUsers returns all users
func (h *AdminHandler) GetUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.GetAllUsers(r.Context())
	if err != nil {
		log.Printf("❌ Failed to get users: %v", err)
		writeError(w, "Failed to retrieve users", http.StatusInternalServerError)
		return
	}
	if users == nil {
		users = []models.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

// CreateUser creates a new user
func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	adminUser, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, "User not found in context", http.StatusUnauthorized)
		return
	}

	var req models.CreateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" || req.Email == "" || req.Password == "" {
		writeError(w, "Name, email and password are required", http.StatusBadRequest)
		return
	}
	if !req.Role.Valid() {
		writeError(w, fmt.Sprintf("Unknown role: %s", req.Role), http.StatusBadRequest)
		return
	}

	if err := auth.ValidateAccountPassword(req.Password, req.Name, req.Email); err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	user, err := createAccount(r.Context(), h.store, req, h.now().UTC())
	switch {
	case err == nil:
	case errors.Is(err, errEmailTaken):
		writeError(w, "Email already exists", http.StatusConflict)
		return
	default:
		log.Printf("❌ Failed to create user %s: %v", req.Email, err)
		writeError(w, "Failed to create user", http.StatusInternalServerError)
		return
	}

	log.Printf("✅ User created by %s: %s (role: %s)", adminUser.Email, user.Email, user.Role)
	h.audit.Record(adminUser.Name, "CREATE_USER", fmt.Sprintf("%s as %s", user.Email, user.Role))
	writeJSON(w, http.StatusCreated, user)
}

// Reset destroys all data and restores the bootstrap administrator
func (h *AdminHandler) Reset(w http.ResponseWriter, r *http.Request) {
	adminUser, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, "User not found in context", http.StatusUnauthorized)
		return
	}

	ctx := r.Context()
	if err := h.store.Reset(ctx); err != nil {
		log.Printf("❌ Reset failed: %v", err)
		writeError(w, "Failed to reset data", http.StatusInternalServerError)
		return
	}
	if _, err := EnsureAdmin(ctx, h.store, h.admin, h.now); err != nil {
		log.Printf("❌ Failed to restore admin after reset: %v", err)
		writeError(w, "Data cleared but admin account could not be restored", http.StatusInternalServerError)
		return
	}

	log.Printf("🧹 All data reset by %s", adminUser.Email)
	h.audit.Record(adminUser.Name, "RESET", "all users, vehicles and contacts removed")
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

var errEmailTaken = errors.New("email already exists")

func createAccount(ctx context.Context, store db.Store, req models.CreateUserRequest, now time.Time) (*models.User, error) {
	if existing, err := store.GetUserByEmail(ctx, req.Email); err == nil && existing != nil {
		return nil, errEmailTaken
	} else if err != nil && !errors.Is(err, db.ErrNotFound) {
		return nil, fmt.Errorf("lookup email: %w", err)
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Email:     req.Email,
		Role:      req.Role,
		CreatedAt: now,
	}
	if err := store.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	if err := store.StorePasswordHash(ctx, user.ID, passwordHash); err != nil {
		return nil, fmt.Errorf("store password: %w", err)
	}
	return user, nil
}
