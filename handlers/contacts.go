package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"servicedesk/db"
	"servicedesk/middleware"
	"servicedesk/models"

	"github.com/google/uuid"
)

// ErrAlreadyResponded is returned when a second response is sent for one message
var ErrAlreadyResponded = errors.New("message already responded")

// ErrResponseRequired is returned when a message would be marked responded without a response
var ErrResponseRequired = errors.New("a response is required to mark a message responded")

var errInvalidContactStatus = errors.New("invalid contact status")

type ContactHandler struct {
	store db.Store
	audit *AuditLog
	now   func() time.Time
}

func NewContactHandler(store db.Store, audit *AuditLog, now func() time.Time) *ContactHandler {
	return &ContactHandler{store: store, audit: audit, now: now}
}

// Create stores a message from the public contact form
func (h *ContactHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateContactRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	name := strings.TrimSpace(req.Name)
	email := strings.TrimSpace(req.Email)
	description := strings.TrimSpace(req.Description)
	if name == "" || email == "" || description == "" {
		writeError(w, "Name, email and description are required", http.StatusBadRequest)
		return
	}
	problemType := strings.TrimSpace(req.ProblemType)
	if problemType == "" {
		problemType = "general"
	}

	msg := &models.ContactMessage{
		ID:          uuid.NewString(),
		Name:        name,
		Email:       email,
		ProblemType: problemType,
		Description: description,
		Status:      models.ContactNew,
		CreatedAt:   h.now().UTC(),
	}
	if err := h.store.CreateContact(r.Context(), msg); err != nil {
		log.Printf("❌ Failed to store contact message from %s: %v", email, err)
		writeError(w, "Failed to store message", http.StatusInternalServerError)
		return
	}

	h.audit.Record(name, "CREATE_CONTACT", fmt.Sprintf("%s from %s", problemType, email))
	writeJSON(w, http.StatusCreated, msg)
}

// Update records the admin response to a contact message
func (h *ContactHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, "User not found in context", http.StatusUnauthorized)
		return
	}

	id := r.PathValue("id")
	var req models.UpdateContactRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	changes := req.Changes
	if changes.Status != "" && !changes.Status.Valid() {
		writeError(w, errInvalidContactStatus.Error(), http.StatusBadRequest)
		return
	}

	msg, err := h.store.MutateContact(r.Context(), id, func(c *models.ContactMessage) error {
		return applyContactChanges(c, changes, h.now().UTC())
	})
	switch {
	case err == nil:
	case errors.Is(err, db.ErrNotFound):
		writeError(w, "Message not found", http.StatusNotFound)
		return
	case errors.Is(err, ErrAlreadyResponded):
		writeError(w, "Message already responded", http.StatusConflict)
		return
	case errors.Is(err, ErrResponseRequired):
		writeError(w, "Response is required", http.StatusBadRequest)
		return
	default:
		log.Printf("❌ Failed to update contact %s: %v", id, err)
		writeError(w, "Failed to save response", http.StatusInternalServerError)
		return
	}

	h.audit.Record(user.Name, "RESPOND_CONTACT", fmt.Sprintf("%s to %s", msg.Status, msg.Email))
	writeJSON(w, http.StatusOK, msg)
}

// applyContactChanges keeps a responded message carrying its response and
// response time
func applyContactChanges(c *models.ContactMessage, changes models.ContactChanges, now time.Time) error {
	switch changes.Status {
	case models.ContactResponded:
		if changes.AdminResponse == "" && c.AdminResponse == "" {
			return ErrResponseRequired
		}
	case models.ContactNew:
		if c.AdminResponse != "" {
			return ErrAlreadyResponded
		}
	}

	if changes.AdminResponse != "" {
		if c.Status == models.ContactResponded || c.AdminResponse != "" {
			return ErrAlreadyResponded
		}
		c.AdminResponse = changes.AdminResponse
		respondedAt := now
		if changes.RespondedAt != nil {
			respondedAt = changes.RespondedAt.UTC()
		}
		c.RespondedAt = &respondedAt
		c.Status = models.ContactResponded
	}
	if changes.Status != "" {
		c.Status = changes.Status
	}
	return nil
}
