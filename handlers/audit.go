package handlers

import (
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"servicedesk/models"
)

// DefaultAuditCapacity is the number of entries an AuditLog keeps
const DefaultAuditCapacity = 500

// AuditLog keeps the most recent mutations in memory and mirrors each one
// to the process log.
type AuditLog struct {
	mu       sync.Mutex
	entries  []models.AuditLog
	capacity int
	seq      int64
	now      func() time.Time
}

func NewAuditLog(capacity int) *AuditLog {
	if capacity <= 0 {
		capacity = DefaultAuditCapacity
	}
	return &AuditLog{capacity: capacity, now: time.Now}
}

// Record appends one entry, dropping the oldest once the log is full
func (a *AuditLog) Record(actor, action, details string) {
	a.mu.Lock()
	a.seq++
	entry := models.AuditLog{
		LogID:     fmt.Sprintf("log-%d-%d", a.now().UnixNano(), a.seq),
		Timestamp: a.now().UTC().Format(time.RFC3339),
		Actor:     actor,
		Action:    action,
		Details:   details,
	}
	a.entries = append(a.entries, entry)
	if len(a.entries) > a.capacity {
		a.entries = append([]models.AuditLog(nil), a.entries[len(a.entries)-a.capacity:]...)
	}
	a.mu.Unlock()

	log.Printf("AUDIT: User '%s' performed action '%s' - Details: %s", actor, action, details)
}

// Entries returns the recorded entries, newest first
func (a *AuditLog) Entries() []models.AuditLog {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]models.AuditLog, len(a.entries))
	for i, e := range a.entries {
		out[len(a.entries)-1-i] = e
	}
	return out
}

// AuditHandler serves the audit trail to admins
type AuditHandler struct {
	audit *AuditLog
}

func NewAuditHandler(audit *AuditLog) *AuditHandler {
	return &AuditHandler{audit: audit}
}

// GetAudit returns recent audit entries
func (h *AuditHandler) GetAudit(w http.ResponseWriter, r *http.Request) {
	entries := h.audit.Entries()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
		"count":   len(entries),
	})
}
