package handlers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"servicedesk/db"
	"servicedesk/middleware"
	"servicedesk/models"
	"servicedesk/workflow"

	"github.com/google/uuid"
)

type VehicleHandler struct {
	store db.Store
	audit *AuditLog
	now   func() time.Time
}

func NewVehicleHandler(store db.Store, audit *AuditLog, now func() time.Time) *VehicleHandler {
	return &VehicleHandler{store: store, audit: audit, now: now}
}

// Create records a vehicle arriving at the gate
func (h *VehicleHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, "User not found in context", http.StatusUnauthorized)
		return
	}

	var req models.CreateVehicleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	plate := strings.TrimSpace(req.Plate)
	owner := strings.TrimSpace(req.Owner)
	if plate == "" || owner == "" {
		writeError(w, "Plate and owner are required", http.StatusBadRequest)
		return
	}
	createdBy := strings.TrimSpace(req.CreatedBy)
	if createdBy == "" {
		createdBy = user.Name
	}

	now := h.now().UTC()
	vehicle := &models.Vehicle{
		ID:        uuid.NewString(),
		Plate:     plate,
		Owner:     owner,
		Status:    models.StatusEntered,
		CreatedBy: createdBy,
		CreatedAt: now,
		UpdatedAt: now,
		History: []models.HistoryEntry{{
			Status: models.StatusEntered,
			Actor:  createdBy,
			Note:   "Vehicle entered",
			At:     now,
		}},
	}

	if err := h.store.CreateVehicle(r.Context(), vehicle); err != nil {
		log.Printf("❌ Failed to create vehicle %s: %v", plate, err)
		writeError(w, "Failed to create vehicle", http.StatusInternalServerError)
		return
	}

	h.audit.Record(user.Name, "CREATE_VEHICLE", fmt.Sprintf("plate %s owner %s", plate, owner))
	writeJSON(w, http.StatusCreated, vehicle)
}

// Update applies one status transition and appends it to the vehicle history
func (h *VehicleHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, "User not found in context", http.StatusUnauthorized)
		return
	}

	id := r.PathValue("id")
	var req models.UpdateVehicleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Changes.Status == "" {
		writeError(w, "changes.status is required", http.StatusBadRequest)
		return
	}

	actor := strings.TrimSpace(req.Actor)
	if actor == "" {
		actor = user.Name
	}

	var from models.VehicleStatus
	vehicle, err := h.store.MutateVehicle(r.Context(), id, func(v *models.Vehicle) error {
		if _, err := workflow.CheckStatusChange(user.Role, v.Status, req.Changes.Status); err != nil {
			return err
		}
		from = v.Status
		now := h.now().UTC()
		v.Status = req.Changes.Status
		v.UpdatedAt = now
		v.History = append(v.History, models.HistoryEntry{
			Status: req.Changes.Status,
			Actor:  actor,
			Note:   req.Note,
			At:     now,
		})
		return nil
	})
	switch {
	case err == nil:
	case errors.Is(err, db.ErrNotFound):
		writeError(w, "Vehicle not found", http.StatusNotFound)
		return
	case errors.Is(err, workflow.ErrInvalidTransition):
		writeError(w, err.Error(), http.StatusConflict)
		return
	case errors.Is(err, workflow.ErrForbidden):
		writeError(w, err.Error(), http.StatusForbidden)
		return
	default:
		log.Printf("❌ Failed to update vehicle %s: %v", id, err)
		writeError(w, "Failed to update vehicle", http.StatusInternalServerError)
		return
	}

	h.audit.Record(user.Name, "UPDATE_VEHICLE",
		fmt.Sprintf("%s %s -> %s as %s", vehicle.Plate, from, vehicle.Status, actor))
	writeJSON(w, http.StatusOK, vehicle)
}

// Export streams every vehicle as CSV
func (h *VehicleHandler) Export(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, "User not found in context", http.StatusUnauthorized)
		return
	}

	vehicles, err := h.store.GetAllVehicles(r.Context())
	if err != nil {
		log.Printf("❌ Failed to get vehicles: %v", err)
		writeError(w, "Failed to retrieve vehicles", http.StatusInternalServerError)
		return
	}

	// Set headers for CSV download
	filename := fmt.Sprintf("vehicles_%s.csv", h.now().Format("2006-01-02_15-04-05"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))

	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write(exportHeader); err != nil {
		log.Printf("❌ Failed to write CSV header: %v", err)
		return
	}
	for _, v := range vehicles {
		if err := writer.Write(exportRow(v)); err != nil {
			log.Printf("❌ Failed to write CSV row: %v", err)
			return
		}
	}

	h.audit.Record(user.Name, "EXPORT_VEHICLES", fmt.Sprintf("%d rows", len(vehicles)))
}

var exportHeader = []string{
	"Vehicle ID",
	"Plate",
	"Owner",
	"Status",
	"Created By",
	"Created At",
	"Updated At",
	"Last Actor",
	"Last Note",
	"History Entries",
}

func exportRow(v models.Vehicle) []string {
	var lastActor, lastNote string
	if n := len(v.History); n > 0 {
		lastActor = v.History[n-1].Actor
		lastNote = v.History[n-1].Note
	}
	return []string{
		v.ID,
		v.Plate,
		v.Owner,
		string(v.Status),
		v.CreatedBy,
		v.CreatedAt.Format(time.RFC3339),
		v.UpdatedAt.Format(time.RFC3339),
		lastActor,
		lastNote,
		strconv.Itoa(len(v.History)),
	}
}
