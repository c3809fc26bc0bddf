package handlers

import (
	"log"
	"net/http"

	"servicedesk/db"
	"servicedesk/models"
)

type DataHandler struct {
	store db.Store
}

func NewDataHandler(store db.Store) *DataHandler {
	return &DataHandler{store: store}
}

// Snapshot returns every user, vehicle and contact message
func (h *DataHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	snap := models.EmptySnapshot()

	users, err := h.store.GetAllUsers(ctx)
	if err != nil {
		log.Printf("❌ Failed to get users: %v", err)
		writeError(w, "Failed to retrieve data", http.StatusInternalServerError)
		return
	}
	vehicles, err := h.store.GetAllVehicles(ctx)
	if err != nil {
		log.Printf("❌ Failed to get vehicles: %v", err)
		writeError(w, "Failed to retrieve data", http.StatusInternalServerError)
		return
	}
	contacts, err := h.store.GetAllContacts(ctx)
	if err != nil {
		log.Printf("❌ Failed to get contacts: %v", err)
		writeError(w, "Failed to retrieve data", http.StatusInternalServerError)
		return
	}

	snap.Users = append(snap.Users, users...)
	snap.Vehicles = append(snap.Vehicles, vehicles...)
	snap.Contacts = append(snap.Contacts, contacts...)

	writeJSON(w, http.StatusOK, snap)
}
