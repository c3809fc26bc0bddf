package dashboard

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"servicedesk/models"
	"servicedesk/session"
	"servicedesk/workflow"

	"github.com/gorilla/mux"
)

// VehicleAction applies one transition button. The transition is checked
// locally first, so a rejected action never reaches the data API.
func (s *Server) VehicleAction(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	page := models.Role(vars["page"])
	back := "/" + string(page)

	sess := s.sessions.Load(r)
	if !s.gate(w, r, sess, page) {
		return
	}

	ctx := r.Context()
	snap, ok := s.load(w, r, sess)
	if !ok {
		return
	}
	vehicle := findVehicle(snap.Vehicles, vars["id"])
	if vehicle == nil {
		sess.Notify("Vehicle not found", session.KindError)
		s.redirect(w, r, sess, back)
		return
	}

	t, err := workflow.Check(sess.User.Role, vehicle.Status, workflow.Action(vars["action"]))
	if err == nil && t.Role != page {
		err = workflow.ErrUnknownAction
	}
	if err != nil {
		log.Printf("⚠️  Rejected %s on %s by %s: %v", vars["action"], vehicle.Plate, sess.User.Name, err)
		sess.Notify(rejectMessage(err, sess.User.Role), session.KindError)
		s.redirect(w, r, sess, back)
		return
	}

	changes := models.VehicleChanges{Status: t.To}
	if _, err := s.api.UpdateVehicle(ctx, sess.Token, vehicle.ID, changes, sess.User.Name, t.Note); err != nil {
		if s.expired(w, r, sess, err) {
			return
		}
		log.Printf("❌ Update of %s to %s failed: %v", vehicle.Plate, t.To, err)
		sess.Notify("Update failed", session.KindError)
		s.redirect(w, r, sess, back)
		return
	}

	sess.Notify(t.Notice, session.KindSuccess)
	s.redirect(w, r, sess, back)
}

func rejectMessage(err error, role models.Role) string {
	switch {
	case errors.Is(err, workflow.ErrForbidden):
		return "Access denied for role: " + string(role)
	case errors.Is(err, workflow.ErrInvalidTransition):
		return "Action not available for the vehicle's current status"
	default:
		return "Unknown action"
	}
}

// GuardAddVehicle records a vehicle entering through the gate
func (s *Server) GuardAddVehicle(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Load(r)
	if !s.gate(w, r, sess, models.RoleGuard) {
		return
	}

	plate := strings.TrimSpace(r.FormValue("g_plate"))
	owner := strings.TrimSpace(r.FormValue("g_owner"))
	if plate == "" || owner == "" {
		sess.Notify("Enter plate and owner", session.KindWarn)
		s.redirect(w, r, sess, "/guard")
		return
	}

	if _, err := s.api.AddVehicle(r.Context(), sess.Token, plate, owner, sess.User.Name); err != nil {
		if s.expired(w, r, sess, err) {
			return
		}
		log.Printf("❌ Failed to add vehicle %s: %v", plate, err)
		sess.Notify("Failed to add vehicle", session.KindError)
		s.redirect(w, r, sess, "/guard")
		return
	}

	sess.Notify("Vehicle "+plate+" recorded", session.KindSuccess)
	s.redirect(w, r, sess, "/guard")
}

func findVehicle(vehicles []models.Vehicle, id string) *models.Vehicle {
	for i := range vehicles {
		if vehicles[i].ID == id {
			return &vehicles[i]
		}
	}
	return nil
}
