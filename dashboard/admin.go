package dashboard

import (
	"bytes"
	"fmt"
	"log"
	"net/http"
	"strings"

	"servicedesk/models"
	"servicedesk/session"
	"servicedesk/view"

	"github.com/gorilla/mux"
	"golang.org/x/net/html"
)

// AdminPage lists users, vehicles and contact messages
func (s *Server) AdminPage(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Load(r)
	if !s.gate(w, r, sess, models.RoleAdmin) {
		return
	}

	snap, ok := s.load(w, r, sess)
	if !ok {
		return
	}

	vehicles := view.Elem("div", view.Attrs("id", "adminVehicles"))
	for _, v := range AdminVehicles(snap.Vehicles) {
		vehicles.AppendChild(view.VehicleCard(v))
	}

	s.render(w, sess, pageTitles[models.RoleAdmin],
		view.Section("Users", view.UserList(snap.Users), view.CreateUserForm(models.Roles)),
		view.Section("Vehicles", vehicles, view.ExportLink()),
		view.Section("Contact Messages", view.ContactTable(Contacts(snap.Contacts))),
		view.Section("Danger zone", view.ResetForm()),
	)
}

// AdminReset wipes the data API and forgets the local session entirely
func (s *Server) AdminReset(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Load(r)
	if !s.gate(w, r, sess, models.RoleAdmin) {
		return
	}
	if r.FormValue("confirm") != "yes" {
		sess.Notify("Reset cancelled", session.KindInfo)
		s.redirect(w, r, sess, "/admin")
		return
	}

	if err := s.api.Reset(r.Context(), sess.Token); err != nil {
		log.Printf("❌ Remote reset failed: %v", err)
	} else {
		log.Printf("🧹 Data reset requested by %s", sess.User.Email)
	}

	sess.Clear()
	sess.Notify("Data cleared", session.KindInfo)
	s.redirect(w, r, sess, "/")
}

// AdminCreateUser is the only way to add an account
func (s *Server) AdminCreateUser(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Load(r)
	if !s.gate(w, r, sess, models.RoleAdmin) {
		return
	}

	req := models.CreateUserRequest{
		Name:     strings.TrimSpace(r.FormValue("name")),
		Email:    strings.TrimSpace(r.FormValue("email")),
		Password: r.FormValue("password"),
		Role:     models.Role(r.FormValue("role")),
	}
	if req.Name == "" || req.Email == "" || req.Password == "" || !req.Role.Valid() {
		sess.Notify("Missing user fields", session.KindWarn)
		s.redirect(w, r, sess, "/admin")
		return
	}

	user, err := s.api.CreateUser(r.Context(), sess.Token, req)
	if err != nil {
		if s.expired(w, r, sess, err) {
			return
		}
		log.Printf("❌ Failed to create user %s: %v", req.Email, err)
		sess.Notify("Failed to create user", session.KindError)
		s.redirect(w, r, sess, "/admin")
		return
	}

	sess.Notify(fmt.Sprintf("User %s created (%s)", user.Email, user.Role), session.KindSuccess)
	s.redirect(w, r, sess, "/admin")
}

// ContactPage shows one contact message with the reply form
func (s *Server) ContactPage(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Load(r)
	if !s.gate(w, r, sess, models.RoleAdmin) {
		return
	}

	snap, ok := s.load(w, r, sess)
	if !ok {
		return
	}
	msg := findContact(snap.Contacts, mux.Vars(r)["id"])
	if msg == nil {
		sess.Notify("Message not found", session.KindError)
		s.redirect(w, r, sess, "/admin")
		return
	}

	body := []*html.Node{view.ContactDetail(*msg)}
	if msg.Status != models.ContactResponded {
		body = append(body, view.RespondForm(msg.ID))
	}
	s.render(w, sess, "Contact message", body...)
}

// RespondContact saves the admin response. Empty responses never leave the dashboard.
func (s *Server) RespondContact(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	sess := s.sessions.Load(r)
	if !s.gate(w, r, sess, models.RoleAdmin) {
		return
	}

	response := r.FormValue("response")
	if strings.TrimSpace(response) == "" {
		sess.Notify("Response cannot be empty", session.KindError)
		s.redirect(w, r, sess, "/admin/contacts/"+id)
		return
	}

	ctx := r.Context()
	snap, ok := s.load(w, r, sess)
	if !ok {
		return
	}
	msg := findContact(snap.Contacts, id)
	if msg == nil {
		sess.Notify("Message not found", session.KindError)
		s.redirect(w, r, sess, "/admin")
		return
	}

	respondedAt := s.now().UTC()
	changes := models.ContactChanges{
		AdminResponse: response,
		RespondedAt:   &respondedAt,
		Status:        models.ContactResponded,
	}
	if err := s.api.RespondContact(ctx, sess.Token, id, changes); err != nil {
		if s.expired(w, r, sess, err) {
			return
		}
		log.Printf("❌ Failed to save response to %s: %v", id, err)
		sess.Notify("Failed to save response", session.KindError)
		s.redirect(w, r, sess, "/admin")
		return
	}

	sess.Notify("Response saved! Email notification sent to "+msg.Email, session.KindSuccess)
	s.redirect(w, r, sess, "/admin")
}

// Export proxies the CSV export of the data API
func (s *Server) Export(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Load(r)
	if !s.gate(w, r, sess, models.RoleAdmin, models.RoleReceptionist) {
		return
	}

	var buf bytes.Buffer
	if err := s.api.ExportVehicles(r.Context(), sess.Token, &buf); err != nil {
		if s.expired(w, r, sess, err) {
			return
		}
		log.Printf("❌ Export failed: %v", err)
		sess.Notify("Export failed", session.KindError)
		s.redirect(w, r, sess, "/"+string(sess.User.Role))
		return
	}

	filename := fmt.Sprintf("vehicles_%s.csv", s.now().Format("2006-01-02_15-04-05"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	w.Write(buf.Bytes())
}

func findContact(msgs []models.ContactMessage, id string) *models.ContactMessage {
	for i := range msgs {
		if msgs[i].ID == id {
			return &msgs[i]
		}
	}
	return nil
}
