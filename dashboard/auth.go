package dashboard

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"servicedesk/client"
	"servicedesk/models"
	"servicedesk/session"
	"servicedesk/view"

	"golang.org/x/net/html"
)

// Home shows the start form and, once logged in, the way to the dashboards
func (s *Server) Home(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Load(r)

	body := []*html.Node{
		view.Hero("Bring your car to the gate and enter its plate to start a service visit."),
		view.StartForm(),
	}
	if sess.User != nil && sess.User.Role == models.RoleAdmin {
		links := view.Elem("ul", view.Attrs("class", "dashboards"))
		for _, role := range rolePages {
			links.AppendChild(view.Elem("li", nil,
				view.Elem("a", view.Attrs("href", "/"+string(role)), view.Text(pageTitles[role])),
			))
		}
		body = append(body, links)
	}
	s.render(w, sess, "Service Desk", body...)
}

// LoginPage skips the pending check since it is where that check redirects to
func (s *Server) LoginPage(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Load(r)
	s.render(w, sess, "Login", view.LoginForm(), view.RegisterForm(models.Roles))
}

func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Load(r)

	// refused before the fields are even looked at
	if sess.LoggedIn() {
		sess.Notify("Another user already logged in. Logout first.", session.KindError)
		s.redirect(w, r, sess, "/login")
		return
	}

	email := strings.TrimSpace(r.FormValue("loginEmail"))
	password := r.FormValue("loginPassword")
	if email == "" || password == "" {
		sess.Notify("Missing login fields", session.KindError)
		s.redirect(w, r, sess, "/login")
		return
	}

	resp, err := s.api.Login(r.Context(), email, password)
	if err != nil {
		msg := "Login failed"
		if errors.Is(err, client.ErrInvalidCredentials) {
			msg = "Invalid credentials"
		}
		sess.Notify(msg, session.KindError)
		s.redirect(w, r, sess, "/login")
		return
	}

	if err := sess.Begin(&resp.User, resp.Token, resp.ExpiresAt); err != nil {
		sess.Notify("Another user already logged in. Logout first.", session.KindError)
		s.redirect(w, r, sess, "/login")
		return
	}

	log.Printf("✅ Dashboard login: %s (role: %s)", resp.User.Email, resp.User.Role)
	sess.Notify("Welcome "+resp.User.Name, session.KindSuccess)
	s.redirect(w, r, sess, "/")
}

func (s *Server) Register(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Load(r)

	name := strings.TrimSpace(r.FormValue("regName"))
	email := strings.TrimSpace(r.FormValue("regEmail"))
	password := r.FormValue("regPassword")
	role := models.Role(r.FormValue("regRole"))
	if name == "" || email == "" || password == "" || role == "" {
		sess.Notify("Missing registration fields", session.KindError)
		s.redirect(w, r, sess, "/login")
		return
	}
	if len(password) < 4 {
		sess.Notify("Password too short", session.KindWarn)
		s.redirect(w, r, sess, "/login")
		return
	}

	if err := s.api.Register(r.Context(), name, email, password, role); err != nil {
		msg := "Registration failed"
		if errors.Is(err, client.ErrRegistrationDisabled) {
			msg = "Registration disabled. Contact administrator or use Admin panel."
		}
		sess.Notify(msg, session.KindError)
		s.redirect(w, r, sess, "/login")
		return
	}

	sess.Notify("Registered. Please login.", session.KindSuccess)
	s.redirect(w, r, sess, "/login")
}

func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Load(r)
	sess.End()
	sess.Notify("Logged out", session.KindInfo)
	s.redirect(w, r, sess, "/")
}

// Start stashes the plate until someone is logged in to record it
func (s *Server) Start(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Load(r)

	plate := strings.TrimSpace(r.FormValue("vehiclePlate"))
	if plate == "" {
		sess.Notify("Enter plate", session.KindWarn)
		s.redirect(w, r, sess, "/")
		return
	}

	sess.StashPlate(plate)
	if sess.LoggedIn() {
		// the pending check on the home page records it right away
		s.redirect(w, r, sess, "/")
		return
	}
	sess.NotifyFor("Please login to record vehicle", session.KindInfo, 1500*time.Millisecond)
	s.redirect(w, r, sess, "/login")
}
