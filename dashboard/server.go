// Package dashboard serves the role dashboards of the service center. Every
// page is rendered on the server from a fresh snapshot of the data API and
// every button is a form post that redirects back to a page, so a browser
// never holds domain data of its own.
package dashboard

import (
	"context"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"time"

	"servicedesk/client"
	"servicedesk/models"
	"servicedesk/session"
	"servicedesk/view"

	"github.com/gorilla/mux"
	"golang.org/x/net/html"
)

// API is the part of the data API client the dashboard uses
type API interface {
	Load(ctx context.Context, token string) (models.Snapshot, error)
	Login(ctx context.Context, email, password string) (*models.LoginResponse, error)
	Register(ctx context.Context, name, email, password string, role models.Role) error
	AddVehicle(ctx context.Context, token, plate, owner, createdBy string) (*models.Vehicle, error)
	UpdateVehicle(ctx context.Context, token, id string, changes models.VehicleChanges, actor, note string) (*models.Vehicle, error)
	RespondContact(ctx context.Context, token, id string, changes models.ContactChanges) error
	Reset(ctx context.Context, token string) error
	CreateUser(ctx context.Context, token string, req models.CreateUserRequest) (*models.User, error)
	ExportVehicles(ctx context.Context, token string, w io.Writer) error
}

// Server holds the dashboard handlers
type Server struct {
	api      API
	sessions *session.Manager
	now      func() time.Time
}

func NewServer(api API, sessions *session.Manager) *Server {
	return &Server{api: api, sessions: sessions, now: time.Now}
}

// rolePages are the dashboards served under /{role}
var rolePages = []models.Role{
	models.RoleGuard,
	models.RoleReceptionist,
	models.RoleAdvisor,
	models.RoleTechnician,
	models.RoleQC,
}

const pagePattern = "{page:guard|receptionist|advisor|technician|qc}"

var pageTitles = map[models.Role]string{
	models.RoleGuard:        "Gate",
	models.RoleReceptionist: "Reception",
	models.RoleAdvisor:      "Service Advisor",
	models.RoleTechnician:   "Technician",
	models.RoleQC:           "Quality Control",
	models.RoleAdmin:        "Admin",
}

// Router registers every dashboard route
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(forwardClientIP)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"healthy","timestamp":%d}`, time.Now().Unix())
	}).Methods("GET")

	// Auth
	r.HandleFunc("/", s.withPending(s.Home)).Methods("GET")
	r.HandleFunc("/login", s.LoginPage).Methods("GET")
	r.HandleFunc("/login", s.Login).Methods("POST")
	r.HandleFunc("/register", s.Register).Methods("POST")
	r.HandleFunc("/logout", s.Logout).Methods("POST")
	r.HandleFunc("/start", s.Start).Methods("POST")

	// Admin
	r.HandleFunc("/admin", s.withPending(s.AdminPage)).Methods("GET")
	r.HandleFunc("/admin/reset", s.AdminReset).Methods("POST")
	r.HandleFunc("/admin/users", s.AdminCreateUser).Methods("POST")
	r.HandleFunc("/admin/contacts/{id}", s.withPending(s.ContactPage)).Methods("GET")
	r.HandleFunc("/admin/contacts/{id}", s.RespondContact).Methods("POST")
	r.HandleFunc("/admin/export", s.Export).Methods("GET")

	// Role dashboards
	r.HandleFunc("/guard/vehicles", s.GuardAddVehicle).Methods("POST")
	r.HandleFunc("/"+pagePattern, s.withPending(s.RolePage)).Methods("GET")
	r.HandleFunc("/"+pagePattern+"/vehicles/{id}/{action}", s.VehicleAction).Methods("POST")

	return r
}

// forwardClientIP tags the request context with the browser address so data
// API calls are rate limited per browser rather than per dashboard
func forwardClientIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		next.ServeHTTP(w, r.WithContext(client.WithClientIP(r.Context(), host)))
	})
}

// render pops the flash, saves the session and writes the page
func (s *Server) render(w http.ResponseWriter, sess *session.Session, title string, body ...*html.Node) {
	var notice *view.NoticeView
	if f := sess.PopFlash(); f != nil {
		notice = &view.NoticeView{Message: f.Message, Kind: string(f.Kind), TimeoutMS: f.TimeoutMS}
	}
	if err := s.sessions.Save(w, sess); err != nil {
		log.Printf("❌ Failed to save session: %v", err)
	}

	page := view.Page(title, view.Nav(navView(sess)), view.Notice(notice), body...)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := view.Render(w, page); err != nil {
		log.Printf("❌ Failed to render %s: %v", title, err)
	}
}

func (s *Server) redirect(w http.ResponseWriter, r *http.Request, sess *session.Session, to string) {
	if err := s.sessions.Save(w, sess); err != nil {
		log.Printf("❌ Failed to save session: %v", err)
	}
	http.Redirect(w, r, to, http.StatusSeeOther)
}

// gate applies Gate and redirects with a notice when the user may not enter
func (s *Server) gate(w http.ResponseWriter, r *http.Request, sess *session.Session, roles ...models.Role) bool {
	d := Gate(sess, roles...)
	if d.Outcome == Allow {
		return true
	}
	sess.Notify(d.Message, session.KindError)
	s.redirect(w, r, sess, d.Location)
	return false
}

// load fetches the snapshot for sess. Only a refused token stops the page;
// any other failure renders with the empty snapshot.
func (s *Server) load(w http.ResponseWriter, r *http.Request, sess *session.Session) (models.Snapshot, bool) {
	snap, err := s.api.Load(r.Context(), sess.Token)
	if s.expired(w, r, sess, err) {
		return snap, false
	}
	return snap, true
}

// expired ends the session and sends the user to login when the data API
// refused the cached token
func (s *Server) expired(w http.ResponseWriter, r *http.Request, sess *session.Session, err error) bool {
	if !client.IsUnauthorized(err) {
		return false
	}
	if sess.User != nil {
		log.Printf("🔒 API token of %s refused, ending session", sess.User.Email)
	}
	sess.Expire()
	s.redirect(w, r, sess, "/login")
	return true
}

func navView(sess *session.Session) view.NavView {
	if sess.User == nil {
		return view.NavView{}
	}
	return view.NavView{
		LoggedIn:      true,
		UserLabel:     fmt.Sprintf("%s (%s)", sess.User.Name, sess.User.Role),
		DashboardHref: "/" + string(sess.User.Role),
	}
}

// RolePage renders the dashboard of one role
func (s *Server) RolePage(w http.ResponseWriter, r *http.Request) {
	role := models.Role(mux.Vars(r)["page"])
	sess := s.sessions.Load(r)
	if !s.gate(w, r, sess, role) {
		return
	}

	snap, ok := s.load(w, r, sess)
	if !ok {
		return
	}
	board := Board(role, snap.Vehicles)

	var body []*html.Node
	if role == models.RoleGuard {
		body = append(body, view.GuardForm())
	}
	body = append(body, view.VehicleList(board.ListID, board.Counts, board.Vehicles))
	if role == models.RoleReceptionist {
		body = append(body, view.ExportLink())
	}
	s.render(w, sess, pageTitles[role], body...)
}
