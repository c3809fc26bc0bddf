package dashboard

import (
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"servicedesk/auth"
	"servicedesk/client"
	"servicedesk/config"
	"servicedesk/db"
	"servicedesk/handlers"
	"servicedesk/models"
	"servicedesk/session"

	"golang.org/x/crypto/bcrypt"
)

type browser struct {
	t    *testing.T
	base string
	http *http.Client
}

func (b *browser) post(path string, form url.Values) string {
	b.t.Helper()
	resp, err := b.http.PostForm(b.base+path, form)
	if err != nil {
		b.t.Fatalf("POST %s: %v", path, err)
	}
	return b.read(resp)
}

func (b *browser) get(path string) string {
	b.t.Helper()
	resp, err := b.http.Get(b.base + path)
	if err != nil {
		b.t.Fatalf("GET %s: %v", path, err)
	}
	return b.read(resp)
}

func (b *browser) read(resp *http.Response) string {
	b.t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		b.t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		b.t.Fatalf("%s: status %d", resp.Request.URL.Path, resp.StatusCode)
	}
	return string(body)
}

func mustContain(t *testing.T, body string, wants ...string) {
	t.Helper()
	for _, want := range wants {
		if !strings.Contains(body, want) {
			t.Fatalf("page does not contain %q:\n%s", want, body)
		}
	}
}

func TestEndToEndWorkflow(t *testing.T) {
	auth.BcryptCost = bcrypt.MinCost

	ctx := context.Background()
	store := db.NewMemoryDB()
	admin := config.AdminConfig{Name: "Root", Email: "root@example.com", Password: "rootpass1"}
	if _, err := handlers.EnsureAdmin(ctx, store, admin, time.Now); err != nil {
		t.Fatal(err)
	}
	apiSrv := httptest.NewServer(handlers.NewRouter(handlers.Deps{
		Store: store,
		JWT:   auth.NewJWTManager("api-secret", time.Hour),
		Admin: admin,
	}))
	defer apiSrv.Close()

	sessions := session.NewManager("vs_session", "dash-secret", time.Hour, false)
	dashSrv := httptest.NewServer(NewServer(client.New(apiSrv.URL, 5*time.Second), sessions).Router())
	defer dashSrv.Close()

	jar, _ := cookiejar.New(nil)
	b := &browser{t: t, base: dashSrv.URL, http: &http.Client{Jar: jar}}

	// a visitor starts a service before logging in
	body := b.post("/start", url.Values{"vehiclePlate": {"AB123"}})
	mustContain(t, body, "Please login to record vehicle", `id="loginForm"`)

	// logging in records the pending plate on the next page
	body = b.post("/login", url.Values{"loginEmail": {"root@example.com"}, "loginPassword": {"rootpass1"}})
	mustContain(t, body, "Vehicle recorded", "Root (admin)")

	vehicles, _ := store.GetAllVehicles(ctx)
	if len(vehicles) != 1 || vehicles[0].Plate != "AB123" || vehicles[0].Owner != "Root" || vehicles[0].CreatedBy != "Root" {
		t.Fatalf("pending plate not recorded: %+v", vehicles)
	}
	id := vehicles[0].ID

	body = b.post("/login", url.Values{"loginEmail": {"root@example.com"}, "loginPassword": {"rootpass1"}})
	mustContain(t, body, "Another user already logged in. Logout first.")

	body = b.get("/guard")
	mustContain(t, body, "1 pending", "Owner: Root • entered")

	steps := []struct {
		page, action, notice, counts string
	}{
		{"receptionist", "assign", "Assigned to advisor", "Total: 1"},
		{"advisor", "to_technician", "Assigned to technician", "0 assigned"},
		{"technician", "mark_done", "Service marked done", "0 in queue"},
		{"advisor", "send_to_qc", "Sent to QC", "0 assigned"},
		{"qc", "pass", "QC approved", "0 to inspect"},
		{"receptionist", "deliver", "Delivered", "Total: 1"},
	}
	for _, s := range steps {
		body = b.post("/"+s.page+"/vehicles/"+id+"/"+s.action, url.Values{})
		mustContain(t, body, s.notice, s.counts)
	}

	v, _ := store.GetVehicle(ctx, id)
	if v.Status != models.StatusDelivered || len(v.History) != 7 {
		t.Fatalf("vehicle after workflow: %s with %d history entries", v.Status, len(v.History))
	}
	if last := v.History[6]; last.Actor != "Root" || last.Note != "Delivered" {
		t.Fatalf("last history entry = %+v", last)
	}

	body = b.post("/receptionist/vehicles/"+id+"/assign", url.Values{})
	mustContain(t, body, "Action not available for the vehicle&#39;s current status")

	// admin creates a guard, who then records a vehicle at the gate
	body = b.post("/admin/users", url.Values{"name": {"Gina"}, "email": {"gina@example.com"}, "password": {"password1"}, "role": {"guard"}})
	mustContain(t, body, "User gina@example.com created (guard)", "Gina (guard)")

	body = b.post("/logout", nil)
	mustContain(t, body, "Logged out", `id="nav-auth">Login</a>`)

	body = b.post("/login", url.Values{"loginEmail": {"gina@example.com"}, "loginPassword": {"password1"}})
	mustContain(t, body, "Welcome Gina")

	body = b.post("/guard/vehicles", url.Values{"g_plate": {"CD456"}, "g_owner": {"Sam"}})
	mustContain(t, body, "Vehicle CD456 recorded", "1 pending", "Owner: Sam • entered")

	body = b.get("/admin")
	mustContain(t, body, "Access denied for role: guard")

	// contact messages arrive through the public endpoint
	contact := `{"name":"Sam","email":"sam@example.com","problemType":"noise","description":"Brakes **squeal** when cold"}`
	resp, err := http.Post(apiSrv.URL+"/api/contacts", "application/json", strings.NewReader(contact))
	if err != nil || resp.StatusCode != http.StatusCreated {
		t.Fatalf("create contact: %v %v", err, resp)
	}
	resp.Body.Close()
	contacts, _ := store.GetAllContacts(ctx)

	b.post("/logout", nil)
	b.post("/login", url.Values{"loginEmail": {"root@example.com"}, "loginPassword": {"rootpass1"}})

	body = b.get("/admin")
	mustContain(t, body, `<span class="badge type">noise</span>`, "Brakes **squeal** when cold...", `<span class="badge new">new</span>`)

	body = b.get("/admin/contacts/" + contacts[0].ID)
	mustContain(t, body, "<strong>squeal</strong>", `id="respondForm"`)

	body = b.post("/admin/contacts/"+contacts[0].ID, url.Values{"response": {"Bring it in on Monday"}})
	mustContain(t, body, "Response saved! Email notification sent to sam@example.com", `<span class="badge responded">responded</span>`)

	body = b.post("/admin/contacts/"+contacts[0].ID, url.Values{"response": {"Again"}})
	mustContain(t, body, "Failed to save response")

	body = b.post("/admin/reset", url.Values{"confirm": {"yes"}})
	mustContain(t, body, "Data cleared", `id="nav-auth">Login</a>`)

	users, _ := store.GetAllUsers(ctx)
	vehicles, _ = store.GetAllVehicles(ctx)
	if len(users) != 1 || users[0].Role != models.RoleAdmin || len(vehicles) != 0 {
		t.Fatalf("after reset: %d users, %d vehicles", len(users), len(vehicles))
	}
}

func TestEndToEndResetEndsOtherSessions(t *testing.T) {
	auth.BcryptCost = bcrypt.MinCost

	store := db.NewMemoryDB()
	admin := config.AdminConfig{Name: "Root", Email: "root@example.com", Password: "rootpass1"}
	apiSrv := httptest.NewServer(handlers.NewRouter(handlers.Deps{
		Store: store,
		JWT:   auth.NewJWTManager("api-secret", time.Hour),
		Admin: admin,
	}))
	defer apiSrv.Close()
	if _, err := handlers.EnsureAdmin(context.Background(), store, admin, time.Now); err != nil {
		t.Fatal(err)
	}

	sessions := session.NewManager("vs_session", "dash-secret", 7*24*time.Hour, false)
	dashSrv := httptest.NewServer(NewServer(client.New(apiSrv.URL, 5*time.Second), sessions).Router())
	defer dashSrv.Close()

	newBrowser := func() *browser {
		jar, _ := cookiejar.New(nil)
		return &browser{t: t, base: dashSrv.URL, http: &http.Client{Jar: jar}}
	}
	root, gate := newBrowser(), newBrowser()

	root.post("/login", url.Values{"loginEmail": {"root@example.com"}, "loginPassword": {"rootpass1"}})
	body := root.post("/admin/users", url.Values{"name": {"Gina"}, "email": {"gina@example.com"}, "password": {"gatepass1"}, "role": {"guard"}})
	mustContain(t, body, "User gina@example.com created (guard)")

	body = gate.post("/login", url.Values{"loginEmail": {"gina@example.com"}, "loginPassword": {"gatepass1"}})
	mustContain(t, body, "Welcome Gina")
	body = gate.post("/guard/vehicles", url.Values{"g_plate": {"AB123"}, "g_owner": {"Sam"}})
	mustContain(t, body, "1 pending")

	root.post("/admin/reset", url.Values{"confirm": {"yes"}})

	// the guard's token no longer matches a user, so the cached login is dropped
	body = gate.get("/guard")
	mustContain(t, body, session.ExpiredMessage, `id="loginForm"`, `id="nav-auth">Login</a>`)

	body = gate.post("/login", url.Values{"loginEmail": {"root@example.com"}, "loginPassword": {"rootpass1"}})
	mustContain(t, body, "Welcome Root")
}
