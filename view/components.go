package view

import (
	"encoding/json"
	"fmt"
	"strings"

	"servicedesk/models"

	"golang.org/x/net/html"
)

const styles = `
body{font-family:system-ui,sans-serif;margin:0;background:#f7f7f8;color:#1f2937}
nav{display:flex;gap:1rem;padding:.75rem 1.5rem;background:#111827}
nav a,nav button{color:#f9fafb;text-decoration:none;background:none;border:0;font:inherit;cursor:pointer}
main{max-width:960px;margin:1.5rem auto;padding:0 1rem}
.counts{font-weight:600;margin-bottom:.75rem}
.vehicle{background:#fff;border:1px solid #e5e7eb;border-radius:6px;padding:.75rem;margin-bottom:.5rem}
.meta{color:#6b7280;font-size:.9rem}
.actions{display:flex;gap:.5rem;margin-top:.5rem}
.history pre{background:#f3f4f6;padding:.5rem;overflow:auto}
.badge{color:#fff;padding:4px 8px;border-radius:4px;font-size:.85rem}
.badge.type{background:#3b82f6}
.badge.new{background:#fbbf24}
.badge.responded{background:#10b981}
.badge.closed{background:#6b7280}
table{width:100%;border-collapse:collapse}
th,td{padding:12px;text-align:left;border-bottom:1px solid #eee}
.notify{position:fixed;top:1rem;right:1rem;padding:.75rem 1rem;border-radius:6px;color:#fff;animation-name:vs-dismiss;animation-duration:0s;animation-fill-mode:forwards}
.notify.info{background:#2563eb}
.notify.success{background:#059669}
.notify.warn{background:#d97706}
.notify.error{background:#dc2626}
.empty{text-align:center;color:#999}
@keyframes vs-dismiss{to{visibility:hidden;opacity:0}}
`

// Page wraps body in a full HTML document
func Page(title string, nav, notice *html.Node, body ...*html.Node) *html.Node {
	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})
	doc.AppendChild(Elem("html", Attrs("lang", "en"),
		Elem("head", nil,
			Elem("meta", Attrs("charset", "utf-8")),
			Elem("title", nil, Text(title+" · Service Desk")),
			Elem("style", nil, Text(styles)),
		),
		Elem("body", nil,
			nav,
			notice,
			Elem("main", nil, append([]*html.Node{Elem("h1", nil, Text(title))}, body...)...),
		),
	))
	return doc
}

// NavView is the navigation bar state
type NavView struct {
	UserLabel     string
	DashboardHref string
	LoggedIn      bool
}

func Nav(v NavView) *html.Node {
	nav := Elem("nav", nil, Elem("a", Attrs("href", "/"), Text("Home")))
	if !v.LoggedIn {
		nav.AppendChild(Elem("a", Attrs("href", "/login", "id", "nav-auth"), Text("Login")))
		return nav
	}
	nav.AppendChild(Elem("a", Attrs("href", "/login", "id", "nav-auth"), Text(v.UserLabel)))
	if v.DashboardHref != "" {
		nav.AppendChild(Elem("a", Attrs("href", v.DashboardHref, "class", "role-link"), Text("Dashboard")))
	}
	nav.AppendChild(Elem("form", Attrs("method", "post", "action", "/logout", "class", "role-link"),
		Elem("button", Attrs("type", "submit"), Text("Logout")),
	))
	return nav
}

// NoticeView is a one-shot notification
type NoticeView struct {
	Message   string
	Kind      string
	TimeoutMS int
}

// Notice renders the notification widget. It hides itself after TimeoutMS.
func Notice(v *NoticeView) *html.Node {
	if v == nil || v.Message == "" {
		return nil
	}
	kind := v.Kind
	if kind == "" {
		kind = "info"
	}
	timeout := v.TimeoutMS
	if timeout <= 0 {
		timeout = 3000
	}
	return Elem("div", Attrs(
		"id", "vs-notify",
		"class", "notify "+kind,
		"role", "status",
		"style", fmt.Sprintf("animation-delay:%dms", timeout),
	), Text(v.Message))
}

func Counts(text string) *html.Node {
	return Elem("div", Attrs("class", "counts"), Text(text))
}

// ActionView is one transition button on a vehicle card
type ActionView struct {
	Label string
	Href  string
}

// VehicleView is one vehicle as shown on a dashboard
type VehicleView struct {
	ID          string
	Plate       string
	Meta        string
	Actions     []ActionView
	History     []models.HistoryEntry
	ShowHistory bool
	HistoryOpen bool
}

// ActionButton is a POST form so transitions never ride on a GET
func ActionButton(a ActionView) *html.Node {
	return Elem("form", Attrs("method", "post", "action", a.Href),
		Elem("button", Attrs("type", "submit"), Text(a.Label)),
	)
}

// HistoryPanel shows the raw history as indented JSON
func HistoryPanel(id string, history []models.HistoryEntry, open bool) *html.Node {
	attrs := Attrs("class", "history", "id", "hist-"+id)
	if open {
		attrs = append(attrs, html.Attribute{Key: "open", Val: ""})
	}
	return Elem("details", attrs,
		Elem("summary", nil, Text("History")),
		Elem("pre", nil, Text(HistoryJSON(history))),
	)
}

// HistoryJSON pretty prints history with a two space indent
func HistoryJSON(history []models.HistoryEntry) string {
	if history == nil {
		history = []models.HistoryEntry{}
	}
	b, err := json.MarshalIndent(history, "", "  ")
	if err != nil {
		return "[]"
	}
	return string(b)
}

func VehicleCard(v VehicleView) *html.Node {
	actions := Elem("div", Attrs("class", "actions"))
	for _, a := range v.Actions {
		actions.AppendChild(ActionButton(a))
	}
	card := Elem("div", Attrs("class", "vehicle", "id", "vehicle-"+v.ID),
		Elem("strong", nil, Text(v.Plate)),
		Elem("div", Attrs("class", "meta"), Text(v.Meta)),
		actions,
	)
	if v.ShowHistory {
		card.AppendChild(HistoryPanel(v.ID, v.History, v.HistoryOpen))
	}
	return card
}

// VehicleList renders the counts header followed by one card per vehicle
func VehicleList(id, counts string, vehicles []VehicleView) *html.Node {
	list := Elem("div", Attrs("id", id), Counts(counts))
	for _, v := range vehicles {
		list.AppendChild(VehicleCard(v))
	}
	return list
}

func field(label, name, kind string, extra ...string) *html.Node {
	attrs := Attrs("type", kind, "name", name, "id", name)
	attrs = append(attrs, Attrs(extra...)...)
	return Elem("label", nil, Text(label), Elem("input", attrs))
}

func submit(label string) *html.Node {
	return Elem("button", Attrs("type", "submit"), Text(label))
}

func roleSelect(name string, roles []models.Role) *html.Node {
	sel := Elem("select", Attrs("name", name, "id", name))
	for _, r := range roles {
		sel.AppendChild(Elem("option", Attrs("value", string(r)), Text(string(r))))
	}
	return Elem("label", nil, Text("Role"), sel)
}

// StartForm is the public "start service" form of the home page
func StartForm() *html.Node {
	return Elem("form", Attrs("method", "post", "action", "/start", "id", "startForm"),
		field("Plate", "vehiclePlate", "text"),
		submit("Start service"),
	)
}

func LoginForm() *html.Node {
	return Elem("form", Attrs("method", "post", "action", "/login", "id", "loginForm"),
		Elem("h2", nil, Text("Login")),
		field("Email", "loginEmail", "email"),
		field("Password", "loginPassword", "password"),
		submit("Login"),
	)
}

func RegisterForm(roles []models.Role) *html.Node {
	return Elem("form", Attrs("method", "post", "action", "/register", "id", "regForm"),
		Elem("h2", nil, Text("Register")),
		field("Name", "regName", "text"),
		field("Email", "regEmail", "email"),
		field("Password", "regPassword", "password"),
		roleSelect("regRole", roles),
		submit("Register"),
	)
}

func GuardForm() *html.Node {
	return Elem("form", Attrs("method", "post", "action", "/guard/vehicles", "id", "guardForm"),
		field("Plate", "g_plate", "text"),
		field("Owner", "g_owner", "text"),
		submit("Record vehicle"),
	)
}

// ContactView is one row of the contact messages table
type ContactView struct {
	ID          string
	Name        string
	Email       string
	ProblemType string
	Excerpt     string
	Status      string
}

// Excerpt returns the first 50 characters of s followed by "..."
func Excerpt(s string) string {
	r := []rune(s)
	if len(r) > 50 {
		r = r[:50]
	}
	return string(r) + "..."
}

func ContactTable(rows []ContactView) *html.Node {
	container := Elem("div", Attrs("id", "contact-messages-container"))
	if len(rows) == 0 {
		container.AppendChild(Elem("p", Attrs("class", "empty"), Text("No contact messages yet")))
		return container
	}

	head := Elem("tr", nil)
	for _, h := range []string{"Name", "Email", "Type", "Message", "Status", "Action"} {
		head.AppendChild(Elem("th", nil, Text(h)))
	}
	body := Elem("tbody", nil)
	for _, m := range rows {
		body.AppendChild(Elem("tr", Attrs("id", "msg-"+m.ID),
			Elem("td", nil, Elem("strong", nil, Text(m.Name))),
			Elem("td", nil, Elem("a", Attrs("href", "mailto:"+m.Email), Text(m.Email))),
			Elem("td", nil, Elem("span", Attrs("class", "badge type"), Text(m.ProblemType))),
			Elem("td", nil, Text(m.Excerpt)),
			Elem("td", nil, Elem("span", Attrs("class", "badge "+m.Status), Text(m.Status))),
			Elem("td", nil, Elem("a", Attrs("href", "/admin/contacts/"+m.ID), Text("View"))),
		))
	}
	container.AppendChild(Elem("table", nil, Elem("thead", nil, head), body))
	return container
}

// ContactDetail shows the original message with its Markdown rendered
func ContactDetail(m models.ContactMessage) *html.Node {
	detail := Elem("div", Attrs("class", "contact-detail", "id", "contact-"+m.ID),
		Elem("p", nil, Text(fmt.Sprintf("Send response to %s (%s)", m.Name, m.Email))),
		Elem("h3", nil, Text("Original message")),
		Markdown(m.Description),
	)
	if m.AdminResponse != "" {
		detail.AppendChild(Elem("h3", nil, Text("Response")))
		detail.AppendChild(Markdown(m.AdminResponse))
	}
	return detail
}

func RespondForm(id string) *html.Node {
	return Elem("form", Attrs("method", "post", "action", "/admin/contacts/"+id, "id", "respondForm"),
		Elem("label", nil, Text("Your response"),
			Elem("textarea", Attrs("name", "response", "rows", "6")),
		),
		submit("Send response"),
	)
}

func UserList(users []models.User) *html.Node {
	list := Elem("div", Attrs("id", "user-list"))
	for _, u := range users {
		list.AppendChild(Elem("div", nil, Text(fmt.Sprintf("%s (%s)", u.Name, u.Role))))
	}
	return list
}

func ResetForm() *html.Node {
	return Elem("form", Attrs("method", "post", "action", "/admin/reset", "id", "adminReset"),
		Elem("label", nil,
			Elem("input", Attrs("type", "checkbox", "name", "confirm", "value", "yes")),
			Text("Clear all data?"),
		),
		submit("Reset Data"),
	)
}

func CreateUserForm(roles []models.Role) *html.Node {
	return Elem("form", Attrs("method", "post", "action", "/admin/users", "id", "createUserForm"),
		field("Name", "name", "text"),
		field("Email", "email", "email"),
		field("Password", "password", "password"),
		roleSelect("role", roles),
		submit("Create user"),
	)
}

func ExportLink() *html.Node {
	return Elem("p", nil, Elem("a", Attrs("href", "/admin/export", "download", ""), Text("Export vehicles (CSV)")))
}

// Section is a titled block of the admin panel
func Section(title string, children ...*html.Node) *html.Node {
	return Elem("section", nil, append([]*html.Node{Elem("h3", nil, Text(title))}, children...)...)
}

// Hero is the home page intro
func Hero(lines ...string) *html.Node {
	return Elem("div", Attrs("class", "hero"), Elem("p", nil, Text(strings.Join(lines, " "))))
}
