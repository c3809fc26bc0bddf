package dashboard

import (
	"servicedesk/models"
	"servicedesk/session"
)

// Outcome is the verdict of the role gate
type Outcome int

const (
	Allow Outcome = iota
	RedirectLogin
	RedirectHome
)

// Decision tells a page handler whether to render or where to send the browser
type Decision struct {
	Outcome  Outcome
	Location string
	Message  string
}

// Gate admits the current user when their role is one of roles. Admin is
// always admitted.
func Gate(sess *session.Session, roles ...models.Role) Decision {
	if sess == nil || sess.User == nil {
		return Decision{Outcome: RedirectLogin, Location: "/login", Message: "Please login first"}
	}
	role := sess.User.Role
	if role == models.RoleAdmin {
		return Decision{Outcome: Allow}
	}
	for _, r := range roles {
		if r == role {
			return Decision{Outcome: Allow}
		}
	}
	return Decision{Outcome: RedirectHome, Location: "/", Message: "Access denied for role: " + string(role)}
}
