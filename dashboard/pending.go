package dashboard

import (
	"context"
	"log"
	"net/http"
	"time"

	"servicedesk/client"
	"servicedesk/session"
)

// HandlePending records a plate stashed by an unauthenticated start. It
// returns where to redirect, or "" when the page should render normally.
// Without a current user the stash is kept for after login.
func (s *Server) HandlePending(ctx context.Context, sess *session.Session) string {
	if sess.PendingPlate == "" {
		return ""
	}
	if sess.User == nil {
		sess.NotifyFor("Please login to record vehicle", session.KindInfo, 1500*time.Millisecond)
		return "/login"
	}

	plate := sess.TakePlate()
	if _, err := s.api.AddVehicle(ctx, sess.Token, plate, sess.User.Name, sess.User.Name); err != nil {
		if client.IsUnauthorized(err) {
			// keep the plate for the next login
			log.Printf("🔒 API token of %s refused, pending plate %s kept", sess.User.Email, plate)
			sess.StashPlate(plate)
			sess.Expire()
			return "/login"
		}
		log.Printf("❌ Failed to record pending plate %s: %v", plate, err)
	}
	sess.Notify("Vehicle recorded", session.KindSuccess)
	return "/"
}

// withPending runs HandlePending before a page renders
func (s *Server) withPending(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := s.sessions.Load(r)
		if to := s.HandlePending(r.Context(), sess); to != "" {
			s.redirect(w, r, sess, to)
			return
		}
		next(w, r)
	}
}
