package session

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"servicedesk/models"
)

func roundTrip(t *testing.T, m *Manager, s *Session) (*Session, *http.Cookie) {
	t.Helper()
	rec := httptest.NewRecorder()
	if err := m.Save(rec, s); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("Save() set %d cookies", len(cookies))
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	return m.Load(req), cookies[0]
}

func TestSessionRoundTrip(t *testing.T) {
	m := NewManager("vs_session", "secret", time.Hour, false)
	s := &Session{}
	if err := s.Begin(&models.User{ID: "u-1", Name: "Jo", Role: models.RoleGuard}, "api-token", time.Time{}); err != nil {
		t.Fatal(err)
	}
	s.StashPlate("AB123")
	s.Notify("Welcome Jo", KindSuccess)

	got, cookie := roundTrip(t, m, s)
	if !cookie.HttpOnly || cookie.Path != "/" {
		t.Fatalf("unexpected cookie attributes: %+v", cookie)
	}
	if got.User == nil || got.User.Name != "Jo" || got.Token != "api-token" || got.PendingPlate != "AB123" {
		t.Fatalf("session not restored: %+v", got)
	}
	f := got.PopFlash()
	if f == nil || f.Message != "Welcome Jo" || f.Kind != KindSuccess || f.TimeoutMS != 3000 {
		t.Fatalf("flash = %+v", f)
	}
	if got.PopFlash() != nil {
		t.Fatal("flash shown twice")
	}
}

func TestLoadRejectsBadCookies(t *testing.T) {
	m := NewManager("vs_session", "secret", time.Hour, false)
	other := NewManager("vs_session", "other-secret", time.Hour, false)

	s := &Session{}
	s.Begin(&models.User{Name: "Jo"}, "tok", time.Time{})

	rec := httptest.NewRecorder()
	other.Save(rec, s)
	forged := rec.Result().Cookies()[0]

	expired := NewManager("vs_session", "secret", time.Minute, false)
	expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
	rec = httptest.NewRecorder()
	expired.Save(rec, s)
	stale := rec.Result().Cookies()[0]

	tests := []struct {
		name   string
		cookie *http.Cookie
	}{
		{"no cookie", nil},
		{"garbage", &http.Cookie{Name: "vs_session", Value: "not-a-token"}},
		{"wrong secret", forged},
		{"expired", stale},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.cookie != nil {
				req.AddCookie(tt.cookie)
			}
			if got := m.Load(req); got.LoggedIn() || got.Token != "" {
				t.Fatalf("Load() = %+v, want empty session", got)
			}
		})
	}
}

func TestBeginRefusesSecondUser(t *testing.T) {
	s := &Session{}
	if err := s.Begin(&models.User{Name: "Jo"}, "a", time.Time{}); err != nil {
		t.Fatal(err)
	}
	if err := s.Begin(&models.User{Name: "Kim"}, "b", time.Time{}); !errors.Is(err, ErrAlreadyLoggedIn) {
		t.Fatalf("second Begin() error = %v", err)
	}
	if s.User.Name != "Jo" || s.Token != "a" {
		t.Fatalf("second Begin() replaced the user: %+v", s.User)
	}

	s.StashPlate("AB123")
	s.End()
	if s.LoggedIn() || s.Token != "" {
		t.Fatal("End() kept the user")
	}
	if s.PendingPlate != "AB123" {
		t.Fatal("End() dropped the pending plate")
	}
	if p := s.TakePlate(); p != "AB123" || s.PendingPlate != "" {
		t.Fatalf("TakePlate() = %q, left %q", p, s.PendingPlate)
	}
}

func TestLoadDropsExpiredToken(t *testing.T) {
	now := time.Date(2026, 3, 4, 9, 30, 0, 0, time.UTC)
	m := NewManager("vs_session", "secret", 7*24*time.Hour, false)
	m.now = func() time.Time { return now }

	s := &Session{}
	if err := s.Begin(&models.User{Name: "Jo", Role: models.RoleGuard}, "tok", now.Add(12*time.Hour)); err != nil {
		t.Fatal(err)
	}
	s.StashPlate("AB123")

	tests := []struct {
		name     string
		at       time.Time
		loggedIn bool
	}{
		{"before expiry", now.Add(11 * time.Hour), true},
		{"at expiry", now.Add(12 * time.Hour), false},
		{"long after", now.Add(3 * 24 * time.Hour), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m.now = func() time.Time { return now }
			rec := httptest.NewRecorder()
			if err := m.Save(rec, s); err != nil {
				t.Fatal(err)
			}
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.AddCookie(rec.Result().Cookies()[0])

			m.now = func() time.Time { return tt.at }
			got := m.Load(req)
			if got.LoggedIn() != tt.loggedIn {
				t.Fatalf("LoggedIn() = %v, want %v", got.LoggedIn(), tt.loggedIn)
			}
			if got.PendingPlate != "AB123" {
				t.Fatalf("pending plate lost: %q", got.PendingPlate)
			}
			if tt.loggedIn {
				if got.Flash != nil {
					t.Fatalf("unexpected flash %+v", got.Flash)
				}
				return
			}
			if got.Token != "" || got.TokenExpiry != 0 {
				t.Fatalf("expired token kept: %+v", got)
			}
			if got.Flash == nil || got.Flash.Message != ExpiredMessage {
				t.Fatalf("flash = %+v, want %q", got.Flash, ExpiredMessage)
			}
			if err := got.Begin(&models.User{Name: "Kim"}, "t2", time.Time{}); err != nil {
				t.Fatalf("Begin() after expiry failed: %v", err)
			}
		})
	}
}

func TestSaveEmptyDeletesCookie(t *testing.T) {
	m := NewManager("vs_session", "secret", time.Hour, true)
	rec := httptest.NewRecorder()
	if err := m.Save(rec, &Session{}); err != nil {
		t.Fatal(err)
	}
	c := rec.Result().Cookies()[0]
	if c.MaxAge >= 0 || c.Value != "" || !c.Secure {
		t.Fatalf("empty session cookie = %+v", c)
	}
}

func TestNotifyForTimeout(t *testing.T) {
	s := &Session{}
	s.NotifyFor("Please login to record vehicle", KindInfo, 1500*time.Millisecond)
	if s.Flash.TimeoutMS != 1500 {
		t.Fatalf("TimeoutMS = %d", s.Flash.TimeoutMS)
	}
	s.Clear()
	if s.Flash != nil || !s.empty() {
		t.Fatal("Clear() kept state")
	}
}
