// Package session keeps the per-browser state of the dashboard: the current
// user with their API token, the pending plate of an unauthenticated start
// and a one-shot flash notice. The state lives in a signed cookie so the
// dashboard itself stays stateless.
package session

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"servicedesk/models"

	"github.com/golang-jwt/jwt/v5"
)

// ErrAlreadyLoggedIn is returned by Begin when a user is already cached
var ErrAlreadyLoggedIn = errors.New("another user already logged in")

const issuer = "servicedesk-dashboard"

// Kind is the visual style of a flash notice
type Kind string

const (
	KindInfo    Kind = "info"
	KindSuccess Kind = "success"
	KindWarn    Kind = "warn"
	KindError   Kind = "error"
)

// DefaultFlashTimeout is how long a notice stays visible
const DefaultFlashTimeout = 3 * time.Second

// Flash is a notice shown once on the next rendered page
type Flash struct {
	Message   string `json:"msg"`
	Kind      Kind   `json:"kind"`
	TimeoutMS int    `json:"ms"`
}

// ExpiredMessage is shown when a cached login outlived its API token
const ExpiredMessage = "Session expired. Please login again."

// Session is the state of one browser
type Session struct {
	User         *models.User `json:"user,omitempty"`
	Token        string       `json:"tok,omitempty"`
	TokenExpiry  int64        `json:"texp,omitempty"` // unix seconds, 0 when unknown
	PendingPlate string       `json:"plate,omitempty"`
	Flash        *Flash       `json:"flash,omitempty"`
}

func (s *Session) LoggedIn() bool {
	return s.User != nil
}

// Begin caches user as the current user until the token expires. At most
// one user per browser. A zero expiresAt leaves expiry to the data API.
func (s *Session) Begin(user *models.User, token string, expiresAt time.Time) error {
	if s.User != nil {
		return ErrAlreadyLoggedIn
	}
	u := *user
	s.User = &u
	s.Token = token
	s.TokenExpiry = 0
	if !expiresAt.IsZero() {
		s.TokenExpiry = expiresAt.Unix()
	}
	return nil
}

// TokenExpired reports whether the cached token is past its expiry at now
func (s *Session) TokenExpired(now time.Time) bool {
	return s.TokenExpiry != 0 && now.Unix() >= s.TokenExpiry
}

// End forgets the current user and token
func (s *Session) End() {
	s.User = nil
	s.Token = ""
	s.TokenExpiry = 0
}

// Expire ends the login and tells the user to sign in again. The pending
// plate survives so it is recorded after the next login.
func (s *Session) Expire() {
	s.End()
	s.Notify(ExpiredMessage, KindWarn)
}

// Clear drops everything, including the pending plate and flash
func (s *Session) Clear() {
	*s = Session{}
}

func (s *Session) StashPlate(plate string) {
	s.PendingPlate = plate
}

// TakePlate returns the pending plate and clears it
func (s *Session) TakePlate() string {
	p := s.PendingPlate
	s.PendingPlate = ""
	return p
}

func (s *Session) Notify(msg string, kind Kind) {
	s.NotifyFor(msg, kind, DefaultFlashTimeout)
}

func (s *Session) NotifyFor(msg string, kind Kind, timeout time.Duration) {
	s.Flash = &Flash{Message: msg, Kind: kind, TimeoutMS: int(timeout / time.Millisecond)}
}

// PopFlash returns the pending notice, if any, and clears it
func (s *Session) PopFlash() *Flash {
	f := s.Flash
	s.Flash = nil
	return f
}

func (s *Session) empty() bool {
	return s.User == nil && s.Token == "" && s.TokenExpiry == 0 && s.PendingPlate == "" && s.Flash == nil
}

type cookieClaims struct {
	Session
	jwt.RegisteredClaims
}

// Manager encodes sessions into HS256-signed cookies
type Manager struct {
	name     string
	secret   []byte
	lifetime time.Duration
	secure   bool
	now      func() time.Time
}

func NewManager(name, secret string, lifetime time.Duration, secure bool) *Manager {
	return &Manager{
		name:     name,
		secret:   []byte(secret),
		lifetime: lifetime,
		secure:   secure,
		now:      time.Now,
	}
}

// Load decodes the session cookie. A missing, tampered or expired cookie
// yields an empty session. A login whose API token has expired is dropped.
func (m *Manager) Load(r *http.Request) *Session {
	c, err := r.Cookie(m.name)
	if err != nil || c.Value == "" {
		return &Session{}
	}

	claims := &cookieClaims{}
	_, err = jwt.ParseWithClaims(c.Value, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(m.now))
	if err != nil {
		return &Session{}
	}

	s := claims.Session
	if s.LoggedIn() && s.TokenExpired(m.now()) {
		s.Expire()
	}
	return &s
}

// Save re-signs s into the cookie, or deletes the cookie when s is empty
func (m *Manager) Save(w http.ResponseWriter, s *Session) error {
	if s.empty() {
		http.SetCookie(w, &http.Cookie{
			Name:     m.name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   m.secure,
			SameSite: http.SameSiteLaxMode,
		})
		return nil
	}

	now := m.now()
	claims := cookieClaims{
		Session: *s,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.lifetime)),
		},
	}
	value, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return fmt.Errorf("sign session: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.name,
		Value:    value,
		Path:     "/",
		Expires:  now.Add(m.lifetime),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}
