package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"servicedesk/auth"
	"servicedesk/db"
	"servicedesk/models"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _ := GetUserFromContext(r.Context())
		if user != nil {
			w.Write([]byte(user.Name))
		}
	})
}

func TestAuthMiddleware(t *testing.T) {
	store := db.NewMemoryDB()
	user := &models.User{ID: "u-1", Name: "Quinn", Email: "q@example.com", Role: models.RoleQC}
	if err := store.CreateUser(context.Background(), user); err != nil {
		t.Fatal(err)
	}
	jwtManager := auth.NewJWTManager("secret", time.Hour)
	token, err := jwtManager.GenerateToken(user)
	if err != nil {
		t.Fatal(err)
	}
	ghost, _ := jwtManager.GenerateToken(&models.User{ID: "gone", Role: models.RoleAdmin})

	moved := &models.User{ID: "u-2", Name: "Tim", Email: "t@example.com", Role: models.RoleTechnician}
	if err := store.CreateUser(context.Background(), moved); err != nil {
		t.Fatal(err)
	}
	stale, _ := jwtManager.GenerateToken(moved)
	moved.Role = models.RoleQC
	if err := store.UpdateUser(context.Background(), moved); err != nil {
		t.Fatal(err)
	}

	handler := AuthMiddleware(jwtManager, store)(okHandler())

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"valid token", "Bearer " + token, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"bad scheme", "Token " + token, http.StatusUnauthorized},
		{"garbage token", "Bearer nope", http.StatusUnauthorized},
		{"deleted user", "Bearer " + ghost, http.StatusUnauthorized},
		{"role changed since login", "Bearer " + stale, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/data", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			if tt.status == http.StatusOK && rec.Body.String() != "Quinn" {
				t.Fatalf("user not injected, body %q", rec.Body.String())
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	handler := RequireRole(models.RoleAdmin, models.RoleReceptionist)(okHandler())

	tests := []struct {
		name   string
		user   *models.User
		status int
	}{
		{"admin", &models.User{Role: models.RoleAdmin}, http.StatusOK},
		{"receptionist", &models.User{Role: models.RoleReceptionist}, http.StatusOK},
		{"technician", &models.User{Role: models.RoleTechnician}, http.StatusForbidden},
		{"anonymous", nil, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.user != nil {
				req = req.WithContext(WithUser(req.Context(), tt.user))
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	handler := rl.Middleware()(okHandler())

	codes := []int{}
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.7:5555"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("status codes = %v, want [200 200 429]", codes)
	}

	other := httptest.NewRequest(http.MethodGet, "/", nil)
	other.RemoteAddr = "10.0.0.8:5555"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, other)
	if rec.Code != http.StatusOK {
		t.Fatalf("second client limited: %d", rec.Code)
	}

	if n := rl.evictIdle(time.Now().Add(time.Hour)); n != 2 {
		t.Fatalf("evictIdle() = %d, want 2", n)
	}
}

func TestClientIP(t *testing.T) {
	rl := NewRateLimiter(10, time.Minute)
	if err := rl.TrustProxies([]string{"127.0.0.1", "10.0.0.0/8"}); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name      string
		remote    string
		forwarded string
		want      string
	}{
		{"direct", "192.0.2.1:1234", "", "192.0.2.1"},
		{"untrusted peer forging header", "192.0.2.1:1234", "203.0.113.9", "192.0.2.1"},
		{"trusted loopback", "127.0.0.1:4000", "203.0.113.9, 10.0.0.1", "203.0.113.9"},
		{"trusted range", "10.1.2.3:4000", "198.51.100.7", "198.51.100.7"},
		{"trusted without header", "10.1.2.3:4000", "", "10.1.2.3"},
		{"trusted with empty hop", "10.1.2.3:4000", " , 198.51.100.7", "10.1.2.3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			if got := rl.clientIP(req); got != tt.want {
				t.Fatalf("clientIP() = %q, want %q", got, tt.want)
			}
		})
	}

	if err := rl.TrustProxies([]string{"not-an-ip"}); err == nil {
		t.Fatal("TrustProxies() accepted a bad address")
	}
}

func TestRateLimiterSeparatesForwardedClients(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	if err := rl.TrustProxies([]string{"127.0.0.1"}); err != nil {
		t.Fatal(err)
	}
	handler := rl.Middleware()(okHandler())

	for _, browser := range []string{"198.51.100.1", "198.51.100.2"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "127.0.0.1:9000"
		req.Header.Set("X-Forwarded-For", browser)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("client %s limited by another client's requests: %d", browser, rec.Code)
		}
	}
}
