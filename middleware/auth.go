package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"slices"

	"servicedesk/auth"
	"servicedesk/db"
	"servicedesk/models"
)

type contextKey string

const UserContextKey contextKey = "user"

// AuthMiddleware admits requests whose bearer token names a stored user and
// puts that user in the request context. Every refusal is a 401, which the
// dashboard reads as the end of its cached login.
func AuthMiddleware(jwtManager *auth.JWTManager, store db.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, refusal := bearerUser(r, jwtManager, store)
			if user == nil {
				writeError(w, refusal, http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// bearerUser resolves the Authorization header to the current stored user.
// The store lookup picks up role changes, deletions and resets made after
// the token was issued.
func bearerUser(r *http.Request, jwtManager *auth.JWTManager, store db.Store) (*models.User, string) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, "Authentication required"
	}
	token, err := auth.ExtractToken(header)
	if err != nil {
		return nil, "Invalid authorization header"
	}
	claims, err := jwtManager.ValidateToken(token)
	if err != nil {
		return nil, "Invalid or expired token"
	}
	user, err := store.GetUser(r.Context(), claims.UserID)
	if err != nil {
		if !errors.Is(err, db.ErrNotFound) {
			log.Printf("⚠️  Token user lookup failed for %s: %v", claims.UserID, err)
		}
		return nil, "User not found"
	}
	if user.Role != claims.Role {
		return nil, "Role changed, please login again"
	}
	return user, ""
}

// WithUser returns a copy of ctx carrying user
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, UserContextKey, user)
}

// GetUserFromContext retrieves the user from the request context
func GetUserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(UserContextKey).(*models.User)
	return user, ok
}

// RequireRole middleware checks if the user has the required role
func RequireRole(allowedRoles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := GetUserFromContext(r.Context())
			if !ok {
				writeError(w, "User not found in context", http.StatusUnauthorized)
				return
			}

			if !slices.Contains(allowedRoles, user.Role) {
				writeError(w, "Insufficient permissions", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}
