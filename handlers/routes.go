package handlers

import (
	"fmt"
	"net/http"
	"time"

	"servicedesk/auth"
	"servicedesk/config"
	"servicedesk/db"
	"servicedesk/middleware"
	"servicedesk/models"
)

// Deps are the collaborators of the data API
type Deps struct {
	Store db.Store
	JWT   *auth.JWTManager
	Audit *AuditLog
	Admin config.AdminConfig
	Now   func() time.Time
}

// NewRouter registers every data API route
func NewRouter(d Deps) *http.ServeMux {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Audit == nil {
		d.Audit = NewAuditLog(DefaultAuditCapacity)
	}

	authHandler := NewAuthHandler(d.Store, d.JWT, d.Audit, d.Now)
	dataHandler := NewDataHandler(d.Store)
	vehicleHandler := NewVehicleHandler(d.Store, d.Audit, d.Now)
	contactHandler := NewContactHandler(d.Store, d.Audit, d.Now)
	adminHandler := NewAdminHandler(d.Store, d.Admin, d.Audit, d.Now)
	auditHandler := NewAuditHandler(d.Audit)

	mux := http.NewServeMux()

	// Public routes (no authentication required)
	mux.HandleFunc("GET /health", handleHealth)
	mux.HandleFunc("POST /api/login", authHandler.Login)
	mux.HandleFunc("POST /api/register", authHandler.Register)
	mux.HandleFunc("POST /api/contacts", contactHandler.Create)

	// Protected routes (authentication required)
	authMiddleware := middleware.AuthMiddleware(d.JWT, d.Store)
	protected := func(h http.HandlerFunc) http.Handler {
		return authMiddleware(h)
	}

	mux.Handle("GET /api/data", protected(dataHandler.Snapshot))
	mux.Handle("POST /api/vehicles", protected(vehicleHandler.Create))
	mux.Handle("PUT /api/vehicles/{id}", protected(vehicleHandler.Update))

	// Export (admin or receptionist)
	frontDesk := middleware.RequireRole(models.RoleAdmin, models.RoleReceptionist)
	mux.Handle("GET /api/vehicles/export", authMiddleware(frontDesk(http.HandlerFunc(vehicleHandler.Export))))

	// Admin endpoints (admin only)
	adminOnly := middleware.RequireRole(models.RoleAdmin)
	admin := func(h http.HandlerFunc) http.Handler {
		return authMiddleware(adminOnly(h))
	}
	mux.Handle("PUT /api/contacts/{id}", admin(contactHandler.Update))
	mux.Handle("POST /api/reset", admin(adminHandler.Reset))
	mux.Handle("GET /api/admin/users", admin(adminHandler.GetUsers))
	mux.Handle("POST /api/admin/users", admin(adminHandler.CreateUser))
	mux.Handle("GET /api/admin/audit", admin(auditHandler.GetAudit))

	return mux
}

// Health check endpoint
func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"healthy","timestamp":%d,"version":"1.0.0"}`, time.Now().Unix())
}
