// main.go
// Service Desk data API
// Serves users, vehicles and contact messages to the role dashboards with JWT authentication

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"servicedesk/auth"
	"servicedesk/config"
	"servicedesk/db"
	"servicedesk/handlers"
	"servicedesk/middleware"

	"github.com/joho/godotenv"
)

func main() {
	envFile := flag.String("env", ".env", "path to an optional .env file")
	flag.Parse()

	// Load environment variables
	if err := godotenv.Load(*envFile); err != nil {
		log.Println("⚠️  No .env file found, using system environment variables")
	}

	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}
	if cfg.Logging.Level == "debug" {
		log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	}

	log.Printf("🚀 Starting Service Desk API Server")
	log.Printf("📍 Environment: %s", cfg.Server.Environment)
	log.Printf("🔧 Port: %s", cfg.Server.Port)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := db.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("❌ Failed to open %s store: %v", cfg.Storage.Backend, err)
	}
	defer store.Close()
	log.Printf("🗄️  Storage backend: %s", cfg.Storage.Backend)

	if _, err := handlers.EnsureAdmin(ctx, store, cfg.Admin, time.Now); err != nil {
		log.Fatalf("❌ Failed to bootstrap admin account: %v", err)
	}

	// Initialize JWT Manager
	jwtManager := auth.NewJWTManager(cfg.JWT.Secret, cfg.JWT.Expiration)
	log.Printf("🔐 JWT Manager initialized (expiration: %v)", cfg.JWT.Expiration)

	mux := handlers.NewRouter(handlers.Deps{
		Store: store,
		JWT:   jwtManager,
		Audit: handlers.NewAuditLog(handlers.DefaultAuditCapacity),
		Admin: cfg.Admin,
		Now:   time.Now,
	})
	log.Printf("✅ Handlers initialized")

	// Initialize rate limiter
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	if err := rateLimiter.TrustProxies(cfg.RateLimit.TrustedProxies); err != nil {
		log.Fatalf("❌ Invalid TRUSTED_PROXIES: %v", err)
	}
	rateLimiter.CleanupOldLimiters(ctx, time.Minute, 3*time.Minute)
	log.Printf("🛡️  Rate limiter initialized (%d requests per %v, trusted proxies %v)", cfg.RateLimit.Requests, cfg.RateLimit.Window, cfg.RateLimit.TrustedProxies)

	// Apply global middleware
	handler := middleware.CORSMiddleware(cfg.CORS.AllowedOrigins)(mux)
	handler = rateLimiter.Middleware()(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("✅ Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Server failed to start: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("🛑 Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("❌ Server forced to shutdown: %v", err)
	}

	log.Println("✅ Server stopped gracefully")
}
