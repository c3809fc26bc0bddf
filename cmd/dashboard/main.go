// Service Desk dashboard
// Server-rendered role dashboards backed by the data API

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

	"servicedesk/client"
	"servicedesk/config"
	"servicedesk/dashboard"
	"servicedesk/session"

	"github.com/joho/godotenv"
)

func main() {
	envFile := flag.String("env", ".env", "path to an optional .env file")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil {
		log.Println("⚠️  No .env file found, using system environment variables")
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}
	if cfg.Logging.Level == "debug" {
		log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	}

	log.Printf("🚀 Starting Service Desk dashboard")
	log.Printf("🔗 Data API: %s (timeout %v)", cfg.Dashboard.APIBaseURL, cfg.Dashboard.APITimeout)

	api := client.New(cfg.Dashboard.APIBaseURL, cfg.Dashboard.APITimeout)
	sessions := session.NewManager(cfg.Dashboard.CookieName, cfg.Session.Secret, cfg.Session.Lifetime, cfg.Dashboard.CookieSecure)
	srv := dashboard.NewServer(api, sessions)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Dashboard.Host, cfg.Dashboard.Port),
		Handler:      srv.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("✅ Dashboard listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Dashboard failed to start: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("🛑 Shutting down dashboard...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("❌ Dashboard forced to shutdown: %v", err)
	}
	log.Println("✅ Dashboard stopped gracefully")
}
