package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Storage backends understood by db.Open
const (
	BackendMemory    = "memory"
	BackendFirestore = "firestore"
	BackendPostgres  = "postgres"
)

const (
	devJWTSecret     = "dev-secret-key"
	devSessionSecret = "dev-session-key"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Dashboard DashboardConfig
	JWT       JWTConfig
	Session   SessionConfig
	Admin     AdminConfig
	Storage   StorageConfig
	Firebase  FirebaseConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Port        string
	Host        string
	Environment string
}

// DashboardConfig configures the role dashboard web client
type DashboardConfig struct {
	Port         string
	Host         string
	APIBaseURL   string
	APITimeout   time.Duration
	CookieName   string
	CookieSecure bool
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
}

// SessionConfig configures the signed browser session cookie of the dashboard
type SessionConfig struct {
	Secret   string
	Lifetime time.Duration
}

// AdminConfig is the bootstrap administrator created when no admin exists
type AdminConfig struct {
	Name     string
	Email    string
	Password string
}

type StorageConfig struct {
	Backend     string
	DatabaseURL string
}

type FirebaseConfig struct {
	ProjectID       string
	CredentialsPath string
}

type CORSConfig struct {
	AllowedOrigins []string
}

// RateLimitConfig bounds requests per client. TrustedProxies, typically the
// dashboard host, may name the client in X-Forwarded-For.
type RateLimitConfig struct {
	Requests       int
	Window         time.Duration
	TrustedProxies []string
}

type LoggingConfig struct {
	Level  string
	Format string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			Host:        getEnv("HOST", "0.0.0.0"),
			Environment: getEnv("ENVIRONMENT", "development"),
		},
		Dashboard: DashboardConfig{
			Port:         getEnv("DASHBOARD_PORT", "8081"),
			Host:         getEnv("DASHBOARD_HOST", "0.0.0.0"),
			APIBaseURL:   strings.TrimRight(getEnv("API_BASE_URL", "http://localhost:8080"), "/"),
			APITimeout:   parseDuration(getEnv("API_TIMEOUT", "10s"), 10*time.Second),
			CookieName:   getEnv("SESSION_COOKIE_NAME", "vs_session"),
			CookieSecure: getEnv("SESSION_COOKIE_SECURE", "false") == "true",
		},
		JWT: JWTConfig{
			Secret:     getEnv("JWT_SECRET", devJWTSecret),
			Expiration: parseDuration(getEnv("JWT_EXPIRATION", "12h"), 12*time.Hour),
		},
		Session: SessionConfig{
			Secret:   getEnv("SESSION_SECRET", devSessionSecret),
			Lifetime: parseDuration(getEnv("SESSION_LIFETIME", "7d"), 7*24*time.Hour),
		},
		Admin: AdminConfig{
			Name:     getEnv("ADMIN_NAME", "Administrator"),
			Email:    strings.ToLower(getEnv("ADMIN_EMAIL", "admin@servicedesk.local")),
			Password: getEnv("ADMIN_PASSWORD", "admin1234"),
		},
		Storage: StorageConfig{
			Backend:     getEnv("STORAGE_BACKEND", BackendMemory),
			DatabaseURL: getEnv("DATABASE_URL", ""),
		},
		Firebase: FirebaseConfig{
			ProjectID:       getEnv("FIREBASE_PROJECT_ID", ""),
			CredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", "./serviceAccountKey.json"),
		},
		CORS: CORSConfig{
			AllowedOrigins: parseStringSlice(getEnv("ALLOWED_ORIGINS", "http://localhost:8081")),
		},
		RateLimit: RateLimitConfig{
			Requests:       parseInt(getEnv("RATE_LIMIT_REQUESTS", "100"), 100),
			Window:         parseDuration(getEnv("RATE_LIMIT_WINDOW", "60"), 60*time.Second),
			TrustedProxies: parseStringSlice(getEnv("TRUSTED_PROXIES", "127.0.0.1,::1")),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseInt(s string, defaultValue int) int {
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	return defaultValue
}

func parseDuration(s string, defaultValue time.Duration) time.Duration {
	// Handle simple formats like "30m", "7d", "60"
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	if days, ok := strings.CutSuffix(s, "d"); ok {
		if i, err := strconv.Atoi(days); err == nil {
			return time.Duration(i) * 24 * time.Hour
		}
	}
	// If it's just a number, assume seconds
	if i, err := strconv.Atoi(s); err == nil {
		return time.Duration(i) * time.Second
	}
	return defaultValue
}

func parseStringSlice(s string) []string {
	result := []string{}
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimRight(strings.TrimSpace(part), "/"); p != "" {
			result = append(result, p)
		}
	}
	return result
}

func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}

// Validate reports the first configuration problem that would prevent startup
func (c *Config) Validate() error {
	if c.IsProduction() {
		if c.JWT.Secret == devJWTSecret {
			return errors.New("JWT_SECRET must be set in production")
		}
		if c.Session.Secret == devSessionSecret {
			return errors.New("SESSION_SECRET must be set in production")
		}
	}
	if c.Admin.Email == "" {
		return errors.New("ADMIN_EMAIL must not be empty")
	}

	switch c.Storage.Backend {
	case BackendMemory:
	case BackendFirestore:
		if c.Firebase.ProjectID == "" {
			return errors.New("FIREBASE_PROJECT_ID must be set")
		}
		if _, err := os.Stat(c.Firebase.CredentialsPath); os.IsNotExist(err) {
			return fmt.Errorf("firebase credentials file not found: %s", c.Firebase.CredentialsPath)
		}
	case BackendPostgres:
		if c.Storage.DatabaseURL == "" {
			return errors.New("DATABASE_URL must be set for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.Storage.Backend)
	}
	return nil
}
