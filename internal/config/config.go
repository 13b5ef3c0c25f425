package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"entityaudit/internal/audit"
	"entityaudit/internal/backend"
)

// Config holds application configuration
type Config struct {
	// Server
	Env  string
	Port string

	// Audit
	AuditWith        string
	AuditCurrentUser string

	// Read API
	JWTSecret        string
	JWTExpirationDur time.Duration
	MetricsAPIKey    string

	// Redis audit store, optional
	RedisURL string

	// Backend clients
	BackendUserAgent          string
	BackendTimeout            time.Duration
	BackendLogging            bool
	BackendInsecureSkipVerify bool
}

var appConfig *Config

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if not already loaded
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	config := &Config{
		Env:  getEnv("ENV", "development"),
		Port: getEnv("PORT", "8080"),

		AuditWith:        getEnv("AUDIT_WITH", "audit_logs"),
		AuditCurrentUser: getEnv("AUDIT_CURRENT_USER", "system"),

		JWTSecret:     getEnv("JWT_SECRET", "fallback-secret-key-for-dev-only"),
		MetricsAPIKey: getEnv("METRICS_API_KEY", ""),

		RedisURL: getEnv("REDIS_URL", ""),

		BackendUserAgent:          getEnv("BACKEND_USER_AGENT", "entityaudit"),
		BackendLogging:            getBool("BACKEND_LOGGING", false),
		BackendInsecureSkipVerify: getBool("BACKEND_INSECURE_SKIP_VERIFY", false),
	}

	config.JWTExpirationDur = getDuration("JWT_EXPIRES_IN", 24*time.Hour)
	config.BackendTimeout = getDuration("BACKEND_TIMEOUT", 30*time.Second)

	appConfig = config
	return config, nil
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

// AuditSettings returns the settings handed to the audit writer.
func (c *Config) AuditSettings() audit.Settings {
	return audit.Settings{CurrentUser: c.AuditCurrentUser, AuditWith: c.AuditWith}
}

// BackendConfig returns a backend client configuration for baseURL using
// the process-wide backend settings.
func (c *Config) BackendConfig(baseURL string) backend.Config {
	return backend.Config{
		BaseURL:            baseURL,
		UserAgent:          c.BackendUserAgent,
		Logging:            c.BackendLogging,
		Timeout:            c.BackendTimeout,
		InsecureSkipVerify: c.BackendInsecureSkipVerify,
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		log.Printf("Warning: invalid %s value '%s', falling back to %t\n", key, raw, defaultValue)
		return defaultValue
	}
	return v
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("Warning: invalid %s value '%s', falling back to %s\n", key, raw, defaultValue)
		return defaultValue
	}
	return d
}
