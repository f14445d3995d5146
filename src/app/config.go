package app

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type AppConfig struct {
	// =========================== REQUIRED ===========================

	// Database configuration (required)
	DSN *string
	// Redis configuration (required)
	RedisAddr *string

	// =========================== OPTIONAL ===========================

	// Logging configuration
	LogLevel *string

	// HTTP server configuration
	Port *string

	// CORS configuration
	AllowOrigins *[]string

	// Platform hostname configuration
	AppHost       *string
	ApexDomain    *string
	ServingHost   *string
	BaseTLDMarker *string

	// DNS lookup timeout
	DNSTimeout *time.Duration

	// Route cache TTL
	RouteCacheTTL *time.Duration

	// Background re-verification interval
	ReverifyInterval *time.Duration

	// Migration configuration
	MigrationPath *string
}

func NewAppConfig() *AppConfig {
	config := &AppConfig{}

	// Load required configuration
	loadRequiredConfig(config)

	// Load optional configuration with defaults
	loadOptionalConfig(config)

	return config
}

// loadRequiredConfig loads all required configuration values and fails fast if any are missing
func loadRequiredConfig(config *AppConfig) {
	// Database URL (required)
	dsn := os.Getenv("DB_URL")
	if dsn == "" {
		log.Fatalf("REQUIRED: DB_URL not set in environment")
	}
	config.DSN = &dsn

	// Redis URL (required)
	redisAddr := os.Getenv("REDIS_URL")
	if redisAddr == "" {
		log.Fatalf("REQUIRED: REDIS_URL not set in environment")
	}
	config.RedisAddr = &redisAddr

	// CORS origins (required in production, optional in development)
	loadCORSConfig(config)
}

// loadOptionalConfig loads all optional configuration values with sensible defaults
func loadOptionalConfig(config *AppConfig) {
	// HTTP server port (default: 8080)
	port := getEnvWithDefault("PORT", "8080")
	config.Port = &port

	// Log level (default: debug)
	// Available levels: "trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled"
	logLevel := getEnvWithDefault("LOG_LEVEL", "debug")
	config.LogLevel = &logLevel

	// Platform hostnames
	appHost := getEnvWithDefault("PLATFORM_APP_HOST", "ascension-ai-sm36.vercel.app")
	config.AppHost = &appHost

	apexDomain := getEnvWithDefault("PLATFORM_APEX_DOMAIN", appHost)
	config.ApexDomain = &apexDomain

	servingHost := getEnvWithDefault("PLATFORM_SERVING_HOST", appHost)
	config.ServingHost = &servingHost

	baseTLDMarker := getEnvWithDefault("PLATFORM_BASE_TLD", "vercel.app")
	config.BaseTLDMarker = &baseTLDMarker

	// DNS lookup timeout in seconds (default: 5)
	dnsTimeout := getDurationSeconds("DNS_TIMEOUT", 5*time.Second)
	config.DNSTimeout = &dnsTimeout

	// Route cache TTL in seconds (default: 60)
	routeCacheTTL := getDurationSeconds("ROUTE_CACHE_TTL", 60*time.Second)
	config.RouteCacheTTL = &routeCacheTTL

	// Background re-verification interval in seconds (default: 1 hour)
	reverifyInterval := getDurationSeconds("REVERIFY_INTERVAL", time.Hour)
	config.ReverifyInterval = &reverifyInterval

	// Migration path (default: file://migrations)
	migrationPath := getEnvWithDefault("MIGRATION_PATH", "file://migrations")
	config.MigrationPath = &migrationPath
}

// loadCORSConfig handles CORS origins configuration with environment-specific behavior
func loadCORSConfig(config *AppConfig) {
	allowOriginsStr := os.Getenv("ALLOW_ORIGINS")
	var allowOrigins []string

	if allowOriginsStr != "" {
		// Parse comma-separated origins
		origins := strings.Split(allowOriginsStr, ",")
		for _, origin := range origins {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowOrigins = append(allowOrigins, origin)
			}
		}
	} else {
		// Handle missing ALLOW_ORIGINS based on environment
		environment := os.Getenv("ENVIRONMENT")
		if environment == "development" || environment == "dev" {
			// Default to localhost in development
			allowOrigins = []string{"http://localhost:5173"}
		} else {
			log.Fatalf("REQUIRED: ALLOW_ORIGINS not set in environment (required in production)")
		}
	}

	config.AllowOrigins = &allowOrigins
}

// getDurationSeconds parses an integer-seconds env var with a default fallback
func getDurationSeconds(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}

	if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
		return time.Duration(parsed) * time.Second
	}

	log.Printf("Warning: Invalid %s value '%s', using default %s", key, raw, defaultValue)
	return defaultValue
}

// getEnvWithDefault returns environment variable value or default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
