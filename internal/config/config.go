package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Backend names accepted in STORE_BACKEND.
const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
)

// Config holds all application configuration
type Config struct {
	Port        string
	Environment string

	// Document store
	StoreBackend string // "sqlite" (multi-tenant) or "file" (single-tenant dev mode)
	DatabasePath string // sqlite database file
	DataFile     string // file backend: the document file
	BackupDir    string // file backend: rotating snapshot directory
	BackupKeep   int    // file backend: snapshots retained per sweep

	// Sessions
	SessionTTL      time.Duration
	SessionSecret   string // signs stateless tokens in file mode
	CookieCrossSite bool   // SameSite=None + Secure instead of Lax

	// HTTP
	AllowedOrigins string
	StaticDir      string
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "3001"),
		Environment: strings.ToLower(getEnv("ENVIRONMENT", "development")),

		StoreBackend: strings.ToLower(getEnv("STORE_BACKEND", BackendSQLite)),
		DatabasePath: getEnv("DATABASE_PATH", "mattertrack.db"),
		DataFile:     getEnv("DATA_FILE", "data/matters.json"),
		BackupDir:    getEnv("BACKUP_DIR", "data/backups"),
		BackupKeep:   getIntEnv("BACKUP_KEEP", 10),

		SessionTTL:      time.Duration(getIntEnv("SESSION_TTL_DAYS", 30)) * 24 * time.Hour,
		SessionSecret:   getEnv("SESSION_SECRET", ""),
		CookieCrossSite: getBoolEnv("COOKIE_CROSS_SITE", false),

		AllowedOrigins: getEnv("ALLOWED_ORIGINS", ""),
		StaticDir:      getEnv("STATIC_DIR", "./static"),
	}
}

// Production reports whether the server runs with production hardening.
func (c *Config) Production() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}
