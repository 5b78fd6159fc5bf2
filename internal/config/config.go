// Package config loads agent configuration from the environment.
// A .env file in the working directory is honored when present.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the full agent configuration.
type Config struct {
	// HTTP control API
	ListenAddr string
	LogLevel   string
	AppEnv     string

	// Database
	DatabaseURL      string
	DBMaxConns       int32
	DBMinConns       int32
	DBMaxConnIdle    time.Duration
	DBMaxConnLife    time.Duration
	StatementTimeout time.Duration

	// Import job: pulls pending package orders from the ordering API.
	SyncEnabled  bool
	SyncInterval time.Duration
	SyncAPIURL   string
	SyncAPIToken string

	// Export job: dumps a stock snapshot to CSV and uploads it.
	ExportEnabled       bool
	ExportInterval      time.Duration
	StockSelectSQL      string
	UploadURL           string
	UploadFieldName     string
	UploadAPIToken      string
	UploadTokenQueryKey string
	UploadHeaders       map[string]string
	UploadUserAgent     string
	ExtraUploadFields   map[string]string

	// Filesystem
	CSVDirectory      string
	AuditLogDirectory string

	// Outbound HTTP
	HTTPTimeout time.Duration
	VerifyTLS   bool
}

const (
	minSyncInterval   = 5 * time.Second
	minExportInterval = 10 * time.Second
	minHTTPTimeout    = 5 * time.Second
)

// Load reads configuration from the environment. Values are validated
// and clamped to safe minimums; only the database URL is mandatory.
func Load() (*Config, error) {
	// Missing .env is fine, the environment may be set directly.
	_ = godotenv.Load()

	cfg := &Config{
		ListenAddr: getEnv("LISTEN_ADDR", ":8080"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		AppEnv:     getEnv("APP_ENV", "development"),

		DatabaseURL:      os.Getenv("DATABASE_URL"),
		DBMaxConns:       int32(getEnvInt("DB_MAX_CONNS", 25)),
		DBMinConns:       int32(getEnvInt("DB_MIN_CONNS", 5)),
		DBMaxConnIdle:    getEnvDuration("DB_MAX_CONN_IDLE", 30*time.Minute),
		DBMaxConnLife:    getEnvDuration("DB_MAX_CONN_LIFETIME", time.Hour),
		StatementTimeout: getEnvDuration("DB_STATEMENT_TIMEOUT", 30*time.Second),

		SyncEnabled:  getEnvBool("SYNC_ENABLED", false),
		SyncInterval: getEnvDuration("SYNC_INTERVAL", 30*time.Second),
		SyncAPIURL:   os.Getenv("SYNC_API_URL"),
		SyncAPIToken: os.Getenv("SYNC_API_TOKEN"),

		ExportEnabled:       getEnvBool("EXPORT_ENABLED", false),
		ExportInterval:      getEnvDuration("EXPORT_INTERVAL", 5*time.Minute),
		StockSelectSQL:      os.Getenv("STOCK_SELECT_SQL"),
		UploadURL:           os.Getenv("UPLOAD_URL"),
		UploadFieldName:     getEnv("UPLOAD_FIELD_NAME", "file"),
		UploadAPIToken:      os.Getenv("UPLOAD_API_TOKEN"),
		UploadTokenQueryKey: os.Getenv("UPLOAD_TOKEN_QUERY_PARAM"),
		UploadUserAgent:     getEnv("UPLOAD_USER_AGENT", "stocksync-agent/1.0"),

		CSVDirectory:      getEnv("CSV_DIRECTORY", "exports"),
		AuditLogDirectory: getEnv("AUDIT_LOG_DIRECTORY", "audit"),

		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 30*time.Second),
		VerifyTLS:   getEnvBool("VERIFY_TLS", true),
	}

	var err error
	if cfg.UploadHeaders, err = getEnvJSONMap("UPLOAD_HEADERS_JSON"); err != nil {
		return nil, fmt.Errorf("UPLOAD_HEADERS_JSON: %w", err)
	}
	if cfg.ExtraUploadFields, err = getEnvJSONMap("EXTRA_UPLOAD_FIELDS_JSON"); err != nil {
		return nil, fmt.Errorf("EXTRA_UPLOAD_FIELDS_JSON: %w", err)
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.SyncEnabled && cfg.SyncAPIURL == "" {
		return nil, fmt.Errorf("SYNC_API_URL is required when SYNC_ENABLED=true")
	}
	if cfg.ExportEnabled && cfg.StockSelectSQL == "" {
		return nil, fmt.Errorf("STOCK_SELECT_SQL is required when EXPORT_ENABLED=true")
	}

	// Clamp intervals so a bad value cannot hot-loop the schedulers.
	if cfg.SyncInterval < minSyncInterval {
		cfg.SyncInterval = minSyncInterval
	}
	if cfg.ExportInterval < minExportInterval {
		cfg.ExportInterval = minExportInterval
	}
	if cfg.HTTPTimeout < minHTTPTimeout {
		cfg.HTTPTimeout = minHTTPTimeout
	}

	return cfg, nil
}

// --- env helpers ---

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		// Bare numbers are taken as seconds.
		if n, err := strconv.Atoi(v); err == nil {
			return time.Duration(n) * time.Second
		}
	}
	return fallback
}

func getEnvJSONMap(key string) (map[string]string, error) {
	v := os.Getenv(key)
	if v == "" {
		return nil, nil
	}
	var m map[string]string
	if err := json.Unmarshal([]byte(v), &m); err != nil {
		return nil, err
	}
	return m, nil
}
