// Package config handles application configuration and environment loading.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the configuration for the HTTP API, dataset storage, and
// the metastore.
type Config struct {
	DataInputDir  string // directory for uploaded/canonical dataset files
	DataOutputDir string // directory for export artifacts
	MetaDBPath    string // path to SQLite metadata file
	ListenAddr    string // HTTP listen address (default ":8080")
	LogLevel      string // log level: debug, info, warn, error (default "info")

	// Upload limits
	MaxUploadBytes int64 // maximum accepted upload size (default 256 MiB)

	// Export artifact retention
	ExportTTL       time.Duration // artifacts older than this are purged (default 24h)
	CleanupSchedule string        // cron spec for the cleanup job (default "@hourly")

	// Rate limiting
	RateLimitRPS   float64 // sustained requests per second (default 100)
	RateLimitBurst int     // burst capacity (default 200)

	// CORS
	CORSAllowedOrigins []string // allowed origins for CORS (default: ["*"])

	// Warnings collects non-fatal warnings generated during config loading.
	// These are logged by the caller after the logger is initialised.
	Warnings []string
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Validate checks the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.DataInputDir == "" {
		return fmt.Errorf("DATA_INPUT_DIR must not be empty")
	}
	if c.DataOutputDir == "" {
		return fmt.Errorf("DATA_OUTPUT_DIR must not be empty")
	}
	if c.ExportTTL <= 0 {
		return fmt.Errorf("EXPORT_TTL must be positive")
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit values must be positive")
	}
	return nil
}

// LoadFromEnv loads configuration from environment variables, applying
// defaults for anything not set.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		DataInputDir:    os.Getenv("DATA_INPUT_DIR"),
		DataOutputDir:   os.Getenv("DATA_OUTPUT_DIR"),
		MetaDBPath:      os.Getenv("META_DB_PATH"),
		ListenAddr:      os.Getenv("LISTEN_ADDR"),
		LogLevel:        os.Getenv("LOG_LEVEL"),
		CleanupSchedule: os.Getenv("CLEANUP_SCHEDULE"),
	}

	if v := os.Getenv("MAX_UPLOAD_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("ignoring invalid MAX_UPLOAD_BYTES %q", v))
		} else {
			cfg.MaxUploadBytes = n
		}
	}
	if v := os.Getenv("EXPORT_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("ignoring invalid EXPORT_TTL %q", v))
		} else {
			cfg.ExportTTL = d
		}
	}
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RateLimitRPS = f
		}
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimitBurst = n
		}
	}
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		origins := strings.Split(v, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		cfg.CORSAllowedOrigins = origins
	}

	// Defaults
	if cfg.DataInputDir == "" {
		cfg.DataInputDir = "data/input"
	}
	if cfg.DataOutputDir == "" {
		cfg.DataOutputDir = "data/output"
	}
	if cfg.MetaDBPath == "" {
		cfg.MetaDBPath = "datareduce_meta.sqlite"
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.MaxUploadBytes == 0 {
		cfg.MaxUploadBytes = 256 << 20
	}
	if cfg.ExportTTL == 0 {
		cfg.ExportTTL = 24 * time.Hour
	}
	if cfg.CleanupSchedule == "" {
		cfg.CleanupSchedule = "@hourly"
	}
	if cfg.RateLimitRPS == 0 {
		cfg.RateLimitRPS = 100
	}
	if cfg.RateLimitBurst == 0 {
		cfg.RateLimitBurst = 200
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = []string{"*"}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
