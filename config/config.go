package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/lukman83/vinted-backoffice/internal/insight"
)

// Config holds all application configuration.
type Config struct {
	// Listing store
	StoreDriver string // "memory", "sqlite", "postgres", "http"
	SQLitePath  string
	PostgresURL string
	SourceURL   string // remote JSON export for the http driver
	SeedOnOpen  bool

	// Insight rules
	RulesFile string // optional YAML file with threshold overrides

	// Rate limiting and concurrency
	RatePerSecond float64
	RateBurst     int
	MaxConcurrent int
	UserAgent     string

	// HTTP server
	HTTPPort string
	APIKey   string

	// Watch digest
	WatchSchedule string // cron expression
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		StoreDriver:   "memory",
		SQLitePath:    "backoffice.db",
		RatePerSecond: 5.0,
		RateBurst:     10,
		MaxConcurrent: 4,
		UserAgent:     "vinted-backoffice/1.0",
		HTTPPort:      "8080",
		WatchSchedule: "@every 1h",
	}
}

// LoadFromEnv loads .env file (if present) then overrides config from environment variables.
func (c *Config) LoadFromEnv() {
	// Auto-load .env file; silently ignored if missing
	_ = godotenv.Load()

	if v := os.Getenv("BACKOFFICE_STORE"); v != "" {
		c.StoreDriver = v
	}
	if v := os.Getenv("BACKOFFICE_SQLITE_PATH"); v != "" {
		c.SQLitePath = v
	}
	if v := os.Getenv("BACKOFFICE_POSTGRES_URL"); v != "" {
		c.PostgresURL = v
	} else if v := os.Getenv("DATABASE_URL"); v != "" {
		c.PostgresURL = v
	}
	if v := os.Getenv("BACKOFFICE_SOURCE_URL"); v != "" {
		c.SourceURL = v
	}
	if v := os.Getenv("BACKOFFICE_SEED"); v == "true" {
		c.SeedOnOpen = true
	}
	if v := os.Getenv("BACKOFFICE_RULES"); v != "" {
		c.RulesFile = v
	}
	if v := os.Getenv("BACKOFFICE_RATE_PER_SECOND"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.RatePerSecond = f
		}
	}
	if v := os.Getenv("BACKOFFICE_RATE_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.RateBurst = n
		}
	}
	// A zero burst or rate makes the limiters refuse every request.
	if c.RateBurst < 1 {
		c.RateBurst = 1
	}
	if c.RatePerSecond <= 0 {
		c.RatePerSecond = DefaultConfig().RatePerSecond
	}
	if v := os.Getenv("BACKOFFICE_MAX_CONCURRENT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxConcurrent = n
		}
	}
	if v := os.Getenv("BACKOFFICE_USER_AGENT"); v != "" {
		c.UserAgent = v
	}
	if v := os.Getenv("BACKOFFICE_WATCH_CRON"); v != "" {
		c.WatchSchedule = v
	}
	if v := os.Getenv("PORT"); v != "" {
		c.HTTPPort = v
	}
	if v := os.Getenv("BACKOFFICE_API_KEY"); v != "" {
		c.APIKey = v
	}
}

// LoadThresholds reads rule overrides from a YAML file. Keys missing from
// the file keep their defaults; an empty path means no file.
func LoadThresholds(path string) (insight.Thresholds, error) {
	t := insight.DefaultThresholds()
	if path == "" {
		return t, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return t, fmt.Errorf("read rules file: %w", err)
	}
	if err := yaml.Unmarshal(data, &t); err != nil {
		return t, fmt.Errorf("parse rules file %s: %w", path, err)
	}
	return t, nil
}
