package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Upstream API configuration
	Upstream UpstreamConfig

	// Most-read pipeline configuration
	MostRead MostReadConfig

	// Site metadata cache configuration
	SiteInfo SiteInfoConfig

	// Denylist configuration
	Denylist DenylistConfig

	// Database configuration (denylist store)
	Database DatabaseConfig

	// Logging configuration
	Log LogConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	// CacheMaxAge is the max-age advertised on feed responses
	CacheMaxAge time.Duration
}

// UpstreamConfig holds settings for outbound API calls
type UpstreamConfig struct {
	PageviewsBaseURL    string
	RESTBaseURLTemplate string
	MWAPIURLTemplate    string
	Timeout             time.Duration
	// RateInterval is the minimum spacing of calls to one host; zero disables limiting
	RateInterval time.Duration
	RateBurst    int
	UserAgent    string
	// MaxRetries is how many times a transient failure is retried
	MaxRetries    int
	RetryInterval time.Duration
}

// MostReadConfig holds most-read aggregation settings
type MostReadConfig struct {
	MaxTitles       int
	BotFilter       bool
	BotThreshold    float64
	MaxConcurrency  int
	ExcludedDomains []string
}

// SiteInfoConfig bounds the site metadata cache
type SiteInfoConfig struct {
	CacheSize int
	CacheTTL  time.Duration
}

// DenylistConfig holds denylist sources
type DenylistConfig struct {
	File            string
	DBEnabled       bool
	RefreshInterval time.Duration
	MigrationsPath  string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string
	Format string // "json" or "pretty"
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			CacheMaxAge:     getDurationEnv("CACHE_MAX_AGE", 5*time.Minute),
		},
		Upstream: UpstreamConfig{
			PageviewsBaseURL:    getEnv("PAGEVIEWS_BASE_URL", "https://wikimedia.org/api/rest_v1"),
			RESTBaseURLTemplate: getEnv("RESTBASE_URL_TEMPLATE", "https://{domain}/api/rest_v1"),
			MWAPIURLTemplate:    getEnv("MWAPI_URL_TEMPLATE", "https://{domain}/w/api.php"),
			Timeout:             getDurationEnv("UPSTREAM_TIMEOUT", 10*time.Second),
			RateInterval:        getDurationEnv("UPSTREAM_RATE_INTERVAL", 0),
			RateBurst:           getIntEnv("UPSTREAM_RATE_BURST", 10),
			UserAgent:           getEnv("USER_AGENT", "wikifeeds/1.0"),
			MaxRetries:          getIntEnv("UPSTREAM_MAX_RETRIES", 2),
			RetryInterval:       getDurationEnv("UPSTREAM_RETRY_INTERVAL", 200*time.Millisecond),
		},
		MostRead: MostReadConfig{
			MaxTitles:       getIntEnv("MOST_READ_MAX_TITLES", 50),
			BotFilter:       getBoolEnv("MOST_READ_BOT_FILTER", true),
			BotThreshold:    getFloatEnv("MOST_READ_BOT_THRESHOLD", 0.1),
			MaxConcurrency:  getIntEnv("MOST_READ_MAX_CONCURRENCY", 16),
			ExcludedDomains: getListEnv("MOST_READ_EXCLUDED_DOMAINS", []string{"fy.wikipedia.org"}),
		},
		SiteInfo: SiteInfoConfig{
			CacheSize: getIntEnv("SITEINFO_CACHE_SIZE", 256),
			CacheTTL:  getDurationEnv("SITEINFO_CACHE_TTL", time.Hour),
		},
		Denylist: DenylistConfig{
			File:            getEnv("DENYLIST_FILE", ""),
			DBEnabled:       getBoolEnv("DENYLIST_DB_ENABLED", false),
			RefreshInterval: getDurationEnv("DENYLIST_REFRESH_INTERVAL", 5*time.Minute),
			MigrationsPath:  getEnv("MIGRATIONS_PATH", "./migrations"),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", "postgres"),
			Name:         getEnv("DB_NAME", "wikifeeds"),
			SSLMode:      getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns: getIntEnv("DB_MAX_OPEN_CONNS", 5),
			MaxIdleConns: getIntEnv("DB_MAX_IDLE_CONNS", 2),
			MaxLifetime:  getDurationEnv("DB_MAX_LIFETIME", 5*time.Minute),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.MostRead.BotThreshold < 0 || c.MostRead.BotThreshold > 1 {
		return fmt.Errorf("MOST_READ_BOT_THRESHOLD must be within [0, 1], got %v", c.MostRead.BotThreshold)
	}
	if c.MostRead.MaxTitles <= 0 {
		return fmt.Errorf("MOST_READ_MAX_TITLES must be positive")
	}
	if c.Upstream.MaxRetries < 0 {
		return fmt.Errorf("UPSTREAM_MAX_RETRIES must not be negative")
	}
	if c.Upstream.PageviewsBaseURL == "" {
		return fmt.Errorf("PAGEVIEWS_BASE_URL is required")
	}
	if !strings.Contains(c.Upstream.RESTBaseURLTemplate, "{domain}") {
		return fmt.Errorf("RESTBASE_URL_TEMPLATE must contain {domain}")
	}
	if !strings.Contains(c.Upstream.MWAPIURLTemplate, "{domain}") {
		return fmt.Errorf("MWAPI_URL_TEMPLATE must contain {domain}")
	}
	if c.Denylist.DBEnabled {
		if c.Database.Host == "" {
			return fmt.Errorf("DB_HOST is required when DENYLIST_DB_ENABLED is set")
		}
		if c.Database.Name == "" {
			return fmt.Errorf("DB_NAME is required when DENYLIST_DB_ENABLED is set")
		}
	}
	return nil
}

// GetDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// getListEnv reads a comma-separated list; an explicitly empty value is not
// distinguishable from unset, so "-" yields an empty list.
func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if value == "-" {
		return []string{}
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
