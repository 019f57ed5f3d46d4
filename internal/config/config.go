package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Files    FilesConfig
	Scraper  ScraperConfig
	Browser  BrowserConfig
	Cleaner  CleanerConfig
	Lookup   LookupConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Server   ServerConfig
	Logging  LoggingConfig
}

// FilesConfig holds every spreadsheet path the tools read or write.
type FilesConfig struct {
	Products string
	History  string
	Lookup   string
	Cleaned  string
	Chart    string
}

type ScraperConfig struct {
	FetchMode       string
	UserAgent       string
	RequestTimeout  time.Duration
	FreshnessWindow time.Duration
	RateLimitMin    time.Duration
	RateLimitMax    time.Duration
}

type BrowserConfig struct {
	Headless bool
	Timeout  time.Duration
	Locale   string
}

type CleanerConfig struct {
	ExcludeStates []string
}

type LookupConfig struct {
	Backend   string
	CodeBase  int64
	CodeRange int64
}

type DatabaseConfig struct {
	URL      string
	MaxConns int32
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Stream   string
}

type ServerConfig struct {
	Port int
}

type LoggingConfig struct {
	Level  string
	Format string
}

const (
	FetchModeHTTP    = "http"
	FetchModeBrowser = "browser"

	LookupBackendSheet    = "sheet"
	LookupBackendPostgres = "postgres"
)

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{
		Files: FilesConfig{
			Products: getEnvOrDefault("PRODUCTS_FILE", "products.xlsx"),
			History:  getEnvOrDefault("HISTORY_FILE", "scraped_products.xlsx"),
			Lookup:   getEnvOrDefault("LOOKUP_FILE", "mock_lookup.xlsx"),
			Cleaned:  getEnvOrDefault("CLEANED_FILE", "mock_cleaned.xlsx"),
			Chart:    getEnvOrDefault("CHART_FILE", "price_trends.xlsx"),
		},
		Scraper: ScraperConfig{
			FetchMode:       strings.ToLower(getEnvOrDefault("FETCH_MODE", FetchModeHTTP)),
			UserAgent:       getEnvOrDefault("SCRAPER_USER_AGENT", "Mozilla/5.0"),
			RequestTimeout:  getDurationOrDefault("SCRAPER_REQUEST_TIMEOUT", 30*time.Second),
			FreshnessWindow: getDurationOrDefault("FRESHNESS_WINDOW", 7*24*time.Hour),
			RateLimitMin:    getDurationOrDefault("SCRAPER_RATE_LIMIT_MIN", time.Second),
			RateLimitMax:    getDurationOrDefault("SCRAPER_RATE_LIMIT_MAX", 3*time.Second),
		},
		Browser: BrowserConfig{
			Headless: getBoolOrDefault("BROWSER_HEADLESS", true),
			Timeout:  getDurationOrDefault("BROWSER_TIMEOUT", 30*time.Second),
			Locale:   getEnvOrDefault("BROWSER_LOCALE", "en-GB"),
		},
		Cleaner: CleanerConfig{
			ExcludeStates: getStringSliceOrDefault("EXCLUDE_STATES",
				[]string{"SELLING", "BUYING", "CANCELLED_BUY", "CANCELLED_SELL"}),
		},
		Lookup: LookupConfig{
			Backend:   strings.ToLower(getEnvOrDefault("LOOKUP_BACKEND", LookupBackendSheet)),
			CodeBase:  getInt64OrDefault("LOOKUP_CODE_BASE", 900_000_000),
			CodeRange: getInt64OrDefault("LOOKUP_CODE_RANGE", 10_000_000),
		},
		Database: DatabaseConfig{
			URL:      getEnvOrDefault("DATABASE_URL", ""),
			MaxConns: int32(getIntOrDefault("DB_MAX_CONNS", 4)),
		},
		Redis: RedisConfig{
			Addr:     getEnvOrDefault("REDIS_ADDR", ""),
			Password: getEnvOrDefault("REDIS_PASSWORD", ""),
			DB:       getIntOrDefault("REDIS_DB", 0),
			Stream:   getEnvOrDefault("REDIS_STREAM", "stream:price_observed"),
		},
		Server: ServerConfig{
			Port: getIntOrDefault("PORT", 8085),
		},
		Logging: LoggingConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "text"),
		},
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Scraper.FetchMode != FetchModeHTTP && c.Scraper.FetchMode != FetchModeBrowser {
		return fmt.Errorf("FETCH_MODE must be %q or %q, got %q", FetchModeHTTP, FetchModeBrowser, c.Scraper.FetchMode)
	}

	if c.Scraper.FreshnessWindow <= 0 {
		return fmt.Errorf("FRESHNESS_WINDOW must be positive")
	}

	if c.Scraper.RateLimitMin > c.Scraper.RateLimitMax {
		return fmt.Errorf("SCRAPER_RATE_LIMIT_MIN cannot be greater than SCRAPER_RATE_LIMIT_MAX")
	}

	switch c.Lookup.Backend {
	case LookupBackendSheet:
	case LookupBackendPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required when LOOKUP_BACKEND=postgres")
		}
	default:
		return fmt.Errorf("LOOKUP_BACKEND must be %q or %q, got %q", LookupBackendSheet, LookupBackendPostgres, c.Lookup.Backend)
	}

	if c.Lookup.CodeRange < 1 {
		return fmt.Errorf("LOOKUP_CODE_RANGE must be at least 1")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getInt64OrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getStringSliceOrDefault(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return defaultValue
}
