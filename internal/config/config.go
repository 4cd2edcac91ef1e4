package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/maltedev/occasion-scraper/internal/fetch"
	"github.com/maltedev/occasion-scraper/pkg/logger"
)

const (
	FetchModeHTTP    = "http"
	FetchModeBrowser = "browser"

	DefaultBaseURL    = "https://www.automobile.tn/fr/occasion/%d"
	DefaultPages      = 175
	DefaultOutputPath = "./data/automobile_data.csv"
)

type Config struct {
	Scraper  ScraperConfig
	Fetch    FetchConfig
	Browser  BrowserConfig
	Output   OutputConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Logging  LoggingConfig
}

type ScraperConfig struct {
	BaseURL         string
	SiteOrigin      string
	Pages           int
	ConcurrentLimit int
}

type FetchConfig struct {
	Mode      string
	Timeout   time.Duration
	UserAgent string
}

type BrowserConfig struct {
	Headless       bool
	ViewportWidth  int
	ViewportHeight int
	AcceptLanguage string
	TimezoneID     string
	Locale         string
	ProxyServer    string
}

type OutputConfig struct {
	Path string
}

type DatabaseConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Stream   string
}

// Enabled reports whether a Redis address was configured.
func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

type LoggingConfig struct {
	Level  string
	Format string
}

// Load reads an optional .env file (or the given files) into the process
// environment and builds the config from it. Variables already set win over
// the file. A missing file is not an error.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	cfg := &Config{
		Scraper: ScraperConfig{
			BaseURL:         getEnvOrDefault("SCRAPER_BASE_URL", DefaultBaseURL),
			SiteOrigin:      getEnvOrDefault("SCRAPER_SITE_ORIGIN", ""),
			Pages:           getIntOrDefault("SCRAPER_PAGES", DefaultPages),
			ConcurrentLimit: getIntOrDefault("SCRAPER_CONCURRENT_LIMIT", 0),
		},
		Fetch: FetchConfig{
			Mode:      strings.ToLower(getEnvOrDefault("FETCH_MODE", FetchModeHTTP)),
			Timeout:   getDurationOrDefault("FETCH_TIMEOUT", fetch.DefaultTimeout),
			UserAgent: getEnvOrDefault("FETCH_USER_AGENT", fetch.DefaultUserAgent),
		},
		Browser: BrowserConfig{
			Headless:       getBoolOrDefault("BROWSER_HEADLESS", true),
			ViewportWidth:  getIntOrDefault("BROWSER_VIEWPORT_WIDTH", 1920),
			ViewportHeight: getIntOrDefault("BROWSER_VIEWPORT_HEIGHT", 1080),
			AcceptLanguage: getEnvOrDefault("BROWSER_ACCEPT_LANGUAGE", "fr-FR,fr;q=0.9,en;q=0.8"),
			TimezoneID:     getEnvOrDefault("BROWSER_TIMEZONE", "Africa/Tunis"),
			Locale:         getEnvOrDefault("BROWSER_LOCALE", "fr-FR"),
			ProxyServer:    getEnvOrDefault("BROWSER_PROXY", ""),
		},
		Output: OutputConfig{
			Path: getEnvOrDefault("OUTPUT_PATH", DefaultOutputPath),
		},
		Database: DatabaseConfig{
			Enabled:  getBoolOrDefault("DB_ENABLED", false),
			Host:     getEnvOrDefault("DB_HOST", "localhost"),
			Port:     getIntOrDefault("DB_PORT", 5432),
			User:     getEnvOrDefault("DB_USER", "postgres"),
			Password: getEnvOrDefault("DB_PASSWORD", ""),
			DBName:   getEnvOrDefault("DB_NAME", "vehicle_listings"),
			SSLMode:  getEnvOrDefault("DB_SSL_MODE", "disable"),
			MaxConns: getIntOrDefault("DB_MAX_CONNS", 4),
		},
		Redis: RedisConfig{
			Addr:     getEnvOrDefault("REDIS_ADDR", ""),
			Password: getEnvOrDefault("REDIS_PASSWORD", ""),
			DB:       getIntOrDefault("REDIS_DB", 0),
			Stream:   getEnvOrDefault("REDIS_STREAM", "stream:vehicle_listings"),
		},
		Logging: LoggingConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "json"),
		},
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Scraper.Pages < 1 {
		return fmt.Errorf("SCRAPER_PAGES must be at least 1")
	}

	if c.Scraper.ConcurrentLimit < 0 {
		return fmt.Errorf("SCRAPER_CONCURRENT_LIMIT cannot be negative")
	}

	if err := validateHTTPURL(c.Scraper.BaseURL); err != nil {
		return fmt.Errorf("SCRAPER_BASE_URL: %w", err)
	}

	if c.Scraper.SiteOrigin != "" {
		if err := validateHTTPURL(c.Scraper.SiteOrigin); err != nil {
			return fmt.Errorf("SCRAPER_SITE_ORIGIN: %w", err)
		}
	}

	if c.Fetch.Timeout <= 0 {
		return fmt.Errorf("FETCH_TIMEOUT must be positive")
	}

	if c.Fetch.Mode != FetchModeHTTP && c.Fetch.Mode != FetchModeBrowser {
		return fmt.Errorf("FETCH_MODE must be %q or %q, got %q", FetchModeHTTP, FetchModeBrowser, c.Fetch.Mode)
	}

	if c.Browser.ProxyServer != "" {
		if err := validateProxyURL(c.Browser.ProxyServer); err != nil {
			return fmt.Errorf("BROWSER_PROXY: %w", err)
		}
	}

	if strings.TrimSpace(c.Output.Path) == "" {
		return fmt.Errorf("OUTPUT_PATH cannot be empty")
	}

	if c.Database.Enabled && c.Database.MaxConns < 1 {
		return fmt.Errorf("DB_MAX_CONNS must be at least 1")
	}

	if err := logger.ValidateFormat(c.Logging.Format); err != nil {
		return fmt.Errorf("LOG_FORMAT: %w", err)
	}

	return nil
}

func validateHTTPURL(raw string) error {
	u, err := url.Parse(strings.ReplaceAll(raw, "%d", "1"))
	if err != nil {
		return fmt.Errorf("invalid url %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url %q must use http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("url %q has no host", raw)
	}
	return nil
}

func validateProxyURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url %q: %w", raw, err)
	}
	switch u.Scheme {
	case "http", "https", "socks5":
	default:
		return fmt.Errorf("proxy %q must use http, https or socks5", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("proxy %q has no host", raw)
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
