package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"leads/internal/etl/sources"
)

// Config holds all configuration values.
type Config struct {
	// Directory API
	ODSURL           string
	PageSize         int
	PagePause        time.Duration
	RequestTimeout   time.Duration
	MaxRetries       int
	RetryWait        time.Duration
	RetryMaxWait     time.Duration
	AlwaysSendOffset bool

	// Export
	OutputDir string

	// Scheduling / metrics (watch mode)
	Schedule    string
	MetricsAddr string

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// Load reads configuration from environment variables, after merging an
// optional .env file from the working directory.
func Load() Config {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv reads configuration from the process environment only.
func FromEnv() Config {
	return Config{
		ODSURL:           getEnv("LEADS_ODS_URL", sources.DefaultODSURL),
		PageSize:         getInt("LEADS_PAGE_SIZE", 100),
		PagePause:        getDuration("LEADS_PAGE_PAUSE", 200*time.Millisecond),
		RequestTimeout:   getDuration("LEADS_REQUEST_TIMEOUT", 30*time.Second),
		MaxRetries:       getInt("LEADS_MAX_RETRIES", 2),
		RetryWait:        getDuration("LEADS_RETRY_WAIT", 500*time.Millisecond),
		RetryMaxWait:     getDuration("LEADS_RETRY_MAX_WAIT", 5*time.Second),
		AlwaysSendOffset: getEnv("LEADS_ALWAYS_SEND_OFFSET", "false") == "true",

		OutputDir: getEnv("LEADS_OUTPUT_DIR", "."),

		Schedule:    getEnv("LEADS_SCHEDULE", "@daily"),
		MetricsAddr: getEnv("LEADS_METRICS_ADDR", ""),

		LogFile:  getEnv("LEADS_LOG_FILE", "leads.log"),
		LogLevel: parseLogLevel(getEnv("LEADS_LOG_LEVEL", "INFO")),
	}
}

// ODS returns the harvester settings.
func (c Config) ODS() sources.ODSConfig {
	return sources.ODSConfig{
		BaseURL:          c.ODSURL,
		Timeout:          c.RequestTimeout,
		PagePause:        c.PagePause,
		MaxRetries:       c.MaxRetries,
		RetryWait:        c.RetryWait,
		RetryMaxWait:     c.RetryMaxWait,
		AlwaysSendOffset: c.AlwaysSendOffset,
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// getInt falls back to defaultVal for unparsable or negative values.
func getInt(key string, defaultVal int) int {
	n, err := strconv.Atoi(getEnv(key, ""))
	if err != nil || n < 0 {
		return defaultVal
	}
	return n
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, ""))
	if err != nil || d < 0 {
		return defaultVal
	}
	return d
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
