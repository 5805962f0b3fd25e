package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jacobreesgit/musicmemory/internal/constants"
)

// Config holds all application configuration
type Config struct {
	Port           string
	DBPath         string
	LibraryDir     string
	ArtworkDir     string
	LogLevel       string
	LogFormat      string
	PollInterval   time.Duration
	ChartCacheTTL  time.Duration
	SessionIdleGap time.Duration
	MaxRangeDays   int
}

// Load loads configuration from environment variables with defaults
func Load() *Config {
	home, _ := os.UserHomeDir()
	defaultLibrary := filepath.Join(home, constants.DefaultLibraryDir)

	return &Config{
		Port:           getEnv("PORT", constants.DefaultPort),
		DBPath:         getEnv("DB_PATH", constants.DefaultDBPath),
		LibraryDir:     getEnv("LIBRARY_DIR", defaultLibrary),
		ArtworkDir:     getEnv("ARTWORK_DIR", constants.DefaultArtworkDir),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "text"),
		PollInterval:   getDurationEnv("POLL_INTERVAL", constants.DefaultPollInterval),
		ChartCacheTTL:  getDurationEnv("CHART_CACHE_TTL", constants.DefaultChartCacheTTL),
		SessionIdleGap: getDurationEnv("SESSION_IDLE_GAP", constants.DefaultSessionIdleGap),
		MaxRangeDays:   getIntEnv("MAX_RANGE_DAYS", constants.DefaultMaxRangeDays),
	}
}

// Validate validates the configuration and returns detailed errors
func (c *Config) Validate() error {
	var errors []string

	// Validate Port
	if c.Port == "" {
		errors = append(errors, "PORT cannot be empty")
	} else {
		port, err := strconv.Atoi(c.Port)
		if err != nil {
			errors = append(errors, fmt.Sprintf("PORT must be a valid number, got: %s", c.Port))
		} else if port < 1 || port > 65535 {
			errors = append(errors, fmt.Sprintf("PORT must be between 1 and 65535, got: %d", port))
		}
	}

	// Validate DBPath
	if c.DBPath == "" {
		errors = append(errors, "DB_PATH cannot be empty")
	}

	// Validate LibraryDir
	if c.LibraryDir == "" {
		errors = append(errors, "LIBRARY_DIR cannot be empty")
	}

	// Validate ArtworkDir
	if c.ArtworkDir == "" {
		errors = append(errors, "ARTWORK_DIR cannot be empty")
	}

	// Validate LogLevel
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		errors = append(errors, fmt.Sprintf("LOG_LEVEL must be one of: debug, info, warn, error, got: %s", c.LogLevel))
	}

	// Validate LogFormat
	validLogFormats := map[string]bool{
		"text": true,
		"json": true,
	}
	if !validLogFormats[c.LogFormat] {
		errors = append(errors, fmt.Sprintf("LOG_FORMAT must be one of: text, json, got: %s", c.LogFormat))
	}

	// Validate intervals
	if c.PollInterval <= 0 {
		errors = append(errors, fmt.Sprintf("POLL_INTERVAL must be positive, got: %s", c.PollInterval))
	}
	if c.ChartCacheTTL <= 0 {
		errors = append(errors, fmt.Sprintf("CHART_CACHE_TTL must be positive, got: %s", c.ChartCacheTTL))
	}
	if c.SessionIdleGap <= 0 {
		errors = append(errors, fmt.Sprintf("SESSION_IDLE_GAP must be positive, got: %s", c.SessionIdleGap))
	}

	// Validate MaxRangeDays
	if c.MaxRangeDays < 1 {
		errors = append(errors, fmt.Sprintf("MAX_RANGE_DAYS must be at least 1, got: %d", c.MaxRangeDays))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

// getEnv retrieves an environment variable with a fallback default
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// getDurationEnv retrieves a duration environment variable with a fallback default
func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

// getIntEnv retrieves an integer environment variable with a fallback default
func getIntEnv(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}
