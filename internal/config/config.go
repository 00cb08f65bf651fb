// Package config contains everything related to configuration
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/cogniac/cogstats/internal/cogniac"
)

// Config holds the application configuration. Immutable after Load.
type Config struct {
	URLPrefix       string
	Username        string
	Password        string
	APIKey          string
	Timeout         time.Duration
	HistoryPath     string
	RefreshInterval time.Duration
	AlertThreshold  int64

	// EnvFile is the .env file that was loaded, if any. Watch mode
	// monitors it for edits.
	EnvFile string
}

// Default values
const (
	defaultURLPrefix       = "https://api.cogniac.io"
	defaultTimeout         = 60 * time.Second
	defaultRefreshInterval = 30 * time.Second
)

// Load reads configuration from .env files and environment variables.
// Credentials are not validated here; the connection factory reports
// authentication failures when they are actually used.
func Load() (*Config, error) {
	var envFile string
	for _, path := range getEnvPaths() {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			envFile = path
			break
		}
	}

	cfg := &Config{
		URLPrefix:       getEnvString("COG_URL_PREFIX", defaultURLPrefix),
		Username:        os.Getenv("COG_USER"),
		Password:        os.Getenv("COG_PASS"),
		APIKey:          os.Getenv("COG_API_KEY"),
		Timeout:         getEnvDuration("COG_TIMEOUT", defaultTimeout),
		HistoryPath:     getEnvString("COGSTATS_HISTORY_PATH", getDefaultHistoryPath()),
		RefreshInterval: getEnvDuration("COGSTATS_REFRESH_INTERVAL", defaultRefreshInterval),
		AlertThreshold:  getEnvInt64("COGSTATS_ALERT_THRESHOLD", 0),
		EnvFile:         envFile,
	}

	if err := ensureDir(filepath.Dir(cfg.HistoryPath)); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Credentials returns the credential material for the connection factory.
func (c *Config) Credentials() cogniac.Credentials {
	return cogniac.Credentials{
		Username: c.Username,
		Password: c.Password,
		APIKey:   c.APIKey,
	}
}

// getEnvPaths returns a list of paths to check for .env files.
func getEnvPaths() []string {
	var paths []string

	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".config", "cogniac", "cogstats", ".env"),
			filepath.Join(home, ".config", "cogniac", ".env"),
			filepath.Join(home, ".cogniac", ".env"),
		)
	}

	return paths
}

// getDefaultHistoryPath returns the default path for the snapshot database.
func getDefaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "history.db"
	}
	return filepath.Join(home, ".config", "cogniac", "cogstats", "history.db")
}

// getEnvString retrieves a string environment variable or returns the default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvDuration retrieves a duration environment variable or returns the default.
// Accepts values like "30s", "1m", "500ms", or a bare number of seconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}

// getEnvInt64 retrieves an integer environment variable or returns the default.
func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
	}
	return defaultValue
}

// ensureDir creates a directory and all parent directories if they don't exist.
func ensureDir(path string) error {
	if path == "" || path == "." {
		return nil
	}
	return os.MkdirAll(path, 0o750)
}
