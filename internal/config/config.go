package config

import (
	"os"
	"path/filepath"
	"strconv"
)

// Config holds all application configuration
type Config struct {
	SaveRoot         string // directory holding payload files and the Metadata/ subdir
	HistoryPath      string // sqlite operation-history database, empty disables history
	AutoSaveEnabled  bool
	AutoSaveInterval int    // seconds, minimum 30
	AutoSaveSchedule string // optional cron expression, overrides the interval when set
	WatchSaveDir     bool   // watch the save root for external writes
	Environment      string
}

// Load loads configuration from environment variables with defaults
func Load() *Config {
	return &Config{
		SaveRoot:         getEnv("SAVE_ROOT", defaultSaveRoot()),
		HistoryPath:      getEnv("HISTORY_DB", ""),
		AutoSaveEnabled:  getBoolEnv("AUTOSAVE_ENABLED", false),
		AutoSaveInterval: getIntEnv("AUTOSAVE_INTERVAL_SECONDS", 300),
		AutoSaveSchedule: getEnv("AUTOSAVE_SCHEDULE", ""),
		WatchSaveDir:     getBoolEnv("WATCH_SAVE_DIR", false),
		Environment:      getEnv("ENVIRONMENT", "development"),
	}
}

// defaultSaveRoot resolves the per-user application-data Saves location,
// falling back to ./Saves when no user config dir is available.
func defaultSaveRoot() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return "Saves"
	}
	return filepath.Join(base, "savevault", "Saves")
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
