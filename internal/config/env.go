package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables read by the server.
const (
	EnvAddr     = "TYPEDRILL_ADDR"
	EnvDBPath   = "TYPEDRILL_DB"
	EnvLogLevel = "LOG_LEVEL"
)

// LoadDotEnv loads variables from a .env file when it exists. Variables already
// set in the environment win.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to stat env file: %w", err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// EnvString returns the trimmed value of key, or fallback when unset.
func EnvString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// LogLevel maps LOG_LEVEL to a slog level. Unknown values mean info.
func LogLevel() slog.Level {
	switch strings.ToLower(os.Getenv(EnvLogLevel)) {
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
