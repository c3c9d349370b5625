// Package logger provides structured logging configuration.
// Every component receives a *slog.Logger; output is rendered by charmbracelet/log.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	charmlog "github.com/charmbracelet/log"
)

// EnvLevel is the environment variable consulted by DefaultConfig.
const EnvLevel = "MUSICAPP_LOG_LEVEL"

// Config holds logger configuration.
type Config struct {
	Level  slog.Level
	Format string // "text", "logfmt" or "json"
	Output io.Writer
}

// NewLogger creates a configured slog.Logger backed by a charm log handler.
func NewLogger(cfg Config) *slog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	handler := charmlog.NewWithOptions(out, charmlog.Options{
		Level:           charmlog.Level(cfg.Level),
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
		ReportCaller:    cfg.Level <= slog.LevelDebug,
		Formatter:       formatter(cfg.Format),
	})

	return slog.New(handler)
}

func formatter(format string) charmlog.Formatter {
	switch strings.ToLower(format) {
	case "json":
		return charmlog.JSONFormatter
	case "logfmt":
		return charmlog.LogfmtFormatter
	default:
		return charmlog.TextFormatter
	}
}

// ParseLevel maps DEBUG, INFO, WARN/WARNING and ERROR (any case) to a slog level.
// Unknown values yield fallback.
func ParseLevel(s string, fallback slog.Level) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return fallback
	}
}

// DefaultConfig returns the default logger configuration.
// MUSICAPP_LOG_LEVEL overrides the INFO default.
func DefaultConfig() Config {
	return Config{
		Level:  ParseLevel(os.Getenv(EnvLevel), slog.LevelInfo),
		Format: "text",
	}
}
