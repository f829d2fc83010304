package config

import (
	"log/slog"
	"strings"
)

// LogFormat selects the log handler.
type LogFormat string

const (
	// LogFormatJSON writes one JSON object per record.
	LogFormatJSON LogFormat = "json"
	// LogFormatConsole writes colorized human-readable lines.
	LogFormatConsole LogFormat = "console"
)

// LogConfig controls structured logging.
type LogConfig struct {
	Format LogFormat `env:"LOG_FORMAT" envDefault:"json"`
	Level  string    `env:"LOG_LEVEL"  envDefault:"info"`
}

// Sanitize falls back to JSON for unknown formats.
func (l *LogConfig) Sanitize() {
	l.Format = LogFormat(strings.ToLower(strings.TrimSpace(string(l.Format))))
	if l.Format != LogFormatConsole {
		l.Format = LogFormatJSON
	}
}

// SlogLevel maps Level to a slog level, defaulting to info.
func (l *LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(l.Level)) {
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
