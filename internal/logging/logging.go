// Package logging builds the process logger from configuration.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/leefowlercu/event-hooks/internal/config"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// ParseLevel converts a configured level name, defaulting to info
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// New creates a logger writing to stderr and, when cfg.File is set, to a
// rotated log file. The returned closer releases the file.
func New(cfg config.LoggingConfig) (zerolog.Logger, io.Closer, error) {
	return NewWithWriter(os.Stderr, cfg)
}

// NewWithWriter is New with an explicit console writer
func NewWithWriter(console io.Writer, cfg config.LoggingConfig) (zerolog.Logger, io.Closer, error) {
	var output io.Writer = console
	if strings.EqualFold(cfg.Format, "console") || strings.EqualFold(cfg.Format, "text") {
		output = zerolog.ConsoleWriter{
			Out:        console,
			TimeFormat: time.RFC3339,
		}
	}

	var closer io.Closer = nopCloser{}

	if cfg.File != "" {
		path, err := config.ExpandPath(cfg.File)
		if err != nil {
			return zerolog.Nop(), nil, err
		}

		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("failed to create log directory; %w", err)
		}

		fileWriter := &lumberjack.Logger{
			Filename:   path,
			MaxSize:    positiveOr(cfg.MaxSizeMB, 10),
			MaxAge:     positiveOr(cfg.MaxAgeDays, 7),
			MaxBackups: positiveOr(cfg.MaxBackups, 3),
			LocalTime:  true,
		}

		// The file always receives JSON regardless of the console format
		output = zerolog.MultiLevelWriter(output, fileWriter)
		closer = fileWriter
	}

	logger := zerolog.New(output).
		Level(ParseLevel(cfg.Level)).
		With().
		Timestamp().
		Logger()

	return logger, closer, nil
}

// Component returns a child logger tagged with the component name
func Component(logger zerolog.Logger, name string) zerolog.Logger {
	return logger.With().Str("component", name).Logger()
}

func positiveOr(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}
