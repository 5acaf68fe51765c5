package config

import (
	"fmt"
	"strings"
)

// Config represents the application configuration
type Config struct {
	Settings SettingsConfig `mapstructure:"settings" yaml:"settings"`
	Events   EventsConfig   `mapstructure:"events" yaml:"events"`
	Spool    SpoolConfig    `mapstructure:"spool" yaml:"spool"`
	Logging  LoggingConfig  `mapstructure:"logging" yaml:"logging"`
	Journal  JournalConfig  `mapstructure:"journal" yaml:"journal"`
}

// SettingsConfig locates the host's global settings file
type SettingsConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// EventsConfig selects which published messages are auto-mode events
type EventsConfig struct {
	Topic string `mapstructure:"topic" yaml:"topic"`
}

// SpoolConfig is the directory watched by serve for event files
type SpoolConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`
	Format     string `mapstructure:"format" yaml:"format"` // json or console
	File       string `mapstructure:"file" yaml:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxAgeDays int    `mapstructure:"max_age_days" yaml:"max_age_days"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
}

// JournalConfig controls the append-only dispatch journal
type JournalConfig struct {
	File   string `mapstructure:"file" yaml:"file"`
	Format string `mapstructure:"format" yaml:"format"` // json or text
}

// Validate checks the enumerated settings
func (c *Config) Validate() error {
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console", "text":
	default:
		return fmt.Errorf("invalid logging.format %q; must be json or console", c.Logging.Format)
	}

	switch c.Journal.Format {
	case "json", "text":
	default:
		return fmt.Errorf("invalid journal.format %q; must be json or text", c.Journal.Format)
	}

	if strings.TrimSpace(c.Settings.Path) == "" {
		return fmt.Errorf("settings.path cannot be empty")
	}

	return nil
}
