package config

import (
	"os"
	"path/filepath"

	"github.com/leefowlercu/event-hooks/internal/events"
)

// DefaultConfig provides default configuration values
var DefaultConfig = Config{
	Settings: SettingsConfig{
		Path: "~/.event-hooks/settings.json",
	},
	Events: EventsConfig{
		Topic: events.DefaultTopic,
	},
	Spool: SpoolConfig{
		Dir: "~/.event-hooks/spool",
	},
	Logging: LoggingConfig{
		Level:      "info",
		Format:     "json",
		File:       "", // Empty = stderr only, set path to also write a rotated file
		MaxSizeMB:  10,
		MaxAgeDays: 7,
		MaxBackups: 3,
	},
	Journal: JournalConfig{
		File:   "", // Empty disables the dispatch journal
		Format: "json",
	},
}

// GetDefaultConfigDir returns the default configuration directory
func GetDefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".event-hooks"
	}
	return filepath.Join(home, ".event-hooks")
}

// GetDefaultConfigPath returns the default configuration file path
func GetDefaultConfigPath() string {
	return filepath.Join(GetDefaultConfigDir(), "config.yaml")
}
