package config

import (
	"fmt"
	"strings"
)

// LoggingConfig defines the log level of the service loggers.
type LoggingConfig struct {
	// Level is one of debug, info, warn or error.
	Level string `json:"level"`
}

// SetDefaults applies sane defaults.
func (c *LoggingConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
}

// Validate checks mandatory fields.
func (c LoggingConfig) Validate() error {
	switch strings.ToLower(c.Level) {
	case "debug", "info", "warn", "error":
		return nil
	}
	return fmt.Errorf("unknown level %s", c.Level)
}
