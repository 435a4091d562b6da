package config

import (
	"fmt"
	"os"
)

// SentryConfig configures the reporting of entity and transport failures.
// Reporting is off while DSN is empty.
type SentryConfig struct {
	DSN string `json:"dsn"`
	// Environment defaults to APP_ENV, then "production".
	Environment      string  `json:"environment"`
	TracesSampleRate float64 `json:"traces_sample_rate"`
	Release          string  `json:"release"`
	// ServerName tags the events of one simulator instance.
	ServerName string `json:"server_name"`
}

func (c *SentryConfig) SetDefaults() {
	if c.Environment != "" {
		return
	}
	c.Environment = os.Getenv("APP_ENV")
	if c.Environment == "" {
		c.Environment = "production"
	}
}

// Validate rejects sample rates outside [0,1].
func (c SentryConfig) Validate() error {
	if c.TracesSampleRate < 0 || c.TracesSampleRate > 1 {
		return fmt.Errorf("traces_sample_rate %v outside [0,1]", c.TracesSampleRate)
	}
	return nil
}
