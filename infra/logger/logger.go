// Package logger provides the zerolog backed implementation of the core
// logger interface.
package logger

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	corelogger "github.com/kilianp07/assetsim/core/logger"
)

// Logger mirrors the core logger interface.
type Logger = corelogger.Logger

// NopLogger implements Logger with no-op methods.
type NopLogger = corelogger.Nop

// New returns a Logger for the given component. The environment is detected via
// the APP_ENV variable.
func New(component string) Logger {
	return NewZerologLogger(component)
}

// SetLevel sets the minimum level of every logger. An empty level keeps
// the current one.
func SetLevel(level string) error {
	if strings.TrimSpace(level) == "" {
		return nil
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return fmt.Errorf("log level %q: %w", level, err)
	}
	zerolog.SetGlobalLevel(lvl)
	return nil
}
