// Package log provides structured logging for the library via zerolog.
//
// Library code is silent by default: the log level is read from the
// GOOPLS_LOG_LEVEL environment variable and logging is disabled when the
// variable is unset. Error and warning types from pkg/errors implement
// zerolog.LogObjectMarshaler, so they can be attached to events with
// EmbedObject for structured output.
package log

import (
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/YuminosukeSato/goopls/pkg/errors"
)

// EnvLogLevel is the environment variable controlling the library log level.
// Recognized values: debug, info, warn, error, disabled.
const EnvLogLevel = "GOOPLS_LOG_LEVEL"

// NewLogger returns a zerolog.Logger for the given component, writing JSON
// to standard error at the level configured by GOOPLS_LOG_LEVEL.
func NewLogger(component string) zerolog.Logger {
	return zerolog.New(os.Stderr).
		Level(levelFromEnv()).
		With().
		Timestamp().
		Str("component", component).
		Logger()
}

func levelFromEnv() zerolog.Level {
	switch strings.ToLower(os.Getenv(EnvLogLevel)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.Disabled
	}
}

// RouteWarnings sends library warnings (pkg/errors.Warn) to the given
// zerolog logger as warn-level events instead of the default stderr handler.
func RouteWarnings(logger zerolog.Logger) {
	errors.SetZerologWarnFunc(func(warning error) {
		event := logger.Warn()
		if marshaler, ok := warning.(zerolog.LogObjectMarshaler); ok {
			event = event.EmbedObject(marshaler)
		}
		event.Msg(warning.Error())
	})
}
