package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

var zlog zerolog.Logger

// Init initializes the structured zerolog logger
func Init(env string) {
	var w io.Writer

	if env == "development" || env == "dev" || env == "local" {
		// Pretty console output for development
		w = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	} else {
		// JSON output for production (machine-readable)
		w = os.Stdout
	}

	zlog = zerolog.New(w).With().
		Timestamp().
		Str("service", "pagecraft-backend").
		Logger()

	zerolog.TimeFieldFormat = time.RFC3339
}

// Get returns the global zerolog logger
func Get() *zerolog.Logger {
	return &zlog
}

// Infof logs a formatted info message
func Infof(format string, args ...interface{}) {
	zlog.Info().Msgf(format, args...)
}

// Errorf logs a formatted error message
func Errorf(format string, args ...interface{}) {
	zlog.Error().Msgf(format, args...)
}

// Fatalf logs a formatted message and exits
func Fatalf(format string, args ...interface{}) {
	zlog.Fatal().Msgf(format, args...)
}

// WithRequestID returns a logger with request_id field
func WithRequestID(requestID string) zerolog.Logger {
	return zlog.With().Str("request_id", requestID).Logger()
}
