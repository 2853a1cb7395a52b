package logging

import (
	"io"
	"os"
	"time"

	"github.com/natefinch/lumberjack"
	"github.com/niels/plank/pkg/config"
	"github.com/rs/zerolog"
)

var (
	// Global logger instance
	globalLogger zerolog.Logger
)

// InitGlobalLogger initializes the global logger from the descriptor's
// logging section. In debug mode the level drops to debug and logs are
// mirrored to stderr even when file logging is enabled.
func InitGlobalLogger(debug bool, cfg *config.Config) {
	var output io.Writer

	if cfg != nil && cfg.Logging.LogToFile {
		fileLogger := &lumberjack.Logger{
			Filename:   cfg.Logging.LogFilePath,
			MaxSize:    cfg.Logging.MaxSize, // megabytes
			MaxBackups: cfg.Logging.MaxBackups,
			MaxAge:     cfg.Logging.MaxAge, // days
			Compress:   cfg.Logging.Compress,
		}

		if debug {
			output = io.MultiWriter(fileLogger, os.Stderr)
		} else {
			output = fileLogger
		}
	} else {
		output = os.Stderr
	}

	globalLogger = NewLogger(debug, output)
}

// NewLogger creates a new zerolog logger writing to output at the
// level implied by the debug flag
func NewLogger(debug bool, output io.Writer) zerolog.Logger {
	if output == nil {
		output = os.Stderr
	}

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	return zerolog.New(output).
		With().
		Timestamp().
		Logger()
}

// Debug logs a message at debug level
func Debug(msg string) {
	globalLogger.Debug().Msg(msg)
}

// Info logs a message at info level
func Info(msg string) {
	globalLogger.Info().Msg(msg)
}

// Warn logs a message at warn level
func Warn(msg string) {
	globalLogger.Warn().Msg(msg)
}

// Error logs a message at error level
func Error(msg string) {
	globalLogger.Error().Msg(msg)
}

// GetLogger returns the global logger instance
func GetLogger() zerolog.Logger {
	return globalLogger
}

// WithComponent returns a logger with the component field set
func WithComponent(component string) zerolog.Logger {
	return globalLogger.With().Str("component", component).Logger()
}

// Access logs one structured line per served request
func Access(requestID, method, path, remoteAddr string, status int, duration time.Duration) {
	globalLogger.Info().
		Str("request_id", requestID).
		Str("method", method).
		Str("path", path).
		Str("remote", remoteAddr).
		Int("status", status).
		Dur("duration", duration).
		Msg("request served")
}
