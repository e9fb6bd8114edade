// Package logging configures the process-wide structured logger.
//
// Logs are written to stderr as JSON. Every entry carries the module name and
// build version; debug level additionally records the source location.
//
//	logging.SetDefaultStructuredLogger("student-api", version, os.Getenv("LOG_LEVEL"))
//	slog.Info("table loaded", "students", n)
package logging

import (
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
)

// ParseLogLevel maps debug, info, warn/warning and error (any case) to a
// slog level. Anything else is info.
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

// NewStructuredLogger returns a JSON logger writing to stderr.
func NewStructuredLogger(module, version, level string) *slog.Logger {
	return newLogger(os.Stderr, module, version, ParseLogLevel(level))
}

func newLogger(w io.Writer, module, version string, lvl slog.Level) *slog.Logger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     lvl,
		AddSource: lvl <= slog.LevelDebug,
	})
	return slog.New(h).With(
		slog.String("module", module),
		slog.String("version", version),
	)
}

// SetDefaultStructuredLogger installs the logger as the slog default. The
// standard library log package is routed through it as well.
func SetDefaultStructuredLogger(module, version, level string) {
	SetDefaultStructuredLoggerWithOutput(os.Stderr, module, version, level)
}

// SetDefaultStructuredLoggerWithOutput is SetDefaultStructuredLogger writing
// to w.
func SetDefaultStructuredLoggerWithOutput(w io.Writer, module, version, level string) {
	slog.SetDefault(newLogger(w, module, version, ParseLogLevel(level)))
}

// NewLogLogger adapts the default slog handler to a *log.Logger, for
// libraries that only accept the standard logger.
func NewLogLogger(lvl slog.Level) *log.Logger {
	return slog.NewLogLogger(slog.Default().Handler(), lvl)
}
